package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quest-server/shared/models"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func stubVerifier(claims *models.Claims, err error) TokenVerifier {
	return func(ctx context.Context, tokenString string) (*models.Claims, error) {
		if tokenString != "good" {
			return nil, models.ErrTokenInvalid
		}
		return claims, err
	}
}

func serve(mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, uint64) {
	e := echo.New()
	var seen uint64
	e.GET("/quests", func(c echo.Context) error {
		seen, _ = models.GetUserIDFromContext(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	}, mw)

	req := httptest.NewRequest(http.MethodGet, "/quests", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, seen
}

func TestAuthMiddleware(t *testing.T) {
	author := &models.Claims{UserID: 7, Roles: []string{models.RoleAuthor}}

	tests := []struct {
		name     string
		verifier TokenVerifier
		roles    []string
		header   string
		want     int
		wantUser uint64
	}{
		{name: "ok", verifier: stubVerifier(author, nil), header: "Bearer good", want: http.StatusNoContent, wantUser: 7},
		{name: "lowercase scheme", verifier: stubVerifier(author, nil), header: "bearer good", want: http.StatusNoContent, wantUser: 7},
		{name: "missing header", verifier: stubVerifier(author, nil), want: http.StatusUnauthorized},
		{name: "wrong scheme", verifier: stubVerifier(author, nil), header: "Basic good", want: http.StatusUnauthorized},
		{name: "invalid token", verifier: stubVerifier(author, nil), header: "Bearer bad", want: http.StatusUnauthorized},
		{name: "expired", verifier: stubVerifier(nil, models.ErrTokenExpired), header: "Bearer good", want: http.StatusUnauthorized},
		{name: "verifier failure", verifier: stubVerifier(nil, errors.New("boom")), header: "Bearer good", want: http.StatusInternalServerError},
		{name: "role granted", verifier: stubVerifier(author, nil), roles: []string{models.RoleAdmin, models.RoleAuthor}, header: "Bearer good", want: http.StatusNoContent, wantUser: 7},
		{name: "role missing", verifier: stubVerifier(author, nil), roles: []string{models.RoleAdmin}, header: "Bearer good", want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, user := serve(AuthMiddleware(tt.verifier, zap.NewNop(), tt.roles...), tt.header)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.wantUser, user)
		})
	}
}

func TestEchoZapLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	e := echo.New()
	e.Use(EchoZapLogger(zap.New(core), "/health"))
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/missing", func(c echo.Context) error { return c.NoContent(http.StatusNotFound) })

	for _, path := range []string{"/health", "/missing"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, zap.DebugLevel, entries[0].Level)
		assert.Equal(t, zap.WarnLevel, entries[1].Level)
		assert.Equal(t, "Client error", entries[1].Message)
	}
}
