package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"quest-server/shared/models"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TokenVerifier проверяет строку токена и возвращает claims.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// AuthMiddleware проверяет Bearer JWT и, если заданы requiredRoles, наличие
// хотя бы одной из них. UserID и роли кладутся в контекст запроса.
func AuthMiddleware(verifier TokenVerifier, logger *zap.Logger, requiredRoles ...string) echo.MiddlewareFunc {
	logger = logger.Named("AuthMiddleware")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			log := logger.With(zap.String("path", req.URL.Path))

			tokenString, ok := bearerToken(req.Header.Get(echo.HeaderAuthorization))
			if !ok {
				log.Warn("Missing or malformed Authorization header")
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Missing token"})
			}

			claims, err := verifier(req.Context(), tokenString)
			if err != nil {
				switch {
				case errors.Is(err, models.ErrTokenExpired):
					return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Token expired"})
				case errors.Is(err, models.ErrTokenMalformed), errors.Is(err, models.ErrTokenInvalid):
					return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "Unauthorized: Invalid token"})
				}
				log.Error("Unexpected token verification error", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error during token verification"})
			}

			if len(requiredRoles) > 0 && !models.HasRole(claims.Roles, requiredRoles...) {
				log.Warn("User does not have required role",
					zap.Uint64("userID", claims.UserID),
					zap.Strings("userRoles", claims.Roles),
					zap.Strings("requiredRoles", requiredRoles),
				)
				return c.JSON(http.StatusForbidden, models.ErrorResponse{Error: "Forbidden: Insufficient permissions"})
			}

			c.SetRequest(req.WithContext(models.WithUser(req.Context(), claims.UserID, claims.Roles)))
			return next(c)
		}
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
