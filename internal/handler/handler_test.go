package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"quest-server/internal/interpreter"
	"quest-server/internal/models"
	"quest-server/internal/service"
	"quest-server/internal/service/mocks"
	sharedModels "quest-server/shared/models"
	"quest-server/shared/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type handlerFixture struct {
	e      *echo.Echo
	quests *mocks.QuestService
	plays  *mocks.PlayService
}

func stubVerifier(_ context.Context, token string) (*sharedModels.Claims, error) {
	switch token {
	case "author":
		return &sharedModels.Claims{UserID: 7, Roles: []string{sharedModels.RoleAuthor}}, nil
	case "player":
		return &sharedModels.Claims{UserID: 8, Roles: []string{sharedModels.RoleUser}}, nil
	}
	return nil, sharedModels.ErrTokenInvalid
}

func newFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := &handlerFixture{
		e:      echo.New(),
		quests: new(mocks.QuestService),
		plays:  new(mocks.PlayService),
	}
	NewQuestHandler(f.quests, f.plays, stubVerifier, zap.NewNop()).RegisterRoutes(f.e)
	t.Cleanup(func() {
		f.quests.AssertExpectations(t)
		f.plays.AssertExpectations(t)
	})
	return f
}

func (f *handlerFixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestCompile(t *testing.T) {
	f := newFixture(t)
	f.quests.On("Compile", mock.Anything, "**start**").Return(&service.CompileResult{
		Title:  "Demo",
		Markup: "<quest/>",
		Report: "Compiled: 1 tag(s)",
		Valid:  true,
	}).Once()

	rec := f.do(http.MethodPost, "/quests/compile", `{"source":"**start**"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Demo", body["title"])
	assert.Equal(t, "<quest/>", body["xml"])
	assert.Equal(t, true, body["valid"])
}

func TestCompile_BadBody(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/quests/compile", `{"source":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid request body"}`, rec.Body.String())
}

func TestPublish(t *testing.T) {
	t.Run("requires token", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/quests", `{"source":"x"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("rejects invalid token", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/quests", `{"source":"x"}`, "garbage")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("requires author role", func(t *testing.T) {
		f := newFixture(t)
		rec := f.do(http.MethodPost, "/quests", `{"source":"x"}`, "player")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("created", func(t *testing.T) {
		f := newFixture(t)
		q := &models.Quest{ID: uuid.New(), AuthorID: 7, Title: "Demo"}
		f.quests.On("Publish", mock.Anything, uint64(7), "src").
			Return(q, &service.CompileResult{Report: "ok", Valid: true}, nil).Once()

		rec := f.do(http.MethodPost, "/quests", `{"source":"src"}`, "author")
		require.Equal(t, http.StatusCreated, rec.Code)

		resp := decode[publishResponse](t, rec)
		require.NotNil(t, resp.Quest)
		assert.Equal(t, q.ID, resp.Quest.ID)
		assert.Equal(t, "ok", resp.Report)
	})

	t.Run("invalid quest", func(t *testing.T) {
		f := newFixture(t)
		f.quests.On("Publish", mock.Anything, uint64(7), "src").
			Return(nil, &service.CompileResult{Report: "Errors: 1", ValidationError: "quest has no start"}, service.ErrQuestInvalid).Once()

		rec := f.do(http.MethodPost, "/quests", `{"source":"src"}`, "author")
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		apiErr := decode[APIError](t, rec)
		assert.Contains(t, apiErr.Message, "quest has no start")
		assert.Equal(t, "Errors: 1", apiErr.Report)
	})

	t.Run("empty source", func(t *testing.T) {
		f := newFixture(t)
		f.quests.On("Publish", mock.Anything, uint64(7), "").
			Return(nil, nil, service.ErrEmptySource).Once()

		rec := f.do(http.MethodPost, "/quests", `{"source":""}`, "author")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListQuests(t *testing.T) {
	f := newFixture(t)
	items := []models.QuestSummary{{ID: uuid.New(), Title: "A"}}
	f.quests.On("List", mock.Anything, "", 5).Return(items, "next", nil).Once()
	f.quests.On("List", mock.Anything, "bogus", 0).Return(nil, "", utils.ErrInvalidCursor).Once()

	rec := f.do(http.MethodGet, "/quests?limit=5", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[listQuestsResponse](t, rec)
	assert.Len(t, resp.Quests, 1)
	assert.Equal(t, "next", resp.NextCursor)

	rec = f.do(http.MethodGet, "/quests?cursor=bogus", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/quests?limit=-1", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuest(t *testing.T) {
	f := newFixture(t)
	id := uuid.New()
	f.quests.On("Get", mock.Anything, id).Return(nil, sharedModels.ErrNotFound).Once()

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/quests/"+id.String(), "", "").Code)
}

func TestInvalidIDStopsHandler(t *testing.T) {
	routes := []struct {
		method, path, body string
	}{
		{http.MethodGet, "/quests/not-a-uuid", ""},
		{http.MethodPost, "/quests/not-a-uuid/playthroughs", ""},
		{http.MethodGet, "/playthroughs/not-a-uuid", ""},
		{http.MethodPost, "/playthroughs/not-a-uuid/choice", `{"index":0}`},
		{http.MethodPost, "/playthroughs/not-a-uuid/event", `{"event":"win"}`},
		{http.MethodDelete, "/playthroughs/not-a-uuid", ""},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			// Моки без ожиданий: любой вызов сервиса провалит тест
			f := newFixture(t)
			rec := f.do(r.method, r.path, r.body, "")

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"message":"Invalid id"}`, rec.Body.String())
		})
	}
}

func TestCompile_TooLarge(t *testing.T) {
	f := newFixture(t)
	body, err := json.Marshal(compileRequest{Source: strings.Repeat("a", maxSourceBytes+1)})
	require.NoError(t, err)

	rec := f.do(http.MethodPost, "/quests/compile", string(body), "")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"message":"Quest source is too large"}`, rec.Body.String())
}

func TestPlaythroughRoutes(t *testing.T) {
	questID := uuid.New()
	playID := uuid.New()
	view := &service.PlayView{
		ID:      playID,
		QuestID: questID,
		Card: &interpreter.Card{
			Kind: interpreter.CardRoleplay,
			Roleplay: &interpreter.RoleplayResult{
				Title: "Start",
				Body:  "<p>Hello</p>",
			},
		},
	}

	t.Run("start", func(t *testing.T) {
		f := newFixture(t)
		f.plays.On("Start", mock.Anything, questID).Return(view, nil).Once()

		rec := f.do(http.MethodPost, "/quests/"+questID.String()+"/playthroughs", "", "")
		require.Equal(t, http.StatusCreated, rec.Code)
		got := decode[service.PlayView](t, rec)
		assert.Equal(t, playID, got.ID)
		require.NotNil(t, got.Card)
		assert.Equal(t, interpreter.CardRoleplay, got.Card.Kind)
		assert.Equal(t, "Start", got.Card.Roleplay.Title)
	})

	t.Run("start broken quest", func(t *testing.T) {
		f := newFixture(t)
		f.plays.On("Start", mock.Anything, questID).Return(nil, service.ErrQuestBroken).Once()

		rec := f.do(http.MethodPost, "/quests/"+questID.String()+"/playthroughs", "", "")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("get", func(t *testing.T) {
		f := newFixture(t)
		f.plays.On("Get", mock.Anything, playID).Return(view, nil).Once()

		rec := f.do(http.MethodGet, "/playthroughs/"+playID.String(), "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("choose", func(t *testing.T) {
		f := newFixture(t)
		path := "/playthroughs/" + playID.String() + "/choice"
		f.plays.On("Choose", mock.Anything, playID, 0).Return(view, nil).Once()
		f.plays.On("Choose", mock.Anything, playID, 3).Return(nil, service.ErrInvalidMove).Once()
		f.plays.On("Choose", mock.Anything, playID, 1).Return(nil, service.ErrPlaythroughFinished).Once()

		assert.Equal(t, http.StatusOK, f.do(http.MethodPost, path, `{"index":0}`, "").Code)
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, path, `{"index":3}`, "").Code)
		assert.Equal(t, http.StatusConflict, f.do(http.MethodPost, path, `{"index":1}`, "").Code)
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, path, `{}`, "").Code)
	})

	t.Run("fire", func(t *testing.T) {
		f := newFixture(t)
		path := "/playthroughs/" + playID.String() + "/event"
		f.plays.On("Fire", mock.Anything, playID, "win").Return(view, nil).Once()

		assert.Equal(t, http.StatusOK, f.do(http.MethodPost, path, `{"event":" win "}`, "").Code)
		assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, path, `{"event":"  "}`, "").Code)
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture(t)
		f.plays.On("Delete", mock.Anything, playID).Return(nil).Once()
		f.plays.On("Delete", mock.Anything, questID).Return(sharedModels.ErrNotFound).Once()

		assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/playthroughs/"+playID.String(), "", "").Code)
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/playthroughs/"+questID.String(), "", "").Code)
	})
}
