package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quest-server/internal/service"
	sharedMiddleware "quest-server/shared/middleware"
	sharedModels "quest-server/shared/models"
	"quest-server/shared/utils"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const maxSourceBytes = 1 << 20

// QuestHandler обрабатывает HTTP запросы quest-server.
type QuestHandler struct {
	quests   service.QuestService
	plays    service.PlayService
	verifier sharedMiddleware.TokenVerifier
	logger   *zap.Logger
}

func NewQuestHandler(quests service.QuestService, plays service.PlayService, verifier sharedMiddleware.TokenVerifier, logger *zap.Logger) *QuestHandler {
	return &QuestHandler{
		quests:   quests,
		plays:    plays,
		verifier: verifier,
		logger:   logger.Named("QuestHandler"),
	}
}

// RegisterRoutes регистрирует маршруты.
func (h *QuestHandler) RegisterRoutes(e *echo.Echo) {
	authorOnly := sharedMiddleware.AuthMiddleware(h.verifier, h.logger, sharedModels.RoleAuthor, sharedModels.RoleAdmin)

	e.GET("/health", h.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	quests := e.Group("/quests")
	{
		quests.POST("/compile", h.compile)
		quests.POST("", h.publish, authorOnly)
		quests.GET("", h.listQuests)
		quests.GET("/:id", h.getQuest)
		quests.POST("/:id/playthroughs", h.startPlaythrough)
	}

	plays := e.Group("/playthroughs")
	{
		plays.GET("/:id", h.getPlaythrough)
		plays.POST("/:id/choice", h.choose)
		plays.POST("/:id/event", h.fire)
		plays.DELETE("/:id", h.deletePlaythrough)
	}
}

func (h *QuestHandler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func handleServiceError(c echo.Context, err error) error {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, sharedModels.ErrNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: "Resource not found"}
	case errors.Is(err, sharedModels.ErrUnauthorized):
		statusCode = http.StatusUnauthorized
		apiErr = APIError{Message: "Unauthorized"}
	case errors.Is(err, service.ErrEmptySource),
		errors.Is(err, service.ErrInvalidMove),
		errors.Is(err, utils.ErrInvalidCursor):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, service.ErrPlaythroughFinished):
		statusCode = http.StatusConflict
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, service.ErrQuestInvalid), errors.Is(err, service.ErrQuestBroken):
		statusCode = http.StatusUnprocessableEntity
		apiErr = APIError{Message: err.Error()}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}
	return c.JSON(statusCode, apiErr)
}

// parseID и bindSource возвращают *echo.HTTPError, который хендлер
// отдает как есть: ответ пишет HTTPErrorHandler echo.
func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, APIError{Message: "Invalid id"})
	}
	return id, nil
}

func bindSource(c echo.Context) (string, error) {
	var req compileRequest
	if err := c.Bind(&req); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, APIError{Message: "Invalid request body"})
	}
	if len(req.Source) > maxSourceBytes {
		return "", echo.NewHTTPError(http.StatusRequestEntityTooLarge, APIError{Message: "Quest source is too large"})
	}
	return req.Source, nil
}

func (h *QuestHandler) compile(c echo.Context) error {
	source, err := bindSource(c)
	if err != nil {
		return err
	}

	start := time.Now()
	res := h.quests.Compile(c.Request().Context(), source)
	compileDuration.Observe(time.Since(start).Seconds())
	if res.Valid {
		compilationsTotal.WithLabelValues("valid").Inc()
	} else {
		compilationsTotal.WithLabelValues("invalid").Inc()
	}
	return c.JSON(http.StatusOK, res)
}

func (h *QuestHandler) publish(c echo.Context) error {
	authorID, ok := sharedModels.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return handleServiceError(c, sharedModels.ErrUnauthorized)
	}
	source, err := bindSource(c)
	if err != nil {
		return err
	}

	q, res, err := h.quests.Publish(c.Request().Context(), authorID, source)
	if err != nil {
		if errors.Is(err, service.ErrQuestInvalid) && res != nil {
			compilationsTotal.WithLabelValues("invalid").Inc()
			msg := err.Error()
			if res.ValidationError != "" {
				msg += ": " + res.ValidationError
			}
			return c.JSON(http.StatusUnprocessableEntity, APIError{Message: msg, Report: res.Report})
		}
		if !errors.Is(err, service.ErrEmptySource) {
			h.logger.Error("Failed to publish quest", zap.Uint64("authorID", authorID), zap.Error(err))
		}
		return handleServiceError(c, err)
	}

	compilationsTotal.WithLabelValues("valid").Inc()
	questsPublishedTotal.Inc()
	return c.JSON(http.StatusCreated, publishResponse{Quest: q, Report: res.Report})
}

func (h *QuestHandler) listQuests(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			return c.JSON(http.StatusBadRequest, APIError{Message: "Invalid limit"})
		}
		limit = v
	}

	quests, next, err := h.quests.List(c.Request().Context(), c.QueryParam("cursor"), limit)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, listQuestsResponse{Quests: quests, NextCursor: next})
}

func (h *QuestHandler) getQuest(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	q, err := h.quests.Get(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *QuestHandler) startPlaythrough(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	view, err := h.plays.Start(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}
	playthroughsStartedTotal.Inc()
	return c.JSON(http.StatusCreated, view)
}

func (h *QuestHandler) getPlaythrough(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	view, err := h.plays.Get(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *QuestHandler) choose(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req choiceRequest
	if err := c.Bind(&req); err != nil || req.Index == nil {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Request body must contain an index"})
	}

	view, err := h.plays.Choose(c.Request().Context(), id, *req.Index)
	return h.moveResult(c, "choice", view, err)
}

func (h *QuestHandler) fire(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req eventRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Event) == "" {
		return c.JSON(http.StatusBadRequest, APIError{Message: "Request body must contain an event"})
	}

	view, err := h.plays.Fire(c.Request().Context(), id, strings.TrimSpace(req.Event))
	return h.moveResult(c, "event", view, err)
}

func (h *QuestHandler) moveResult(c echo.Context, kind string, view *service.PlayView, err error) error {
	switch {
	case err == nil:
		playthroughMovesTotal.WithLabelValues(kind, "ok").Inc()
		return c.JSON(http.StatusOK, view)
	case errors.Is(err, service.ErrInvalidMove), errors.Is(err, service.ErrPlaythroughFinished):
		playthroughMovesTotal.WithLabelValues(kind, "rejected").Inc()
	default:
		playthroughMovesTotal.WithLabelValues(kind, "error").Inc()
	}
	return handleServiceError(c, err)
}

func (h *QuestHandler) deletePlaythrough(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.plays.Delete(c.Request().Context(), id); err != nil {
		return handleServiceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
