package handler

import (
	"quest-server/internal/models"
)

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
	Report  string `json:"report,omitempty"`
}

type compileRequest struct {
	Source string `json:"source"`
}

type publishResponse struct {
	Quest  *models.Quest `json:"quest"`
	Report string        `json:"report"`
}

type listQuestsResponse struct {
	Quests     []models.QuestSummary `json:"quests"`
	NextCursor string                `json:"nextCursor,omitempty"`
}

type choiceRequest struct {
	Index *int `json:"index"`
}

type eventRequest struct {
	Event string `json:"event"`
}
