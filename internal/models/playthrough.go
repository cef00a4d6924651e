package models

import (
	"time"

	"quest-server/internal/interpreter"

	"github.com/google/uuid"
)

// Playthrough - одно прохождение квеста игроком. Хранится в Redis с TTL.
type Playthrough struct {
	ID        uuid.UUID         `json:"id"`
	QuestID   uuid.UUID         `json:"questId"`
	State     interpreter.State `json:"state"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}
