package repository

import (
	"context"
	"time"

	"quest-server/internal/models"

	"github.com/google/uuid"
)

// QuestRepository хранит опубликованные квесты.
type QuestRepository interface {
	Create(ctx context.Context, quest *models.Quest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quest, error)
	// List возвращает квесты от новых к старым, начиная после курсора
	// (createdAt, id). Нулевой курсор означает начало списка.
	List(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]models.QuestSummary, error)
}

// PlaythroughStore хранит состояние прохождений.
type PlaythroughStore interface {
	Save(ctx context.Context, p *models.Playthrough) error
	Get(ctx context.Context, id uuid.UUID) (*models.Playthrough, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
