package mocks

import (
	"context"
	"time"

	"quest-server/internal/models"
	"quest-server/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

var (
	_ repository.QuestRepository  = (*QuestRepository)(nil)
	_ repository.PlaythroughStore = (*PlaythroughStore)(nil)
)

// QuestRepository is a mock of repository.QuestRepository.
type QuestRepository struct {
	mock.Mock
}

func (m *QuestRepository) Create(ctx context.Context, quest *models.Quest) error {
	args := m.Called(ctx, quest)
	return args.Error(0)
}

func (m *QuestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	args := m.Called(ctx, id)
	if q := args.Get(0); q != nil {
		return q.(*models.Quest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuestRepository) List(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]models.QuestSummary, error) {
	args := m.Called(ctx, afterCreatedAt, afterID, limit)
	if q := args.Get(0); q != nil {
		return q.([]models.QuestSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

// PlaythroughStore is a mock of repository.PlaythroughStore.
type PlaythroughStore struct {
	mock.Mock
}

func (m *PlaythroughStore) Save(ctx context.Context, p *models.Playthrough) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *PlaythroughStore) Get(ctx context.Context, id uuid.UUID) (*models.Playthrough, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.Playthrough), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PlaythroughStore) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
