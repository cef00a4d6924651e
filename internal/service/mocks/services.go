package mocks

import (
	"context"

	"quest-server/internal/models"
	"quest-server/internal/quest"
	"quest-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

var (
	_ service.QuestService = (*QuestService)(nil)
	_ service.PlayService  = (*PlayService)(nil)
)

// QuestService is a mock of service.QuestService.
type QuestService struct {
	mock.Mock
}

func (m *QuestService) Compile(ctx context.Context, source string) *service.CompileResult {
	args := m.Called(ctx, source)
	if r := args.Get(0); r != nil {
		return r.(*service.CompileResult)
	}
	return nil
}

func (m *QuestService) Publish(ctx context.Context, authorID uint64, source string) (*models.Quest, *service.CompileResult, error) {
	args := m.Called(ctx, authorID, source)
	var (
		q   *models.Quest
		res *service.CompileResult
	)
	if v := args.Get(0); v != nil {
		q = v.(*models.Quest)
	}
	if v := args.Get(1); v != nil {
		res = v.(*service.CompileResult)
	}
	return q, res, args.Error(2)
}

func (m *QuestService) Get(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Quest), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *QuestService) List(ctx context.Context, cursor string, limit int) ([]models.QuestSummary, string, error) {
	args := m.Called(ctx, cursor, limit)
	if v := args.Get(0); v != nil {
		return v.([]models.QuestSummary), args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}

func (m *QuestService) Tree(ctx context.Context, id uuid.UUID) (*quest.Node, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*quest.Node), args.Error(1)
	}
	return nil, args.Error(1)
}

// PlayService is a mock of service.PlayService.
type PlayService struct {
	mock.Mock
}

func (m *PlayService) Start(ctx context.Context, questID uuid.UUID) (*service.PlayView, error) {
	args := m.Called(ctx, questID)
	return playView(args)
}

func (m *PlayService) Get(ctx context.Context, id uuid.UUID) (*service.PlayView, error) {
	args := m.Called(ctx, id)
	return playView(args)
}

func (m *PlayService) Choose(ctx context.Context, id uuid.UUID, idx int) (*service.PlayView, error) {
	args := m.Called(ctx, id, idx)
	return playView(args)
}

func (m *PlayService) Fire(ctx context.Context, id uuid.UUID, event string) (*service.PlayView, error) {
	args := m.Called(ctx, id, event)
	return playView(args)
}

func (m *PlayService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func playView(args mock.Arguments) (*service.PlayView, error) {
	if v := args.Get(0); v != nil {
		return v.(*service.PlayView), args.Error(1)
	}
	return nil, args.Error(1)
}
