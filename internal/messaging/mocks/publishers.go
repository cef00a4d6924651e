package mocks

import (
	"context"

	"quest-server/internal/messaging"

	"github.com/stretchr/testify/mock"
)

var _ messaging.QuestEventPublisher = (*QuestEventPublisher)(nil)

// Mock QuestEventPublisher
type QuestEventPublisher struct {
	mock.Mock
}

func (m *QuestEventPublisher) PublishQuestEvent(ctx context.Context, event messaging.QuestEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
