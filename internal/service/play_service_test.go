package service_test

import (
	"context"
	"testing"

	"quest-server/internal/compiler"
	"quest-server/internal/interpreter"
	"quest-server/internal/models"
	"quest-server/internal/quest"
	repositoryMocks "quest-server/internal/repository/mocks"
	"quest-server/internal/service"
	"quest-server/internal/service/mocks"
	sharedModels "quest-server/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type playFixture struct {
	svc    service.PlayService
	quests *mocks.QuestService
	store  *repositoryMocks.PlaythroughStore
	root   *quest.Node
}

func newPlayFixture(t *testing.T, questID uuid.UUID) *playFixture {
	t.Helper()
	log := compiler.NewLog()
	root := compiler.Document(lostKeySource, log)
	require.Empty(t, log.Finalize())

	f := &playFixture{
		quests: new(mocks.QuestService),
		store:  new(repositoryMocks.PlaythroughStore),
		root:   root,
	}
	f.quests.On("Tree", mock.Anything, questID).Return(root, nil).Maybe()
	f.svc = service.NewPlayService(f.quests, f.store, newInterpreter(t), zap.NewNop())
	return f
}

func TestPlayService_Start(t *testing.T) {
	ctx := context.Background()
	questID := uuid.New()
	f := newPlayFixture(t, questID)

	var saved *models.Playthrough
	f.store.On("Save", ctx, mock.MatchedBy(func(p *models.Playthrough) bool {
		saved = p
		return p.QuestID == questID
	})).Return(nil).Once()

	view, err := f.svc.Start(ctx, questID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, view.ID)
	require.Equal(t, interpreter.CardRoleplay, view.Card.Kind)
	assert.Equal(t, "Gate", view.Card.Roleplay.Title)
	assert.Equal(t, []interpreter.Choice{{Text: "Search the grass", Idx: 0}, {Text: "Leave", Idx: 1}}, view.Card.Roleplay.Choices)
	assert.Equal(t, []int{0}, saved.State.Position)

	t.Run("unknown quest", func(t *testing.T) {
		missing := uuid.New()
		f.quests.On("Tree", mock.Anything, missing).Return(nil, sharedModels.ErrNotFound).Once()

		_, err := f.svc.Start(ctx, missing)
		assert.ErrorIs(t, err, sharedModels.ErrNotFound)
	})
}

func TestPlayService_Moves(t *testing.T) {
	ctx := context.Background()
	questID := uuid.New()

	stored := func(f *playFixture) *models.Playthrough {
		pt, err := newInterpreter(t).Start(f.root, nil)
		require.NoError(t, err)
		return &models.Playthrough{ID: uuid.New(), QuestID: questID, State: pt.State()}
	}

	t.Run("choose advances and saves", func(t *testing.T) {
		f := newPlayFixture(t, questID)
		rec := stored(f)
		f.store.On("Get", ctx, rec.ID).Return(rec, nil).Once()
		f.store.On("Save", ctx, mock.MatchedBy(func(p *models.Playthrough) bool {
			return p.ID == rec.ID && len(p.State.Position) > 1
		})).Return(nil).Once()

		view, err := f.svc.Choose(ctx, rec.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, "<p>You find a key.</p>", view.Card.Roleplay.Body)
		assert.Equal(t, []interpreter.Choice{{Text: "Next", Idx: 0}}, view.Card.Roleplay.Choices)
		f.store.AssertExpectations(t)
	})

	t.Run("leaving ends the quest", func(t *testing.T) {
		f := newPlayFixture(t, questID)
		rec := stored(f)
		f.store.On("Get", ctx, rec.ID).Return(rec, nil).Once()
		f.store.On("Save", ctx, mock.MatchedBy(func(p *models.Playthrough) bool {
			return p.State.Finished
		})).Return(nil).Once()

		view, err := f.svc.Choose(ctx, rec.ID, 1)
		require.NoError(t, err)
		assert.True(t, view.Card.Finished)
	})

	t.Run("invalid choice is not saved", func(t *testing.T) {
		f := newPlayFixture(t, questID)
		rec := stored(f)
		f.store.On("Get", ctx, rec.ID).Return(rec, nil).Once()

		_, err := f.svc.Choose(ctx, rec.ID, 5)
		assert.ErrorIs(t, err, service.ErrInvalidMove)
		f.store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("events need a combat card", func(t *testing.T) {
		f := newPlayFixture(t, questID)
		rec := stored(f)
		f.store.On("Get", ctx, rec.ID).Return(rec, nil).Once()

		_, err := f.svc.Fire(ctx, rec.ID, "win")
		assert.ErrorIs(t, err, service.ErrInvalidMove)
	})

	t.Run("finished playthrough", func(t *testing.T) {
		f := newPlayFixture(t, questID)
		rec := &models.Playthrough{ID: uuid.New(), QuestID: questID, State: interpreter.State{Finished: true}}
		f.store.On("Get", ctx, rec.ID).Return(rec, nil).Twice()

		view, err := f.svc.Get(ctx, rec.ID)
		require.NoError(t, err)
		assert.True(t, view.Card.Finished)

		_, err = f.svc.Choose(ctx, rec.ID, 0)
		assert.ErrorIs(t, err, service.ErrPlaythroughFinished)
	})

	t.Run("stale position", func(t *testing.T) {
		f := newPlayFixture(t, questID)
		rec := &models.Playthrough{ID: uuid.New(), QuestID: questID, State: interpreter.State{Position: []int{42}}}
		f.store.On("Get", ctx, rec.ID).Return(rec, nil).Once()

		_, err := f.svc.Get(ctx, rec.ID)
		assert.ErrorIs(t, err, service.ErrQuestBroken)
	})

	t.Run("missing playthrough", func(t *testing.T) {
		f := newPlayFixture(t, questID)
		id := uuid.New()
		f.store.On("Get", ctx, id).Return(nil, sharedModels.ErrNotFound).Once()
		f.store.On("Delete", ctx, id).Return(sharedModels.ErrNotFound).Once()

		_, err := f.svc.Get(ctx, id)
		assert.ErrorIs(t, err, sharedModels.ErrNotFound)
		assert.ErrorIs(t, f.svc.Delete(ctx, id), sharedModels.ErrNotFound)
	})
}
