package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quest-server/internal/expr"
	"quest-server/internal/interpreter"
	"quest-server/internal/models"
	"quest-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PlayView is what a client needs to render the current step of a playthrough.
type PlayView struct {
	ID      uuid.UUID         `json:"id"`
	QuestID uuid.UUID         `json:"questId"`
	Card    *interpreter.Card `json:"card"`
}

// PlayService drives playthroughs of published quests.
type PlayService interface {
	Start(ctx context.Context, questID uuid.UUID) (*PlayView, error)
	Get(ctx context.Context, id uuid.UUID) (*PlayView, error)
	Choose(ctx context.Context, id uuid.UUID, idx int) (*PlayView, error)
	Fire(ctx context.Context, id uuid.UUID, event string) (*PlayView, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type playServiceImpl struct {
	quests QuestService
	store  repository.PlaythroughStore
	in     *interpreter.Interpreter
	logger *zap.Logger
}

func NewPlayService(quests QuestService, store repository.PlaythroughStore, in *interpreter.Interpreter, logger *zap.Logger) PlayService {
	return &playServiceImpl{
		quests: quests,
		store:  store,
		in:     in,
		logger: logger.Named("PlayService"),
	}
}

func (s *playServiceImpl) Start(ctx context.Context, questID uuid.UUID) (*PlayView, error) {
	root, err := s.quests.Tree(ctx, questID)
	if err != nil {
		return nil, err
	}
	pt, err := s.in.Start(root, expr.Scope{})
	if err != nil {
		return nil, s.mapError(err, questID)
	}

	now := time.Now().UTC()
	rec := &models.Playthrough{
		ID:        uuid.New(),
		QuestID:   questID,
		State:     pt.State(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	view, err := s.view(rec, pt)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Info("Playthrough started", zap.String("playthroughID", rec.ID.String()), zap.String("questID", questID.String()))
	return view, nil
}

func (s *playServiceImpl) Get(ctx context.Context, id uuid.UUID) (*PlayView, error) {
	rec, pt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(rec, pt)
}

func (s *playServiceImpl) Choose(ctx context.Context, id uuid.UUID, idx int) (*PlayView, error) {
	return s.advance(ctx, id, func(pt *interpreter.Playthrough) (*interpreter.Card, error) {
		return pt.Choose(idx)
	})
}

func (s *playServiceImpl) Fire(ctx context.Context, id uuid.UUID, event string) (*PlayView, error) {
	return s.advance(ctx, id, func(pt *interpreter.Playthrough) (*interpreter.Card, error) {
		return pt.Fire(event)
	})
}

func (s *playServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

// advance applies one move and persists the new state. The stored state
// is left untouched when the move fails.
func (s *playServiceImpl) advance(ctx context.Context, id uuid.UUID, move func(*interpreter.Playthrough) (*interpreter.Card, error)) (*PlayView, error) {
	rec, pt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	card, err := move(pt)
	if err != nil {
		return nil, s.mapError(err, rec.QuestID)
	}

	rec.State = pt.State()
	rec.UpdatedAt = time.Now().UTC()
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, err
	}
	if card.Finished {
		s.logger.Info("Playthrough finished", zap.String("playthroughID", id.String()), zap.String("questID", rec.QuestID.String()))
	}
	return &PlayView{ID: rec.ID, QuestID: rec.QuestID, Card: card}, nil
}

func (s *playServiceImpl) load(ctx context.Context, id uuid.UUID) (*models.Playthrough, *interpreter.Playthrough, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	root, err := s.quests.Tree(ctx, rec.QuestID)
	if err != nil {
		return nil, nil, err
	}
	pt, err := s.in.Resume(root, rec.State)
	if err != nil {
		return nil, nil, s.mapError(err, rec.QuestID)
	}
	return rec, pt, nil
}

func (s *playServiceImpl) view(rec *models.Playthrough, pt *interpreter.Playthrough) (*PlayView, error) {
	card, err := pt.Card()
	if err != nil {
		return nil, s.mapError(err, rec.QuestID)
	}
	return &PlayView{ID: rec.ID, QuestID: rec.QuestID, Card: card}, nil
}

func (s *playServiceImpl) mapError(err error, questID uuid.UUID) error {
	switch {
	case errors.Is(err, interpreter.ErrQuestFinished):
		return ErrPlaythroughFinished
	case errors.Is(err, interpreter.ErrInvalidChoice),
		errors.Is(err, interpreter.ErrWrongCard),
		errors.Is(err, interpreter.ErrNoMatchingEvent):
		return fmt.Errorf("%w: %v", ErrInvalidMove, err)
	case isQuestContentError(err):
		s.logger.Warn("Quest content failed at play time", zap.String("questID", questID.String()), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrQuestBroken, err)
	}
	return err
}
