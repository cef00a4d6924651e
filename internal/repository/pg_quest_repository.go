package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quest-server/internal/models"
	"quest-server/shared/interfaces"
	sharedModels "quest-server/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	createQuestQuery = `
        INSERT INTO quests
            (id, author_id, title, summary, source, markup, min_players, max_players, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	getQuestByIDQuery = `
        SELECT id, author_id, title, summary, source, markup, min_players, max_players, created_at, updated_at
        FROM quests
        WHERE id = $1
    `
	listQuestsQuery = `
        SELECT id, author_id, title, summary, min_players, max_players, created_at
        FROM quests
        ORDER BY created_at DESC, id DESC
        LIMIT $1
    `
	listQuestsAfterQuery = `
        SELECT id, author_id, title, summary, min_players, max_players, created_at
        FROM quests
        WHERE (created_at, id) < ($1, $2)
        ORDER BY created_at DESC, id DESC
        LIMIT $3
    `
)

// Compile-time check
var _ QuestRepository = (*pgQuestRepository)(nil)

type pgQuestRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgQuestRepository(db interfaces.DBTX, logger *zap.Logger) QuestRepository {
	return &pgQuestRepository{
		db:     db,
		logger: logger.Named("PgQuestRepo"),
	}
}

func (r *pgQuestRepository) Create(ctx context.Context, q *models.Quest) error {
	logFields := []zap.Field{zap.String("questID", q.ID.String()), zap.Uint64("authorID", q.AuthorID)}

	_, err := r.db.Exec(ctx, createQuestQuery,
		q.ID, q.AuthorID, q.Title, q.Summary, q.Source, q.Markup,
		q.MinPlayers, q.MaxPlayers, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create quest", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create quest %s: %w", q.ID, err)
	}
	r.logger.Info("Quest created", logFields...)
	return nil
}

func (r *pgQuestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quest, error) {
	var q models.Quest
	if err := pgxscan.Get(ctx, r.db, &q, getQuestByIDQuery, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sharedModels.ErrNotFound
		}
		r.logger.Error("Failed to get quest", zap.String("questID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get quest %s: %w", id, err)
	}
	return &q, nil
}

func (r *pgQuestRepository) List(ctx context.Context, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]models.QuestSummary, error) {
	var (
		quests []models.QuestSummary
		err    error
	)
	if afterID == uuid.Nil {
		err = pgxscan.Select(ctx, r.db, &quests, listQuestsQuery, limit)
	} else {
		err = pgxscan.Select(ctx, r.db, &quests, listQuestsAfterQuery, afterCreatedAt, afterID, limit)
	}
	if err != nil {
		r.logger.Error("Failed to list quests", zap.Int("limit", limit), zap.Error(err))
		return nil, fmt.Errorf("failed to list quests: %w", err)
	}
	if quests == nil {
		quests = []models.QuestSummary{}
	}
	return quests, nil
}
