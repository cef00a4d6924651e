package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quest-server/internal/models"
	sharedModels "quest-server/shared/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const playthroughKeyPrefix = "playthrough:"

// Compile-time check
var _ PlaythroughStore = (*redisPlaythroughStore)(nil)

type redisPlaythroughStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisPlaythroughStore хранит прохождения как JSON. Каждое сохранение
// продлевает TTL; брошенные прохождения удаляет сам Redis.
func NewRedisPlaythroughStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) PlaythroughStore {
	return &redisPlaythroughStore{
		client: client,
		ttl:    ttl,
		logger: logger.Named("RedisPlaythroughStore"),
	}
}

func playthroughKey(id uuid.UUID) string {
	return playthroughKeyPrefix + id.String()
}

func (s *redisPlaythroughStore) Save(ctx context.Context, p *models.Playthrough) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal playthrough %s: %w", p.ID, err)
	}
	if err := s.client.Set(ctx, playthroughKey(p.ID), data, s.ttl).Err(); err != nil {
		s.logger.Error("Failed to save playthrough", zap.String("playthroughID", p.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to save playthrough %s: %w", p.ID, err)
	}
	return nil
}

func (s *redisPlaythroughStore) Get(ctx context.Context, id uuid.UUID) (*models.Playthrough, error) {
	data, err := s.client.Get(ctx, playthroughKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, sharedModels.ErrNotFound
		}
		s.logger.Error("Failed to get playthrough", zap.String("playthroughID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get playthrough %s: %w", id, err)
	}

	var p models.Playthrough
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal playthrough %s: %w", id, err)
	}
	return &p, nil
}

func (s *redisPlaythroughStore) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := s.client.Del(ctx, playthroughKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete playthrough %s: %w", id, err)
	}
	if n == 0 {
		return sharedModels.ErrNotFound
	}
	return nil
}
