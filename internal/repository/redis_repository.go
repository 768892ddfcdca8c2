package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// redisStateRepository implements StateRepository using Redis string keys.
type redisStateRepository struct {
	client *redis.Client
	prefix string
	logger zerolog.Logger
}

// NewRedisStateRepository creates a Redis-backed state repository.
// Keys are namespace with prefix prepended and never expire.
func NewRedisStateRepository(client *redis.Client, prefix string, logger zerolog.Logger) StateRepository {
	return &redisStateRepository{
		client: client,
		prefix: prefix,
		logger: logger.With().Str("repository", "redis-state").Logger(),
	}
}

// Load decodes the document stored under namespace into dest.
func (r *redisStateRepository) Load(ctx context.Context, namespace string, dest any) (bool, error) {
	data, err := r.client.Get(ctx, r.prefix+namespace).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug().Str("namespace", namespace).Msg("state not found")
			return false, nil
		}
		r.logger.Error().Err(err).Str("namespace", namespace).Msg("failed to get state")
		return false, fmt.Errorf("failed to get state %s: %w", namespace, err)
	}

	if err := decode(namespace, data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Save stores value under namespace.
func (r *redisStateRepository) Save(ctx context.Context, namespace string, value any) error {
	return r.SaveAll(ctx, map[string]any{namespace: value})
}

// SaveAll writes every namespace in one MULTI/EXEC transaction.
func (r *redisStateRepository) SaveAll(ctx context.Context, values map[string]any) error {
	encoded, err := encodeAll(values)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for ns, data := range encoded {
			pipe.Set(ctx, r.prefix+ns, data, 0)
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(encoded)).Msg("failed to save state")
		return fmt.Errorf("failed to execute Redis transaction: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (r *redisStateRepository) Close() error {
	return r.client.Close()
}
