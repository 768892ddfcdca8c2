package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// StateSchema creates the table used by the PostgreSQL state repository.
const StateSchema = `
	CREATE TABLE IF NOT EXISTS pos_state (
		namespace TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// postgresStateRepository implements StateRepository using PostgreSQL.
type postgresStateRepository struct {
	pool   *pgxpool.Pool
	prefix string
	logger zerolog.Logger
}

// NewPostgresStateRepository creates a PostgreSQL-backed state repository.
// Namespaces are stored with prefix prepended.
func NewPostgresStateRepository(pool *pgxpool.Pool, prefix string, logger zerolog.Logger) StateRepository {
	return &postgresStateRepository{
		pool:   pool,
		prefix: prefix,
		logger: logger.With().Str("repository", "postgres-state").Logger(),
	}
}

// EnsureStateSchema creates the state table if it does not exist.
func EnsureStateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, StateSchema); err != nil {
		return fmt.Errorf("failed to create state schema: %w", err)
	}
	return nil
}

// Load decodes the document stored under namespace into dest.
func (r *postgresStateRepository) Load(ctx context.Context, namespace string, dest any) (bool, error) {
	query := `
		SELECT payload::text
		FROM pos_state
		WHERE namespace = $1
	`

	var payload string
	err := r.pool.QueryRow(ctx, query, r.prefix+namespace).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("namespace", namespace).Msg("state not found")
			return false, nil
		}
		r.logger.Error().Err(err).Str("namespace", namespace).Msg("failed to query state")
		return false, fmt.Errorf("failed to query state %s: %w", namespace, err)
	}

	if err := decode(namespace, []byte(payload), dest); err != nil {
		r.logger.Error().Err(err).Str("namespace", namespace).Msg("failed to decode state")
		return false, err
	}
	return true, nil
}

// Save stores value under namespace.
func (r *postgresStateRepository) Save(ctx context.Context, namespace string, value any) error {
	return r.SaveAll(ctx, map[string]any{namespace: value})
}

// SaveAll upserts every namespace inside one transaction.
func (r *postgresStateRepository) SaveAll(ctx context.Context, values map[string]any) (err error) {
	encoded, err := encodeAll(values)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	query := `
		INSERT INTO pos_state (namespace, payload, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (namespace) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`

	batch := &pgx.Batch{}
	namespaces := make([]string, 0, len(encoded))
	for ns, data := range encoded {
		batch.Queue(query, r.prefix+ns, string(data))
		namespaces = append(namespaces, ns)
	}

	results := tx.SendBatch(ctx, batch)
	for _, ns := range namespaces {
		if _, err = results.Exec(); err != nil {
			results.Close()
			r.logger.Error().Err(err).Str("namespace", ns).Msg("failed to save state")
			return fmt.Errorf("failed to save state %s: %w", ns, err)
		}
	}
	if err = results.Close(); err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		r.logger.Error().Err(err).Msg("failed to commit transaction")
		return fmt.Errorf("failed to commit state: %w", err)
	}

	r.logger.Debug().Strs("namespaces", namespaces).Msg("state saved")
	return nil
}

// Close is a no-op; the pool is owned by the caller.
func (r *postgresStateRepository) Close() error {
	return nil
}
