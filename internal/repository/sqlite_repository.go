package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// stateRecord is the GORM model behind the SQLite state repository.
type stateRecord struct {
	Namespace string `gorm:"primarykey;size:200"`
	Payload   []byte `gorm:"not null"`
	UpdatedAt time.Time
}

// TableName returns the table name for stateRecord.
func (stateRecord) TableName() string {
	return "pos_state"
}

// sqliteStateRepository implements StateRepository on an embedded SQLite file via GORM.
type sqliteStateRepository struct {
	db     *gorm.DB
	prefix string
	logger zerolog.Logger
}

// NewSQLiteStateRepository migrates the state table and returns a repository on db.
func NewSQLiteStateRepository(db *gorm.DB, prefix string, logger zerolog.Logger) (StateRepository, error) {
	if err := db.AutoMigrate(&stateRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate state table: %w", err)
	}
	return &sqliteStateRepository{
		db:     db,
		prefix: prefix,
		logger: logger.With().Str("repository", "sqlite-state").Logger(),
	}, nil
}

// Load decodes the document stored under namespace into dest.
func (r *sqliteStateRepository) Load(ctx context.Context, namespace string, dest any) (bool, error) {
	var rec stateRecord
	err := r.db.WithContext(ctx).First(&rec, "namespace = ?", r.prefix+namespace).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.logger.Debug().Str("namespace", namespace).Msg("state not found")
			return false, nil
		}
		r.logger.Error().Err(err).Str("namespace", namespace).Msg("failed to find state")
		return false, fmt.Errorf("failed to find state %s: %w", namespace, err)
	}

	if err := decode(namespace, rec.Payload, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Save stores value under namespace.
func (r *sqliteStateRepository) Save(ctx context.Context, namespace string, value any) error {
	return r.SaveAll(ctx, map[string]any{namespace: value})
}

// SaveAll upserts every namespace inside one transaction.
func (r *sqliteStateRepository) SaveAll(ctx context.Context, values map[string]any) error {
	encoded, err := encodeAll(values)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for ns, data := range encoded {
			rec := stateRecord{Namespace: r.prefix + ns, Payload: data, UpdatedAt: now}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "namespace"}},
				DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
			}).Create(&rec).Error
			if err != nil {
				return fmt.Errorf("failed to save state %s: %w", ns, err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(encoded)).Msg("failed to save state")
		return err
	}
	return nil
}

// Close closes the underlying database handle.
func (r *sqliteStateRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.Close()
}
