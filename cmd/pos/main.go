package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mini-pos/internal/config"
	"mini-pos/internal/database"
	"mini-pos/internal/repository"
	"mini-pos/internal/seed"
	"mini-pos/internal/session"
	"mini-pos/internal/terminal"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadEnvFile(envFile()); err != nil {
		return err
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger, os.Stderr)
	logger.Info().Str("backend", cfg.Store.Backend).Msg("starting mini-pos register")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error().Err(err).Msg("failed to close store")
		}
	}()

	loader, err := newSeedLoader(ctx, cfg, logger)
	if err != nil {
		return err
	}
	products, err := seed.LoadCatalogue(ctx, loader, cfg.Seed.Files, logger)
	if err != nil {
		return fmt.Errorf("failed to load seed catalogue: %w", err)
	}

	sess := session.New(repo, logger)
	if err := sess.Load(ctx, products); err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	console := terminal.New(sess, os.Stdout, logger)
	consoleErr := make(chan error, 1)
	go func() {
		consoleErr <- console.Run(ctx, os.Stdin)
	}()

	select {
	case err = <-consoleErr:
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	}

	// Save with a fresh context so an interrupted run still persists.
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if closeErr := sess.Close(closeCtx); closeErr != nil {
		return fmt.Errorf("failed to save session: %w", closeErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("console error: %w", err)
	}

	logger.Info().Msg("register closed")
	return nil
}

func envFile() string {
	if path := os.Getenv("ENV_FILE"); path != "" {
		return path
	}
	return ".env"
}

// openRepository builds the state store selected by STORE_BACKEND.
func openRepository(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.StateRepository, error) {
	switch cfg.Store.Backend {
	case config.BackendMemory:
		logger.Warn().Msg("using in-memory store, state is lost on exit")
		return repository.NewMemoryStateRepository(), nil

	case config.BackendPostgres:
		pool, err := database.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := repository.EnsureStateSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &closingRepository{
			StateRepository: repository.NewPostgresStateRepository(pool, cfg.Store.Prefix, logger),
			close:           func() error { pool.Close(); return nil },
		}, nil

	case config.BackendRedis:
		client, err := database.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisStateRepository(client, cfg.Store.Prefix, logger), nil

	case config.BackendSQLite:
		db, err := database.OpenSQLite(cfg.SQLite, logger)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLiteStateRepository(db, cfg.Store.Prefix, logger)
	}

	return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
}

// closingRepository releases a resource the repository does not own.
type closingRepository struct {
	repository.StateRepository
	close func() error
}

func (r *closingRepository) Close() error {
	if err := r.StateRepository.Close(); err != nil {
		return err
	}
	return r.close()
}

// newSeedLoader returns a local file loader, trying S3 first when enabled.
func newSeedLoader(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (seed.Loader, error) {
	fileLoader := seed.NewFileLoader(logger)
	if !cfg.S3.Enabled {
		logger.Debug().Msg("using local file system for seed files (S3 disabled)")
		return fileLoader, nil
	}

	s3Loader, err := seed.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader, nil
	}
	return seed.NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, true, logger), nil
}
