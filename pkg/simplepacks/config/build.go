package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tendant/simple-packs/pkg/simplepacks"
	repomemory "github.com/tendant/simple-packs/pkg/simplepacks/repo/memory"
	repopg "github.com/tendant/simple-packs/pkg/simplepacks/repo/postgres"
	memorystorage "github.com/tendant/simple-packs/pkg/simplepacks/storage/memory"
	miniostorage "github.com/tendant/simple-packs/pkg/simplepacks/storage/minio"
	s3storage "github.com/tendant/simple-packs/pkg/simplepacks/storage/s3"
	"github.com/tendant/simple-packs/pkg/simplepacks/uploader"
	"github.com/tendant/simple-packs/pkg/simplepacks/urlstrategy"
)

// Runtime holds the process-wide resources built from a Config. Close
// releases them in reverse order of construction.
type Runtime struct {
	Config     *Config
	Service    simplepacks.Service
	Store      simplepacks.BlobStore
	Repository simplepacks.Repository

	closeRepo func()
}

// Close disposes the blob store first, then the database pool
func (r *Runtime) Close() error {
	var errs []error
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close blob store: %w", err))
		}
	}
	if r.closeRepo != nil {
		r.closeRepo()
	}
	return errors.Join(errs...)
}

// Build constructs the blob store, the repository and the service. The store
// is opened eagerly so that misconfiguration fails at startup.
func Build(ctx context.Context, cfg *Config, logger *slog.Logger) (*Runtime, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := BuildBlobStore(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build blob store: %w", err)
	}
	if err := store.Open(ctx); err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}

	rt := &Runtime{Config: cfg, Store: store}

	repo, closeRepo, err := buildRepository(ctx, cfg.Database, logger)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}
	rt.Repository = repo
	rt.closeRepo = closeRepo

	urls := urlstrategy.New(cfg.Storage.PublicBase, store, cfg.Storage.PresignExpiry)
	up, err := uploader.New(store, urls, uploader.WithLogger(logger))
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to build uploader: %w", err)
	}

	svc, err := simplepacks.New(
		simplepacks.WithUploader(up),
		simplepacks.WithRepository(repo),
		simplepacks.WithEventSink(simplepacks.NewLoggingEventSink(logger)),
		simplepacks.WithLogger(logger),
	)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Service = svc

	logger.Info("Runtime ready",
		"storage_driver", cfg.Storage.Driver,
		"database_type", cfg.Database.Type,
		"public_base", cfg.Storage.PublicBase != "")
	return rt, nil
}

// BuildBlobStore creates the blob store selected by cfg.Driver without opening it
func BuildBlobStore(cfg StorageConfig, logger *slog.Logger) (simplepacks.BlobStore, error) {
	switch cfg.Driver {
	case "memory":
		return memorystorage.New(), nil

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 cfg.Region,
			Bucket:                 cfg.Bucket,
			AccessKeyID:            cfg.AccessKeyID,
			SecretAccessKey:        cfg.SecretAccessKey,
			Endpoint:               cfg.Endpoint,
			UsePathStyle:           cfg.UsePathStyle,
			MaxAttempts:            cfg.MaxAttempts,
			CreateBucketIfNotExist: cfg.CreateBucket,
			Logger:                 logger,
		})

	case "minio":
		return miniostorage.New(miniostorage.Config{
			Endpoint:     cfg.Endpoint,
			AccessKey:    cfg.AccessKeyID,
			SecretKey:    cfg.SecretAccessKey,
			Bucket:       cfg.Bucket,
			Region:       cfg.Region,
			PathStyle:    cfg.UsePathStyle,
			CreateBucket: cfg.CreateBucket,
			Logger:       logger,
		})

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// ConnectPostgres opens the pgx pool described by cfg
func ConnectPostgres(ctx context.Context, cfg DatabaseConfig, logger *slog.Logger) (*repopg.Repository, error) {
	if cfg.URL == "" {
		return nil, errors.New("database url is required for postgres")
	}
	return repopg.Connect(ctx, PostgresConfig(cfg, logger))
}

// PostgresConfig maps cfg onto the gateway settings. DB_MAX_OVERFLOW=0 means
// no overflow connections.
func PostgresConfig(cfg DatabaseConfig, logger *slog.Logger) repopg.Config {
	overflow := cfg.MaxOverflow
	if overflow == 0 {
		overflow = -1
	}
	return repopg.Config{
		URL:            cfg.URL,
		PoolSize:       cfg.PoolSize,
		MaxOverflow:    overflow,
		AcquireTimeout: cfg.AcquireTimeout,
		Schema:         cfg.Schema,
		Echo:           cfg.Echo,
		Logger:         logger,
	}
}

func buildRepository(ctx context.Context, cfg DatabaseConfig, logger *slog.Logger) (simplepacks.Repository, func(), error) {
	switch cfg.Type {
	case "memory":
		repo := repomemory.New()
		return repo, repo.Close, nil

	case "postgres":
		repo, err := ConnectPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := repopg.Migrate(ctx, repo.Pool(), logger); err != nil {
				repo.Close()
				return nil, nil, fmt.Errorf("failed to migrate: %w", err)
			}
		}
		return repo, repo.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}
