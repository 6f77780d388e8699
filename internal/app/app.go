// Package app wires configuration into the concrete stores and clients shared
// by the server and the admin CLI.
package app

import (
	"context"
	"fmt"

	"alcyxob/intern-platform/internal/config"
	"alcyxob/intern-platform/internal/llm"
	"alcyxob/intern-platform/internal/logger"
	"alcyxob/intern-platform/internal/repository/memory"
	"alcyxob/intern-platform/internal/repository/mongo"
	"alcyxob/intern-platform/internal/service"
	"alcyxob/intern-platform/internal/storage"

	mongodriver "go.mongodb.org/mongo-driver/mongo"
)

// Store is an opened persistence backend.
type Store struct {
	Repos service.Repositories
	// DB is nil for the memory driver.
	DB *mongodriver.Database

	client *mongodriver.Client
}

// OpenStore connects the configured database driver.
func OpenStore(cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Driver {
	case "memory":
		db := memory.Open()
		return &Store{Repos: service.Repositories{
			Users:       db.Users,
			Internships: db.Internships,
			Plans:       db.Plans,
			Lessons:     db.Lessons,
		}}, nil
	case "mongo", "":
		client, err := mongo.ConnectDB(cfg.URI)
		if err != nil {
			return nil, fmt.Errorf("connecting to MongoDB: %w", err)
		}
		db := client.Database(cfg.Name)
		return &Store{
			Repos: service.Repositories{
				Users:       mongo.NewMongoUserRepository(db),
				Internships: mongo.NewMongoInternshipRepository(db),
				Plans:       mongo.NewMongoStudyPlanRepository(db),
				Lessons:     mongo.NewMongoLessonRepository(db),
			},
			DB:     db,
			client: client,
		}, nil
	default:
		return nil, fmt.Errorf("unknown database driver: %q", cfg.Driver)
	}
}

// EnsureIndexes is a no-op for the memory driver.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if s.DB == nil {
		return nil
	}
	return mongo.EnsureIndexes(ctx, s.DB)
}

func (s *Store) Close() error {
	if s.client == nil {
		return nil
	}
	return mongo.DisconnectDB(s.client)
}

// NewMediaResolver presigns lesson media from the configured bucket. Without
// a bucket only absolute URLs are served.
func NewMediaResolver(ctx context.Context, cfg config.S3Config, log *logger.Logger) (*storage.MediaResolver, error) {
	if cfg.BucketName == "" {
		log.Info("no media bucket configured, object keys will not resolve")
		return storage.NewMediaResolver(nil, 0, log), nil
	}
	files, err := storage.NewS3Storage(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing S3 storage: %w", err)
	}
	return storage.NewMediaResolver(files, 0, log), nil
}

// NewServices builds the provider and every service on top of store.
func NewServices(ctx context.Context, cfg *config.Config, store *Store, log *logger.Logger) (*service.Services, error) {
	provider, err := llm.NewProvider(ctx, cfg.LLM, log.With("component", "llm"))
	if err != nil {
		return nil, err
	}
	media, err := NewMediaResolver(ctx, cfg.S3, log.With("component", "media"))
	if err != nil {
		return nil, err
	}
	return service.NewServices(store.Repos, provider, media, cfg.StudyPlan, nil, log), nil
}
