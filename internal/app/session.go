// Package app assembles the classroom session core from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/classroom-session/internal/auth"
	"github.com/SAP-F-2025/classroom-session/internal/cache"
	"github.com/SAP-F-2025/classroom-session/internal/config"
	"github.com/SAP-F-2025/classroom-session/internal/quizapi"
	"github.com/SAP-F-2025/classroom-session/internal/services"
	"github.com/SAP-F-2025/classroom-session/internal/store"
	"github.com/SAP-F-2025/classroom-session/internal/utils"
	"github.com/SAP-F-2025/classroom-session/internal/validator"
	"github.com/SAP-F-2025/classroom-session/pkg"
	"github.com/redis/go-redis/v9"
)

// Session is the wired core. Callers hold one per signed-in device.
type Session struct {
	Identity services.IdentityService
	Courses  services.CourseService
	Quizzes  services.QuizService
	Attempts services.AttemptService
	Practice services.PracticeService
	Export   services.ExportService

	// Cache restores the last known {courseId, role} before the backend answers.
	Cache cache.SessionLoader

	closers []func() error
}

// New builds every component named by cfg. On error nothing is left open.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Session, error) {
	s := &Session{}
	ready := false
	defer func() {
		if !ready {
			s.Close()
		}
	}()

	records, redisClient, err := s.openRecordStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider, err := newProvider(cfg, records)
	if err != nil {
		return nil, err
	}

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	s.closers = append(s.closers, publisher.Close)

	memory := cache.NewMemorySessionCache()
	sinks := cache.MultiSink{memory}
	s.Cache = memory
	if redisClient != nil {
		redisCache := cache.NewRedisSessionCache(redisClient, cfg.SessionCacheKey, cfg.SessionCacheTTL, utils.FromSlogLogger(logger))
		sinks = append(sinks, redisCache)
		s.Cache = redisCache
	}
	if cfg.Events.Enabled {
		sinks = append(sinks, cache.NewEventSessionSink(publisher))
	}

	serviceLogger := services.NewServiceLogger(logger, services.LogConfig{
		Service:     "classroom-session",
		Component:   "services",
		EnableDebug: !cfg.IsProduction(),
	})
	client := quizapi.NewClient(cfg.QuizAPIURL, cfg.QuizAPITimeout, utils.FromSlogLogger(logger))
	v := validator.New()
	retry := services.NewRetryPolicy(cfg.ReconcileAttempts)

	s.Identity = services.NewIdentityService(services.IdentityDeps{
		Provider:           provider,
		Records:            records,
		Sink:               sinks,
		Pictures:           client,
		ProfilePictureHost: cfg.ProfilePictureHost,
		Validator:          v,
		Retry:              retry,
		Logger:             serviceLogger,
	})
	s.Courses = services.NewCourseService(s.Identity, records, publisher, v, retry, serviceLogger)
	s.Quizzes = services.NewQuizService(s.Identity, client, publisher, v, serviceLogger)
	s.Attempts = services.NewAttemptService(s.Identity, client, publisher, serviceLogger)
	s.Practice = services.NewPracticeService(s.Identity, client, serviceLogger)
	s.Export = services.NewExportService(s.Attempts, serviceLogger)

	logger.Info("Classroom session ready",
		"record_store", cfg.RecordStore,
		"auth_provider", cfg.AuthProvider,
		"events_enabled", cfg.Events.Enabled)
	ready = true
	return s, nil
}

// NewFromEnv loads .env and the environment and builds the session with the
// environment's default logger.
func NewFromEnv(ctx context.Context) (*Session, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return New(ctx, cfg, utils.NewLoggerForEnvironment(cfg.Environment))
}

// Close releases stores, connections and the event publisher in reverse order.
func (s *Session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// openRecordStore returns the redis client too when the store runs on redis,
// so the session cache can share the connection.
func (s *Session) openRecordStore(ctx context.Context, cfg *config.Config) (store.RecordStore, *redis.Client, error) {
	switch cfg.RecordStore {
	case config.StoreMemory:
		return store.NewMemoryStore(), nil, nil

	case config.StoreSQLite:
		sqlStore, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		s.closers = append(s.closers, sqlStore.Close)
		return sqlStore, nil, nil

	case config.StorePostgres:
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, nil, err
		}
		s.closers = append(s.closers, func() error { return pkg.CloseDatabase(db) })
		gormStore := store.NewGormStore(db)
		if err := gormStore.AutoMigrate(); err != nil {
			return nil, nil, fmt.Errorf("failed to migrate records table: %w", err)
		}
		return gormStore, nil, nil

	case config.StoreRedis:
		client, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		s.closers = append(s.closers, client.Close)
		return store.NewRedisStore(client), client, nil
	}
	return nil, nil, fmt.Errorf("unknown record store %q", cfg.RecordStore)
}

func newProvider(cfg *config.Config, records store.RecordStore) (auth.Provider, error) {
	switch cfg.AuthProvider {
	case config.AuthLocal:
		return auth.NewLocalProvider(records, cfg.JWTSecret, cfg.TokenTTL), nil
	case config.AuthCasdoor:
		return auth.NewCasdoorProvider(cfg.Casdoor), nil
	}
	return nil, fmt.Errorf("unknown auth provider %q", cfg.AuthProvider)
}
