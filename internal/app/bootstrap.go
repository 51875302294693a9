package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/moimhub/moim-backend/internal/config"
	"github.com/moimhub/moim-backend/internal/domain"
	"github.com/moimhub/moim-backend/internal/health"
	"github.com/moimhub/moim-backend/internal/http/handler"
	"github.com/moimhub/moim-backend/internal/http/router"
	"github.com/moimhub/moim-backend/internal/observability"
	"github.com/moimhub/moim-backend/internal/repository"
	"github.com/moimhub/moim-backend/internal/security"
	"github.com/moimhub/moim-backend/internal/service"
)

// Bootstrap wires the whole service: store, cache, services, handlers,
// router, probes, and the optional expired-session sweeper.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger, runtime *observability.Runtime) (*App, error) {
	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Session{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	readiness := health.NewProbeRunner(2*time.Second, 5*time.Second)
	readiness.Register(health.NewDatabaseChecker(db))

	var takenNames service.TakenNameCacheStore = service.NewInMemoryTakenNameCacheStore()
	if cfg.RedisEnabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		takenNames = service.NewRedisTakenNameCacheStore(client, "")
		readiness.Register(health.NewRedisChecker(client))
	}

	users := repository.NewUserRepository(db)
	sessions := repository.NewSessionRepository(db)
	auth := service.NewAuthService(
		users,
		sessions,
		security.NewPasswordHasher(cfg.PasswordHashIterations),
		security.NewUUIDTokenSource(),
		service.SystemClock{},
		takenNames,
		service.AuthServiceOptions{
			SessionTTL:           cfg.SessionTTL,
			AvailabilityCacheTTL: cfg.AvailabilityCacheTTL,
			RevokePriorSession:   cfg.RevokePriorSessionOnLogin,
		},
	)

	mux := router.NewRouter(router.Dependencies{
		AuthHandler:    handler.NewAuthHandler(auth),
		AuthService:    auth,
		CORSOrigins:    cfg.CORSOrigins,
		Readiness:      readiness,
		EnableOTelHTTP: cfg.OTELTracesEnabled,
	})
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop := startSessionSweeper(ctx, cfg, logger, sessions)
	return New(cfg, logger, server, runtime, readiness, stop), nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	}
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.DBDriver {
	case "postgres":
		db, err = gorm.Open(postgres.Open(cfg.DBDSN), gormCfg)
	default:
		db, err = gorm.Open(sqlite.Open(cfg.DBDSN), gormCfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DBDriver, err)
	}
	return db, nil
}

// startSessionSweeper periodically deletes expired session rows. Expiry is
// enforced at resolve time regardless; the sweep only keeps the table small.
func startSessionSweeper(ctx context.Context, cfg *config.Config, logger *slog.Logger, sessions repository.SessionRepository) func() {
	if cfg.SessionSweepInterval <= 0 {
		return func() {}
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	go func() {
		ticker := time.NewTicker(cfg.SessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				removed, err := sessions.DeleteExpired(sweepCtx, time.Now().UTC())
				if err != nil {
					logger.Error("session sweep failed", "error", err)
					continue
				}
				if removed > 0 {
					logger.Debug("session sweep", "removed", removed)
				}
			}
		}
	}()
	return cancel
}
