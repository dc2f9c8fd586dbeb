// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"diaryshare/internal/config"
	"diaryshare/internal/infra/adapters/export"
	pg "diaryshare/internal/infra/db/postgres"
	"diaryshare/internal/infra/i18n"
	"diaryshare/internal/infra/logging"
	"diaryshare/internal/infra/metrics"
	red "diaryshare/internal/infra/redis"
	"diaryshare/internal/infra/web"
	"diaryshare/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, optional jwt secret)")
	migrate := flag.Bool("migrate", true, "apply pending migrations on start")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
		if cfg.Auth.JWTSecret == "" {
			cfg.Auth.JWTSecret = "dev-secret"
		}
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	if *migrate {
		if err := pg.MigrateUp(cfg.Database.URL); err != nil {
			logger.Fatal().Err(err).Msg("migrations")
		}
	}
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go watchPool(ctx, pool)

	// ---- Repositories ----
	accountRepo := pg.NewPostgresAccountRepo(pool)
	profileRepo := pg.NewPostgresUsageProfileRepo(pool)
	setRepo := pg.NewPostgresQuestionSetRepo(pool)
	questionRepo := pg.NewPostgresQuestionRepo(pool)
	sessionRepo := pg.NewPostgresAnswerSessionRepo(pool)
	notificationRepo := pg.NewPostgresNotificationRepo(pool)
	styleRepo := pg.NewPostgresStyleRepo(pool)
	tm := pg.NewTxManager(pool)

	// ---- Redis (optional submit throttle) ----
	var throttle web.Throttle
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		throttle = red.NewRateLimiter(redisClient)
	} else {
		logger.Warn().Msg("redis.url not set; submit throttle disabled")
	}

	// ---- Use cases ----
	limits := cfg.Limits.Model()
	renderer := export.NewLimitedRenderer(export.NewTextRenderer(), cfg.Export.MaxConcurrent)

	entitlementUC := usecase.NewEntitlementUseCase(accountRepo, profileRepo, setRepo, sessionRepo, tm, limits, nil, logger)
	setUC := usecase.NewQuestionSetUseCase(setRepo, questionRepo, styleRepo, profileRepo, tm, limits, nil, logger)
	translator, err := i18n.NewTranslator(i18n.LocalesFS, cfg.I18n.Lang)
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}
	notificationUC := usecase.NewNotificationUseCase(notificationRepo, accountRepo, translator, nil, logger)
	responseUC := usecase.NewResponseUseCase(setRepo, questionRepo, styleRepo, sessionRepo, profileRepo, tm, notificationUC, renderer, limits, nil, logger)
	statsUC := usecase.NewStatsUseCase(accountRepo, logger)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TTL)
	srv := web.NewServer(entitlementUC, setUC, responseUC, notificationUC, statsUC, auth, throttle,
		cfg.Limits.SubmitPerMinute, cfg.HTTP.RequestTimeout, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
		logger.Info().Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
}

// watchPool publishes pgx pool stats every few seconds until ctx ends.
func watchPool(ctx context.Context, pool *pgxpool.Pool) {
	t := time.NewTicker(15 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st := pool.Stat()
			metrics.SetDBPoolStats(st.TotalConns(), st.IdleConns(), st.AcquiredConns())
		}
	}
}
