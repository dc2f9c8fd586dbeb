package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"diaryshare/internal/config"
	pg "diaryshare/internal/infra/db/postgres"
	"diaryshare/internal/infra/logging"
	"diaryshare/internal/infra/sched"
	"diaryshare/internal/usecase"
)

// maintenance runs operator jobs outside the request path:
//
//	maintenance reset-weekly           one sweep, then exit
//	maintenance -every 1h reset-weekly sweep on an interval until SIGTERM
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "console logs")
	every := flag.Duration("every", 0, "repeat interval; zero runs once")
	flag.Parse()

	if flag.NArg() != 1 || flag.Arg(0) != "reset-weekly" {
		log.Fatalf("usage: maintenance [-every d] reset-weekly")
	}

	cfg, err := config.LoadToolConfig(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, *devMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	entitlementUC := usecase.NewEntitlementUseCase(
		pg.NewPostgresAccountRepo(pool),
		pg.NewPostgresUsageProfileRepo(pool),
		pg.NewPostgresQuestionSetRepo(pool),
		pg.NewPostgresAnswerSessionRepo(pool),
		pg.NewTxManager(pool),
		cfg.Limits.Model(),
		nil,
		logger,
	)
	worker := sched.NewResetWorker(*every, entitlementUC, logger)

	if *every <= 0 {
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()
		if _, err := worker.RunOnce(runCtx); err != nil {
			logger.Fatal().Err(err).Msg("reset-weekly")
		}
		return
	}
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("reset-weekly")
	}
}
