package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cidrfence/cidrfence/internal/config"
	"github.com/cidrfence/cidrfence/internal/jobs"
	"github.com/cidrfence/cidrfence/internal/logger"
	"github.com/cidrfence/cidrfence/internal/scheduler"
	"github.com/cidrfence/cidrfence/internal/store/postgres"
)

func main() {
	log := logger.New("cidrfence-worker")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := postgres.Bootstrap(ctx, cfg.PostgresDSN()); err != nil {
		log.Fatal().Err(err).Msg("postgres bootstrap")
	}

	db, err := postgres.Open(cfg.PostgresDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("postgres open")
	}
	s := postgres.NewWithDB(db)

	worker := jobs.NewWorker(db, jobs.Config{
		BatchSize: cfg.JobQueueBatchSize,
		Interval:  cfg.JobQueueQueryInterval,
	}, log)

	reaper := scheduler.New(log, &scheduler.DeleteExpiredTask{
		Cidrs:    s.Cidrs(),
		Interval: cfg.SchedulerDeleteExpiredInterval,
		Log:      log,
	})

	go reaper.Run(ctx)

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("cidr job worker exit")
		os.Exit(1)
	}
}
