package main

import (
	"github.com/cidrfence/cidrfence/internal/config"
	"github.com/cidrfence/cidrfence/internal/logger"
	"github.com/cidrfence/cidrfence/internal/store/postgres"
)

func main() {
	log := logger.New("cidrfence-migrate")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.Open(cfg.PostgresDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("postgres open")
	}
	defer func() { _ = db.Close() }()

	if err := postgres.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}
	log.Info().Msg("migrations applied")
}
