package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cidrfence/cidrfence/internal/api"
	"github.com/cidrfence/cidrfence/internal/auth"
	"github.com/cidrfence/cidrfence/internal/bootstrap"
	"github.com/cidrfence/cidrfence/internal/config"
	"github.com/cidrfence/cidrfence/internal/health"
	"github.com/cidrfence/cidrfence/internal/logger"
	"github.com/cidrfence/cidrfence/internal/query"
	"github.com/cidrfence/cidrfence/internal/store"
	"github.com/cidrfence/cidrfence/internal/store/postgres"
)

func main() {
	log := logger.New("cidrfence-api")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Info().
		Str("environment", string(cfg.Environment)).
		Int("http_port", cfg.HTTPPort).
		Msg("cidrfence api starting")

	ctx := context.Background()
	if err := postgres.Bootstrap(ctx, cfg.PostgresDSN()); err != nil {
		log.Fatal().Err(err).Msg("postgres bootstrap")
	}

	db, err := postgres.Open(cfg.PostgresDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("postgres open")
	}
	s := postgres.NewWithDB(db)

	if err := bootstrap.EnsureDefaultAdmin(ctx, s, cfg.DefaultAdminUser, cfg.DefaultAdminUserPassword, log); err != nil {
		log.Fatal().Err(err).Msg("default admin bootstrap")
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.DefaultTokenTTL)
	cache := auth.NewTokenCache(cfg.AuthCacheTTL)
	middleware := auth.NewMiddleware(issuer, cache)
	queryEngine := query.New(s.Cidrs())

	storeChecker := store.NewStoreHealthChecker(s, log, 2*time.Second)
	svcHealth := health.NewServiceHealthChecker(log, storeChecker)
	go storeChecker.Start(ctx, 15*time.Second)
	go svcHealth.Start(ctx, 15*time.Second)
	api.BindServiceHealth(svcHealth.IsHealthy)

	router := api.NewRouter(api.Deps{
		Store:      s,
		Query:      queryEngine,
		Issuer:     issuer,
		Cache:      cache,
		Middleware: middleware,
	})

	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.DBPoolCloseTimeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
