package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"granjas-del-carmen/internal/adapters/auth/auth0"
	pg "granjas-del-carmen/internal/adapters/storage/postgres"
	"granjas-del-carmen/internal/platform/config"
	"granjas-del-carmen/internal/platform/logger"
	"granjas-del-carmen/internal/platform/metrics"
	"granjas-del-carmen/internal/ports/auth"
	"granjas-del-carmen/internal/router"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Env)

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		opened, err := pg.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("no se pudo conectar a postgres")
		}
		db = opened
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := pg.Migrate(ctx, cfg.DatabaseURL); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("migraciones fallaron")
		}
		cancel()
		log.Info().Msg("migraciones aplicadas")
	} else {
		log.Warn().Msg("sin DATABASE_URL: usando almacenamiento en memoria")
	}

	var (
		verifier    auth.AuthVerifier
		auth0Client *auth0.Client
	)
	if cfg.Auth0Configured() {
		auth0Client = auth0.NewClient(auth0.Config{
			Domain:       cfg.Auth0Domain,
			ClientID:     cfg.Auth0ClientID,
			ClientSecret: cfg.Auth0ClientSecret,
			Audience:     cfg.Auth0Audience,
			FrontendURL:  cfg.FrontendURL,
			CallbackURL:  cfg.Auth0CallbackURL,
			Timeout:      5 * time.Second,
		})
		verifier = auth0.NewVerifier(auth0Client)
		log.Info().Str("domain", cfg.Auth0Domain).Msg("auth0 configurado")
	} else {
		log.Warn().Msg("auth0 sin configurar: modo dev (X-Debug-User-ID)")
	}

	h := router.NewRouter(router.Options{
		AuthVerifier:   verifier,
		Auth0Client:    auth0Client,
		DB:             db,
		Logger:         log,
		Metrics:        metrics.New(),
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server escuchando")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("apagando")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown forzado")
	}
}
