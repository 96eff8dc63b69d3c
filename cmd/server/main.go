package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/tmakar/coscribe/internal/adapters/http"
	"github.com/tmakar/coscribe/internal/adapters/ws"
	"github.com/tmakar/coscribe/internal/app"
	"github.com/tmakar/coscribe/internal/config"
	"github.com/tmakar/coscribe/internal/core"
	"github.com/tmakar/coscribe/internal/session"
	"github.com/tmakar/coscribe/internal/store"
	"github.com/tmakar/coscribe/internal/token"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()
	pg := store.NewPostgres(db)

	var revoked app.RevocationStore
	if cfg.RedisURL != "" {
		rs, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rs.Close()
		revoked = rs
	}

	auth := app.NewAuthenticator(app.AuthConfig{
		Disabled:         cfg.AuthDisabled,
		SystemUsername:   cfg.SystemUsername,
		FallbackUsername: cfg.FallbackUsername,
		CookieName:       cfg.CookieName,
	}, token.Verifier{Secret: []byte(cfg.Secret)}, pg, revoked)

	reg := core.NewRegistry()
	hub := app.NewHub(reg, app.NewAccessGate(pg, pg), app.NewDispatcher())
	ctl := ws.NewController(hub, auth, cfg)

	r := router.SetupRouter(ctx, cfg, ctl, reg)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("coscribe collab server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
