package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"imitation-game/internal/config"
	"imitation-game/internal/db"
	"imitation-game/internal/game"
	"imitation-game/internal/journal"
	"imitation-game/internal/logging"
	"imitation-game/internal/media"
	"imitation-game/internal/server"

	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.Warn().Err(err).Msg("failed to load .env")
	}
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	store, err := media.New(cfg.UploadsDir, cfg.ClipsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("media store setup failed")
	}

	deps := game.Deps{
		Clips: store,
		Media: store,
		Settings: game.Settings{
			CountdownDelay: cfg.CountdownDelay(),
			VotePause:      cfg.VotePause(),
		},
		Logger: &log.Logger,
	}

	var writer *journal.Writer
	if cfg.DatabaseURL != "" {
		conn, err := db.Open(cfg.DatabaseURL, db.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime(),
		})
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		if err := db.Migrate(conn); err != nil {
			log.Fatal().Err(err).Msg("database migration failed")
		}
		writer = journal.New(conn, journal.DefaultBuffer)
		deps.Journal = writer
		log.Info().Msg("session journal enabled")
	} else {
		log.Info().Msg("DATABASE_URL not set, session journal disabled")
	}

	hub := server.NewHub()
	deps.Emitter = hub
	rooms := game.NewRegistry(deps, nil)
	srv := server.New(rooms, hub, store, cfg)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("imitation-game server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, os.Interrupt)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	rooms.Shutdown()
	if writer != nil {
		writer.Close()
	}
	log.Info().Msg("shutdown complete")
}
