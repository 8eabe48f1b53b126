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

	router "github.com/akarpov/Mingle/internal/adapters/http"
	"github.com/akarpov/Mingle/internal/app"
	"github.com/akarpov/Mingle/internal/auth"
	"github.com/akarpov/Mingle/internal/config"
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
		// Missing mandatory configuration (the signing secret) must stop
		// the service at startup, never surface lazily per request.
		log.Fatal().Err(err).Msg("failed to load config")
	}

	gateway, err := auth.NewGateway(cfg.Secret, cfg.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build auth gateway")
	}

	registry := app.NewRegistry()
	rooms := app.NewRoomManager(cfg.RoomTTL, cfg.SweepInterval)
	queue := app.NewMatchQueue(registry, rooms, cfg.SearchWindow, cfg.SweepInterval)
	relay := app.NewRelay(registry)
	orch := app.NewOrchestrator(registry, rooms, queue, relay)

	go rooms.Run(ctx)
	go queue.Run(ctx)

	r := router.SetupRouter(ctx, cfg, orch, gateway)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Mingle server started")
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
