package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	app "github.com/bsyilmaz/backend-simplemeet/internal/app"
	httpx "github.com/bsyilmaz/backend-simplemeet/internal/http"
	room "github.com/bsyilmaz/backend-simplemeet/internal/room"
	ws "github.com/bsyilmaz/backend-simplemeet/internal/ws"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Room registry + idle reclamation
	reg := room.NewRegistry(cfg.RoomCapacity, logger)
	sweeper := room.NewSweeper(reg, cfg.SweepInterval, logger)
	go sweeper.Run(ctx)

	// WebSocket hub
	hub := ws.NewHub(logger, reg)

	// HTTP + WS router
	router := httpx.NewRouter(cfg, logger, hub, reg)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	// shutdown
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
