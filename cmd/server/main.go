package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/lessondeck/internal/app"
	"github.com/dgallion1/lessondeck/internal/config"
	"github.com/dgallion1/lessondeck/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	log := app.NewLogger(os.Stdout, cfg.LogLevel)
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log, metrics.New())
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}
	a.StartExports(ctx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.Server(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		if err := a.Close(); err != nil {
			log.Warn("close failed", "error", err)
		}
	}()

	log.Info("starting lessondeck",
		"port", cfg.Port,
		"slides", cfg.SlidesPath,
		"ledger", cfg.LedgerBackend,
		"persist_url", cfg.PersistURL,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
