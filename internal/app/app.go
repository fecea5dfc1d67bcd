// Package app assembles lessondeck's services from a Config.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dgallion1/lessondeck/internal/api"
	"github.com/dgallion1/lessondeck/internal/config"
	"github.com/dgallion1/lessondeck/internal/docstore"
	"github.com/dgallion1/lessondeck/internal/downloads"
	"github.com/dgallion1/lessondeck/internal/editor"
	"github.com/dgallion1/lessondeck/internal/export"
	"github.com/dgallion1/lessondeck/internal/kv"
	"github.com/dgallion1/lessondeck/internal/ledger"
	"github.com/dgallion1/lessondeck/internal/metrics"
	"github.com/dgallion1/lessondeck/internal/persist"
	"github.com/dgallion1/lessondeck/internal/pipeline"
	"github.com/dgallion1/lessondeck/internal/render"
)

// App holds the wired services. Exports is nil until StartExports.
type App struct {
	Config    config.Config
	Log       *slog.Logger
	Metrics   *metrics.Metrics
	KV        kv.Store
	Ledger    *ledger.Ledger
	Editor    *editor.Service
	Renderer  *render.Renderer
	Downloads *downloads.Area
	Outputs   *downloads.Area
	Persist   *persist.Client
	Exporter  *export.Exporter
	Stats     *export.Stats
	Exports   *pipeline.Orchestrator
}

// New wires every service from cfg. m may be nil to skip metrics.
func New(ctx context.Context, cfg config.Config, log *slog.Logger, m *metrics.Metrics) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	store, err := kv.Open(ctx, cfg.LedgerBackend, cfg.LedgerDir, cfg.RedisAddr, cfg.RedisPrefix)
	if err != nil {
		return nil, fmt.Errorf("open ledger store: %w", err)
	}

	renderer, err := render.NewRenderer(render.Options{
		Width:      cfg.PageWidth,
		Height:     cfg.PageHeight,
		PixelRatio: cfg.PixelRatio,
		Quality:    cfg.JPEGQuality,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("renderer: %w", err)
	}

	dl, err := downloads.NewArea(cfg.DownloadsDir, cfg.MaxUploadBytes, log)
	if err != nil {
		store.Close()
		return nil, err
	}
	out, err := downloads.NewArea(cfg.OutputDir, 0, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Log:       log,
		Metrics:   m,
		KV:        store,
		Ledger:    ledger.New(store, log),
		Editor:    editor.NewService(docstore.NewFileStore(cfg.SlidesPath), log, m),
		Renderer:  renderer,
		Downloads: dl,
		Outputs:   out,
		Stats:     export.NewStats(cfg.StatsWindow),
	}

	var persister export.Persister
	if cfg.PersistURL != "" {
		a.Persist = persist.NewClient(cfg.PersistURL, cfg.PersistAPIKey, cfg.PersistTimeout)
		persister = a.Persist
	}

	a.Exporter = export.New(export.Deps{
		Capturer:  renderer,
		Saver:     out,
		Persister: persister,
		Ledger:    a.Ledger,
		Settler:   Settler(cfg.LiveSettle),
		Log:       log,
		Metrics:   m,
		Stats:     a.Stats,
	}, export.Config{
		PageWidth:   float64(cfg.PageWidth),
		PageHeight:  float64(cfg.PageHeight),
		BatchSettle: cfg.BatchSettle,
		StagingDir:  cfg.StagingDir,
	})
	return a, nil
}

// StartExports launches the export job queue.
func (a *App) StartExports(ctx context.Context) {
	a.Exports = pipeline.NewOrchestrator(pipeline.Config{
		MaxQueueSize: a.Config.MaxQueueSize,
		JobTTL:       a.Config.JobTTL,
	}, a.Editor, a.Exporter, a.Log, a.Metrics)
	a.Exports.Start(ctx)
}

// Server builds the HTTP API over the wired services.
func (a *App) Server() *api.Server {
	return api.NewServer(api.Deps{
		Editor:    a.Editor,
		Downloads: a.Downloads,
		Ledger:    a.Ledger,
		Exports:   a.Exports,
		Renderer:  a.Renderer,
		Stats:     a.Stats,
		Metrics:   a.Metrics,
	}, a.Log, a.Config)
}

// Close stops the export queue and releases clients.
func (a *App) Close() error {
	if a.Exports != nil {
		a.Exports.Stop()
	}
	if a.Persist != nil {
		a.Persist.Close()
	}
	return a.KV.Close()
}

// Settler maps the live_settle setting to a settle strategy.
func Settler(name string) export.Settler {
	if strings.EqualFold(name, "frames") {
		return export.DefaultFrameSettler()
	}
	return export.NoSettle{}
}

// NewLogger returns a JSON logger at the named level.
func NewLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
