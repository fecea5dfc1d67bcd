package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/lessondeck/internal/deck"
	"github.com/dgallion1/lessondeck/internal/export"
	"github.com/dgallion1/lessondeck/internal/metrics"
)

var ErrQueueFull = errors.New("export queue is full")

// DeckSource resolves a lesson id, or the unified id, to a fresh deck.
type DeckSource interface {
	DeckFor(ctx context.Context, id string) (deck.Deck, error)
}

// Exporter is the deck exporter the worker drives.
type Exporter interface {
	Export(ctx context.Context, nav export.Navigator, mode export.Mode, progress export.Progress) (*export.Result, error)
}

// Config sizes the queue and sets job retention.
type Config struct {
	MaxQueueSize    int
	JobTTL          time.Duration
	CleanupInterval time.Duration
}

// Orchestrator queues export jobs and drains them with a single worker, so
// exports never overlap.
type Orchestrator struct {
	jobs    *JobStore
	queue   chan *Job
	worker  *Worker
	log     *slog.Logger
	metrics *metrics.Metrics
	cfg     Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline; call Start to begin processing.
func NewOrchestrator(cfg Config, decks DeckSource, exp Exporter, log *slog.Logger, m *metrics.Metrics) *Orchestrator {
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "exports")
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		queue:   make(chan *Job, cfg.MaxQueueSize),
		worker:  NewWorker(decks, exp, log),
		log:     log,
		metrics: m,
		cfg:     cfg,
	}
}

// Start launches the worker goroutine.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		for {
			select {
			case <-workerCtx.Done():
				return
			case job, ok := <-o.queue:
				if !ok {
					return
				}
				o.gauge()
				o.worker.Process(workerCtx, job)
			}
		}
	}()

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(o.cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues an export of deckID.
func (o *Orchestrator) Submit(deckID string, mode export.Mode) (*Job, error) {
	job := NewJob(deckID, mode)
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		o.gauge()
		o.log.Info("export queued", "job_id", job.ID, "deck_id", deckID, "mode", string(mode))
		return job, nil
	default:
		job.Finish(nil, ErrQueueFull)
		return job, fmt.Errorf("%w (%d)", ErrQueueFull, o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

func (o *Orchestrator) gauge() {
	if o.metrics != nil {
		o.metrics.ExportQueueDepth.Set(float64(len(o.queue)))
	}
}
