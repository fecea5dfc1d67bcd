package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/lessondeck/internal/viewer"
)

// Worker runs one export job at a time.
type Worker struct {
	decks    DeckSource
	exporter Exporter
	log      *slog.Logger
}

func NewWorker(decks DeckSource, exp Exporter, log *slog.Logger) *Worker {
	return &Worker{decks: decks, exporter: exp, log: log}
}

// Process loads the deck fresh, mounts it in a private slide store and
// exports it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "deck_id", job.DeckID, "mode", string(job.Mode))

	d, err := w.decks.DeckFor(ctx, job.DeckID)
	if err != nil {
		log.Error("deck lookup failed", "error", err)
		job.Finish(nil, fmt.Errorf("load deck: %w", err))
		return
	}

	job.SetStatus(StatusCapturing, "capturing")
	job.SetProgress(0, len(d.Slides))

	res, err := w.exporter.Export(ctx, viewer.NewSlideStore(d), job.Mode, job.SetProgress)
	if err != nil {
		log.Error("export job failed", "error", err)
		job.Finish(nil, err)
		return
	}
	log.Info("export job saved", "file", res.FileName, "pages", res.Pages)
	job.Finish(res, nil)
}
