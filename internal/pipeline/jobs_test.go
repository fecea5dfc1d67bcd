package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/lessondeck/internal/deck"
	"github.com/dgallion1/lessondeck/internal/export"
)

func TestNewJob_Defaults(t *testing.T) {
	job := NewJob("intro", export.ModeBatch)
	if _, err := uuid.Parse(job.ID); err != nil {
		t.Errorf("expected uuid id, got %q", job.ID)
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if NewJob("intro", export.ModeLive).ID == job.ID {
		t.Error("expected distinct job ids")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := NewJob("intro", export.ModeLive)
	before := job.UpdatedAt
	time.Sleep(time.Millisecond)
	job.SetStatus(StatusCapturing, "capturing")
	if job.Status != StatusCapturing {
		t.Errorf("expected status %q, got %q", StatusCapturing, job.Status)
	}
	if !job.UpdatedAt.After(before) {
		t.Error("expected UpdatedAt to advance after SetStatus")
	}

	job.SetProgress(2, 5)
	job.Finish(&export.Result{FileName: "intro.pdf", Pages: 5}, nil)
	snap := job.Snapshot()
	if snap.Status != StatusSaved || snap.Result == nil || snap.Result.FileName != "intro.pdf" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.Progress.SlidesCaptured != 2 || snap.Progress.TotalSlides != 5 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
}

func TestJob_FinishFailed(t *testing.T) {
	job := NewJob("intro", export.ModeLive)
	job.Finish(nil, errors.New("capture slide 2: boom"))
	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if snap.Error != "capture slide 2: boom" {
		t.Errorf("expected error message kept, got %q", snap.Error)
	}
	if job.Result() != nil {
		t.Error("expected no result for failed job")
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := NewJob("intro", export.ModeLive)
	store.Put(job)

	if got := store.Get(job.ID); got != job {
		t.Fatal("expected to get job back")
	}
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := NewJob("old", export.ModeLive)
	expired.Finish(&export.Result{}, nil)
	running := NewJob("running", export.ModeLive)
	running.SetStatus(StatusCapturing, "capturing")
	store.Put(expired)
	store.Put(running)

	time.Sleep(100 * time.Millisecond)

	fresh := NewJob("new", export.ModeLive)
	fresh.Finish(nil, errors.New("x"))
	store.Put(fresh)

	store.Cleanup()

	if store.Get(expired.ID) != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get(running.ID) == nil {
		t.Error("expected running job to survive cleanup")
	}
	if store.Get(fresh.ID) == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

type mapSource map[string]deck.Deck

func (m mapSource) DeckFor(_ context.Context, id string) (deck.Deck, error) {
	d, ok := m[id]
	if !ok {
		return deck.Deck{}, deck.ErrLessonNotFound
	}
	return d, nil
}

// gateExporter reports progress for every slide, optionally blocking first.
type gateExporter struct {
	gate  chan struct{}
	mu    sync.Mutex
	calls int
}

func (g *gateExporter) Export(ctx context.Context, nav export.Navigator, mode export.Mode, progress export.Progress) (*export.Result, error) {
	if g.gate != nil {
		<-g.gate
	}
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	d := nav.Deck()
	for i := range d.Slides {
		progress(i+1, len(d.Slides))
	}
	return &export.Result{DeckID: d.ID, FileName: d.FileName(), Pages: len(d.Slides)}, nil
}

func waitTerminal(t *testing.T, job *Job) JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap := job.Snapshot(); snap.Status.Terminal() {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not finish", job.ID)
	return JobSnapshot{}
}

func testDeck() deck.Deck {
	l := deck.Lesson{ID: "intro", Title: "Intro", Slides: []deck.Slide{
		{ID: deck.StringID("a"), Type: deck.KindTitle, Title: "A"},
		{ID: deck.StringID("b"), Type: deck.KindClosing, Title: "B"},
	}}
	return l.Deck()
}

func TestOrchestrator_RunsJob(t *testing.T) {
	exp := &gateExporter{}
	o := NewOrchestrator(Config{MaxQueueSize: 2}, mapSource{"intro": testDeck()}, exp, nil, nil)
	o.Start(context.Background())
	defer o.Stop()

	job, err := o.Submit("intro", export.ModeLive)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	snap := waitTerminal(t, job)
	if snap.Status != StatusSaved {
		t.Fatalf("expected saved, got %s (%s)", snap.Status, snap.Error)
	}
	if snap.Progress.SlidesCaptured != 2 || snap.Progress.TotalSlides != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
	if snap.Result.FileName != "intro.pdf" {
		t.Errorf("expected intro.pdf, got %q", snap.Result.FileName)
	}
	if o.GetJob(job.ID) != job {
		t.Error("expected job retrievable by id")
	}
}

func TestOrchestrator_UnknownDeckFails(t *testing.T) {
	o := NewOrchestrator(Config{}, mapSource{}, &gateExporter{}, nil, nil)
	o.Start(context.Background())
	defer o.Stop()

	job, err := o.Submit("missing", export.ModeLive)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	snap := waitTerminal(t, job)
	if snap.Status != StatusFailed {
		t.Errorf("expected failed, got %s", snap.Status)
	}
}

func TestOrchestrator_QueueFull(t *testing.T) {
	exp := &gateExporter{gate: make(chan struct{})}
	o := NewOrchestrator(Config{MaxQueueSize: 1}, mapSource{"intro": testDeck()}, exp, nil, nil)
	o.Start(context.Background())
	defer func() {
		close(exp.gate)
		o.Stop()
	}()

	first, err := o.Submit("intro", export.ModeLive)
	if err != nil {
		t.Fatalf("submit first: %v", err)
	}
	// Wait for the worker to pick up the first job so the queue is empty.
	deadline := time.Now().Add(2 * time.Second)
	for o.QueueDepth() > 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if _, err := o.Submit("intro", export.ModeLive); err != nil {
		t.Fatalf("submit second: %v", err)
	}
	rejected, err := o.Submit("intro", export.ModeLive)
	if !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if rejected.Snapshot().Status != StatusFailed {
		t.Errorf("expected rejected job marked failed")
	}
	if first.Snapshot().Status.Terminal() {
		t.Errorf("expected first job still running")
	}
}
