// Package export turns a deck into an image-based PDF, one fixed-size page per
// slide, then saves it locally, persists it remotely and records it in the
// download ledger.
package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/dgallion1/lessondeck/internal/deck"
	"github.com/dgallion1/lessondeck/internal/downloads"
	"github.com/dgallion1/lessondeck/internal/ledger"
	"github.com/dgallion1/lessondeck/internal/metrics"
	"github.com/dgallion1/lessondeck/internal/persist"
	"github.com/dgallion1/lessondeck/internal/render"
)

var (
	ErrExportInProgress = errors.New("export already in progress")
	ErrEmptyDeck        = errors.New("deck has no slides")
)

// State is the exporter's phase.
type State int

const (
	StateIdle State = iota
	StateExporting
	StateSaved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExporting:
		return "exporting"
	case StateSaved:
		return "saved"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Mode selects how slides reach the rasterizer.
type Mode string

const (
	// ModeLive activates each slide in the session store and captures the
	// mounted slide.
	ModeLive Mode = "live"
	// ModeBatch renders every slide off-screen into a staging directory and
	// leaves the session's active slide alone.
	ModeBatch Mode = "batch"
)

// ParseMode maps "" to live.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeLive:
		return ModeLive, nil
	case ModeBatch:
		return ModeBatch, nil
	}
	return "", fmt.Errorf("unknown export mode %q", s)
}

// Navigator is the session slide store the live mode drives.
type Navigator interface {
	Deck() deck.Deck
	Active() int
	Activate(i int) error
	Current() (deck.DeckSlide, bool)
}

// Capturer rasterizes one slide.
type Capturer interface {
	Capture(ctx context.Context, s deck.DeckSlide, pos render.Position) (render.Image, error)
}

// LocalSaver writes the finished PDF where the user picks it up.
type LocalSaver interface {
	SaveBytes(fileName string, data []byte) (downloads.SaveResult, error)
}

// Persister uploads the PDF to the downloads service.
type Persister interface {
	SaveDownload(ctx context.Context, fileName, lessonID, lessonTitle string, pdf []byte) (*persist.SaveResponse, error)
}

// Ledger records finished exports.
type Ledger interface {
	Upsert(ctx context.Context, lessonID, lessonTitle, fileName string, size *int64) (ledger.Record, error)
}

// Progress reports captured slides so far.
type Progress func(done, total int)

// Result describes a saved export.
type Result struct {
	DeckID    string         `json:"deckId"`
	FileName  string         `json:"fileName"`
	LocalPath string         `json:"localPath"`
	Pages     int            `json:"pages"`
	Bytes     int            `json:"bytes"`
	Persisted bool           `json:"persisted"`
	Record    *ledger.Record `json:"record,omitempty"`
	Duration  time.Duration  `json:"duration"`
}

// Config holds page geometry and batch-mode timing.
type Config struct {
	PageWidth  float64
	PageHeight float64
	// BatchSettle is the fixed wait after off-screen rendering.
	BatchSettle time.Duration
	// StagingDir is where batch staging directories are created; empty means
	// the system temp dir.
	StagingDir string
}

// DefaultConfig is a 1200x675 page with a 2s batch settle.
func DefaultConfig() Config {
	return Config{PageWidth: 1200, PageHeight: 675, BatchSettle: 2 * time.Second}
}

// Deps are the exporter's collaborators. Persister, Ledger, Settler, Metrics
// and Stats are optional.
type Deps struct {
	Capturer  Capturer
	Saver     LocalSaver
	Persister Persister
	Ledger    Ledger
	Settler   Settler
	Log       *slog.Logger
	Metrics   *metrics.Metrics
	Stats     *Stats
}

// Exporter runs one export at a time.
type Exporter struct {
	deps Deps
	cfg  Config
	log  *slog.Logger

	mu    sync.Mutex
	state State
	last  State
}

func New(deps Deps, cfg Config) *Exporter {
	def := DefaultConfig()
	if cfg.PageWidth <= 0 || cfg.PageHeight <= 0 {
		cfg.PageWidth, cfg.PageHeight = def.PageWidth, def.PageHeight
	}
	if cfg.BatchSettle < 0 {
		cfg.BatchSettle = 0
	}
	if deps.Settler == nil {
		deps.Settler = NoSettle{}
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{deps: deps, cfg: cfg, log: log.With("component", "exporter"), state: StateIdle, last: StateIdle}
}

// State returns the current phase.
func (e *Exporter) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// LastOutcome is StateSaved or StateFailed for the most recent export, or
// StateIdle if none has finished.
func (e *Exporter) LastOutcome() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Exporter) begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateExporting {
		return ErrExportInProgress
	}
	e.state = StateExporting
	return nil
}

func (e *Exporter) finish(outcome State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = outcome
	e.state = StateIdle
}

// Export captures every slide of nav's deck, assembles the PDF and hands it
// to the local saver, the persister and the ledger. Capture, assembly and
// local save failures fail the export without touching the ledger. A persist
// failure is logged and the ledger entry is recorded without a size.
func (e *Exporter) Export(ctx context.Context, nav Navigator, mode Mode, progress Progress) (*Result, error) {
	if mode == "" {
		mode = ModeLive
	}
	if err := e.begin(); err != nil {
		return nil, err
	}
	start := time.Now()
	d := nav.Deck()
	log := e.log.With("deck_id", d.ID, "mode", string(mode), "slides", len(d.Slides))
	log.Info("export started")

	res, err := e.run(ctx, nav, d, mode, progress, log)
	elapsed := time.Since(start)

	outcome := StateSaved
	if err != nil {
		outcome = StateFailed
	}
	e.finish(outcome)
	e.observe(mode, elapsed, err == nil)

	if err != nil {
		log.Error("export failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return nil, err
	}
	res.Duration = elapsed
	log.Info("export saved", "file", res.FileName, "bytes", res.Bytes, "persisted", res.Persisted, "duration_ms", elapsed.Milliseconds())
	return res, nil
}

func (e *Exporter) run(ctx context.Context, nav Navigator, d deck.Deck, mode Mode, progress Progress, log *slog.Logger) (*Result, error) {
	n := len(d.Slides)
	if n == 0 {
		return nil, ErrEmptyDeck
	}
	fileName := d.FileName()

	var (
		pdf []byte
		err error
	)
	switch mode {
	case ModeBatch:
		pdf, err = e.batch(ctx, d, progress)
	case ModeLive:
		entry := nav.Active()
		// Restore the entry slide on every path.
		defer func() {
			if rerr := nav.Activate(entry); rerr != nil {
				log.Warn("restore active slide failed", "index", entry, "error", rerr)
			}
		}()
		pdf, err = e.live(ctx, nav, n, progress)
	default:
		return nil, fmt.Errorf("unknown export mode %q", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", fileName, err)
	}

	saved, err := e.deps.Saver.SaveBytes(fileName, pdf)
	if err != nil {
		return nil, fmt.Errorf("export %s: local save: %w", fileName, err)
	}
	// Persist and ledger use the name the file was stored under.
	if saved.Name != "" {
		fileName = saved.Name
	}
	res := &Result{DeckID: d.ID, FileName: fileName, LocalPath: saved.FilePath, Pages: n, Bytes: len(pdf)}

	var size *int64
	if e.deps.Persister != nil {
		resp, perr := e.deps.Persister.SaveDownload(ctx, fileName, d.ID, d.Title, pdf)
		if perr != nil {
			log.Warn("persist failed, recording without size", "file", fileName, "error", perr)
			if e.deps.Metrics != nil {
				e.deps.Metrics.PersistFailures.Inc()
			}
		} else {
			res.Persisted = true
			size = resp.FileSize
		}
	}

	if e.deps.Ledger != nil {
		rec, lerr := e.deps.Ledger.Upsert(ctx, d.ID, d.Title, fileName, size)
		if lerr != nil {
			log.Error("ledger upsert failed", "file", fileName, "error", lerr)
		} else {
			res.Record = &rec
		}
	}
	return res, nil
}

// live mounts each slide in turn and captures what is mounted.
func (e *Exporter) live(ctx context.Context, nav Navigator, n int, progress Progress) ([]byte, error) {
	doc := e.newDocument()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := nav.Activate(i); err != nil {
			return nil, &render.CaptureError{Index: i, Err: fmt.Errorf("%w: %v", render.ErrNotMounted, err)}
		}
		if err := e.deps.Settler.Settle(ctx); err != nil {
			return nil, err
		}
		cur, ok := nav.Current()
		if !ok {
			return nil, &render.CaptureError{Index: i, Err: render.ErrNotMounted}
		}
		img, err := e.capture(ctx, cur, render.Position{Index: i, Total: n})
		if err != nil {
			return nil, err
		}
		if err := e.addPage(doc, i, bytes.NewReader(img.JPEG)); err != nil {
			return nil, err
		}
		if progress != nil {
			progress(i+1, n)
		}
	}
	return e.output(doc)
}

// batch renders everything into a staging directory, waits the fixed settle,
// then reads the staged images back one page at a time. The staging
// directory never outlives the call.
func (e *Exporter) batch(ctx context.Context, d deck.Deck, progress Progress) ([]byte, error) {
	stage, err := os.MkdirTemp(e.cfg.StagingDir, "deck-batch-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(stage)

	n := len(d.Slides)
	paths := make([]string, n)
	for i, s := range d.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := e.capture(ctx, s, render.Position{Index: i, Total: n})
		if err != nil {
			return nil, err
		}
		paths[i] = filepath.Join(stage, fmt.Sprintf("slide-%04d.jpg", i))
		if err := os.WriteFile(paths[i], img.JPEG, 0o600); err != nil {
			return nil, fmt.Errorf("stage slide %d: %w", i, err)
		}
	}

	if err := sleep(ctx, e.cfg.BatchSettle); err != nil {
		return nil, err
	}

	doc := e.newDocument()
	for i, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, &render.CaptureError{Index: i, Err: err}
		}
		err = e.addPage(doc, i, f)
		f.Close()
		if err != nil {
			return nil, err
		}
		if progress != nil {
			progress(i+1, n)
		}
	}
	return e.output(doc)
}

func (e *Exporter) capture(ctx context.Context, s deck.DeckSlide, pos render.Position) (render.Image, error) {
	start := time.Now()
	img, err := e.deps.Capturer.Capture(ctx, s, pos)
	if err != nil {
		var ce *render.CaptureError
		if !errors.As(err, &ce) {
			err = &render.CaptureError{Index: pos.Index, Err: err}
		}
		return render.Image{}, err
	}
	if m := e.deps.Metrics; m != nil {
		m.SlidesCaptured.Inc()
		m.CaptureDuration.Observe(time.Since(start).Seconds())
	}
	return img, nil
}

func (e *Exporter) observe(mode Mode, d time.Duration, ok bool) {
	if e.deps.Stats != nil {
		e.deps.Stats.Record(mode, d, ok)
	}
	if m := e.deps.Metrics; m != nil {
		outcome := "saved"
		if !ok {
			outcome = "failed"
		}
		m.ExportsTotal.WithLabelValues(string(mode), outcome).Inc()
		m.ExportDuration.WithLabelValues(string(mode)).Observe(d.Seconds())
	}
}

func (e *Exporter) pageSize() fpdf.SizeType {
	return fpdf.SizeType{Wd: e.cfg.PageWidth, Ht: e.cfg.PageHeight}
}

// newDocument starts a point-unit PDF whose first page already exists.
// "P" with landscape dimensions keeps the given width and height as is.
func (e *Exporter) newDocument() *fpdf.Fpdf {
	doc := fpdf.NewCustom(&fpdf.InitType{OrientationStr: "P", UnitStr: "pt", Size: e.pageSize()})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("lessondeck", true)
	doc.AddPage()
	return doc
}

// addPage draws a JPEG full-bleed on page i, adding the page if i > 0.
func (e *Exporter) addPage(doc *fpdf.Fpdf, i int, jpg io.Reader) error {
	if i > 0 {
		doc.AddPageFormat("P", e.pageSize())
	}
	name := fmt.Sprintf("slide-%d", i)
	opts := fpdf.ImageOptions{ImageType: "JPG"}
	doc.RegisterImageOptionsReader(name, opts, jpg)
	doc.ImageOptions(name, 0, 0, e.cfg.PageWidth, e.cfg.PageHeight, false, opts, 0, "")
	if err := doc.Error(); err != nil {
		return fmt.Errorf("add page %d: %w", i+1, err)
	}
	return nil
}

func (e *Exporter) output(doc *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("assemble pdf: %w", err)
	}
	return buf.Bytes(), nil
}
