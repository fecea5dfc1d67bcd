// Package ledger records the most recent PDF export per deck.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/dgallion1/lessondeck/internal/kv"
)

// StorageKey is the key the record list is stored under.
const StorageKey = "lesson_downloads"

// Record is one export of one deck.
type Record struct {
	LessonID     string    `json:"lessonId"`
	LessonTitle  string    `json:"lessonTitle"`
	FileName     string    `json:"fileName"`
	DownloadDate time.Time `json:"downloadDate"`
	FileSize     *int64    `json:"fileSize,omitempty"`
}

// Ledger is a list of Records kept as one JSON value in a kv.Store.
type Ledger struct {
	mu    sync.Mutex
	store kv.Store
	log   *slog.Logger
	now   func() time.Time
}

func New(store kv.Store, log *slog.Logger) *Ledger {
	if log == nil {
		log = slog.Default()
	}
	return &Ledger{store: store, log: log.With("component", "ledger"), now: time.Now}
}

// load reads the list. Missing or unparseable storage reads as empty.
func (l *Ledger) load(ctx context.Context) ([]Record, error) {
	raw, err := l.store.Get(ctx, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		l.log.Warn("ledger storage unreadable, treating as empty", "error", err)
		return []Record{}, nil
	}
	// An unreadable entry is dropped on its own so the rest survive.
	recs := make([]Record, 0, len(elems))
	for i, e := range elems {
		var r Record
		if err := json.Unmarshal(e, &r); err != nil {
			l.log.Warn("skipping unreadable ledger entry", "index", i, "error", err)
			continue
		}
		recs = append(recs, r)
	}
	return recs, nil
}

func (l *Ledger) save(ctx context.Context, recs []Record) error {
	data, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	return l.store.Set(ctx, StorageKey, string(data))
}

func without(recs []Record, lessonID string) []Record {
	out := recs[:0]
	for _, r := range recs {
		if r.LessonID != lessonID {
			out = append(out, r)
		}
	}
	return out
}

// Upsert replaces any record for lessonID with a fresh one stamped now.
// A nil size records an export whose persisted size is unknown.
func (l *Ledger) Upsert(ctx context.Context, lessonID, lessonTitle, fileName string, size *int64) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	recs, err := l.load(ctx)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		LessonID:     lessonID,
		LessonTitle:  lessonTitle,
		FileName:     fileName,
		DownloadDate: l.now().UTC(),
		FileSize:     size,
	}
	recs = append(without(recs, lessonID), rec)
	if err := l.save(ctx, recs); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns every record in insertion order.
func (l *Ledger) List(ctx context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

// Get returns the record for lessonID; ok is false if there is none.
func (l *Ledger) Get(ctx context.Context, lessonID string) (Record, bool, error) {
	recs, err := l.List(ctx)
	if err != nil {
		return Record{}, false, err
	}
	for _, r := range recs {
		if r.LessonID == lessonID {
			return r, true, nil
		}
	}
	return Record{}, false, nil
}

// Has reports whether lessonID has been exported.
func (l *Ledger) Has(ctx context.Context, lessonID string) (bool, error) {
	_, ok, err := l.Get(ctx, lessonID)
	return ok, err
}

func (l *Ledger) Remove(ctx context.Context, lessonID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	recs, err := l.load(ctx)
	if err != nil {
		return err
	}
	return l.save(ctx, without(recs, lessonID))
}

// Clear deletes the whole list.
func (l *Ledger) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Delete(ctx, StorageKey)
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// FormatFileSize renders a byte count with a 1024 base and up to two
// decimals, e.g. "1.5 KB".
func FormatFileSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := float64(n) / math.Pow(1024, float64(i))
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}
