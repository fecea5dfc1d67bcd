package export

import (
	"testing"
	"time"
)

func TestStatsSnapshotPercentiles(t *testing.T) {
	stats := NewStats(time.Hour)
	for i, ms := range []int64{100, 200, 300, 400, 500} {
		mode := ModeLive
		if i%2 == 1 {
			mode = ModeBatch
		}
		stats.Record(mode, time.Duration(ms)*time.Millisecond, i != 4)
	}

	snap := stats.Snapshot()
	if snap.Count != 5 {
		t.Fatalf("expected count=5, got %d", snap.Count)
	}
	if snap.Succeeded != 4 || snap.Failed != 1 {
		t.Errorf("expected 4 ok / 1 failed, got %d / %d", snap.Succeeded, snap.Failed)
	}
	if snap.Live != 3 || snap.Batch != 2 {
		t.Errorf("expected 3 live / 2 batch, got %d / %d", snap.Live, snap.Batch)
	}
	if snap.MinMs != 100 || snap.MaxMs != 500 {
		t.Errorf("expected min=100 max=500, got %d %d", snap.MinMs, snap.MaxMs)
	}
	if snap.AvgMs != 300 {
		t.Errorf("expected avg=300, got %f", snap.AvgMs)
	}
	if snap.P50Ms != 300 {
		t.Errorf("expected p50=300, got %f", snap.P50Ms)
	}
	if snap.P95Ms != 480 {
		t.Errorf("expected p95=480, got %f", snap.P95Ms)
	}
	if snap.P99Ms != 496 {
		t.Errorf("expected p99=496, got %f", snap.P99Ms)
	}
}

func TestStatsPrunesOldSamples(t *testing.T) {
	stats := NewStats(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stats.now = func() time.Time { return now }
	stats.Record(ModeLive, time.Second, true)

	now = now.Add(2 * time.Minute)
	if snap := stats.Snapshot(); snap.Count != 0 {
		t.Fatalf("expected count=0 after prune, got %d", snap.Count)
	}

	stats.Record(ModeLive, -time.Second, true)
	snap := stats.Snapshot()
	if snap.Count != 1 || snap.MinMs != 0 {
		t.Errorf("expected one clamped sample, got %+v", snap)
	}
}
