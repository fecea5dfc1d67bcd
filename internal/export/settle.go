package export

import (
	"context"
	"time"
)

// Settler waits for a mounted slide to finish painting before capture.
type Settler interface {
	Settle(ctx context.Context) error
}

// NoSettle is for synchronous capturers, whose return already means the
// raster is complete.
type NoSettle struct{}

func (NoSettle) Settle(ctx context.Context) error { return ctx.Err() }

// FrameSettler waits a number of frame ticks plus a fixed delay. It suits
// capturers that paint asynchronously and expose no completion signal.
type FrameSettler struct {
	Frames   int
	Interval time.Duration
	Extra    time.Duration
}

// DefaultFrameSettler is two 60 Hz frames plus 100 ms.
func DefaultFrameSettler() FrameSettler {
	return FrameSettler{Frames: 2, Interval: time.Second / 60, Extra: 100 * time.Millisecond}
}

func (f FrameSettler) Settle(ctx context.Context) error {
	return sleep(ctx, time.Duration(f.Frames)*f.Interval+f.Extra)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
