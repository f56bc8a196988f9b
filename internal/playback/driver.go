package playback

import (
	"context"
	"sort"
	"sync"
	"time"
)

// FrameID identifies a pending frame callback.
type FrameID uint64

// FrameDriver schedules one-shot callbacks on the next rendering frame.
type FrameDriver interface {
	RequestFrame(fn func(now time.Time)) FrameID
	CancelFrame(id FrameID)
}

// ManualDriver queues frame callbacks until Fire is called. The host's
// frame source (a bubbletea tick, a ticker, a test) decides when frames
// happen.
type ManualDriver struct {
	mu      sync.Mutex
	next    FrameID
	pending map[FrameID]func(time.Time)
}

func NewManualDriver() *ManualDriver {
	return &ManualDriver{pending: make(map[FrameID]func(time.Time))}
}

func (d *ManualDriver) RequestFrame(fn func(now time.Time)) FrameID {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	d.pending[d.next] = fn
	return d.next
}

func (d *ManualDriver) CancelFrame(id FrameID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, id)
}

// Pending returns the number of scheduled callbacks.
func (d *ManualDriver) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Fire runs, in request order, the callbacks that were pending when it was
// called. Callbacks requested during Fire wait for the next frame. It
// returns the number of callbacks run.
func (d *ManualDriver) Fire(now time.Time) int {
	d.mu.Lock()
	ids := make([]FrameID, 0, len(d.pending))
	for id := range d.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	d.mu.Unlock()

	ran := 0
	for _, id := range ids {
		d.mu.Lock()
		fn, ok := d.pending[id]
		delete(d.pending, id)
		d.mu.Unlock()
		if !ok {
			continue
		}
		fn(now)
		ran++
	}
	return ran
}

// TickerDriver fires a ManualDriver at a fixed frame rate.
type TickerDriver struct {
	*ManualDriver
	frameRate int
}

func NewTickerDriver(frameRate int) *TickerDriver {
	if frameRate <= 0 {
		frameRate = 60
	}
	return &TickerDriver{ManualDriver: NewManualDriver(), frameRate: frameRate}
}

// Run fires frames until ctx is done.
func (d *TickerDriver) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(d.frameRate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			d.Fire(now)
		}
	}
}
