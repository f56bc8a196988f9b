package playback

import (
	"log/slog"
	"sync"
	"time"

	"github.com/san-kum/xenonsim/internal/chart"
	"github.com/san-kum/xenonsim/internal/series"
)

// CompleteFunc receives the final point of a run that reached its end.
// It is never called for cancelled runs.
type CompleteFunc func(runID string, last series.Point)

// Completion is a run that reached its end and has not been collected by
// [Scheduler.TakeCompleted] yet.
type Completion struct {
	RunID string
	Last  series.Point
}

// Progress describes the active run.
type Progress struct {
	RunID  string `json:"run_id"`
	Cursor int    `json:"cursor"`
	Len    int    `json:"len"`
}

type run struct {
	id       string
	ds       *series.Dataset
	cursor   int
	baseline bool
	last     time.Time
	frame    FrameID
}

// Scheduler streams one dataset at a time into a chart sink, one batch per
// qualifying frame. Batch size and interval follow the speed control, which
// is read again on every frame.
type Scheduler struct {
	mu     sync.Mutex
	driver FrameDriver
	sink   chart.Sink
	speed  func() float64
	onDone CompleteFunc
	run    *run
	done   *Completion
}

func NewScheduler(driver FrameDriver, sink chart.Sink, speed func() float64) *Scheduler {
	return &Scheduler{driver: driver, sink: sink, speed: speed}
}

// OnComplete registers the callback for runs that reach exhaustion.
func (s *Scheduler) OnComplete(fn CompleteFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDone = fn
}

// Start validates ds and begins streaming it, cancelling any active run
// first. An invalid dataset is rejected before anything is cancelled or
// emitted.
func (s *Scheduler) Start(id string, ds *series.Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != nil {
		s.cancelLocked()
	}
	r := &run{id: id, ds: ds}
	s.run = r
	r.frame = s.driver.RequestFrame(s.frameFunc(r))
	slog.Debug("playback started", "run", id, "points", ds.Len())
	return nil
}

// Cancel stops the active run immediately, leaving its cursor where it
// was. It returns the cancelled run's progress. An uncollected completion
// is discarded.
func (s *Scheduler) Cancel() (Progress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = nil
	if s.run == nil {
		return Progress{}, false
	}
	p := s.progressLocked()
	s.cancelLocked()
	return p, true
}

func (s *Scheduler) cancelLocked() {
	r := s.run
	s.driver.CancelFrame(r.frame)
	s.run = nil
	slog.Debug("playback cancelled", "run", r.id, "cursor", r.cursor, "points", r.ds.Len())
}

// TakeCompleted returns and clears the most recent run that played to its
// end. The completion is recorded before the scheduler lock is released, so
// a caller that takes it before calling Start never misses a run that
// finished concurrently.
func (s *Scheduler) TakeCompleted() (Completion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done == nil {
		return Completion{}, false
	}
	c := *s.done
	s.done = nil
	return c, true
}

// Active reports whether a run is in progress.
func (s *Scheduler) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run != nil
}

// Progress returns the active run's cursor, or a zero Progress when idle.
func (s *Scheduler) Progress() Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return Progress{}
	}
	return s.progressLocked()
}

func (s *Scheduler) progressLocked() Progress {
	return Progress{RunID: s.run.id, Cursor: s.run.cursor, Len: s.run.ds.Len()}
}

func (s *Scheduler) frameFunc(r *run) func(time.Time) {
	return func(now time.Time) { s.tick(r, now) }
}

func (s *Scheduler) tick(r *run, now time.Time) {
	s.mu.Lock()
	if s.run != r {
		// superseded or cancelled while the frame was in flight
		s.mu.Unlock()
		return
	}

	n := r.ds.Len()
	if !r.baseline {
		r.baseline = true
		r.last = now
		r.frame = s.driver.RequestFrame(s.frameFunc(r))
		s.mu.Unlock()
		return
	}

	speed := s.speed()
	elapsed := float64(now.Sub(r.last)) / float64(time.Millisecond)
	if elapsed >= IntervalMillis(speed) && r.cursor < n {
		end := min(r.cursor+BatchSize(speed), n)
		s.sink.Append(window(r.ds, r.cursor, end))
		r.cursor = end
		r.last = now
	}

	if r.cursor < n {
		r.frame = s.driver.RequestFrame(s.frameFunc(r))
		s.mu.Unlock()
		return
	}

	s.run = nil
	done := s.onDone
	last := r.ds.Last()
	s.done = &Completion{RunID: r.id, Last: last}
	s.mu.Unlock()

	slog.Debug("playback finished", "run", r.id, "points", n)
	if done != nil {
		done(r.id, last)
	}
}

func window(ds *series.Dataset, lo, hi int) chart.Batch {
	xs, cols := ds.Window(lo, hi)
	b := chart.Batch{X: xs, Series: make([]chart.Values, len(cols))}
	for i, c := range cols {
		b.Series[i] = chart.Values{Name: string(c.Variable), Y: c.Values}
	}
	return b
}
