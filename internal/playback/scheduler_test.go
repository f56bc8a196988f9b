package playback

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/san-kum/xenonsim/internal/chart"
	"github.com/san-kum/xenonsim/internal/series"
)

type recorder struct {
	mu      sync.Mutex
	batches []chart.Batch
}

func (r *recorder) Init(names []string) {}
func (r *recorder) Clear()              {}
func (r *recorder) Append(b chart.Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func (r *recorder) xs() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []float64
	for _, b := range r.batches {
		out = append(out, b.X...)
	}
	return out
}

func ramp(n int, offset float64) *series.Dataset {
	t := make([]float64, n)
	iodine := make([]float64, n)
	xenon := make([]float64, n)
	for i := range t {
		t[i] = offset + float64(i)
		iodine[i] = float64(i)
		xenon[i] = float64(2 * i)
	}
	return series.New(t,
		series.Column{Variable: series.Iodine, Values: iodine},
		series.Column{Variable: series.Xenon, Values: xenon},
	)
}

func constSpeed(v float64) func() float64 { return func() float64 { return v } }

var epoch = time.Unix(1700000000, 0)

func at(ms float64) time.Time {
	return epoch.Add(time.Duration(ms * float64(time.Millisecond)))
}

func TestScheduler_SingleBatchWhenBatchCoversDataset(t *testing.T) {
	drv := NewManualDriver()
	rec := &recorder{}
	s := NewScheduler(drv, rec, constSpeed(50))

	var doneID string
	var donePoint series.Point
	s.OnComplete(func(id string, last series.Point) {
		doneID, donePoint = id, last
	})

	ds := series.New([]float64{0, 1, 2, 3}, series.Column{Variable: series.Iodine, Values: []float64{0, 1, 2, 3}})
	if err := s.Start("a", ds); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	drv.Fire(at(0))
	if rec.count() != 0 {
		t.Fatal("baseline frame must not emit")
	}
	drv.Fire(at(10))
	if rec.count() != 0 {
		t.Fatal("emitted before interval elapsed")
	}
	drv.Fire(at(21))
	if rec.count() != 1 {
		t.Fatalf("expected one batch, got %d", rec.count())
	}

	b := rec.batches[0]
	if b.Len() != 4 || b.Series[0].Name != "iodine" || b.Series[0].Y[3] != 3 {
		t.Errorf("unexpected batch %+v", b)
	}
	if s.Active() {
		t.Error("run should be idle after exhaustion")
	}
	if drv.Pending() != 0 {
		t.Errorf("expected no pending frames, got %d", drv.Pending())
	}
	if doneID != "a" || donePoint.Time != 3 || donePoint.Iodine != 3 {
		t.Errorf("completion = %q %+v", doneID, donePoint)
	}
}

func TestScheduler_BatchesFollowSpeed(t *testing.T) {
	drv := NewManualDriver()
	rec := &recorder{}
	speed := 0.0
	s := NewScheduler(drv, rec, func() float64 { return speed })

	if err := s.Start("slow", ramp(40, 0)); err != nil {
		t.Fatal(err)
	}
	drv.Fire(at(0))
	drv.Fire(at(60))
	if got := rec.batches[0].Len(); got != 18 {
		t.Fatalf("speed 0 batch = %d, want 18", got)
	}

	speed = 100
	drv.Fire(at(70))
	if got := rec.batches[1].Len(); got != 22 {
		t.Fatalf("speed 100 batch = %d, want remaining 22", got)
	}
	if s.Active() {
		t.Error("run should have finished")
	}
}

func TestScheduler_EmitsEveryPointOnce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.Intn(600)
		ds := ramp(n, float64(trial))
		drv := NewManualDriver()
		rec := &recorder{}
		speed := rng.Float64() * 100
		s := NewScheduler(drv, rec, func() float64 { return speed })

		finished := false
		s.OnComplete(func(string, series.Point) { finished = true })
		if err := s.Start("p", ds); err != nil {
			t.Fatal(err)
		}

		now := 0.0
		for frames := 0; s.Active(); frames++ {
			if frames > 100000 {
				t.Fatalf("trial %d: run never finished", trial)
			}
			now += rng.Float64() * 60
			speed = rng.Float64() * 100
			drv.Fire(at(now))
		}

		if !finished {
			t.Fatalf("trial %d: completion not reported", trial)
		}
		got := rec.xs()
		if len(got) != n {
			t.Fatalf("trial %d: emitted %d points, want %d", trial, len(got), n)
		}
		for i, x := range got {
			if x != ds.Time[i] {
				t.Fatalf("trial %d: point %d = %v, want %v", trial, i, x, ds.Time[i])
			}
		}
		for _, b := range rec.batches {
			for _, v := range b.Series {
				if len(v.Y) != len(b.X) {
					t.Fatalf("trial %d: series %s misaligned in batch", trial, v.Name)
				}
			}
		}
	}
}

func TestScheduler_StartSupersedesActiveRun(t *testing.T) {
	drv := NewManualDriver()
	rec := &recorder{}
	s := NewScheduler(drv, rec, constSpeed(0))

	var completed []string
	s.OnComplete(func(id string, _ series.Point) { completed = append(completed, id) })

	if err := s.Start("old", ramp(100, 0)); err != nil {
		t.Fatal(err)
	}
	drv.Fire(at(0))
	drv.Fire(at(60))
	if rec.count() != 1 {
		t.Fatalf("expected one batch from old run, got %d", rec.count())
	}

	if err := s.Start("new", ramp(5, 1000)); err != nil {
		t.Fatal(err)
	}
	if drv.Pending() != 1 {
		t.Fatalf("expected exactly one pending frame, got %d", drv.Pending())
	}
	if p := s.Progress(); p.RunID != "new" || p.Cursor != 0 {
		t.Errorf("unexpected progress %+v", p)
	}

	drv.Fire(at(100))
	drv.Fire(at(200))

	for _, b := range rec.batches[1:] {
		if b.X[0] < 1000 {
			t.Fatalf("superseded run emitted batch %v", b.X)
		}
	}
	if len(completed) != 1 || completed[0] != "new" {
		t.Errorf("completed = %v, want [new]", completed)
	}
}

func TestScheduler_StaleFrameIgnored(t *testing.T) {
	drv := NewManualDriver()
	rec := &recorder{}
	s := NewScheduler(drv, rec, constSpeed(50))

	if err := s.Start("a", ramp(10, 0)); err != nil {
		t.Fatal(err)
	}
	s.mu.Lock()
	stale := s.run
	s.mu.Unlock()

	s.Cancel()
	s.tick(stale, at(0))
	s.tick(stale, at(500))

	if rec.count() != 0 {
		t.Errorf("cancelled run emitted %d batches", rec.count())
	}
	if drv.Pending() != 0 {
		t.Errorf("cancelled run scheduled %d frames", drv.Pending())
	}
}

func TestScheduler_Cancel(t *testing.T) {
	drv := NewManualDriver()
	rec := &recorder{}
	s := NewScheduler(drv, rec, constSpeed(0))
	called := false
	s.OnComplete(func(string, series.Point) { called = true })

	if _, ok := s.Cancel(); ok {
		t.Error("cancel on idle scheduler should report false")
	}

	if err := s.Start("a", ramp(50, 0)); err != nil {
		t.Fatal(err)
	}
	drv.Fire(at(0))
	drv.Fire(at(60))

	p, ok := s.Cancel()
	if !ok || p.Cursor != 18 || p.Len != 50 {
		t.Errorf("cancel progress = %+v, %v", p, ok)
	}
	if s.Active() || drv.Pending() != 0 {
		t.Error("cancel left the run scheduled")
	}

	drv.Fire(at(1000))
	if rec.count() != 1 || called {
		t.Error("cancelled run kept emitting or completed")
	}
}

func TestScheduler_RejectsMalformedDataset(t *testing.T) {
	drv := NewManualDriver()
	rec := &recorder{}
	s := NewScheduler(drv, rec, constSpeed(50))

	if err := s.Start("good", ramp(10, 0)); err != nil {
		t.Fatal(err)
	}

	bad := series.New([]float64{0, 1, 2}, series.Column{Variable: series.Iodine, Values: []float64{0, 1}})
	if err := s.Start("bad", bad); err == nil {
		t.Fatal("expected integrity error")
	}

	if p := s.Progress(); p.RunID != "good" {
		t.Errorf("rejected start disturbed active run: %+v", p)
	}
	if rec.count() != 0 {
		t.Error("malformed dataset was partially rendered")
	}
}

func TestTickerDriver_Run(t *testing.T) {
	drv := NewTickerDriver(200)
	fired := make(chan struct{}, 1)
	drv.RequestFrame(func(time.Time) { fired <- struct{}{} })

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	go drv.Run(ctx)

	select {
	case <-fired:
	case <-ctx.Done():
		t.Fatal("ticker driver never fired")
	}
}

func TestScheduler_TakeCompleted(t *testing.T) {
	drv := NewManualDriver()
	s := NewScheduler(drv, &recorder{}, constSpeed(50))

	if _, ok := s.TakeCompleted(); ok {
		t.Fatal("idle scheduler reported a completion")
	}

	ds := ramp(5, 10)
	if err := s.Start("a", ds); err != nil {
		t.Fatal(err)
	}
	drv.Fire(at(0))
	if _, ok := s.TakeCompleted(); ok {
		t.Fatal("running scheduler reported a completion")
	}
	drv.Fire(at(100))

	c, ok := s.TakeCompleted()
	if !ok || c.RunID != "a" || c.Last != ds.Last() {
		t.Errorf("completion = %+v, %v", c, ok)
	}
	if _, ok := s.TakeCompleted(); ok {
		t.Error("completion returned twice")
	}

	if err := s.Start("b", ramp(5, 20)); err != nil {
		t.Fatal(err)
	}
	drv.Fire(at(200))
	drv.Fire(at(300))
	s.Cancel()
	if _, ok := s.TakeCompleted(); ok {
		t.Error("cancel kept an uncollected completion")
	}
}
