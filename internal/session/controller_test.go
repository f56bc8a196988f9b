package session_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/xenonsim/internal/chart"
	"github.com/san-kum/xenonsim/internal/continuation"
	"github.com/san-kum/xenonsim/internal/playback"
	"github.com/san-kum/xenonsim/internal/series"
	"github.com/san-kum/xenonsim/internal/session"
)

type fakeSolver struct {
	mu       sync.Mutex
	requests []continuation.Request
	replies  []*series.Dataset
	err      error
	gate     chan struct{}
	eq       *series.Equilibrium
	eqPhi0   float64
}

func (f *fakeSolver) Continue(ctx context.Context, req continuation.Request) (*series.Dataset, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate := f.gate
	var reply *series.Dataset
	if len(f.replies) > 0 {
		reply, f.replies = f.replies[0], f.replies[1:]
	}
	err := f.err
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (f *fakeSolver) Equilibrium(ctx context.Context, phi0 float64) (*series.Equilibrium, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.eqPhi0 = phi0
	if f.err != nil {
		return nil, f.err
	}
	return f.eq, nil
}

func (f *fakeSolver) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeSolver) lastRequest() continuation.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

// trajectory builds n points every 0.1 days from t0 with every variable set.
func trajectory(t0 float64, n int) *series.Dataset {
	t := make([]float64, n)
	for i := range t {
		t[i] = t0 + 0.1*float64(i)
	}
	cols := make([]series.Column, 0, len(series.Catalogue))
	for k, v := range series.Variables() {
		vals := make([]float64, n)
		for i := range vals {
			vals[i] = float64(k+1)*1e15 + t[i]
		}
		cols = append(cols, series.Column{Variable: v, Values: vals})
	}
	return series.New(t, cols...)
}

// holdingSink blocks the first Append after hold until release is closed.
type holdingSink struct {
	*chart.Buffer
	mu      sync.Mutex
	armed   bool
	held    chan struct{}
	release chan struct{}
}

func newHoldingSink() *holdingSink {
	return &holdingSink{Buffer: chart.NewBuffer(), held: make(chan struct{}), release: make(chan struct{})}
}

func (h *holdingSink) hold() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.armed = true
}

func (h *holdingSink) Append(b chart.Batch) {
	h.mu.Lock()
	armed := h.armed
	h.armed = false
	h.mu.Unlock()
	if armed {
		close(h.held)
		<-h.release
	}
	h.Buffer.Append(b)
}

var epoch = time.Unix(1700000000, 0)

// drain fires frames 100ms apart until nothing is pending.
func drain(drv *playback.ManualDriver) {
	now := epoch
	for i := 0; i < 10000 && drv.Pending() > 0; i++ {
		drv.Fire(now)
		now = now.Add(100 * time.Millisecond)
	}
}

var _ = Describe("Controller", func() {
	var (
		solver *fakeSolver
		buf    *chart.Buffer
		drv    *playback.ManualDriver
		ctrl   *session.Controller
		ctx    context.Context
	)

	BeforeEach(func() {
		solver = &fakeSolver{}
		buf = chart.NewBuffer()
		drv = playback.NewManualDriver()
		var err error
		ctrl, err = session.New(solver, buf, drv, session.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	It("starts from the zero point with default controls", func() {
		st := ctrl.Snapshot()
		Expect(st.LastKnown).To(Equal(series.Point{}))
		Expect(st.Power).To(Equal(session.DefaultPower))
		Expect(st.PowerLabel).To(Equal("100%"))
		Expect(st.Speed).To(Equal(session.DefaultSpeed))
		Expect(st.Playing).To(BeFalse())
		Expect(buf.Empty()).To(BeTrue())
	})

	Describe("Extend", func() {
		It("plays the continuation to the end and commits its final point", func() {
			ds := trajectory(0, 400)
			solver.replies = []*series.Dataset{ds}

			Expect(ctrl.Extend(ctx, 40)).To(Succeed())
			req := solver.lastRequest()
			Expect(req.Duration).To(Equal(40.0))
			Expect(req.Last).To(Equal(series.Point{}))
			Expect(req.Power).To(Equal(1.0))
			Expect(ctrl.Snapshot().Playing).To(BeTrue())

			drain(drv)

			st := ctrl.Snapshot()
			Expect(st.Playing).To(BeFalse())
			Expect(st.LastKnown).To(Equal(ds.Last()))
			Expect(buf.Points(string(series.Xenon))).To(Equal(400))
		})

		It("continues from the committed point with the current power", func() {
			first := trajectory(0, 50)
			second := trajectory(first.Last().Time, 50)
			solver.replies = []*series.Dataset{first, second}

			Expect(ctrl.Extend(ctx, 5)).To(Succeed())
			drain(drv)
			Expect(ctrl.SetPower(0.5)).To(Succeed())
			Expect(ctrl.Extend(ctx, 5)).To(Succeed())

			req := solver.lastRequest()
			Expect(req.Last).To(Equal(first.Last()))
			Expect(req.Power).To(Equal(0.5))
			drain(drv)
			Expect(ctrl.Snapshot().LastKnown).To(Equal(second.Last()))
			Expect(buf.Points(string(series.Iodine))).To(Equal(100))
		})

		DescribeTable("rejects invalid durations without contacting the solver",
			func(days float64) {
				err := ctrl.Extend(ctx, days)
				Expect(err).To(MatchError(session.ErrValidation))
				Expect(solver.calls()).To(BeZero())
				Expect(ctrl.Snapshot().Generation).To(BeZero())
			},
			Entry("zero", 0.0),
			Entry("negative", -5.0),
		)

		It("leaves state untouched when the solver fails", func() {
			solver.err = &continuation.Error{Op: "continue", Status: 500, Wrapped: errors.New("boom")}

			err := ctrl.Extend(ctx, 1)
			Expect(err).To(MatchError(continuation.ErrFailed))
			st := ctrl.Snapshot()
			Expect(st.LastKnown).To(Equal(series.Point{}))
			Expect(st.Playing).To(BeFalse())
			Expect(buf.Empty()).To(BeTrue())
		})

		It("treats a malformed dataset as a continuation failure", func() {
			bad := trajectory(0, 5)
			bad.Columns[0].Values = bad.Columns[0].Values[:2]
			solver.replies = []*series.Dataset{bad}

			err := ctrl.Extend(ctx, 1)
			Expect(err).To(MatchError(continuation.ErrFailed))
			Expect(err).To(MatchError(series.ErrDataIntegrity))
			Expect(drv.Pending()).To(BeZero())
		})

		It("supersedes an active run and takes the new anchor as the last known point", func() {
			first := trajectory(0, 1000)
			second := trajectory(3.2, 200)
			solver.replies = []*series.Dataset{first, second}

			Expect(ctrl.Extend(ctx, 100)).To(Succeed())
			drv.Fire(epoch)
			drv.Fire(epoch.Add(100 * time.Millisecond))
			Expect(buf.Points(string(series.Xenon))).To(Equal(playback.BatchSize(50)))

			Expect(ctrl.Extend(ctx, 20)).To(Succeed())
			Expect(ctrl.Snapshot().LastKnown).To(Equal(second.Anchor()))

			drain(drv)
			Expect(ctrl.Snapshot().LastKnown).To(Equal(second.Last()))
			Expect(buf.Points(string(series.Xenon))).To(Equal(playback.BatchSize(50) + 200))
		})

		It("drops a response that arrives after a reset", func() {
			solver.gate = make(chan struct{})
			solver.replies = []*series.Dataset{trajectory(0, 10)}

			done := make(chan error, 1)
			go func() { done <- ctrl.Extend(ctx, 1) }()
			Eventually(solver.calls).Should(Equal(1))
			Eventually(func() bool { return ctrl.Snapshot().Fetching }).Should(BeTrue())

			ctrl.Reset()
			close(solver.gate)

			Eventually(done).Should(Receive(BeNil()))
			Expect(buf.Empty()).To(BeTrue())
			Expect(drv.Pending()).To(BeZero())
			Expect(ctrl.Snapshot().Playing).To(BeFalse())
		})

		It("commits a run that finishes while a newer response is being applied", func() {
			sink := newHoldingSink()
			c, err := session.New(solver, sink, drv, session.DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			first := trajectory(0, 3)
			solver.replies = []*series.Dataset{first, trajectory(0.2, 3)}

			Expect(c.Extend(ctx, 0.2)).To(Succeed())
			drv.Fire(epoch)
			sink.hold()

			fired := make(chan struct{})
			go func() {
				defer close(fired)
				drv.Fire(epoch.Add(time.Second))
			}()
			Eventually(sink.held).Should(BeClosed())

			extended := make(chan error, 1)
			go func() { extended <- c.Extend(ctx, 0.2) }()
			Eventually(solver.calls).Should(Equal(2))
			Consistently(extended, 50*time.Millisecond).ShouldNot(Receive())

			close(sink.release)
			Eventually(extended).Should(Receive(BeNil()))
			Eventually(fired).Should(BeClosed())

			st := c.Snapshot()
			Expect(st.LastKnown).To(Equal(first.Last()))
			Expect(st.Playing).To(BeTrue())
		})

		It("reports a cancelled request as a continuation failure", func() {
			solver.gate = make(chan struct{})
			cctx, cancel := context.WithCancel(ctx)
			defer cancel()

			done := make(chan error, 1)
			go func() { done <- ctrl.Extend(cctx, 1) }()
			Eventually(solver.calls).Should(Equal(1))
			cancel()

			var err error
			Eventually(done).Should(Receive(&err))
			Expect(err).To(MatchError(continuation.ErrFailed))
			Expect(err).To(MatchError(context.Canceled))
			st := ctrl.Snapshot()
			Expect(st.Playing).To(BeFalse())
			Expect(st.Fetching).To(BeFalse())
		})

		It("extends by the stored duration input", func() {
			solver.replies = []*series.Dataset{trajectory(0, 3)}
			ctrl.SetDurationInput(" 2.5 ")
			Expect(ctrl.ExtendFromInput(ctx)).To(Succeed())
			Expect(solver.lastRequest().Duration).To(Equal(2.5))

			ctrl.SetDurationInput("abc")
			Expect(ctrl.ExtendFromInput(ctx)).To(MatchError(session.ErrValidation))
		})
	})

	Describe("Reset", func() {
		It("is a no-op on a fresh session apart from the generation", func() {
			ctrl.Reset()
			st := ctrl.Snapshot()
			Expect(st.LastKnown).To(Equal(series.Point{}))
			Expect(st.Generation).To(Equal(uint64(1)))
			Expect(buf.Empty()).To(BeTrue())
		})

		It("stops playback mid-run and restores defaults", func() {
			solver.replies = []*series.Dataset{trajectory(0, 1000)}
			Expect(ctrl.SetPower(0.3)).To(Succeed())
			Expect(ctrl.SetSpeed(90)).To(Succeed())
			Expect(ctrl.SetPhi0(1e13)).To(Succeed())
			ctrl.SetDurationInput("10")
			Expect(ctrl.Extend(ctx, 10)).To(Succeed())
			drv.Fire(epoch)
			drv.Fire(epoch.Add(time.Second))
			Expect(buf.Empty()).To(BeFalse())

			ctrl.Reset()

			st := ctrl.Snapshot()
			Expect(st.Playing).To(BeFalse())
			Expect(st.LastKnown).To(Equal(series.Point{}))
			Expect(st.Power).To(Equal(session.DefaultPower))
			Expect(st.Speed).To(Equal(session.DefaultSpeed))
			Expect(st.Duration).To(BeEmpty())
			Expect(st.Phi0).To(Equal(1e13))
			Expect(buf.Empty()).To(BeTrue())
			Expect(drv.Pending()).To(BeZero())

			drain(drv)
			Expect(buf.Empty()).To(BeTrue())
		})

		It("discards a cancelled run's final point", func() {
			solver.replies = []*series.Dataset{trajectory(0, 1000), trajectory(0, 5)}
			Expect(ctrl.Extend(ctx, 10)).To(Succeed())
			drv.Fire(epoch)
			ctrl.Reset()

			Expect(ctrl.Extend(ctx, 1)).To(Succeed())
			Expect(solver.lastRequest().Last).To(Equal(series.Point{}))
		})
	})

	Describe("Initialize", func() {
		It("resets the session and returns equilibrium values for the flux", func() {
			solver.eq = &series.Equilibrium{XenonInfinity: 3e15, MaxXenonTime: 11.2}
			solver.replies = []*series.Dataset{trajectory(0, 50)}
			Expect(ctrl.Extend(ctx, 5)).To(Succeed())
			drain(drv)

			eq, err := ctrl.Initialize(ctx, 1.5e13)
			Expect(err).NotTo(HaveOccurred())
			Expect(eq.XenonInfinity).To(Equal(3e15))
			Expect(solver.eqPhi0).To(Equal(1.5e13))

			st := ctrl.Snapshot()
			Expect(st.Phi0).To(Equal(1.5e13))
			Expect(st.LastKnown).To(Equal(series.Point{}))
			Expect(buf.Empty()).To(BeTrue())
		})

		DescribeTable("rejects a non-positive flux",
			func(phi0 float64) {
				_, err := ctrl.Initialize(ctx, phi0)
				Expect(err).To(MatchError(session.ErrValidation))
				Expect(ctrl.Snapshot().Generation).To(BeZero())
			},
			Entry("zero", 0.0),
			Entry("negative", -1e13),
		)
	})

	Describe("controls", func() {
		It("rejects out-of-range values", func() {
			Expect(ctrl.SetPower(1.2)).To(MatchError(session.ErrValidation))
			Expect(ctrl.SetSpeed(-1)).To(MatchError(session.ErrValidation))
			Expect(ctrl.SetPhi0(0)).To(MatchError(session.ErrValidation))
			Expect(ctrl.Snapshot().Power).To(Equal(session.DefaultPower))
		})
	})
})

var _ = DescribeTable("New rejects invalid options",
	func(opts session.Options) {
		_, err := session.New(&fakeSolver{}, chart.NewBuffer(), playback.NewManualDriver(), opts)
		Expect(err).To(MatchError(session.ErrValidation))
	},
	Entry("NaN speed", session.Options{Power: 1, Speed: math.NaN()}),
	Entry("NaN power", session.Options{Power: math.NaN(), Speed: 50}),
	Entry("speed above range", session.Options{Power: 1, Speed: 101}),
	Entry("infinite flux", session.Options{Power: 1, Speed: 50, Phi0: math.Inf(1)}),
	Entry("negative flux", session.Options{Power: 1, Speed: 50, Phi0: -1}),
)

var _ = Describe("ApplyControls", func() {
	It("applies nothing when any value is invalid", func() {
		ctrl, err := session.New(&fakeSolver{}, chart.NewBuffer(), playback.NewManualDriver(), session.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		power, speed := 0.4, 500.0
		err = ctrl.ApplyControls(session.ControlUpdate{Power: &power, Speed: &speed})
		Expect(err).To(MatchError(session.ErrValidation))
		Expect(ctrl.Snapshot().Power).To(Equal(session.DefaultPower))

		speed = 80
		Expect(ctrl.ApplyControls(session.ControlUpdate{Power: &power, Speed: &speed})).To(Succeed())
		st := ctrl.Snapshot()
		Expect(st.Power).To(Equal(0.4))
		Expect(st.Speed).To(Equal(80.0))
	})
})
