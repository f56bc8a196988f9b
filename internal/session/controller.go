package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/san-kum/xenonsim/internal/chart"
	"github.com/san-kum/xenonsim/internal/continuation"
	"github.com/san-kum/xenonsim/internal/playback"
	"github.com/san-kum/xenonsim/internal/series"
)

// Solver is the external collaborator producing trajectories.
type Solver interface {
	Continue(ctx context.Context, req continuation.Request) (*series.Dataset, error)
	Equilibrium(ctx context.Context, phi0 float64) (*series.Equilibrium, error)
}

// Options seeds the controls and is what Reset restores power and speed
// to. Phi0 of zero leaves the solver's own default flux.
type Options struct {
	Power float64
	Speed float64
	Phi0  float64
}

func DefaultOptions() Options {
	return Options{Power: DefaultPower, Speed: DefaultSpeed}
}

// State is a point-in-time copy of the session.
type State struct {
	LastKnown  series.Point      `json:"last_known"`
	Power      float64           `json:"power"`
	PowerLabel string            `json:"power_label"`
	Speed      float64           `json:"speed"`
	Phi0       float64           `json:"phi_0"`
	Duration   string            `json:"duration"`
	Generation uint64            `json:"generation"`
	Playing    bool              `json:"playing"`
	Fetching   bool              `json:"fetching"`
	Progress   playback.Progress `json:"progress"`
}

// Controller owns the session state and the playback scheduler. It is safe
// for concurrent use; lock order is controller, then scheduler, then sink.
type Controller struct {
	mu       sync.Mutex
	solver   Solver
	sink     chart.Sink
	sched    *playback.Scheduler
	controls Controls
	defaults Options

	last          series.Point
	durationInput string
	gen           uint64
	runID         string
	cancelFetch   context.CancelFunc
}

// New builds a controller whose controls start at opts. The options are
// checked with the same rules as the setters.
func New(solver Solver, sink chart.Sink, driver playback.FrameDriver, opts Options) (*Controller, error) {
	errs := []error{validatePower(opts.Power), validateSpeed(opts.Speed)}
	if opts.Phi0 != 0 {
		errs = append(errs, validatePhi0(opts.Phi0))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	c := &Controller{solver: solver, sink: sink, defaults: opts}
	c.controls.Power.Store(opts.Power)
	c.controls.Speed.Store(opts.Speed)
	c.controls.Phi0.Store(opts.Phi0)
	c.sched = playback.NewScheduler(driver, sink, c.controls.Speed.Load)
	c.sched.OnComplete(c.commit)
	sink.Init(series.Names())
	return c, nil
}

// SetPower sets the reactor-power fraction used by the next request.
func (c *Controller) SetPower(p float64) error {
	if err := validatePower(p); err != nil {
		return err
	}
	c.controls.Power.Store(p)
	return nil
}

// SetSpeed sets the animation speed; the running scheduler picks it up on
// its next frame.
func (c *Controller) SetSpeed(s float64) error {
	if err := validateSpeed(s); err != nil {
		return err
	}
	c.controls.Speed.Store(s)
	return nil
}

// SetPhi0 sets the full-power flux used by the next request.
func (c *Controller) SetPhi0(phi0 float64) error {
	if err := validatePhi0(phi0); err != nil {
		return err
	}
	c.controls.Phi0.Store(phi0)
	return nil
}

// ControlUpdate carries optional new control values; nil fields are left
// alone.
type ControlUpdate struct {
	Power *float64
	Speed *float64
	Phi0  *float64
}

// ApplyControls validates every provided value before applying any.
func (c *Controller) ApplyControls(u ControlUpdate) error {
	if u.Power != nil {
		if err := validatePower(*u.Power); err != nil {
			return err
		}
	}
	if u.Speed != nil {
		if err := validateSpeed(*u.Speed); err != nil {
			return err
		}
	}
	if u.Phi0 != nil {
		if err := validatePhi0(*u.Phi0); err != nil {
			return err
		}
	}
	if u.Power != nil {
		c.controls.Power.Store(*u.Power)
	}
	if u.Speed != nil {
		c.controls.Speed.Store(*u.Speed)
	}
	if u.Phi0 != nil {
		c.controls.Phi0.Store(*u.Phi0)
	}
	return nil
}

// SetDurationInput stores the raw duration input.
func (c *Controller) SetDurationInput(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.durationInput = s
}

// ExtendFromInput parses the stored duration input and extends by it.
func (c *Controller) ExtendFromInput(ctx context.Context) error {
	c.mu.Lock()
	input := c.durationInput
	c.mu.Unlock()

	days, err := ParseDuration(input)
	if err != nil {
		return err
	}
	return c.Extend(ctx, days)
}

// Extend requests days more of simulation continuing from the last known
// point and, on success, replaces any active playback with the new data.
// On failure nothing changes. A response overtaken by a newer Extend or a
// Reset is dropped and nil is returned. Cancelling ctx is reported as
// continuation.ErrFailed wrapping the context error.
func (c *Controller) Extend(ctx context.Context, days float64) error {
	if err := ValidateDuration(days); err != nil {
		return err
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	req := continuation.Request{
		Duration: days,
		Last:     c.last,
		Power:    c.controls.Power.Load(),
		Phi0:     c.controls.Phi0.Load(),
	}
	if c.cancelFetch != nil {
		c.cancelFetch()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancelFetch = cancel
	c.mu.Unlock()

	slog.Info("requesting continuation",
		"days", days,
		"power", req.Power,
		"last_time", req.Last.Time,
		"generation", gen,
	)
	ds, err := c.solver.Continue(fetchCtx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	cancel()
	if gen != c.gen {
		slog.Debug("dropping stale continuation", "generation", gen, "current", c.gen)
		return nil
	}
	c.cancelFetch = nil

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			slog.Debug("continuation abandoned", "days", days, "error", ctxErr)
			return fmt.Errorf("%w: %w", continuation.ErrFailed, ctxErr)
		}
		slog.Warn("continuation failed", "days", days, "error", err)
		return err
	}

	c.settleLocked()
	superseding := c.sched.Active()
	runID := uuid.NewString()
	if err := c.sched.Start(runID, ds); err != nil {
		slog.Warn("continuation rejected", "error", err)
		return fmt.Errorf("%w: %w", continuation.ErrFailed, err)
	}
	if superseding {
		c.last = ds.Anchor()
	}
	c.runID = runID
	slog.Info("playback started",
		"run", runID,
		"points", ds.Len(),
		"from", ds.Time[0],
		"to", ds.Time[ds.Len()-1],
		"superseded", superseding,
	)
	return nil
}

// commit is the scheduler's completion callback.
func (c *Controller) commit(string, series.Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked()
}

// settleLocked records the final point of the current run if it played to
// the end. Extend calls it before starting a new run so a run that finished
// while the response was being applied still commits.
func (c *Controller) settleLocked() {
	done, ok := c.sched.TakeCompleted()
	if !ok || done.RunID != c.runID {
		return
	}
	c.last = done.Last
	c.runID = ""
	slog.Info("playback complete", "run", done.RunID, "last_time", done.Last.Time)
}

// Reset cancels playback and any in-flight request, empties the chart and
// restores every control except the flux to its default.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.cancelFetch != nil {
		c.cancelFetch()
		c.cancelFetch = nil
	}
	c.sched.Cancel()
	c.runID = ""
	c.sink.Clear()

	c.last = series.Point{}
	c.durationInput = ""
	c.controls.Power.Store(c.defaults.Power)
	c.controls.Speed.Store(c.defaults.Speed)
	slog.Info("session reset", "generation", c.gen)
}

// Initialize sets the full-power flux, resets the session and fetches the
// equilibrium values for display. The fetch has no effect on playback.
func (c *Controller) Initialize(ctx context.Context, phi0 float64) (*series.Equilibrium, error) {
	if err := validatePhi0(phi0); err != nil {
		return nil, err
	}
	c.controls.Phi0.Store(phi0)
	c.Reset()

	eq, err := c.solver.Equilibrium(ctx, phi0)
	if err != nil {
		slog.Warn("equilibrium query failed", "phi_0", phi0, "error", err)
		return nil, err
	}
	return eq, nil
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	power := c.controls.Power.Load()
	return State{
		LastKnown:  c.last,
		Power:      power,
		PowerLabel: FormatPercent(power),
		Speed:      c.controls.Speed.Load(),
		Phi0:       c.controls.Phi0.Load(),
		Duration:   c.durationInput,
		Generation: c.gen,
		Playing:    c.sched.Active(),
		Fetching:   c.cancelFetch != nil,
		Progress:   c.sched.Progress(),
	}
}
