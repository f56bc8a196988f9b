package api

import (
	"context"
	"errors"

	"github.com/san-kum/xenonsim/internal/chart"
	"github.com/san-kum/xenonsim/internal/metrics"
	"github.com/san-kum/xenonsim/internal/series"
	"github.com/san-kum/xenonsim/internal/session"
	"github.com/san-kum/xenonsim/internal/storage"
)

// ChartSource is anything holding the rendered chart, such as a
// chart.Buffer or chart.Hub.
type ChartSource interface {
	Snapshot() []chart.Trace
}

// SessionService adapts a session controller to Service.
type SessionService struct {
	ctrl     *session.Controller
	solver   session.Solver
	chart    ChartSource
	extremes *metrics.Extremes
	store    *storage.Store
}

// NewSessionService wires the API to a controller. extremes and store may
// be nil.
func NewSessionService(ctrl *session.Controller, solver session.Solver, src ChartSource, extremes *metrics.Extremes, store *storage.Store) *SessionService {
	return &SessionService{ctrl: ctrl, solver: solver, chart: src, extremes: extremes, store: store}
}

func (s *SessionService) State() session.State { return s.ctrl.Snapshot() }

func (s *SessionService) Extend(ctx context.Context, days float64) error {
	return s.ctrl.Extend(ctx, days)
}

func (s *SessionService) Reset() { s.ctrl.Reset() }

func (s *SessionService) Initialize(ctx context.Context, phi0 float64) (*series.Equilibrium, error) {
	return s.ctrl.Initialize(ctx, phi0)
}

func (s *SessionService) SetControls(power, speed, phi0 *float64) error {
	return s.ctrl.ApplyControls(session.ControlUpdate{Power: power, Speed: speed, Phi0: phi0})
}

func (s *SessionService) Chart() []chart.Trace { return s.chart.Snapshot() }

func (s *SessionService) Extremes() []metrics.Extreme {
	if s.extremes == nil {
		return []metrics.Extreme{}
	}
	return s.extremes.All()
}

func (s *SessionService) Equilibrium(ctx context.Context, phi0 float64) (*series.Equilibrium, error) {
	return s.solver.Equilibrium(ctx, phi0)
}

func (s *SessionService) SaveExport() (*storage.ExportMetadata, error) {
	if s.store == nil {
		return nil, errors.New("exports are disabled")
	}
	st := s.ctrl.Snapshot()
	meta := storage.ExportMetadata{Power: st.Power, Speed: st.Speed, Phi0: st.Phi0, LastKnown: st.LastKnown}
	id, err := s.store.Save(meta, s.chart.Snapshot())
	if err != nil {
		return nil, err
	}
	return s.store.Load(id)
}

func (s *SessionService) ListExports() ([]storage.ExportMetadata, error) {
	if s.store == nil {
		return []storage.ExportMetadata{}, nil
	}
	return s.store.List()
}
