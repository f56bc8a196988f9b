package api

import (
	"context"
	"errors"
	"io/fs"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/san-kum/xenonsim/internal/chart"
	"github.com/san-kum/xenonsim/internal/continuation"
	"github.com/san-kum/xenonsim/internal/metrics"
	"github.com/san-kum/xenonsim/internal/series"
	"github.com/san-kum/xenonsim/internal/session"
	"github.com/san-kum/xenonsim/internal/storage"
)

type Service interface {
	State() session.State
	Extend(ctx context.Context, days float64) error
	Reset()
	Initialize(ctx context.Context, phi0 float64) (*series.Equilibrium, error)
	SetControls(power, speed, phi0 *float64) error
	Chart() []chart.Trace
	Extremes() []metrics.Extreme
	Equilibrium(ctx context.Context, phi0 float64) (*series.Equilibrium, error)
	SaveExport() (*storage.ExportMetadata, error)
	ListExports() ([]storage.ExportMetadata, error)
}

// NewServer builds the control API. When stream is non-nil it is mounted
// at /ws/chart.
func NewServer(svc Service, stream http.Handler) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Xenon Simulator API", "1.0.0")
	api := humachi.New(router, cfg)

	if stream != nil {
		router.Handle("/ws/chart", stream)
	}

	registerSessionHandlers(api, svc)
	registerChartHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, session.ErrValidation), errors.Is(err, continuation.ErrInvalidRequest):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return huma.Error504GatewayTimeout(err.Error())
	case errors.Is(err, continuation.ErrFailed):
		return huma.Error502BadGateway(err.Error())
	case errors.Is(err, storage.ErrEmptyChart):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, fs.ErrNotExist):
		return huma.Error404NotFound(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}
