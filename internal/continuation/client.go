package continuation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/xenonsim/internal/series"
)

const (
	maxBodyBytes     = 256 << 20
	maxErrorBytes    = 512
	defaultTolerance = 1e-6
)

// Request asks the solver to continue from Last for Duration days with a
// constant power fraction. Phi0 of zero leaves the solver's default flux.
type Request struct {
	Duration float64
	Last     series.Point
	Power    float64
	Phi0     float64
}

// Validate checks the local preconditions of a request.
func (r Request) Validate() error {
	if err := ValidateDuration(r.Duration); err != nil {
		return err
	}
	if math.IsNaN(r.Power) || r.Power < 0 || r.Power > 1 {
		return fmt.Errorf("%w: power fraction %v outside [0,1]", ErrInvalidRequest, r.Power)
	}
	if math.IsNaN(r.Phi0) || math.IsInf(r.Phi0, 0) || r.Phi0 < 0 {
		return fmt.Errorf("%w: flux %v", ErrInvalidRequest, r.Phi0)
	}
	return nil
}

// ValidateDuration rejects non-finite and non-positive durations.
func ValidateDuration(days float64) error {
	if math.IsNaN(days) || math.IsInf(days, 0) || days <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of days, got %v", ErrInvalidRequest, days)
	}
	return nil
}

// Client talks to the solver's HTTP interface.
type Client struct {
	base      *url.URL
	http      *http.Client
	tolerance float64
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTolerance sets how far time[0] may sit from the requested last time.
func WithTolerance(days float64) Option {
	return func(c *Client) { c.tolerance = days }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse solver url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("solver url %q: unsupported scheme", baseURL)
	}
	c := &Client{
		base:      u,
		http:      &http.Client{Timeout: timeout},
		tolerance: defaultTolerance,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Continue fetches the dataset continuing from req.Last. The result has
// every tracked column and starts at req.Last.Time.
func (c *Client) Continue(ctx context.Context, req Request) (*series.Dataset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("time", formatFloat(req.Duration))
	q.Set("state", formatFloat(req.Power))
	q.Set("lastTime", formatFloat(req.Last.Time))
	q.Set("lastIodine", formatFloat(req.Last.Iodine))
	q.Set("lastXenon", formatFloat(req.Last.Xenon))
	q.Set("lastPromethium", formatFloat(req.Last.Promethium))
	q.Set("lastSamarium", formatFloat(req.Last.Samarium))
	if req.Phi0 > 0 {
		q.Set("phi_0", formatFloat(req.Phi0))
	}

	start := time.Now()
	var ds series.Dataset
	if err := c.get(ctx, "simulation", q, &ds); err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, failed("simulation", 0, err)
	}
	if err := ds.RequireComplete(); err != nil {
		return nil, failed("simulation", 0, err)
	}
	if err := ds.CheckContinuity(req.Last.Time, c.tolerance*math.Max(1, math.Abs(req.Last.Time))); err != nil {
		return nil, failed("simulation", 0, err)
	}

	slog.Debug("continuation received",
		"points", ds.Len(),
		"from", ds.Time[0],
		"to", ds.Time[ds.Len()-1],
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &ds, nil
}

// Equilibrium fetches the steady-state and extremum values for phi0.
func (c *Client) Equilibrium(ctx context.Context, phi0 float64) (*series.Equilibrium, error) {
	if math.IsNaN(phi0) || math.IsInf(phi0, 0) || phi0 <= 0 {
		return nil, fmt.Errorf("%w: flux must be positive, got %v", ErrInvalidRequest, phi0)
	}
	q := url.Values{}
	q.Set("phi_0", formatFloat(phi0))

	var eq series.Equilibrium
	if err := c.get(ctx, "equilibrium", q, &eq); err != nil {
		return nil, err
	}
	return &eq, nil
}

func (c *Client) get(ctx context.Context, op string, q url.Values, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + op
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return failed(op, 0, err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return failed(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		text := strings.TrimSpace(string(msg))
		if text == "" {
			text = http.StatusText(resp.StatusCode)
		}
		return failed(op, resp.StatusCode, errors.New(text))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return failed(op, resp.StatusCode, err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
