// Package metrics observes the chart stream and keeps running statistics.
package metrics

import (
	"sort"
	"sync"

	"github.com/san-kum/xenonsim/internal/chart"
)

// Extreme is the largest and smallest value a series has reached, with the
// time each occurred.
type Extreme struct {
	Name    string  `json:"name"`
	Max     float64 `json:"max"`
	MaxTime float64 `json:"max_time"`
	Min     float64 `json:"min"`
	MinTime float64 `json:"min_time"`
	Samples int     `json:"samples"`
}

// Extremes is a chart.Sink tracking per-series extremes of every appended
// point. Clear forgets them.
type Extremes struct {
	mu    sync.Mutex
	order []string
	seen  map[string]*Extreme
}

func NewExtremes() *Extremes {
	return &Extremes{seen: make(map[string]*Extreme)}
}

func (e *Extremes) Init(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.order = append(e.order[:0], names...)
	e.seen = make(map[string]*Extreme)
}

func (e *Extremes) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = make(map[string]*Extreme)
}

func (e *Extremes) Append(b chart.Batch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range b.Series {
		for i, y := range s.Y {
			e.observe(s.Name, b.X[i], y)
		}
	}
}

func (e *Extremes) observe(name string, t, y float64) {
	x, ok := e.seen[name]
	if !ok {
		e.seen[name] = &Extreme{Name: name, Max: y, MaxTime: t, Min: y, MinTime: t, Samples: 1}
		return
	}
	x.Samples++
	if y > x.Max {
		x.Max, x.MaxTime = y, t
	}
	if y < x.Min {
		x.Min, x.MinTime = y, t
	}
}

// Get returns the extremes of one series.
func (e *Extremes) Get(name string) (Extreme, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	x, ok := e.seen[name]
	if !ok {
		return Extreme{}, false
	}
	return *x, true
}

// All returns every observed series, in Init order and then by name.
func (e *Extremes) All() []Extreme {
	e.mu.Lock()
	defer e.mu.Unlock()

	rank := make(map[string]int, len(e.order))
	for i, n := range e.order {
		rank[n] = i
	}
	out := make([]Extreme, 0, len(e.seen))
	for _, x := range e.seen {
		out = append(out, *x)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, iok := rank[out[i].Name]
		rj, jok := rank[out[j].Name]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		}
		return out[i].Name < out[j].Name
	})
	return out
}
