package chart

import "sync"

// Trace is the accumulated points of one series.
type Trace struct {
	Name string    `json:"name"`
	X    []float64 `json:"x"`
	Y    []float64 `json:"y"`
}

// Buffer is an in-memory Sink that keeps every appended point. It is safe
// for concurrent use; renderers read it through Snapshot.
type Buffer struct {
	mu      sync.RWMutex
	order   []string
	traces  map[string]*Trace
	appends int
}

func NewBuffer() *Buffer {
	return &Buffer{traces: make(map[string]*Trace)}
}

func (b *Buffer) Init(names []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.order = append(b.order[:0], names...)
	b.traces = make(map[string]*Trace, len(names))
	for _, n := range names {
		b.traces[n] = &Trace{Name: n}
	}
	b.appends = 0
}

// Clear drops every point but keeps the series names.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range b.traces {
		t.X = nil
		t.Y = nil
	}
	b.appends = 0
}

func (b *Buffer) Append(batch Batch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range batch.Series {
		t, ok := b.traces[s.Name]
		if !ok {
			t = &Trace{Name: s.Name}
			b.traces[s.Name] = t
			b.order = append(b.order, s.Name)
		}
		n := len(s.Y)
		if len(batch.X) < n {
			n = len(batch.X)
		}
		t.X = append(t.X, batch.X[:n]...)
		t.Y = append(t.Y, s.Y[:n]...)
	}
	b.appends++
}

// Appends counts Append calls since the last Init or Clear.
func (b *Buffer) Appends() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.appends
}

// Points returns the number of points held for name.
func (b *Buffer) Points(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if t, ok := b.traces[name]; ok {
		return len(t.X)
	}
	return 0
}

// Empty reports whether no series holds any point.
func (b *Buffer) Empty() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, t := range b.traces {
		if len(t.X) > 0 {
			return false
		}
	}
	return true
}

// Snapshot returns a deep copy of every trace in registration order.
func (b *Buffer) Snapshot() []Trace {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Trace, 0, len(b.order))
	for _, name := range b.order {
		t := b.traces[name]
		out = append(out, Trace{
			Name: name,
			X:    append([]float64(nil), t.X...),
			Y:    append([]float64(nil), t.Y...),
		})
	}
	return out
}
