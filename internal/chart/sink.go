package chart

// Values is one named series' y values inside a Batch.
type Values struct {
	Name string    `json:"name"`
	Y    []float64 `json:"y"`
}

// Batch is an atomic multi-series append: every series in Series gets the
// points (X[i], Y[i]).
type Batch struct {
	X      []float64 `json:"x"`
	Series []Values  `json:"series"`
}

// Len is the number of points per series in the batch.
func (b Batch) Len() int { return len(b.X) }

// Sink accepts append-only batches of points per named series.
type Sink interface {
	Init(names []string)
	Clear()
	Append(b Batch)
}

// Fanout forwards every call to each sink in order.
type Fanout []Sink

func (f Fanout) Init(names []string) {
	for _, s := range f {
		s.Init(names)
	}
}

func (f Fanout) Clear() {
	for _, s := range f {
		s.Clear()
	}
}

func (f Fanout) Append(b Batch) {
	for _, s := range f {
		s.Append(b)
	}
}
