package chart

import (
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/xenonsim/internal/series"
)

var seriesColors = map[series.Variable]asciigraph.AnsiColor{
	series.Iodine:       asciigraph.DarkTurquoise,
	series.Xenon:        asciigraph.Gray,
	series.Promethium:   asciigraph.Tomato,
	series.Samarium:     asciigraph.SteelBlue,
	series.ReactivityXe: asciigraph.Gray,
	series.ReactivitySm: asciigraph.SteelBlue,
}

// RenderPanel plots every trace belonging to panel with asciigraph. Traces
// with fewer than two points are left out; when none remain an empty string
// is returned.
func RenderPanel(traces []Trace, panel series.Panel, width, height int) string {
	var (
		data    [][]float64
		colors  []asciigraph.AnsiColor
		legends []string
	)
	for _, t := range traces {
		info, ok := series.Lookup(series.Variable(t.Name))
		if !ok || info.Panel != panel || len(t.Y) < 2 {
			continue
		}
		data = append(data, t.Y)
		colors = append(colors, seriesColors[info.Variable])
		legends = append(legends, info.Label)
	}
	if len(data) == 0 {
		return ""
	}

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Caption(panel.Title()),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	return asciigraph.PlotMany(data, opts...)
}

// TimeSpan returns the first and last x value across traces.
func TimeSpan(traces []Trace) (float64, float64, bool) {
	var lo, hi float64
	found := false
	for _, t := range traces {
		if len(t.X) == 0 {
			continue
		}
		if !found || t.X[0] < lo {
			lo = t.X[0]
		}
		if !found || t.X[len(t.X)-1] > hi {
			hi = t.X[len(t.X)-1]
		}
		found = true
	}
	return lo, hi, found
}
