package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/san-kum/xenonsim/internal/chart"
	"github.com/san-kum/xenonsim/internal/series"
)

const (
	legendWidth = 170
	titleHeight = 24
)

type bounds struct {
	minX, maxX, minY, maxY float64
}

func panelBounds(traces []chart.Trace) bounds {
	b := bounds{}
	first := true
	for _, t := range traces {
		for i := range t.X {
			x, y := t.X[i], t.Y[i]
			if first {
				b = bounds{x, x, y, y}
				first = false
				continue
			}
			b.minX, b.maxX = min(b.minX, x), max(b.maxX, x)
			b.minY, b.maxY = min(b.minY, y), max(b.maxY, y)
		}
	}

	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	b.minY -= rangeY * 0.05
	b.maxY += rangeY * 0.05
	b.maxX = b.minX + rangeX
	return b
}

func panelTraces(traces []chart.Trace, panel series.Panel) ([]chart.Trace, []series.Info) {
	var out []chart.Trace
	var infos []series.Info
	for _, t := range traces {
		info, ok := series.Lookup(series.Variable(t.Name))
		if !ok || info.Panel != panel || len(t.X) < 2 {
			continue
		}
		out = append(out, t)
		infos = append(infos, info)
	}
	return out, infos
}

// writePanel draws one panel into sb with its top edge at offsetY. It
// returns false when the panel has nothing to draw.
func writePanel(sb *strings.Builder, traces []chart.Trace, panel series.Panel, width, height, offsetY int) bool {
	traces, infos := panelTraces(traces, panel)
	if len(traces) == 0 {
		return false
	}

	plotW := float64(width - legendWidth)
	plotH := float64(height - titleHeight)
	b := panelBounds(traces)
	rangeX := b.maxX - b.minX
	rangeY := b.maxY - b.minY

	fmt.Fprintf(sb, `<g transform="translate(0,%d)">
<text x="8" y="16" fill="#dddddd" font-family="monospace" font-size="13">%s (days %.2f to %.2f)</text>
`, offsetY, html.EscapeString(panel.Title()), b.minX, b.maxX)

	for i, t := range traces {
		fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, infos[i].Color)
		for j := range t.X {
			x := (t.X[j] - b.minX) / rangeX * plotW
			y := float64(titleHeight) + plotH - (t.Y[j]-b.minY)/rangeY*plotH
			if j == 0 {
				fmt.Fprintf(sb, "%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")

		ly := titleHeight + 16 + i*18
		fmt.Fprintf(sb, `<rect x="%.0f" y="%d" width="12" height="3" fill="%s"/>
<text x="%.0f" y="%d" fill="#dddddd" font-family="monospace" font-size="12">%s</text>
`, plotW+10, ly-4, infos[i].Color, plotW+28, ly, html.EscapeString(infos[i].Label))
	}
	sb.WriteString("</g>\n")
	return true
}

// PanelToSVG renders the traces of one panel, coloured from the variable
// catalogue. Traces with fewer than two points are skipped; an empty
// string means nothing was drawn.
func PanelToSVG(traces []chart.Trace, panel series.Panel, width, height int) string {
	var body strings.Builder
	if !writePanel(&body, traces, panel, width, height, 0) {
		return ""
	}
	return document(body.String(), width, height)
}

// ChartToSVG stacks the concentration panel above the reactivity panel.
func ChartToSVG(traces []chart.Trace, width, panelHeight int) string {
	var body strings.Builder
	offset := 0
	for _, panel := range []series.Panel{series.PanelConcentration, series.PanelReactivity} {
		if writePanel(&body, traces, panel, width, panelHeight, offset) {
			offset += panelHeight
		}
	}
	if offset == 0 {
		return ""
	}
	return document(body.String(), width, offset)
}

func document(body string, width, height int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
	sb.WriteString(body)
	sb.WriteString("</svg>")
	return sb.String()
}
