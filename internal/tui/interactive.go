package tui

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/xenonsim/internal/chart"
	"github.com/san-kum/xenonsim/internal/metrics"
	"github.com/san-kum/xenonsim/internal/playback"
	"github.com/san-kum/xenonsim/internal/series"
	"github.com/san-kum/xenonsim/internal/session"
	"github.com/san-kum/xenonsim/internal/storage"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

const (
	powerStep = 0.05
	speedStep = 5.0
)

type field int

const (
	fieldDuration field = iota
	fieldFlux
)

type frameMsg time.Time

type extendMsg struct{ err error }

type initMsg struct {
	eq  *series.Equilibrium
	err error
}

type savedMsg struct {
	id  string
	err error
}

// Model hosts a session in the terminal. Frames come from tea.Tick and
// drive the playback ManualDriver; solver calls run as commands.
type Model struct {
	ctrl      *session.Controller
	drv       *playback.ManualDriver
	buf       *chart.Buffer
	store     *storage.Store
	extremes  *metrics.Extremes
	frameRate int
	timeout   time.Duration

	focus    field
	flux     string
	eq       *series.Equilibrium
	status   string
	err      error
	inflight int

	width  int
	height int
}

type Options struct {
	FrameRate int
	Timeout   time.Duration
	Store     *storage.Store
	Extremes  *metrics.Extremes
}

func New(ctrl *session.Controller, drv *playback.ManualDriver, buf *chart.Buffer, opts Options) Model {
	if opts.FrameRate <= 0 {
		opts.FrameRate = 60
	}
	return Model{
		ctrl:      ctrl,
		drv:       drv,
		buf:       buf,
		store:     opts.Store,
		extremes:  opts.Extremes,
		frameRate: opts.FrameRate,
		timeout:   opts.Timeout,
		flux:      strconv.FormatFloat(ctrl.Snapshot().Phi0, 'g', -1, 64),
		width:     100,
		height:    40,
	}
}

// Run starts the full-screen program and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return m.frame() }

func (m Model) frame() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m Model) requestContext() (context.Context, context.CancelFunc) {
	if m.timeout > 0 {
		return context.WithTimeout(context.Background(), m.timeout)
	}
	return context.WithCancel(context.Background())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case frameMsg:
		m.drv.Fire(time.Time(msg))
		return m, m.frame()
	case extendMsg:
		m.inflight--
		m.err = msg.err
		if msg.err == nil {
			m.status = ""
		}
		return m, nil
	case initMsg:
		m.inflight--
		m.err = msg.err
		if msg.err == nil {
			m.eq = msg.eq
			m.status = "initialized"
		}
		return m, nil
	case savedMsg:
		m.err = msg.err
		if msg.err == nil {
			m.status = "saved " + msg.id
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.focus = 1 - m.focus
	case "enter":
		return m.submit()
	case "backspace":
		m.editField(func(s string) string {
			if s == "" {
				return s
			}
			return s[:len(s)-1]
		})
	case "left", "right":
		p := m.ctrl.Snapshot().Power
		if msg.String() == "left" {
			p -= powerStep
		} else {
			p += powerStep
		}
		p = math.Round(math.Max(0, math.Min(1, p))*100) / 100
		m.err = m.ctrl.SetPower(p)
	case "up", "down":
		s := m.ctrl.Snapshot().Speed
		if msg.String() == "down" {
			s -= speedStep
		} else {
			s += speedStep
		}
		m.err = m.ctrl.SetSpeed(math.Max(0, math.Min(session.MaxSpeed, s)))
	case "r":
		m.ctrl.Reset()
		m.err = nil
		m.status = "reset"
	case "i":
		return m.initialize()
	case "s":
		return m, m.save()
	default:
		if r := msg.Runes; len(r) == 1 && strings.ContainsRune("0123456789.e+-", r[0]) {
			m.editField(func(s string) string { return s + string(r[0]) })
		}
	}
	return m, nil
}

func (m *Model) editField(edit func(string) string) {
	if m.focus == fieldFlux {
		m.flux = edit(m.flux)
		return
	}
	m.ctrl.SetDurationInput(edit(m.ctrl.Snapshot().Duration))
}

func (m Model) submit() (Model, tea.Cmd) {
	if m.focus == fieldFlux {
		return m.initialize()
	}
	if _, err := session.ParseDuration(m.ctrl.Snapshot().Duration); err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.status = "requesting continuation"
	m.inflight++
	ctrl := m.ctrl
	ctx, cancel := m.requestContext()
	return m, func() tea.Msg {
		defer cancel()
		return extendMsg{err: ctrl.ExtendFromInput(ctx)}
	}
}

func (m Model) initialize() (Model, tea.Cmd) {
	phi0, err := strconv.ParseFloat(strings.TrimSpace(m.flux), 64)
	if err != nil {
		m.err = fmt.Errorf("%w: %q is not a number", session.ErrValidation, m.flux)
		return m, nil
	}
	m.err = nil
	m.status = "initializing"
	m.inflight++
	ctrl := m.ctrl
	ctx, cancel := m.requestContext()
	return m, func() tea.Msg {
		defer cancel()
		eq, err := ctrl.Initialize(ctx, phi0)
		return initMsg{eq: eq, err: err}
	}
}

func (m Model) save() tea.Cmd {
	if m.store == nil {
		return nil
	}
	st := m.ctrl.Snapshot()
	traces := m.buf.Snapshot()
	store := m.store
	return func() tea.Msg {
		meta := storage.ExportMetadata{Power: st.Power, Speed: st.Speed, Phi0: st.Phi0, LastKnown: st.LastKnown}
		id, err := store.Save(meta, traces)
		return savedMsg{id: id, err: err}
	}
}

func (m Model) View() string {
	st := m.ctrl.Snapshot()
	var b strings.Builder

	b.WriteString("\n" + dimmer.Render("   ╺━━━━━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("   " + cyan.Render("x e n o n s i m") + "  " + dim.Render("iodine/xenon/promethium/samarium") + "\n\n")

	icon, text := dim.Render("○"), dim.Render("idle")
	switch {
	case st.Fetching || m.inflight > 0:
		icon, text = yellow.Render("◌"), yellow.Render("fetching")
	case st.Playing:
		icon, text = green.Render("●"), green.Render("playing")
	}
	b.WriteString(fmt.Sprintf("   %s %s  %s\n", icon, text, dim.Render(fmt.Sprintf("t=%.3f d", st.LastKnown.Time))))

	if st.Playing && st.Progress.Len > 0 {
		barWidth := 36
		filled := st.Progress.Cursor * barWidth / st.Progress.Len
		bar := cyan.Render(strings.Repeat("━", filled)) + dimmer.Render(strings.Repeat("─", barWidth-filled))
		b.WriteString(fmt.Sprintf("   %s %s\n", bar, dim.Render(fmt.Sprintf("%d/%d", st.Progress.Cursor, st.Progress.Len))))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("   %s %s   %s %s\n",
		dim.Render("power"), magenta.Render(st.PowerLabel),
		dim.Render("speed"), magenta.Render(fmt.Sprintf("%.0f", st.Speed))))
	b.WriteString("   " + m.renderField("days", st.Duration, m.focus == fieldDuration) +
		"   " + m.renderField("φ₀", m.flux, m.focus == fieldFlux) + "\n\n")

	traces := m.buf.Snapshot()
	plotWidth := max(20, m.width-20)
	plotHeight := max(4, (m.height-24)/2)
	for _, panel := range []series.Panel{series.PanelConcentration, series.PanelReactivity} {
		if plot := chart.RenderPanel(traces, panel, plotWidth, plotHeight); plot != "" {
			b.WriteString(plot + "\n\n")
		}
	}
	if lo, hi, ok := chart.TimeSpan(traces); ok {
		b.WriteString(dim.Render(fmt.Sprintf("   days %.2f → %.2f", lo, hi)) + "\n\n")
	}

	if m.extremes != nil {
		b.WriteString(m.viewPeaks())
	}
	if m.eq != nil {
		b.WriteString(m.viewEquilibrium())
	}

	if m.err != nil {
		b.WriteString("   " + red.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		b.WriteString("   " + dim.Render(m.status) + "\n")
	}

	b.WriteString("\n" + dim.Render("   enter extend  tab field  ←→ power  ↑↓ speed  i init  r reset  s save  q quit") + "\n")
	return b.String()
}

func (m Model) renderField(label, value string, focused bool) string {
	if focused {
		return cyan.Render("▸ ") + white.Render(label+" ") + magenta.Render(value+"_")
	}
	return "  " + dim.Render(label+" "+value)
}

func (m Model) viewEquilibrium() string {
	eq := m.eq
	rows := []struct {
		label string
		value float64
	}{
		{"I-135 ∞", eq.IodineInfinity},
		{"Xe-135 ∞", eq.XenonInfinity},
		{"Pm-149 ∞", eq.PromethiumInfinity},
		{"Sm-149 ∞", eq.SamariumInfinity},
		{"ρ Xe ∞", eq.XeReactivityInfinity},
		{"ρ Sm ∞", eq.SmReactivityInfinity},
	}

	var b strings.Builder
	b.WriteString("   " + cyan.Render("equilibrium") + "\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render(fmt.Sprintf("%-10s", r.label)), white.Render(fmt.Sprintf("%.4g", r.value))))
	}
	b.WriteString(fmt.Sprintf("   %s %s %s\n", dim.Render(fmt.Sprintf("%-10s", "Xe max")),
		white.Render(fmt.Sprintf("%.4g", eq.MaxXenon)), dim.Render(fmt.Sprintf("at %.2f d", eq.MaxXenonTime))))
	b.WriteString(fmt.Sprintf("   %s %s %s\n\n", dim.Render(fmt.Sprintf("%-10s", "ρ Xe max")),
		white.Render(fmt.Sprintf("%.4g", eq.MaxXeReactivity)), dim.Render(fmt.Sprintf("at %.2f d", eq.MaxXeReactivityTime))))
	return b.String()
}

func (m Model) viewPeaks() string {
	var parts []string
	for _, v := range []series.Variable{series.Xenon, series.ReactivityXe} {
		x, ok := m.extremes.Get(string(v))
		if !ok {
			continue
		}
		info, _ := series.Lookup(v)
		peak, at := x.Max, x.MaxTime
		if v == series.ReactivityXe {
			peak, at = x.Min, x.MinTime
		}
		parts = append(parts, dim.Render(info.Label+" peak ")+white.Render(fmt.Sprintf("%.4g", peak))+dim.Render(fmt.Sprintf(" at %.2f d", at)))
	}
	if len(parts) == 0 {
		return ""
	}
	return "   " + strings.Join(parts, "   ") + "\n\n"
}
