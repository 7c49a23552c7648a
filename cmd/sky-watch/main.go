// Sky Watch: a terminal dashboard of tracked aircraft with live
// altitude estimates and on-demand trajectory forecasts.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ben-berube/plane-tracker/pkg/config"
	"github.com/ben-berube/plane-tracker/pkg/estimation"
	"github.com/ben-berube/plane-tracker/pkg/flight"
	"github.com/ben-berube/plane-tracker/pkg/trajectory"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type row struct {
	flight   flight.Flight
	estimate estimation.Result
}

type model struct {
	cfg       *config.Config
	client    *flight.OpenSkyClient
	estimator *estimation.Estimator
	history   map[string][]flight.Flight

	rows       []row
	selected   int
	showTraj   bool
	lastUpdate time.Time
	err        error
}

type flightsMsg []flight.Flight
type errMsg struct{ err error }
type tickMsg time.Time

func (m model) pollInterval() time.Duration {
	interval := time.Duration(m.cfg.Feed.PollSeconds) * time.Second
	// The anonymous feed allows one request every ten seconds.
	if interval < 10*time.Second {
		interval = 10 * time.Second
	}
	return interval
}

func (m model) fetch() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		flights, err := client.GetFlights(ctx)
		if err != nil {
			return errMsg{err}
		}
		return flightsMsg(flights)
	}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.pollInterval(), func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return m.fetch()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.rows)-1 {
				m.selected++
			}
		case "t":
			m.showTraj = !m.showTraj
		case "r":
			return m, m.fetch()
		}

	case tickMsg:
		return m, m.fetch()

	case flightsMsg:
		m.err = nil
		m.lastUpdate = time.Now()
		m.ingest(msg)
		return m, m.tick()

	case errMsg:
		m.err = msg.err
		return m, m.tick()
	}

	return m, nil
}

// ingest runs the estimator over a fresh batch of reports and rebuilds
// the table rows, sorted by callsign for a stable display.
func (m *model) ingest(flights []flight.Flight) {
	rows := make([]row, 0, len(flights))
	seen := make(map[string]bool, len(flights))

	for i := range flights {
		f := flights[i]
		seen[f.ICAO24] = true

		est := m.estimator.Estimate(&f, m.history[f.ICAO24])
		rows = append(rows, row{flight: f, estimate: est})

		h := append(m.history[f.ICAO24], f)
		if len(h) > 20 {
			h = h[len(h)-20:]
		}
		m.history[f.ICAO24] = h
	}

	for icao := range m.history {
		if !seen[icao] {
			delete(m.history, icao)
			m.estimator.Remove(icao)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].flight.Callsign < rows[j].flight.Callsign
	})

	m.rows = rows
	if m.selected >= len(rows) {
		m.selected = len(rows) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("✈ Sky Watch"))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errStyle.Render(fmt.Sprintf("Feed error: %v", m.err)))
		b.WriteString("\n\n")
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("  %-8s %-9s %9s %6s %-13s %8s %8s",
		"ICAO24", "CALLSIGN", "ALT (m)", "CONF", "SOURCE", "SPD m/s", "VR m/s")))
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString(dimStyle.Render("  No aircraft tracked"))
		b.WriteString("\n")
	}

	for i, r := range m.rows {
		line := fmt.Sprintf("  %-8s %-9s %9.0f %6.2f %-13s %8s %8s",
			r.flight.ICAO24,
			r.flight.Callsign,
			r.estimate.Altitude,
			r.estimate.Confidence,
			r.estimate.Source,
			fmtOpt(r.flight.Velocity),
			fmtOpt(r.flight.VerticalRate),
		)
		if i == m.selected {
			line = selectedStyle.Render("▸" + line[1:])
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.showTraj && m.selected < len(m.rows) {
		b.WriteString("\n")
		b.WriteString(m.trajectoryView(m.rows[m.selected]))
	}

	b.WriteString("\n")
	status := "waiting for first update"
	if !m.lastUpdate.IsZero() {
		status = fmt.Sprintf("updated %s ago", time.Since(m.lastUpdate).Round(time.Second))
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf(
		"  %d aircraft · %s · ↑/↓ select · t trajectory · r refresh · q quit",
		len(m.rows), status)))
	b.WriteString("\n")

	return b.String()
}

func (m model) trajectoryView(r row) string {
	f := r.flight
	if _, ok := f.BestAltitude(); !ok {
		alt := r.estimate.Altitude
		f.BaroAltitude = &alt
	}

	points := trajectory.Predict(&f, trajectory.DefaultDuration, trajectory.DefaultStep)
	if len(points) == 0 {
		return dimStyle.Render("  No position fix; no forecast available")
	}

	stats := trajectory.Statistics(points)
	last := points[len(points)-1]

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("  Forecast for %s (%.0fs horizon)",
		f.ICAO24, last.TimeOffset)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  endpoint: %.4f, %.4f at %.0fm · distance %.0fm · bearing %.1f°\n",
		last.Latitude, last.Longitude, last.Altitude, last.DistanceFromCurrent, last.Bearing))
	b.WriteString(fmt.Sprintf("  avg speed %.1fm/s · altitude range %.0fm (%.0f-%.0fm)\n",
		stats.AverageSpeed, stats.AltitudeRange, stats.MinAltitude, stats.MaxAltitude))
	return b.String()
}

func fmtOpt(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	client := flight.NewOpenSkyClient(cfg.Feed.BaseURL, flight.BoundingBox{
		LatMin: cfg.Feed.LatMin,
		LatMax: cfg.Feed.LatMax,
		LonMin: cfg.Feed.LonMin,
		LonMax: cfg.Feed.LonMax,
	})
	defer client.Close()

	m := model{
		cfg:       cfg,
		client:    client,
		estimator: estimation.NewEstimator(),
		history:   make(map[string][]flight.Flight),
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("TUI error: %v", err)
	}
}
