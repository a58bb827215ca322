package viz

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/bungee/internal/experiment"
)

var metricUnits = map[string]string{
	"min_height":      "m",
	"max_speed":       "m/s",
	"max_g":           "g",
	"energy_loss":     "",
	"ground_contacts": "",
}

// RenderSummary draws the result of a run as a bordered panel.
func (s *Styles) RenderSummary(res *experiment.Result) string {
	cfg := res.Config
	tr := res.Trajectory
	p := cfg.Physics

	var b strings.Builder
	b.WriteString(s.Title.Render(fmt.Sprintf("%s · %s", cfg.Name, cfg.Integrator)))
	b.WriteString("\n\n")

	b.WriteString(s.Row("jump", fmt.Sprintf("%.0f m, cord %.0f m @ %.0f N/m, %.0f kg", p.Height, p.Length, p.Stiffness, p.Mass)))
	b.WriteString("\n")
	b.WriteString(s.Row("samples", fmt.Sprintf("%d", tr.Len())))
	b.WriteString("\n")
	b.WriteString(s.Row("steps", fmt.Sprintf("%d (%d rejected)", tr.Steps, tr.Rejected)))
	b.WriteString("\n")
	b.WriteString(s.Row("evaluations", fmt.Sprintf("%d", tr.Evaluations)))
	b.WriteString("\n")
	b.WriteString(s.Row("wall time", res.Elapsed.String()))
	b.WriteString("\n")

	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	b.WriteString("\n")
	for _, name := range names {
		val := fmt.Sprintf("%.4f %s", res.Metrics[name], metricUnits[name])
		row := s.Row(name, strings.TrimSpace(val))
		if name == "ground_contacts" && res.Metrics[name] > 0 {
			row = s.Label.Render(name) + s.Error.Render(strings.TrimSpace(val))
		}
		b.WriteString(row)
		b.WriteString("\n")
	}

	if len(res.Transitions) > 0 {
		b.WriteString("\n")
		b.WriteString(s.Subtle.Render("regime transitions"))
		b.WriteString("\n")
		for _, tr := range res.Transitions {
			b.WriteString(s.Row(fmt.Sprintf("  t=%.3f s", tr.Time), fmt.Sprintf("%s → %s", tr.From, tr.To)))
			b.WriteString("\n")
		}
	}

	return s.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

// Banner is a one-line status message.
func (s *Styles) Banner(ok bool, msg string) string {
	if ok {
		return lipgloss.JoinHorizontal(lipgloss.Top, s.Success.Render("✓ "), msg)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, s.Error.Render("✗ "), msg)
}
