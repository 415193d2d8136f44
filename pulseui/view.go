package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("211"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Margin(1, 0)
	appStyle    = lipgloss.NewStyle().Margin(1, 2, 0, 2)

	restColor   = colorful.Color{R: 0.25, G: 0.25, B: 0.28}
	beatColor   = colorful.Color{R: 0.36, G: 0.55, B: 0.96}
	accentColor = colorful.Color{R: 0.98, G: 0.76, B: 0.18}
)

func (m model) View() string {
	var s string

	s += titleStyle.Render("pulse") + "\n\n"

	status := "stopped"
	if m.snap.Running {
		status = fmt.Sprintf("%s playing", m.spinner.View())
	}
	s += fmt.Sprintf("%s   %d bpm   %d beats   x%d   vol %.0f%%\n\n",
		statusStyle.Render(status), m.snap.Tempo, m.snap.BeatsPerBar, m.snap.Subdivision, m.snap.Volume*100)

	s += m.beatRow() + "\n\n"
	s += m.barMeter.ViewAs(m.snap.GetBarPhase()) + "\n"

	s += helpStyle.Render("space play/stop   [ ] bpm   { } bpm x5   1-9 beats   s subdivision   - = volume   t tap   q quit")

	if m.quitting {
		s += "\n"
	}
	return appStyle.Render(s)
}

// beatRow draws one dot per beat in the bar and flashes the one that just
// sounded, gold on the downbeat.
func (m model) beatRow() string {
	var b strings.Builder
	for beat := 0; beat < m.snap.BeatsPerBar; beat++ {
		c := restColor
		if m.snap.Running && beat == m.flashBeat && m.flash > 0 {
			target := beatColor
			if beat == 0 {
				target = accentColor
			}
			c = restColor.BlendLuv(target, m.flash)
		}
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render("●"))
		if beat != m.snap.BeatsPerBar-1 {
			b.WriteString(" ")
		}
	}
	return b.String()
}
