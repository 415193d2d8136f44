package main

import (
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robmorgan/pulse/rhythm"
	"github.com/robmorgan/pulse/taptempo"
)

type model struct {
	engine *rhythm.Engine
	tapper *taptempo.Tapper

	snap     rhythm.Snapshot
	spinner  spinner.Model
	barMeter progress.Model

	// flash is 1.0 right after a click and decays to 0 between ticks.
	flash     float64
	flashBeat int
	quitting  bool
}

func newModel(engine *rhythm.Engine) model {
	s := spinner.New()
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return model{
		engine:   engine,
		tapper:   &taptempo.Tapper{},
		snap:     engine.Snapshot(),
		spinner:  s,
		barMeter: bar,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*25, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
