package main

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// beatMsg carries the zero-based beat index from the engine's beat callback
// into the UI loop.
type beatMsg int

const flashDecayPerTick = 0.12

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case beatMsg:
		m.flash = 1.0
		m.flashBeat = int(msg)
		return m, nil
	case tickMsg:
		m.snap = m.engine.Snapshot()
		if m.flash > 0 {
			m.flash -= flashDecayPerTick
			if m.flash < 0 {
				m.flash = 0
			}
		}
		return m, tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case " ":
		if m.engine.Running() {
			m.engine.Stop()
		} else if err := m.engine.Start(); err != nil {
			// The audio clock is gone for good, so there is nothing
			// left for the UI to drive.
			m.quitting = true
			return m, tea.Quit
		}
	case "[":
		m.engine.SetTempo(float64(m.engine.Tempo() - 1))
	case "]":
		m.engine.SetTempo(float64(m.engine.Tempo() + 1))
	case "{":
		m.engine.SetTempo(float64(m.engine.Tempo() - 5))
	case "}":
		m.engine.SetTempo(float64(m.engine.Tempo() + 5))
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.engine.SetBeatsPerBar(int(key[0] - '0'))
	case "s":
		next := m.engine.Subdivision() + 1
		if next > 4 {
			next = 1
		}
		m.engine.SetSubdivision(next)
	case "-":
		m.engine.SetVolume(m.engine.Volume() - 0.05)
	case "=", "+":
		m.engine.SetVolume(m.engine.Volume() + 0.05)
	case "t":
		if bpm, ok := m.tapper.Tap(time.Now()); ok {
			m.engine.SetTempo(float64(bpm))
		}
	case "q", "esc", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	}
	m.snap = m.engine.Snapshot()
	return m, nil
}
