package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/robmorgan/pulse/audio"
	"github.com/robmorgan/pulse/config"
	"github.com/robmorgan/pulse/rhythm"
	"github.com/robmorgan/pulse/supervisor"
	"github.com/robmorgan/pulse/visibility"
	"github.com/robmorgan/pulse/wakelock"
)

var p *tea.Program

func main() {
	settingsPath, err := config.DefaultPath()
	if err != nil {
		fmt.Println("Error locating settings:", err)
		os.Exit(1)
	}
	settings, err := config.Load(settingsPath)
	if err != nil {
		fmt.Println("Error loading settings:", err)
		os.Exit(1)
	}

	ac, err := audio.NewBeepClock(audio.DefaultSampleRate)
	if err != nil {
		fmt.Println("Error opening audio output:", err)
		os.Exit(1)
	}
	defer ac.Close()

	engine := rhythm.New(rhythm.WithAudioClock(ac))
	engine.SetTempo(float64(settings.Tempo))
	engine.SetBeatsPerBar(settings.BeatsPerBar)
	engine.SetSubdivision(settings.Subdivision)
	engine.SetVolume(settings.Volume)

	vis := visibility.NewSignals()
	defer vis.Close()

	opts := []supervisor.Option{
		supervisor.WithKeepAlive(&audio.KeepAlive{}),
		supervisor.WithVisibility(vis),
	}
	// No D-Bus, no wake lock. The click still works.
	if lock, err := wakelock.New(); err == nil {
		defer lock.Close()
		opts = append(opts, supervisor.WithWakeLock(lock))
	}

	sup := supervisor.New(engine, ac, opts...)
	sup.Attach()
	defer sup.Detach()

	removeBeat := engine.OnBeat(func(beat int) {
		if p != nil {
			p.Send(beatMsg(beat))
		}
	})
	defer removeBeat()

	p = tea.NewProgram(newModel(engine))
	if err := p.Start(); err != nil {
		fmt.Println("Error running program:", err)
		os.Exit(1)
	}

	engine.Stop()
	saved := config.Settings{
		Tempo:       engine.Tempo(),
		BeatsPerBar: engine.BeatsPerBar(),
		Subdivision: engine.Subdivision(),
		Volume:      engine.Volume(),
	}
	if err := config.Save(settingsPath, saved); err != nil {
		fmt.Println("Error saving settings:", err)
	}
}
