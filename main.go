package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/robmorgan/pulse/audio"
	"github.com/robmorgan/pulse/config"
	"github.com/robmorgan/pulse/logger"
	"github.com/robmorgan/pulse/midiout"
	"github.com/robmorgan/pulse/oscremote"
	"github.com/robmorgan/pulse/rhythm"
	"github.com/robmorgan/pulse/supervisor"
	"github.com/robmorgan/pulse/visibility"
	"github.com/robmorgan/pulse/wakelock"
)

type options struct {
	tempo       float64
	beatsPerBar int
	subdivision int
	volume      float64
	oscAddr     string
	midiPort    string
}

func main() {
	var opts options
	flag.Float64Var(&opts.tempo, "tempo", 0, "tempo in beats per minute (default: last saved)")
	flag.IntVar(&opts.beatsPerBar, "beats", 0, "beats per bar (default: last saved)")
	flag.IntVar(&opts.subdivision, "subdivision", 0, "clicks per beat (default: last saved)")
	flag.Float64Var(&opts.volume, "volume", -1, "click volume from 0 to 1 (default: last saved)")
	flag.StringVar(&opts.oscAddr, "osc", "", "serve OSC remote control on this address, e.g. 0.0.0.0:8765")
	flag.StringVar(&opts.midiPort, "midi", "", "mirror clicks to the MIDI output matching this name")
	flag.Parse()

	Run(opts)
}

// Run starts the metronome and blocks until interrupted.
func Run(opts options) {
	log := logger.GetProjectLogger()

	log.Info("Loading settings...")
	settingsPath, err := config.DefaultPath()
	if err != nil {
		log.Fatalf("could not locate settings. err='%v'", err)
	}
	settings, err := config.Load(settingsPath)
	if err != nil {
		log.Warnf("could not load settings, starting from defaults. err='%v'", err)
		settings = config.Default()
	}

	log.Info("Opening audio output...")
	ac, err := audio.NewBeepClock(audio.DefaultSampleRate)
	if err != nil {
		log.Fatalf("could not open audio output. err='%v'", err)
	}

	engine := rhythm.New(rhythm.WithAudioClock(ac))
	engine.SetTempo(float64(settings.Tempo))
	engine.SetBeatsPerBar(settings.BeatsPerBar)
	engine.SetSubdivision(settings.Subdivision)
	engine.SetVolume(settings.Volume)

	// CLI flags win over whatever the last session saved.
	if opts.tempo > 0 {
		engine.SetTempo(opts.tempo)
	}
	if opts.beatsPerBar > 0 {
		engine.SetBeatsPerBar(opts.beatsPerBar)
	}
	if opts.subdivision > 0 {
		engine.SetSubdivision(opts.subdivision)
	}
	if opts.volume >= 0 {
		engine.SetVolume(opts.volume)
	}

	removeBeatLog := engine.OnBeat(func(beat int) {
		log.WithFields(logrus.Fields{
			"beat": beat + 1,
			"of":   engine.BeatsPerBar(),
		}).Debug("click")
	})
	defer removeBeatLog()

	log.Info("Attaching playback supervisor...")
	vis := visibility.NewSignals()
	defer vis.Close()

	supOpts := []supervisor.Option{
		supervisor.WithKeepAlive(&audio.KeepAlive{}),
		supervisor.WithVisibility(vis),
	}
	if lock, err := wakelock.New(); err != nil {
		log.Warnf("sleep inhibition unavailable. err='%v'", err)
	} else {
		defer lock.Close()
		supOpts = append(supOpts, supervisor.WithWakeLock(lock))
	}

	sup := supervisor.New(engine, ac, supOpts...)
	sup.Attach()
	defer sup.Detach()

	if opts.midiPort != "" {
		clicker, err := midiout.Open(opts.midiPort)
		if err != nil {
			log.Warnf("MIDI click disabled. err='%v'", err)
		} else {
			defer clicker.Close()
			removeMidi := engine.OnBeat(clicker.Beat)
			defer removeMidi()
		}
	}

	if opts.oscAddr != "" {
		srv, err := oscremote.NewServer(opts.oscAddr, engine)
		if err != nil {
			log.Warnf("OSC remote disabled. err='%v'", err)
		} else {
			go func() {
				if err := srv.ListenAndServe(); err != nil {
					log.Errorf("OSC remote stopped. err='%v'", err)
				}
			}()
		}
	}

	if err := engine.Start(); err != nil {
		log.Fatalf("could not start the metronome. err='%v'", err)
	}
	log.Infof("Clicking at %d bpm. Ctrl+C to stop.", engine.Tempo())

	// handle CTRL+C interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("shutting down pulse")
	engine.Stop()

	saved := config.Settings{
		Tempo:       engine.Tempo(),
		BeatsPerBar: engine.BeatsPerBar(),
		Subdivision: engine.Subdivision(),
		Volume:      engine.Volume(),
	}
	if err := config.Save(settingsPath, saved); err != nil {
		log.Warnf("could not save settings. err='%v'", err)
	}

	if err := ac.Close(); err != nil {
		log.Warnf("could not close audio output. err='%v'", err)
	}
}
