// Package midiout mirrors the metronome's beat callbacks onto a MIDI output
// port so external gear (drum machines, DAWs) can hear the click. Output
// only: the engine never follows external MIDI clock.
package midiout

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/robmorgan/pulse/logger"
)

// General MIDI percussion: channel 10 (zero-based 9), wood blocks.
const (
	percussionChannel = 9
	accentKey         = 76 // high wood block
	beatKey           = 77 // low wood block
	clickVelocity     = 110

	// Shorter than the gap between clicks even at 300 BPM with subdivisions.
	noteOffDelay = 30 * time.Millisecond
)

// Clicker sends a wood-block note for every beat it is told about. Wire its
// Beat method to the engine's OnBeat callback.
type Clicker struct {
	mu     sync.Mutex
	drv    *rtmididrv.Driver
	out    drivers.Out
	send   func(midi.Message) error
	closed bool
}

// Open connects to the first MIDI output whose name contains port
// (case-insensitive). An empty port picks the first output available.
func Open(port string) (*Clicker, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("initializing midi driver: %w", err)
	}

	out, err := findOut(drv, port)
	if err != nil {
		drv.Close()
		return nil, err
	}
	if err := out.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("opening midi output %q: %w", out.String(), err)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		out.Close()
		drv.Close()
		return nil, fmt.Errorf("preparing midi sender for %q: %w", out.String(), err)
	}

	logger.GetProjectLogger().Infof("MIDI click routed to %q", out.String())
	return &Clicker{drv: drv, out: out, send: send}, nil
}

func findOut(drv *rtmididrv.Driver, port string) (drivers.Out, error) {
	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("listing midi outputs: %w", err)
	}
	if len(outs) == 0 {
		return nil, fmt.Errorf("no midi outputs available")
	}
	if port == "" {
		return outs[0], nil
	}
	for _, out := range outs {
		if strings.Contains(strings.ToLower(out.String()), strings.ToLower(port)) {
			return out, nil
		}
	}
	return nil, fmt.Errorf("no midi output matching %q", port)
}

// Beat plays the click for the given zero-based beat index. The downbeat gets
// the higher wood block. Send failures are logged and swallowed so a flaky
// port never disturbs the audible click.
func (c *Clicker) Beat(beat int) {
	key := uint8(beatKey)
	if beat == 0 {
		key = accentKey
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err := c.send(midi.NoteOn(percussionChannel, key, clickVelocity)); err != nil {
		logger.GetProjectLogger().Warnf("midi click failed: %v", err)
		return
	}
	time.AfterFunc(noteOffDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		if err := c.send(midi.NoteOff(percussionChannel, key)); err != nil {
			logger.GetProjectLogger().Warnf("midi note off failed: %v", err)
		}
	})
}

// Close releases the output port and the driver. Safe to call once.
func (c *Clicker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.out.Close()
	c.drv.Close()
}
