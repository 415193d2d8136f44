package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// DefaultSampleRate is what the speaker runs at.
const DefaultSampleRate = beep.SampleRate(44100)

// speakerBuffer is the device buffer length. It bounds the real output
// latency reported by OutputLatency.
const speakerBuffer = 40 * time.Millisecond

// The speaker owns the process-wide audio device, so it is opened once.
var (
	speakerOnce sync.Once
	speakerErr  error
)

// BeepClock is a Clock backed by the beep speaker. The number of samples
// rendered so far is the timebase, which is exactly how the device itself
// experiences time: no samples move while rendering is suspended, so the
// clock freezes with the device.
type BeepClock struct {
	mu      sync.Mutex
	sr      beep.SampleRate
	state   State
	head    int64
	pending []*tone
	subs    map[int]func(State)
	nextSub int
	latency float64
}

// NewBeepClock opens the speaker (once per process) and attaches a clock
// streamer to it. The streamer detaches only when the clock is closed.
func NewBeepClock(sr beep.SampleRate) (*BeepClock, error) {
	speakerOnce.Do(func() {
		speakerErr = speaker.Init(sr, sr.N(speakerBuffer))
	})
	if speakerErr != nil {
		return nil, fmt.Errorf("initializing speaker: %w", speakerErr)
	}

	c := &BeepClock{
		sr:      sr,
		state:   StateRunning,
		subs:    make(map[int]func(State)),
		latency: speakerBuffer.Seconds(),
	}
	speaker.Play(beep.StreamerFunc(c.stream))
	return c, nil
}

// stream renders pending tones into the device buffer. While the clock lives
// it claims every sample it is offered, so the speaker keeps pulling it; a
// closed clock drains and the speaker lets it go.
func (c *BeepClock) stream(samples [][2]float64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return 0, false
	}

	for i := range samples {
		samples[i] = [2]float64{}
	}

	if c.state != StateRunning {
		// Silence out, head frozen: suspended time does not pass.
		return len(samples), true
	}

	kept := c.pending[:0]
	for _, t := range c.pending {
		if !t.mix(samples, c.head) {
			kept = append(kept, t)
		}
	}
	c.pending = kept
	c.head += int64(len(samples))
	return len(samples), true
}

func (c *BeepClock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.head) / float64(c.sr)
}

func (c *BeepClock) PlayTone(t Tone) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return
	}
	c.pending = append(c.pending, newTone(t, float64(c.sr), c.head))
}

func (c *BeepClock) OutputLatency() float64 {
	return c.latency
}

func (c *BeepClock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *BeepClock) Resume() error {
	c.mu.Lock()
	switch c.state {
	case StateRunning:
		c.mu.Unlock()
		return nil
	case StateSuspended, StateInterrupted:
		c.state = StateRunning
		c.notifyLocked(StateRunning)
		c.mu.Unlock()
		return nil
	case StateClosed:
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()
	return nil
}

func (c *BeepClock) Suspend() error {
	c.mu.Lock()
	switch c.state {
	case StateSuspended, StateInterrupted:
		c.mu.Unlock()
		return nil
	case StateRunning:
		c.state = StateSuspended
		c.notifyLocked(StateSuspended)
		c.mu.Unlock()
		return nil
	case StateClosed:
		c.mu.Unlock()
		return ErrClosed
	}
	c.mu.Unlock()
	return nil
}

func (c *BeepClock) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosed
	c.pending = nil
	c.notifyLocked(StateClosed)
	c.mu.Unlock()
	return nil
}

func (c *BeepClock) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// notifyLocked fans the new state out on a fresh goroutine so subscribers can
// call back into the clock without deadlocking.
func (c *BeepClock) notifyLocked(s State) {
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	go func() {
		for _, fn := range subs {
			fn(s)
		}
	}()
}
