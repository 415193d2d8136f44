// Package audiotest provides a hand-cranked audio clock for tests. Time only
// moves when the test advances it, so scheduling decisions become fully
// deterministic.
package audiotest

import (
	"sync"

	"github.com/robmorgan/pulse/audio"
)

// Clock implements audio.Clock with scripted time and a record of every tone
// it was asked to play.
type Clock struct {
	mu        sync.Mutex
	now       float64
	latency   float64
	state     audio.State
	tones     []audio.Tone
	resumes   int
	resumeErr error
	subs      map[int]func(audio.State)
	nextSub   int
}

func NewClock() *Clock {
	return &Clock{
		state: audio.StateRunning,
		subs:  make(map[int]func(audio.State)),
	}
}

func (c *Clock) Now() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d seconds.
func (c *Clock) Advance(d float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

// SetNow pins the clock to an absolute time.
func (c *Clock) SetNow(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *Clock) PlayTone(t audio.Tone) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tones = append(c.tones, t)
}

// Tones returns a copy of every tone played so far, in scheduling order.
func (c *Clock) Tones() []audio.Tone {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]audio.Tone, len(c.tones))
	copy(out, c.tones)
	return out
}

func (c *Clock) ToneCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tones)
}

// ClearTones forgets the record, keeping time and state.
func (c *Clock) ClearTones() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tones = nil
}

func (c *Clock) OutputLatency() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency
}

func (c *Clock) SetOutputLatency(l float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency = l
}

func (c *Clock) State() audio.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetState forces a state and notifies subscribers, standing in for the
// platform flipping the device out from under the program.
func (c *Clock) SetState(s audio.State) {
	c.mu.Lock()
	c.state = s
	c.notifyLocked(s)
	c.mu.Unlock()
}

func (c *Clock) Resume() error {
	c.mu.Lock()
	if c.state == audio.StateClosed {
		c.mu.Unlock()
		return audio.ErrClosed
	}
	c.resumes++
	if err := c.resumeErr; err != nil {
		c.mu.Unlock()
		return err
	}
	if c.state != audio.StateRunning {
		c.state = audio.StateRunning
		c.notifyLocked(audio.StateRunning)
	}
	c.mu.Unlock()
	return nil
}

// SetResumeError makes Resume fail with err until cleared, standing in for a
// host that refuses to hand the device back.
func (c *Clock) SetResumeError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumeErr = err
}

// Resumes counts how many times Resume was requested.
func (c *Clock) Resumes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumes
}

func (c *Clock) Suspend() error {
	c.mu.Lock()
	if c.state == audio.StateClosed {
		c.mu.Unlock()
		return audio.ErrClosed
	}
	if c.state == audio.StateRunning {
		c.state = audio.StateSuspended
		c.notifyLocked(audio.StateSuspended)
	}
	c.mu.Unlock()
	return nil
}

func (c *Clock) Close() error {
	c.mu.Lock()
	if c.state != audio.StateClosed {
		c.state = audio.StateClosed
		c.notifyLocked(audio.StateClosed)
	}
	c.mu.Unlock()
	return nil
}

func (c *Clock) Subscribe(fn func(audio.State)) func() {
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

// notifyLocked matches the real clock's contract: asynchronous delivery so a
// subscriber can call back in.
func (c *Clock) notifyLocked(s audio.State) {
	subs := make([]func(audio.State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	go func() {
		for _, fn := range subs {
			fn(s)
		}
	}()
}
