package rhythm

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/exp/constraints"
	"k8s.io/utils/clock"

	"github.com/robmorgan/pulse/audio"
	"github.com/robmorgan/pulse/logger"
)

// Tempo bounds and musical defaults.
const (
	MinTempo     = 20
	MaxTempo     = 300
	DefaultTempo = 120

	DefaultBeatsPerBar = 4
	DefaultSubdivision = 1
	DefaultVolume      = 1.0
)

// Scheduling constants. The lookahead window is several poll intervals wide
// so one late wakeup never starves the audio queue.
const (
	lookahead    = 0.1
	pollInterval = 25 * time.Millisecond
	toneDuration = 0.05

	// minSafetyMargin keeps the first click of a run far enough ahead of the
	// audio clock that the device cannot have passed it by render time.
	minSafetyMargin = 0.025

	accentFreq = 880.0
	beatFreq   = 660.0
	subFreq    = 440.0

	// subGainRatio quiets subdivision clicks relative to beat clicks.
	subGainRatio = 0.5
)

// Engine turns musical time into sample-accurate clicks. A coarse poll loop
// wakes every few tens of milliseconds and hands every click that falls
// inside the lookahead window to the audio clock at its exact timestamp, so
// goroutine jitter never reaches the ear: the loop decides, the clock renders.
//
// All methods are safe for concurrent use.
type Engine struct {
	mu sync.Mutex

	tempo       int
	beatsPerBar int
	subdivision int
	volume      float64

	// The playback cursor: which click sounds next and when. beat and sub are
	// zero-based indices into the bar; nextAt is an absolute audio-clock time.
	beat   int
	sub    int
	nextAt float64

	running bool
	cancel  context.CancelFunc

	audio    audio.Clock
	newClock func() (audio.Clock, error)
	poll     clock.Clock

	beatSubs  map[int]func(int)
	startSubs map[int]func()
	stopSubs  map[int]func()
	nextSubID int
}

// Option configures an Engine.
type Option func(*Engine)

// WithAudioClock injects the audio clock. Without it the engine opens the
// default beep-backed clock on first Start.
func WithAudioClock(c audio.Clock) Option {
	return func(e *Engine) { e.audio = c }
}

// WithPollClock injects the wall clock that drives the scheduling loop and
// the beat callbacks.
func WithPollClock(c clock.Clock) Option {
	return func(e *Engine) { e.poll = c }
}

// New creates a stopped engine with default musical settings.
func New(opts ...Option) *Engine {
	e := &Engine{
		tempo:       DefaultTempo,
		beatsPerBar: DefaultBeatsPerBar,
		subdivision: DefaultSubdivision,
		volume:      DefaultVolume,
		poll:        clock.RealClock{},
		newClock: func() (audio.Clock, error) {
			return audio.NewBeepClock(audio.DefaultSampleRate)
		},
		beatSubs:  make(map[int]func(int)),
		startSubs: make(map[int]func()),
		stopSubs:  make(map[int]func()),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetTempo sets the tempo in beats per minute, rounded and clamped to
// [MinTempo, MaxTempo]. Takes effect from the next scheduled click.
func (e *Engine) SetTempo(bpm float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tempo = clamp(int(math.Round(bpm)), MinTempo, MaxTempo)
}

// SetBeatsPerBar sets the bar length in beats (minimum 1). The beat cursor
// snaps back to the downbeat; the next click keeps its scheduled time.
func (e *Engine) SetBeatsPerBar(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < 1 {
		n = 1
	}
	e.beatsPerBar = n
	e.beat = 0
}

// SetSubdivision sets how many clicks subdivide each beat (minimum 1). The
// subdivision cursor snaps back to the beat boundary.
func (e *Engine) SetSubdivision(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if n < 1 {
		n = 1
	}
	e.subdivision = n
	e.sub = 0
}

// SetVolume sets the click volume, clamped to [0, 1].
func (e *Engine) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = clamp(v, 0.0, 1.0)
}

func (e *Engine) Tempo() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tempo
}

func (e *Engine) BeatsPerBar() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.beatsPerBar
}

func (e *Engine) Subdivision() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.subdivision
}

func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Start begins playback from the top of the bar. Calling Start on a running
// engine does nothing.
func (e *Engine) Start() error {
	log := logger.GetProjectLogger()

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil
	}

	if e.audio == nil {
		c, err := e.newClock()
		if err != nil {
			e.mu.Unlock()
			return fmt.Errorf("opening audio clock: %w", err)
		}
		e.audio = c
	}

	switch e.audio.State() {
	case audio.StateRunning:
	case audio.StateSuspended, audio.StateInterrupted:
		if err := e.audio.Resume(); err != nil {
			e.mu.Unlock()
			return fmt.Errorf("resuming audio clock: %w", err)
		}
	case audio.StateClosed:
		e.mu.Unlock()
		return audio.ErrClosed
	}

	e.beat = 0
	e.sub = 0
	e.nextAt = e.audio.Now() + e.safetyMarginLocked()
	e.running = true

	// Fill the first window right away; the loop keeps it topped up.
	e.schedulePassLocked()

	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go e.run(ctx)

	subs := collect(e.startSubs)
	e.mu.Unlock()

	log.Info("metronome started")
	for _, fn := range subs {
		fn()
	}
	return nil
}

// Stop halts scheduling. Clicks already handed to the audio clock play out;
// nothing new is queued. Calling Stop on a stopped engine does nothing. The
// audio clock stays open for the next Start.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.cancel()
	e.cancel = nil
	subs := collect(e.stopSubs)
	e.mu.Unlock()

	logger.GetProjectLogger().Info("metronome stopped")
	for _, fn := range subs {
		fn()
	}
}

// Reanchor throws away the cursor's scheduled time and re-bases it just ahead
// of wherever the audio clock is now. Beat and subdivision indices survive, so
// the count picks up from where it left off instead of replaying everything
// that went unheard while the clock was away.
func (e *Engine) Reanchor() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running || e.audio == nil {
		return
	}
	e.nextAt = e.audio.Now() + e.safetyMarginLocked()
}

// OnBeat registers fn to be called with the zero-based beat index when a beat
// sounds. The call fires at the beat's wall-clock time, not when the click was
// queued. The returned func removes the registration.
func (e *Engine) OnBeat(fn func(beat int)) (remove func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSubID
	e.nextSubID++
	e.beatSubs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.beatSubs, id)
	}
}

// OnStart registers fn to run after the engine starts.
func (e *Engine) OnStart(fn func()) (remove func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSubID
	e.nextSubID++
	e.startSubs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.startSubs, id)
	}
}

// OnStop registers fn to run after the engine stops.
func (e *Engine) OnStop(fn func()) (remove func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := e.nextSubID
	e.nextSubID++
	e.stopSubs[id] = fn
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.stopSubs, id)
	}
}

// run is the poll loop: wake, top up the lookahead window, sleep.
func (e *Engine) run(ctx context.Context) {
	t := e.poll.NewTicker(pollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C():
			e.mu.Lock()
			e.schedulePassLocked()
			e.mu.Unlock()
		}
	}
}

// schedulePassLocked drains the lookahead window: every click due before
// now+lookahead goes to the audio clock at its exact timestamp and the cursor
// advances. With the clock away the pass asks for it back and schedules
// nothing; the supervisor re-anchors the cursor once the clock returns.
func (e *Engine) schedulePassLocked() {
	if !e.running || e.audio == nil {
		return
	}

	switch e.audio.State() {
	case audio.StateRunning:
	case audio.StateSuspended, audio.StateInterrupted:
		if err := e.audio.Resume(); err != nil {
			logger.GetProjectLogger().Debugf("audio clock resume refused: %v", err)
		}
		return
	case audio.StateClosed:
		return
	}

	now := e.audio.Now()
	for e.nextAt < now+lookahead {
		e.scheduleClickLocked(e.beat, e.sub, e.nextAt, now)
		e.advanceCursorLocked()
	}
}

// scheduleClickLocked emits one click and, on beat boundaries, arranges the
// beat callback for the moment the click will actually sound.
func (e *Engine) scheduleClickLocked(beat, sub int, at, now float64) {
	freq := subFreq
	gain := e.volume * subGainRatio
	if sub == 0 {
		gain = e.volume
		if beat == 0 {
			freq = accentFreq
		} else {
			freq = beatFreq
		}
	}
	e.audio.PlayTone(audio.Tone{At: at, Freq: freq, Gain: gain, Duration: toneDuration})

	if sub != 0 {
		return
	}
	subs := collectBeat(e.beatSubs)
	if len(subs) == 0 {
		return
	}

	delay := time.Duration((at - now) * float64(time.Second))
	if delay < 0 {
		delay = 0
	}
	go func() {
		e.poll.Sleep(delay)
		for _, fn := range subs {
			fn(beat)
		}
	}()
}

// advanceCursorLocked moves the cursor to the following click: row-major over
// (beat, subdivision), wrapping at the bar.
func (e *Engine) advanceCursorLocked() {
	e.nextAt += 60.0 / float64(e.tempo) / float64(e.subdivision)
	e.sub++
	if e.sub >= e.subdivision {
		e.sub = 0
		e.beat = (e.beat + 1) % e.beatsPerBar
	}
}

// safetyMarginLocked is how far ahead of the clock fresh anchors land. The
// device's own latency wins when it is larger than the floor.
func (e *Engine) safetyMarginLocked() float64 {
	m := e.audio.OutputLatency()
	if m < minSafetyMargin {
		m = minSafetyMargin
	}
	return m
}

func collect(m map[int]func()) []func() {
	out := make([]func(), 0, len(m))
	for _, fn := range m {
		out = append(out, fn)
	}
	return out
}

func collectBeat(m map[int]func(int)) []func(int) {
	out := make([]func(int), 0, len(m))
	for _, fn := range m {
		out = append(out, fn)
	}
	return out
}

func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
