package audio

import "errors"

// ErrClosed is returned when an operation needs a clock that has been closed.
var ErrClosed = errors.New("audio clock is closed")

// State describes the lifecycle of the underlying audio device clock.
type State int

const (
	// StateRunning means the device is rendering and the clock is advancing.
	StateRunning State = iota
	// StateSuspended means the host paused rendering and froze the clock.
	StateSuspended
	// StateInterrupted means the device was taken away (route change, another
	// client grabbed it exclusively). Treated like a suspension for recovery.
	StateInterrupted
	// StateClosed means the clock is gone for good.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateSuspended:
		return "suspended"
	case StateInterrupted:
		return "interrupted"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Tone is a click scheduled at an absolute time on the clock's own timebase.
type Tone struct {
	// At is the clock time in seconds at which the tone should sound. Times
	// already in the past begin sounding immediately.
	At float64
	// Freq is the pitch in Hz.
	Freq float64
	// Gain is the peak amplitude in [0, 1].
	Gain float64
	// Duration is the tone length in seconds.
	Duration float64
}

// Clock is a hardware audio clock: a monotonic, sample-accurate timebase that
// can render short tones at absolute positions on that same timebase. The
// scheduling engine decides coarsely on a wall-clock timer and relies on this
// interface for the precision.
type Clock interface {
	// Now returns the current clock time in seconds. The clock advances only
	// while the device renders, so time freezes across a suspension.
	Now() float64

	// PlayTone schedules a tone. Fire and forget: scheduling never fails and
	// there is no way to cancel a queued tone.
	PlayTone(t Tone)

	// OutputLatency reports the device output latency in seconds, or 0 when
	// unknown.
	OutputLatency() float64

	State() State

	// Resume restarts a suspended or interrupted clock. Resuming a running
	// clock does nothing. Resuming a closed clock returns ErrClosed.
	Resume() error

	// Suspend freezes the clock. Queued tones stay queued and sound after the
	// next Resume.
	Suspend() error

	// Close releases the clock permanently.
	Close() error

	// Subscribe registers fn to observe state transitions. The returned func
	// removes the subscription. Notifications are delivered asynchronously so
	// subscribers may freely call back into the clock.
	Subscribe(fn func(State)) (cancel func())
}
