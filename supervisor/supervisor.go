// Package supervisor keeps the metronome playable across everything the
// platform does to the audio clock: suspensions, interruptions, backgrounded
// sessions, machines falling asleep. Recovery is always the same move. The
// clock goes back into service and the playback cursor re-anchors at now,
// skipping whatever went unheard.
package supervisor

import (
	"context"

	"github.com/robmorgan/pulse/audio"
	"github.com/robmorgan/pulse/logger"
	"github.com/robmorgan/pulse/visibility"
)

// Engine is the slice of the metronome engine the supervisor drives.
type Engine interface {
	Running() bool
	Reanchor()
	OnStart(fn func()) (remove func())
	OnStop(fn func()) (remove func())
}

// WakeLock keeps the machine awake while the metronome runs. Implementations
// are best-effort: the host may refuse or silently revoke the lock.
type WakeLock interface {
	Acquire(ctx context.Context) error
	Release() error
}

// KeepAlive holds the audio session open between clicks.
type KeepAlive interface {
	Start() error
	Stop()
}

// Supervisor watches the audio clock's lifecycle, the program's visibility and
// the engine's run state, and stitches playback back together whenever the
// platform hands the clock back.
type Supervisor struct {
	engine    Engine
	clock     audio.Clock
	wakeLock  WakeLock
	keepAlive KeepAlive
	vis       visibility.Source

	cancels []func()
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithWakeLock provides the sleep inhibitor. Absent by default.
func WithWakeLock(l WakeLock) Option {
	return func(s *Supervisor) { s.wakeLock = l }
}

// WithKeepAlive provides the silent stream holding the session open.
func WithKeepAlive(k KeepAlive) Option {
	return func(s *Supervisor) { s.keepAlive = k }
}

// WithVisibility provides the foreground/background signal.
func WithVisibility(src visibility.Source) Option {
	return func(s *Supervisor) { s.vis = src }
}

// New builds a supervisor around engine and clock. Platform capabilities come
// in through options; every one of them may be missing and every failure they
// produce is logged and swallowed. Losing a nicety must never take the
// metronome down.
func New(engine Engine, clock audio.Clock, opts ...Option) *Supervisor {
	s := &Supervisor{engine: engine, clock: clock}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach subscribes to the clock, the visibility source and the engine's run
// hooks. Call Detach to undo all of it.
func (s *Supervisor) Attach() {
	s.cancels = append(s.cancels, s.clock.Subscribe(s.onClockState))
	if s.vis != nil {
		s.cancels = append(s.cancels, s.vis.Subscribe(s.onVisibility))
	}
	s.cancels = append(s.cancels, s.engine.OnStart(s.onEngineStart))
	s.cancels = append(s.cancels, s.engine.OnStop(s.onEngineStop))
}

// Detach removes every subscription made by Attach.
func (s *Supervisor) Detach() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil
}

func (s *Supervisor) onClockState(st audio.State) {
	log := logger.GetProjectLogger()
	switch st {
	case audio.StateRunning:
		if s.engine.Running() {
			log.Info("audio clock is back, re-anchoring playback")
			s.engine.Reanchor()
		}
	case audio.StateSuspended:
		log.Debug("audio clock suspended")
	case audio.StateInterrupted:
		log.Warn("audio clock interrupted")
	case audio.StateClosed:
		log.Warn("audio clock closed")
	}
}

func (s *Supervisor) onVisibility(visible bool) {
	if !visible || !s.engine.Running() {
		return
	}
	log := logger.GetProjectLogger()

	switch s.clock.State() {
	case audio.StateSuspended, audio.StateInterrupted:
		if err := s.clock.Resume(); err != nil {
			log.Warnf("could not resume audio clock: %v", err)
		}
	case audio.StateRunning, audio.StateClosed:
	}

	// The clock may have drifted or been rebuilt while the program was
	// hidden, and the host revokes the wake lock on hide. Take both back.
	s.engine.Reanchor()
	s.acquireWakeLock()
}

func (s *Supervisor) onEngineStart() {
	s.acquireWakeLock()
	if s.keepAlive != nil {
		if err := s.keepAlive.Start(); err != nil {
			logger.GetProjectLogger().Warnf("could not start keep-alive stream: %v", err)
		}
	}
}

func (s *Supervisor) onEngineStop() {
	if s.wakeLock != nil {
		if err := s.wakeLock.Release(); err != nil {
			logger.GetProjectLogger().Warnf("could not release wake lock: %v", err)
		}
	}
	if s.keepAlive != nil {
		s.keepAlive.Stop()
	}
}

// acquireWakeLock requests the lock off the caller's path. Acquisition can
// block on the bus and the metronome must not wait for it.
func (s *Supervisor) acquireWakeLock() {
	if s.wakeLock == nil {
		return
	}
	go func() {
		if err := s.wakeLock.Acquire(context.Background()); err != nil {
			logger.GetProjectLogger().Warnf("could not acquire wake lock: %v", err)
		}
	}()
}
