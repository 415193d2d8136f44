package supervisor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"

	"github.com/robmorgan/pulse/audio"
	"github.com/robmorgan/pulse/audio/audiotest"
	"github.com/robmorgan/pulse/rhythm"
	"github.com/robmorgan/pulse/visibility"
)

type spyLock struct {
	mu       sync.Mutex
	acquired int
	released int
	err      error
}

func (l *spyLock) Acquire(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquired++
	return l.err
}

func (l *spyLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released++
	return l.err
}

func (l *spyLock) counts() (acquired, released int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acquired, l.released
}

type spyKeepAlive struct {
	mu      sync.Mutex
	started int
	stopped int
	err     error
}

func (k *spyKeepAlive) Start() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.started++
	return k.err
}

func (k *spyKeepAlive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stopped++
}

func (k *spyKeepAlive) counts() (started, stopped int) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.started, k.stopped
}

// fakeEngine records recovery calls without any scheduling behind them.
type fakeEngine struct {
	mu        sync.Mutex
	running   bool
	reanchors int
}

func (f *fakeEngine) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeEngine) Reanchor() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reanchors++
}

func (f *fakeEngine) setRunning(b bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = b
}

func (f *fakeEngine) reanchorCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reanchors
}

func (f *fakeEngine) OnStart(func()) func() { return func() {} }
func (f *fakeEngine) OnStop(func()) func()  { return func() {} }

func newRunningEngine(t *testing.T, ac *audiotest.Clock) *rhythm.Engine {
	t.Helper()
	e := rhythm.New(rhythm.WithAudioClock(ac), rhythm.WithPollClock(clock.NewFakeClock(time.Now())))
	t.Cleanup(e.Stop)
	return e
}

func TestEngineRunDrivesWakeLockAndKeepAlive(t *testing.T) {
	t.Parallel()

	ac := audiotest.NewClock()
	e := newRunningEngine(t, ac)
	lock := &spyLock{}
	ka := &spyKeepAlive{}

	s := New(e, ac, WithWakeLock(lock), WithKeepAlive(ka))
	s.Attach()
	defer s.Detach()

	require.NoError(t, e.Start())

	started, _ := ka.counts()
	assert.Equal(t, 1, started)
	require.Eventually(t, func() bool {
		acquired, _ := lock.counts()
		return acquired == 1
	}, time.Second, 5*time.Millisecond, "wake lock should be acquired in the background")

	e.Stop()
	_, released := lock.counts()
	assert.Equal(t, 1, released)
	_, stopped := ka.counts()
	assert.Equal(t, 1, stopped)
}

func TestClockReturnReanchorsRunningEngine(t *testing.T) {
	t.Parallel()

	ac := audiotest.NewClock()
	e := newRunningEngine(t, ac)
	s := New(e, ac)
	s.Attach()
	defer s.Detach()

	require.NoError(t, e.Start())

	// The platform takes the clock away and ten seconds go missing.
	require.NoError(t, ac.Suspend())
	ac.Advance(10.0)
	require.NoError(t, ac.Resume())

	// The recovery lands asynchronously: the cursor must point just past the
	// clock's new position, not at the backlog.
	require.Eventually(t, func() bool {
		next := e.Snapshot().NextAt
		return next > 10.0 && next < 10.1
	}, time.Second, 5*time.Millisecond)
}

func TestClockReturnIgnoredWhenEngineStopped(t *testing.T) {
	t.Parallel()

	ac := audiotest.NewClock()
	fe := &fakeEngine{}
	s := New(fe, ac)
	s.Attach()
	defer s.Detach()

	require.NoError(t, ac.Suspend())
	require.NoError(t, ac.Resume())

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, fe.reanchorCount())
}

func TestVisibilityReturnRecoversClock(t *testing.T) {
	t.Parallel()

	ac := audiotest.NewClock()
	fe := &fakeEngine{}
	fe.setRunning(true)
	lock := &spyLock{}
	vis := visibility.NewManual()

	s := New(fe, ac, WithWakeLock(lock), WithVisibility(vis))
	s.Attach()
	defer s.Detach()

	require.NoError(t, ac.Suspend())
	vis.Set(false)
	vis.Set(true)

	// The Manual source notifies inline, so the resume and re-anchor have
	// already happened; only the wake lock is asynchronous.
	assert.Equal(t, 1, ac.Resumes())
	assert.Equal(t, audio.StateRunning, ac.State())
	assert.GreaterOrEqual(t, fe.reanchorCount(), 1)
	require.Eventually(t, func() bool {
		acquired, _ := lock.counts()
		return acquired >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestVisibilityIgnoredWhenEngineStopped(t *testing.T) {
	t.Parallel()

	ac := audiotest.NewClock()
	fe := &fakeEngine{}
	vis := visibility.NewManual()

	s := New(fe, ac, WithVisibility(vis))
	s.Attach()
	defer s.Detach()

	require.NoError(t, ac.Suspend())
	vis.Set(false)
	vis.Set(true)

	assert.Zero(t, fe.reanchorCount())
	assert.Zero(t, ac.Resumes())
}

func TestCapabilityFailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	ac := audiotest.NewClock()
	e := newRunningEngine(t, ac)
	lock := &spyLock{err: errors.New("no session bus")}
	ka := &spyKeepAlive{err: errors.New("no speaker")}

	s := New(e, ac, WithWakeLock(lock), WithKeepAlive(ka))
	s.Attach()
	defer s.Detach()

	// Every capability fails and the metronome keeps going anyway.
	require.NoError(t, e.Start())
	require.True(t, e.Running())

	require.Eventually(t, func() bool {
		acquired, _ := lock.counts()
		return acquired == 1
	}, time.Second, 5*time.Millisecond)

	e.Stop()
	assert.False(t, e.Running())
}

func TestDetachStopsRecovery(t *testing.T) {
	t.Parallel()

	ac := audiotest.NewClock()
	fe := &fakeEngine{}
	fe.setRunning(true)
	vis := visibility.NewManual()

	s := New(fe, ac, WithVisibility(vis))
	s.Attach()
	s.Detach()

	require.NoError(t, ac.Suspend())
	require.NoError(t, ac.Resume())
	vis.Set(false)
	vis.Set(true)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, fe.reanchorCount())
}
