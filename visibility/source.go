// Package visibility reports whether the program is in the foreground. The
// resilience supervisor uses the return-to-foreground edge as its cue to pull
// the audio clock back and re-anchor playback.
package visibility

import "sync"

// Source emits foreground/background transitions.
type Source interface {
	// Subscribe registers fn for visibility changes. fn receives true when
	// the program returns to the foreground. The returned func removes the
	// subscription.
	Subscribe(fn func(visible bool)) (cancel func())
}

// Manual is a Source driven by explicit Set calls. UIs feed it from their own
// focus events; tests script it.
type Manual struct {
	mu      sync.Mutex
	visible bool
	subs    map[int]func(bool)
	nextSub int
}

func NewManual() *Manual {
	return &Manual{
		visible: true,
		subs:    make(map[int]func(bool)),
	}
}

func (m *Manual) Subscribe(fn func(bool)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Set records the new visibility and, on a change, notifies subscribers on
// the calling goroutine.
func (m *Manual) Set(visible bool) {
	m.mu.Lock()
	if m.visible == visible {
		m.mu.Unlock()
		return
	}
	m.visible = visible
	subs := make([]func(bool), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(visible)
	}
}

// Visible returns the last state recorded by Set.
func (m *Manual) Visible() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.visible
}
