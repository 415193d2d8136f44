// Package taptempo derives a tempo from tapped timestamps.
package taptempo

import (
	"math"
	"sync"
	"time"
)

const (
	// maxTaps bounds the averaging window; older taps fall off.
	maxTaps = 6
	// resetAfter is the pause that starts a fresh take.
	resetAfter = 2 * time.Second
)

// Tapper folds the gaps between recent taps into a tempo estimate. Safe for
// concurrent use; taps can come from a key handler and an OSC server at once.
type Tapper struct {
	mu   sync.Mutex
	taps []time.Time
}

// Tap records a tap at now and returns the running estimate. A tap landing
// more than two seconds after the previous one starts over.
func (t *Tapper) Tap(now time.Time) (bpm int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.taps); n > 0 && now.Sub(t.taps[n-1]) > resetAfter {
		t.taps = t.taps[:0]
	}
	t.taps = append(t.taps, now)
	if len(t.taps) > maxTaps {
		t.taps = t.taps[1:]
	}
	return t.bpmLocked()
}

// BPM returns the current estimate: 60000 over the mean inter-tap gap in
// milliseconds. Two taps are the minimum that defines a gap.
func (t *Tapper) BPM() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bpmLocked()
}

func (t *Tapper) bpmLocked() (int, bool) {
	if len(t.taps) < 2 {
		return 0, false
	}
	total := t.taps[len(t.taps)-1].Sub(t.taps[0])
	avgMs := float64(total) / float64(time.Millisecond) / float64(len(t.taps)-1)
	if avgMs <= 0 {
		return 0, false
	}
	return int(math.Round(60000.0 / avgMs)), true
}

// Reset forgets every recorded tap.
func (t *Tapper) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.taps = nil
}
