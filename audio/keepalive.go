package audio

import (
	"sync"
	"sync/atomic"

	"github.com/faiface/beep/speaker"
)

// KeepAlive holds the output session open by streaming silence. Some hosts
// cork or tear down an idle audio session between clicks; a continuously
// running silent stream keeps the route warm so the next click starts clean.
// It needs an initialized speaker, which NewBeepClock takes care of.
type KeepAlive struct {
	mu  sync.Mutex
	cur *silence
}

// Start begins streaming silence. Starting an already running keep-alive does
// nothing.
func (k *KeepAlive) Start() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cur != nil {
		return nil
	}
	s := &silence{}
	s.on.Store(true)
	k.cur = s
	speaker.Play(s)
	return nil
}

// Stop ends the silent stream. The speaker drops it on its next pull.
func (k *KeepAlive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.cur != nil {
		k.cur.on.Store(false)
		k.cur = nil
	}
}

type silence struct {
	on atomic.Bool
}

func (s *silence) Stream(samples [][2]float64) (int, bool) {
	if !s.on.Load() {
		return 0, false
	}
	for i := range samples {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

func (s *silence) Err() error { return nil }
