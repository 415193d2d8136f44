package rhythm

import "fmt"

// Snapshot is a point-in-time view of the engine's timeline, safe to hold
// while the engine keeps moving. UIs poll it to draw the cursor.
type Snapshot struct {
	Tempo       int
	BeatsPerBar int
	Subdivision int
	Volume      float64

	// Beat and Sub are the zero-based cursor position of the next click.
	Beat int
	Sub  int
	// NextAt is the audio-clock time of the next click in seconds.
	NextAt  float64
	Running bool
}

// Snapshot captures the engine's current musical state and cursor.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Snapshot{
		Tempo:       e.tempo,
		BeatsPerBar: e.beatsPerBar,
		Subdivision: e.subdivision,
		Volume:      e.volume,
		Beat:        e.beat,
		Sub:         e.sub,
		NextAt:      e.nextAt,
		Running:     e.running,
	}
}

// GetBeatInterval returns the beat length in milliseconds.
func (s Snapshot) GetBeatInterval() float64 {
	return beatsToMilliseconds(1, float64(s.Tempo))
}

// GetClickInterval returns the spacing between clicks in milliseconds.
func (s Snapshot) GetClickInterval() float64 {
	return s.GetBeatInterval() / float64(s.Subdivision)
}

// GetBarInterval returns the bar length in milliseconds.
func (s Snapshot) GetBarInterval() float64 {
	return beatsToMilliseconds(s.BeatsPerBar, float64(s.Tempo))
}

// GetBarPhase returns how far through the bar the cursor is, in [0, 1).
func (s Snapshot) GetBarPhase() float64 {
	return (float64(s.Beat) + float64(s.Sub)/float64(s.Subdivision)) / float64(s.BeatsPerBar)
}

// IsDownBeat reports whether the next click is the first of its bar.
func (s Snapshot) IsDownBeat() bool {
	return s.Beat == 0 && s.Sub == 0
}

// GetMarker returns the cursor as "beat.subdivision", both one-based.
func (s Snapshot) GetMarker() string {
	return fmt.Sprintf("%d.%d", s.Beat+1, s.Sub+1)
}

// beatsToMilliseconds calculates milliseconds for given beats and tempo
func beatsToMilliseconds(beats int, tempo float64) float64 {
	return (60000.0 / tempo) * float64(beats)
}
