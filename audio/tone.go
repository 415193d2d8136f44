package audio

import (
	"math"

	"github.com/fogleman/ease"
)

// tone is a pending click positioned on the sample timeline.
type tone struct {
	start  int64
	length int64
	freq   float64
	gain   float64
	sr     float64
}

func newTone(t Tone, sr float64, head int64) *tone {
	start := int64(math.Round(t.At * sr))
	if start < head {
		// Late tones begin right away rather than being dropped.
		start = head
	}
	length := int64(math.Round(t.Duration * sr))
	if length < 1 {
		length = 1
	}
	return &tone{start: start, length: length, freq: t.Freq, gain: t.gainClamped(), sr: sr}
}

func (t Tone) gainClamped() float64 {
	if t.Gain < 0 || math.IsNaN(t.Gain) {
		return 0
	}
	if t.Gain > 1 {
		return 1
	}
	return t.Gain
}

// mix adds the slice of the tone that overlaps [head, head+len(buf)) into buf
// and reports whether the tone is exhausted. The envelope falls from the peak
// gain to silence across the tone so the click ends without a pop.
func (t *tone) mix(buf [][2]float64, head int64) bool {
	end := t.start + t.length
	lo := t.start
	if lo < head {
		lo = head
	}
	hi := head + int64(len(buf))
	if hi > end {
		hi = end
	}
	for abs := lo; abs < hi; abs++ {
		n := abs - t.start
		progress := float64(n) / float64(t.length)
		env := t.gain * ease.InQuart(1-progress)
		v := math.Sin(2*math.Pi*t.freq*float64(n)/t.sr) * env
		buf[abs-head][0] += v
		buf[abs-head][1] += v
	}
	return end <= head+int64(len(buf))
}
