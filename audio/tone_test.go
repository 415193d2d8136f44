package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToneMixPlacesSamplesAtExactOffsets(t *testing.T) {
	t.Parallel()

	// 100 Hz sample rate keeps the numbers small: a tone at 1.0s starts at
	// sample 100 and a 0.1s duration spans 10 samples.
	tn := newTone(Tone{At: 1.0, Freq: 25, Gain: 1.0, Duration: 0.1}, 100, 0)
	require.Equal(t, int64(100), tn.start)
	require.Equal(t, int64(10), tn.length)

	buf := make([][2]float64, 120)
	done := tn.mix(buf, 0)
	assert.True(t, done)

	// Nothing before the start sample.
	for i := 0; i < 100; i++ {
		assert.Zero(t, buf[i][0], "sample %d should be silent", i)
	}

	// sin(2*pi*25*1/100) = 1 at the second sample of the tone.
	assert.Greater(t, buf[101][0], 0.5)
	assert.Equal(t, buf[101][0], buf[101][1])

	// Nothing after the tone ends.
	for i := 110; i < 120; i++ {
		assert.Zero(t, buf[i][0], "sample %d should be silent", i)
	}
}

func TestToneMixAcrossBufferBoundary(t *testing.T) {
	t.Parallel()

	tn := newTone(Tone{At: 0.5, Freq: 25, Gain: 1.0, Duration: 0.2}, 100, 0)

	// First buffer covers samples [0, 55): the tone starts at 50 and is not
	// exhausted yet.
	first := make([][2]float64, 55)
	require.False(t, tn.mix(first, 0))

	// Second buffer covers [55, 120) and finishes the tone. Absolute sample 55
	// is the tone's sixth sample: sin(2.5*pi) = 1 scaled by the envelope at
	// a quarter in, (0.75)^4.
	second := make([][2]float64, 65)
	require.True(t, tn.mix(second, 55))
	assert.InDelta(t, 0.3164, second[0][0], 0.001)
}

func TestLateToneStartsImmediately(t *testing.T) {
	t.Parallel()

	// Scheduled for 1.0s but the head is already at sample 200 (2.0s).
	tn := newTone(Tone{At: 1.0, Freq: 25, Gain: 1.0, Duration: 0.1}, 100, 200)
	assert.Equal(t, int64(200), tn.start)
}

func TestToneEnvelopeDecaysToSilence(t *testing.T) {
	t.Parallel()

	tn := newTone(Tone{At: 0, Freq: 25, Gain: 1.0, Duration: 1.0}, 100, 0)
	buf := make([][2]float64, 100)
	require.True(t, tn.mix(buf, 0))

	// The envelope is a quartic fall, so the last quarter of the tone is
	// nearly inaudible.
	for i := 90; i < 100; i++ {
		assert.Less(t, abs(buf[i][0]), 0.01, "sample %d should be nearly silent", i)
	}
}

func TestToneGainClamped(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, Tone{Gain: 3.0}.gainClamped())
	assert.Equal(t, 0.0, Tone{Gain: -2.0}.gainClamped())
	assert.Equal(t, 0.25, Tone{Gain: 0.25}.gainClamped())
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
