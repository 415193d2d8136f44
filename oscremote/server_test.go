package oscremote

import (
	"testing"
	"time"

	"github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"

	"github.com/robmorgan/pulse/audio/audiotest"
	"github.com/robmorgan/pulse/rhythm"
)

func newTestServer(t *testing.T) (*Server, *rhythm.Engine) {
	t.Helper()
	e := rhythm.New(
		rhythm.WithAudioClock(audiotest.NewClock()),
		rhythm.WithPollClock(clock.NewFakeClock(time.Now())),
	)
	t.Cleanup(e.Stop)

	s, err := NewServer("127.0.0.1:9000", e)
	require.NoError(t, err)
	return s, e
}

func TestTempoMessageSetsTempo(t *testing.T) {
	t.Parallel()

	s, e := newTestServer(t)

	s.handleTempo(osc.NewMessage(AddrTempo, float32(140)))
	assert.Equal(t, 140, e.Tempo())

	// Integer senders work too, and out-of-range values clamp.
	s.handleTempo(osc.NewMessage(AddrTempo, int32(999)))
	assert.Equal(t, rhythm.MaxTempo, e.Tempo())
}

func TestTempoMessageWithoutArgumentIsIgnored(t *testing.T) {
	t.Parallel()

	s, e := newTestServer(t)
	before := e.Tempo()

	s.handleTempo(osc.NewMessage(AddrTempo))
	assert.Equal(t, before, e.Tempo())

	s.handleTempo(osc.NewMessage(AddrTempo, "fast please"))
	assert.Equal(t, before, e.Tempo())
}

func TestTransportMessages(t *testing.T) {
	t.Parallel()

	s, e := newTestServer(t)

	s.handleStart(osc.NewMessage(AddrStart))
	assert.True(t, e.Running())

	s.handleStop(osc.NewMessage(AddrStop))
	assert.False(t, e.Running())
}

func TestMeterAndVolumeMessages(t *testing.T) {
	t.Parallel()

	s, e := newTestServer(t)

	s.handleBeatsPerBar(osc.NewMessage(AddrBeatsPerBar, int32(7)))
	assert.Equal(t, 7, e.BeatsPerBar())

	s.handleSubdivision(osc.NewMessage(AddrSubdivision, int32(3)))
	assert.Equal(t, 3, e.Subdivision())

	s.handleVolume(osc.NewMessage(AddrVolume, float32(0.25)))
	assert.InDelta(t, 0.25, e.Volume(), 1e-6)
}

func TestTapMessagesSetTempo(t *testing.T) {
	t.Parallel()

	s, e := newTestServer(t)

	// Scripted time: four taps at 500ms spacing.
	base := time.Now()
	i := 0
	s.now = func() time.Time {
		tap := base.Add(time.Duration(i) * 500 * time.Millisecond)
		i++
		return tap
	}

	for n := 0; n < 4; n++ {
		s.handleTap(osc.NewMessage(AddrTap))
	}
	assert.Equal(t, 120, e.Tempo())
}
