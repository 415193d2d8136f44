package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualNotifiesOnChangeOnly(t *testing.T) {
	t.Parallel()

	m := NewManual()
	var got []bool
	m.Subscribe(func(v bool) { got = append(got, v) })

	// Already visible, so this is not a transition.
	m.Set(true)
	assert.Empty(t, got)

	m.Set(false)
	m.Set(false)
	m.Set(true)
	assert.Equal(t, []bool{false, true}, got)
	assert.True(t, m.Visible())
}

func TestManualSubscriptionCancel(t *testing.T) {
	t.Parallel()

	m := NewManual()
	calls := 0
	cancel := m.Subscribe(func(bool) { calls++ })

	m.Set(false)
	assert.Equal(t, 1, calls)

	cancel()
	m.Set(true)
	assert.Equal(t, 1, calls)
}
