package pacing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingStore struct {
	saved []float64
}

func (r *recordingStore) SaveWait(seconds float64) error {
	r.saved = append(r.saved, seconds)
	return nil
}

func TestObserveRaisesOnSlowUpstream(t *testing.T) {
	store := &recordingStore{}
	c := NewController(31, 15, 60, store)

	got := c.Observe(40, false)
	assert.InDelta(t, 48.0, got, 0.001) // 40 * 1.2
	require.Len(t, store.saved, 1)
	assert.InDelta(t, 48.0, store.saved[0], 0.001)
}

func TestObserveNeverExceedsCeiling(t *testing.T) {
	c := NewController(31, 15, 60, nil)

	for i := 0; i < 10; i++ {
		got := c.Observe(100, false)
		assert.LessOrEqual(t, got, 60.0)
	}
	assert.Equal(t, 60.0, c.Wait())
}

func TestObserveNeverDropsBelowFloor(t *testing.T) {
	c := NewController(31, 15, 60, nil)

	for i := 0; i < 8; i++ {
		got := c.Observe(1, false)
		assert.GreaterOrEqual(t, got, 15.0)
	}
	assert.Equal(t, 15.0, c.Wait())
}

func TestObserveRequiresTrailingWindowToLower(t *testing.T) {
	c := NewController(31, 15, 60, nil)

	// Fewer than three prior observations: no decrease yet.
	assert.Equal(t, 31.0, c.Observe(1, false))
	assert.Equal(t, 31.0, c.Observe(1, false))
	assert.Equal(t, 31.0, c.Observe(1, false))
	// Fourth call sees a full fast window and lowers to the floor.
	assert.Equal(t, 15.0, c.Observe(1, false))
}

func TestObserveIgnoresSmallSwings(t *testing.T) {
	c := NewController(58, 15, 60, nil)

	// 59 * 1.2 caps at the 60s ceiling, which is within 2s of the
	// current wait, so the hysteresis holds it steady.
	assert.Equal(t, 58.0, c.Observe(59, false))
	assert.Equal(t, 58.0, c.Wait())
}

func TestObserveBacksOffAfterFailureStreak(t *testing.T) {
	store := &recordingStore{}
	c := NewController(30, 15, 60, store)

	assert.Equal(t, 30.0, c.Observe(1, true))
	assert.Equal(t, 30.0, c.Observe(1, true))
	got := c.Observe(1, true)
	assert.InDelta(t, 45.0, got, 0.001) // 30 * 1.5
	require.NotEmpty(t, store.saved)
}

func TestObserveFailureResetsOnSuccess(t *testing.T) {
	c := NewController(30, 15, 60, nil)

	c.Observe(1, true)
	c.Observe(1, true)
	c.Observe(1, false) // streak broken
	got := c.Observe(1, true)
	assert.Equal(t, 30.0, got)
}

func TestNewControllerClampsInitialWait(t *testing.T) {
	assert.Equal(t, 15.0, NewController(3, 15, 60, nil).Wait())
	assert.Equal(t, 60.0, NewController(500, 15, 60, nil).Wait())
}
