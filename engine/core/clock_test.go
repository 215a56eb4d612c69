package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeClock(steps ...time.Duration) *FrameClock {
	c := NewFrameClock()
	var now time.Duration
	i := 0
	c.now = func() time.Duration {
		if i < len(steps) {
			now += steps[i]
			i++
		}
		return now
	}
	return c
}

func TestFrameClockTick(t *testing.T) {
	c := fakeClock(time.Second, 16*time.Millisecond, 34*time.Millisecond)
	assert.Zero(t, c.Tick(), "non-started clock must not advance")

	c.Start()
	dt := c.Tick()
	assert.InDelta(t, 0.016, dt, 1e-6)
	dt = c.Tick()
	assert.InDelta(t, 0.034, dt, 1e-6)
	assert.InDelta(t, 0.050, c.Elapsed(), 1e-9)
	assert.InDelta(t, 0.034, c.Delta(), 1e-6)
	require.Equal(t, uint64(2), c.Frames())
}

func TestFrameClockStop(t *testing.T) {
	c := fakeClock(time.Second, time.Second)
	c.Start()
	c.Tick()
	c.Stop()
	assert.Zero(t, c.Tick())
	assert.InDelta(t, 1.0, c.Elapsed(), 1e-9, "stop keeps elapsed time")
}

func TestFrameMetricsAverage(t *testing.T) {
	m := NewFrameMetrics()
	refreshed := false
	for i := 0; i < int(AVG_COUNT); i++ {
		refreshed = m.Update(0.010) || refreshed
	}
	assert.InDelta(t, 10.0, m.FrameTime(), 1e-9)
	assert.False(t, refreshed, "300ms must not refresh the FPS counter")

	for i := 0; i < 71; i++ {
		refreshed = m.Update(0.010) || refreshed
	}
	assert.True(t, refreshed)
	assert.Equal(t, float64(101), m.FPS())
	assert.InDelta(t, 10.0, m.FrameTime(), 1e-9, "average must not accumulate across windows")
}
