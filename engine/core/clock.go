package core

import (
	"time"

	"github.com/loov/hrtime"
)

// FrameClock measures the time between frames with the high resolution
// monotonic timer. It is a plain value owned by the loop and passed into
// updates; there is no global clock.
type FrameClock struct {
	startTime time.Duration
	lastTick  time.Duration
	delta     time.Duration
	elapsed   time.Duration
	frames    uint64
	running   bool
	now       func() time.Duration
}

func NewFrameClock() *FrameClock {
	return &FrameClock{now: hrtime.Now}
}

// NewFrameClockFrom builds a clock on a custom time source, e.g. a replayed
// or simulated timeline.
func NewFrameClockFrom(now func() time.Duration) *FrameClock {
	return &FrameClock{now: now}
}

// Starts the clock. Resets elapsed time and the frame counter.
func (c *FrameClock) Start() {
	c.startTime = c.now()
	c.lastTick = c.startTime
	c.delta = 0
	c.elapsed = 0
	c.frames = 0
	c.running = true
}

// Tick advances the clock by one frame and returns the seconds elapsed since
// the previous tick. Has no effect on non-started clocks.
func (c *FrameClock) Tick() float32 {
	if !c.running {
		return 0
	}
	now := c.now()
	c.delta = now - c.lastTick
	c.lastTick = now
	c.elapsed = now - c.startTime
	c.frames++
	return float32(c.delta.Seconds())
}

// Stops the clock. Does not reset elapsed time.
func (c *FrameClock) Stop() {
	c.running = false
}

// Delta returns the seconds between the last two ticks.
func (c *FrameClock) Delta() float32 {
	return float32(c.delta.Seconds())
}

// Elapsed returns the seconds since Start at the last tick.
func (c *FrameClock) Elapsed() float64 {
	return c.elapsed.Seconds()
}

func (c *FrameClock) Frames() uint64 {
	return c.frames
}
