package testutil

import "sync"

// ManualClock is a delta clock driven by the test.
//
// Delta returns the queued deltas in order, then the fixed step once the
// queue is empty. Frames counts Delta calls.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualClock struct {
	mu     sync.Mutex
	step   float64
	queued []float64
	frames int64
}

// NewManualClock creates a clock returning step on every frame.
func NewManualClock(step float64) *ManualClock {
	return &ManualClock{step: step}
}

// Queue appends deltas to be returned before the fixed step.
func (c *ManualClock) Queue(deltas ...float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queued = append(c.queued, deltas...)
}

// Delta returns the next frame's elapsed time.
func (c *ManualClock) Delta() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames++
	if len(c.queued) > 0 {
		d := c.queued[0]
		c.queued = c.queued[1:]
		return d
	}
	return c.step
}

// Frames returns how many deltas were handed out.
func (c *ManualClock) Frames() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames
}

// Reset drops queued deltas and zeroes the frame count.
func (c *ManualClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queued = nil
	c.frames = 0
}
