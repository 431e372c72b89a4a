package engine

import "sync/atomic"

// Clock supplies the elapsed simulated time of each frame.
type Clock interface {
	Delta() float64
}

// FixedStep is a Clock returning the same delta every frame.
type FixedStep float64

// Delta returns the step.
func (s FixedStep) Delta() float64 { return float64(s) }

// FrameCounter is the logical frame clock.
//
// Every frame is stamped with a strictly increasing number. Event logs and
// saves are ordered by it rather than by wall-clock time, so replayed runs
// produce identical orderings.
//
// Thread-safety: FrameCounter is safe for concurrent use (atomic operations).
// However, the Engine's driver loop means only one goroutine typically calls Next().
type FrameCounter struct {
	frame atomic.Int64
}

// NewFrameCounter creates a counter starting at 0.
func NewFrameCounter() *FrameCounter {
	return &FrameCounter{}
}

// NewFrameCounterAt creates a counter resuming from frame.
// Used when a saved session is reloaded.
func NewFrameCounterAt(frame int64) *FrameCounter {
	c := &FrameCounter{}
	c.frame.Store(frame)
	return c
}

// Next advances to and returns the next frame number.
func (c *FrameCounter) Next() int64 {
	return c.frame.Add(1)
}

// Current returns the current frame number without advancing.
func (c *FrameCounter) Current() int64 {
	return c.frame.Load()
}
