package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestManualClock_FixedStep(t *testing.T) {
	c := NewManualClock(0.5)
	assert.Equal(t, 0.5, c.Delta())
	assert.Equal(t, 0.5, c.Delta())
	assert.Equal(t, int64(2), c.Frames())
}

func TestManualClock_QueuedDeltasFirst(t *testing.T) {
	c := NewManualClock(1)
	c.Queue(3, 2.5)

	assert.Equal(t, 3.0, c.Delta())
	assert.Equal(t, 2.5, c.Delta())
	assert.Equal(t, 1.0, c.Delta())
}

func TestManualClock_Reset(t *testing.T) {
	c := NewManualClock(1)
	c.Queue(7)
	c.Delta()
	c.Queue(9)

	c.Reset()

	assert.Equal(t, int64(0), c.Frames())
	assert.Equal(t, 1.0, c.Delta(), "queued deltas are dropped on reset")
}

func TestManualClock_ThreadSafe(t *testing.T) {
	c := NewManualClock(1)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Delta()
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), c.Frames())
}

func TestFixedSessionGenerator(t *testing.T) {
	assert.Equal(t, "test-session-default", NewFixedSessionGenerator("").Generate())

	g := NewFixedSessionGenerator("s-1")
	assert.Equal(t, "s-1", g.Generate())
	assert.Equal(t, "s-1", g.Generate())
}
