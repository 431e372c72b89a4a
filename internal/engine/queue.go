package engine

import "sync"

// Request asks the engine to act on a target on behalf of an actor.
type Request struct {
	TargetID string
	ActorID  string
}

// requestQueue is a FIFO of pending interaction requests.
//
// Input handlers may enqueue from any goroutine; the driver drains it once
// per frame, after ticking, so the interactions of a frame always see that
// frame's growth state.
type requestQueue struct {
	mu       sync.Mutex
	requests []Request
	closed   bool
}

func newRequestQueue() *requestQueue {
	return &requestQueue{requests: make([]Request, 0, 16)}
}

// Enqueue adds r to the back of the queue.
// Returns false if the queue is closed.
func (q *requestQueue) Enqueue(r Request) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.requests = append(q.requests, r)
	return true
}

// Drain removes and returns every queued request in FIFO order.
// Requests enqueued while the caller processes the result wait for the next drain.
func (q *requestQueue) Drain() []Request {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.requests) == 0 {
		return nil
	}
	out := q.requests
	q.requests = make([]Request, 0, cap(out))
	return out
}

// Len returns the current queue length.
func (q *requestQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.requests)
}

// Close rejects further enqueues. Already queued requests can still be drained.
func (q *requestQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
