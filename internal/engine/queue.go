package engine

import (
	"sync"
)

// Command is a mutation submitted from outside the frame loop goroutine
// (input handlers, CLI autopilot). It runs on the loop goroutine with
// exclusive access to the engine.
type Command func(e *Engine)

// commandQueue is a thread-safe FIFO queue for commands.
//
// The queue is unbounded so an input burst never blocks the producer.
// Run drains it between frames, which keeps every mutation on one goroutine.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type commandQueue struct {
	mu     sync.Mutex
	cmds   []Command
	closed bool
	signal chan struct{} // Signals command availability (buffered, size 1)
}

func newCommandQueue() *commandQueue {
	return &commandQueue{
		cmds:   make([]Command, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a command to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *commandQueue) Enqueue(c Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.cmds = append(q.cmds, c)

	// Non-blocking: the buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (nil, false) if the queue is empty.
func (q *commandQueue) TryDequeue() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.cmds) == 0 {
		return nil, false
	}

	c := q.cmds[0]
	// Nil out the slot so the closure can be collected.
	q.cmds[0] = nil

	if len(q.cmds) == 1 {
		q.cmds = q.cmds[:0]
	} else {
		q.cmds = q.cmds[1:]
	}

	return c, true
}

// Wait returns a channel that signals when commands may be available.
func (q *commandQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *commandQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds)
}

// Closed reports whether Close has been called.
func (q *commandQueue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close signals that no more commands will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *commandQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
