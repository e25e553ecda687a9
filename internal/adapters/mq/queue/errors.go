package queue

import "errors"

var (
	// ErrFull means the queue is at capacity; the caller should back off.
	ErrFull = errors.New("queue full")
	// ErrClosed means the queue no longer accepts events.
	ErrClosed = errors.New("queue closed")
)
