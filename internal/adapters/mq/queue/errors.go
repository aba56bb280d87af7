package queue

import "errors"

// Sentinel errors returned by Enqueue.
var (
	ErrFull   = errors.New("recompute queue is full")
	ErrClosed = errors.New("recompute queue is closed")
)
