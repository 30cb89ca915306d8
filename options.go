package arena

import "github.com/charmbracelet/log"

// Option is a configuration option for Arena.
type Option func(*Arena)

// WithLogger reports exhaustion and out-of-bounds resizes at debug level.
func WithLogger(logger *log.Logger) Option {
	return func(a *Arena) {
		a.logger = logger
	}
}

// WithMemoryAcquirer reserves the arena's capacity from acquirer on creation
// and gives it back on Release.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(a *Arena) {
		a.acquirer = acquirer
	}
}

// WithOffHeap backs the arena with an anonymous memory mapping instead of a
// Go heap slice. The buffer is then invisible to the garbage collector, so
// values stored in it must not hold Go pointers.
func WithOffHeap() Option {
	return func(a *Arena) {
		a.offHeap = true
	}
}
