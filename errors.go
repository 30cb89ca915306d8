package arena

import "errors"

var (
	// ErrOutOfMemory is returned when a request would run past the arena's capacity.
	ErrOutOfMemory = errors.New("arena: out of memory")
	// ErrOutOfBounds is returned when Resize is given a slice that does not
	// live inside the arena's buffer.
	ErrOutOfBounds = errors.New("arena: pointer out of bounds")
	// ErrInvalidAlignment is returned for alignments that are not a positive power of two.
	ErrInvalidAlignment = errors.New("arena: alignment must be a power of two")
	// ErrInvalidSize is returned for negative sizes.
	ErrInvalidSize = errors.New("arena: invalid size")
	// ErrReleased is returned by every allocating call after Release.
	ErrReleased = errors.New("arena: use after Release()")
)
