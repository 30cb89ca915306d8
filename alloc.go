package arena

import (
	"fmt"
	"math"
	"unsafe"
)

// Alloc returns a pointer to a zeroed T stored inside the arena, aligned
// for T. The arena buffer is not scanned by the garbage collector, so T
// must not hold Go pointers.
func Alloc[T any](a *Arena) (*T, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return new(T), nil
	}
	b, err := a.Alloc(size, int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	return (*T)(unsafe.Pointer(unsafe.SliceData(b))), nil
}

// AllocSlice allocates a zeroed slice of n elements of type T inside the arena.
// Returns nil if n == 0.
func AllocSlice[T any](a *Arena, n int) ([]T, error) {
	var zero T
	total, err := sliceBytes(n, int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, err
	}
	if total == 0 {
		if n == 0 {
			return nil, nil
		}
		return make([]T, n), nil
	}
	b, err := a.Alloc(total, int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n), nil
}

// ResizeSlice resizes s to n elements with the same rules as Arena.Resize:
// in place when s is the most recent allocation, copied otherwise.
func ResizeSlice[T any](a *Arena, s []T, n int) ([]T, error) {
	var zero T
	elem := int(unsafe.Sizeof(zero))
	if len(s) == 0 || elem == 0 {
		return AllocSlice[T](a, n)
	}
	total, err := sliceBytes(n, elem)
	if err != nil {
		return nil, err
	}
	old := unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), len(s)*elem)
	b, err := a.Resize(old, total, int(unsafe.Alignof(zero)))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), n), nil
}

// AllocString copies s into the arena.
func AllocString(a *Arena, s string) (string, error) {
	b, err := a.Alloc(len(s), 1)
	if err != nil || len(b) == 0 {
		return "", err
	}
	copy(b, s)
	return unsafe.String(unsafe.SliceData(b), len(b)), nil
}

// Sprintf formats directly into the free space of the arena and returns the
// result as a string that aliases arena memory. Nothing is allocated on the
// Go heap when the text fits; ErrOutOfMemory is returned when it does not.
func Sprintf(a *Arena, format string, args ...any) (string, error) {
	if a.released {
		return "", ErrReleased
	}
	tail := a.buf[a.currOffset:len(a.buf):len(a.buf)]
	out := fmt.Appendf(tail[:0], format, args...)
	if len(out) == 0 {
		return "", nil
	}
	// append moved to the heap: the text did not fit
	if unsafe.SliceData(out) != unsafe.SliceData(tail) {
		return "", a.outOfMemory(len(out), 1, a.currOffset)
	}

	a.prevOffset = a.currOffset
	a.currOffset += len(out)
	a.allocs++
	a.updatePeak()
	return unsafe.String(unsafe.SliceData(out), len(out)), nil
}

func sliceBytes(n, elem int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("%w: %d elements", ErrInvalidSize, n)
	}
	if elem > 0 && n > math.MaxInt/elem {
		return 0, fmt.Errorf("%w: %d elements of %d bytes overflows", ErrInvalidSize, n, elem)
	}
	return n * elem, nil
}
