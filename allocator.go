package arena

import (
	"fmt"
	"unsafe"
)

// Allocator is the allocation contract shared by arenas and the Go heap.
// Free may be a no-op; callers must not rely on memory being reclaimed.
type Allocator interface {
	Alloc(size, align int) ([]byte, error)
	Resize(old []byte, newSize, align int) ([]byte, error)
	Free(b []byte)
}

var (
	_ Allocator = (*Arena)(nil)
	_ Allocator = (*SafeArena)(nil)
	_ Allocator = HeapAllocator{}
)

// HeapAllocator satisfies Allocator with the Go heap. It is the fallback
// for callers that treat arena exhaustion as recoverable.
type HeapAllocator struct{}

// Alloc returns size zeroed bytes aligned to align.
func (HeapAllocator) Alloc(size, align int) ([]byte, error) {
	if !isPowerOfTwo(align) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAlignment, align)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if size == 0 {
		return nil, nil
	}
	return alignedHeap(size, align), nil
}

// Resize always copies min(len(old), newSize) bytes into a fresh region.
func (h HeapAllocator) Resize(old []byte, newSize, align int) ([]byte, error) {
	b, err := h.Alloc(newSize, align)
	if err != nil {
		return nil, err
	}
	copy(b, old)
	return b, nil
}

// Free leaves reclamation to the garbage collector.
func (HeapAllocator) Free([]byte) {}

// alignedHeap over-allocates by align and slices at the first aligned address.
func alignedHeap(size, align int) []byte {
	if align <= bufferAlignment {
		return alignedBuffer(size)
	}
	raw := make([]byte, size+align)
	p := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	shift := int(alignForward(p, uintptr(align)) - p)
	return raw[shift : shift+size : shift+size]
}
