// Package arena implements a fixed-capacity bump allocator (memory arena).
// Typical usage: create one arena per owner, carve many short-lived values
// out of it, then Reset() or roll back a Checkpoint for O(1) cleanup.
package arena

import (
	"context"
	"fmt"
	"math"
	"time"
	"unsafe"

	"github.com/charmbracelet/log"

	"github.com/farmtotable/arena/internal/mmap"
)

const (
	// DefaultCapacity is the capacity used when a non-positive one is requested (64 KiB).
	DefaultCapacity = 1 << 16

	// DefaultAlignment is twice the platform pointer width.
	DefaultAlignment = 2 * int(unsafe.Sizeof(uintptr(0)))

	// bufferAlignment is the start alignment of arena-owned heap buffers.
	bufferAlignment = 64

	defaultAcquireTimeout = 100 * time.Millisecond

	// maxCapacity keeps the over-allocation in alignedBuffer from overflowing.
	maxCapacity = math.MaxInt - bufferAlignment
)

// MemoryAcquirer reserves memory on behalf of an arena.
// budget.Budget is the implementation shipped with this module.
type MemoryAcquirer interface {
	AcquireMemory(ctx context.Context, amount int64) error
	ReleaseMemory(amount int64)
}

// Arena is a bump allocator over a single buffer of fixed capacity.
// It never grows. Not goroutine-safe; use SafeArena for concurrent access.
type Arena struct {
	buf        []byte
	prevOffset int // start of the most recent allocation
	currOffset int // next free byte

	peak   int
	allocs int

	released bool
	offHeap  bool
	mapping  *mmap.Mapping
	acquirer MemoryAcquirer
	reserved int64
	logger   *log.Logger
}

// NewArena creates an arena backed by a heap buffer of the given capacity.
// If capacity <= 0, DefaultCapacity is used. A capacity too large to
// over-allocate yields an arena with no buffer, on which every allocation
// fails with ErrOutOfMemory; use New to get ErrInvalidSize instead.
func NewArena(capacity int) *Arena {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if capacity > maxCapacity {
		return &Arena{}
	}
	return &Arena{buf: alignedBuffer(capacity)}
}

// New creates an arena that owns its buffer, applying opts.
// If capacity <= 0, DefaultCapacity is used.
func New(capacity int, opts ...Option) (*Arena, error) {
	return NewContext(context.Background(), capacity, opts...)
}

// NewContext is New with a context bounding the wait for a memory
// reservation. Without a deadline the wait is capped at 100ms.
func NewContext(ctx context.Context, capacity int, opts ...Option) (*Arena, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if capacity > maxCapacity {
		return nil, fmt.Errorf("%w: capacity %d", ErrInvalidSize, capacity)
	}

	a := &Arena{}
	for _, opt := range opts {
		opt(a)
	}

	if a.acquirer != nil {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, defaultAcquireTimeout)
			defer cancel()
		}
		if err := a.acquirer.AcquireMemory(ctx, int64(capacity)); err != nil {
			return nil, fmt.Errorf("arena: reserve %d bytes: %w", capacity, err)
		}
		a.reserved = int64(capacity)
	}

	if a.offHeap {
		m, err := mmap.MapAnon(capacity)
		if err != nil {
			a.releaseOwned()
			return nil, fmt.Errorf("arena: map %d bytes: %w", capacity, err)
		}
		a.mapping = m
		a.buf = m.Bytes()
	} else {
		a.buf = alignedBuffer(capacity)
	}
	return a, nil
}

// NewFromBuffer binds a new arena to a caller-owned buffer. The caller keeps
// ownership of buf; WithOffHeap and WithMemoryAcquirer have no effect here.
func NewFromBuffer(buf []byte, opts ...Option) *Arena {
	a := &Arena{}
	for _, opt := range opts {
		opt(a)
	}
	a.offHeap = false
	a.acquirer = nil
	a.Init(buf)
	return a
}

// Init rebinds the arena to buf and resets both offsets. Resources the arena
// owned before (mapping, reservation) are given back first.
func (a *Arena) Init(buf []byte) {
	a.releaseOwned()
	a.buf = buf
	a.prevOffset = 0
	a.currOffset = 0
	a.peak = 0
	a.allocs = 0
	a.released = false
}

// AllocBytes returns size zeroed bytes at DefaultAlignment.
func (a *Arena) AllocBytes(size int) ([]byte, error) {
	return a.Alloc(size, DefaultAlignment)
}

// Alloc returns a zeroed region of size bytes whose address is a multiple
// of align. The returned slice has len == cap == size, so appending to it
// never writes into the next allocation. A zero size returns nil and
// leaves the arena untouched. On failure the offsets are unchanged.
func (a *Arena) Alloc(size, align int) ([]byte, error) {
	if a.released {
		return nil, ErrReleased
	}
	if !isPowerOfTwo(align) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAlignment, align)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if size == 0 {
		return nil, nil
	}

	off := a.alignedOffset(align)
	if off > len(a.buf) || size > len(a.buf)-off {
		return nil, a.outOfMemory(size, align, off)
	}

	a.prevOffset = off
	a.currOffset = off + size
	a.allocs++
	a.updatePeak()

	b := a.buf[off : off+size : off+size]
	clear(b)
	return b, nil
}

// Resize grows or shrinks old to newSize bytes.
//
// When old is the most recent allocation it is resized in place and any
// newly exposed bytes are zeroed. Otherwise a fresh region is allocated and
// min(len(old), newSize) bytes are copied into it; old stays readable but
// is no longer owned by anyone. An empty old behaves like Alloc.
func (a *Arena) Resize(old []byte, newSize, align int) ([]byte, error) {
	if len(old) == 0 {
		return a.Alloc(newSize, align)
	}
	if a.released {
		return nil, ErrReleased
	}
	if !isPowerOfTwo(align) {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAlignment, align)
	}
	if newSize < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, newSize)
	}

	start, ok := a.offsetOf(old)
	if !ok {
		if a.logger != nil {
			a.logger.Debug("resize outside arena", "ptr", unsafe.SliceData(old), "len", len(old), "capacity", len(a.buf))
		}
		return nil, fmt.Errorf("%w: %p (len %d) is not inside this arena", ErrOutOfBounds, unsafe.SliceData(old), len(old))
	}

	if start != a.prevOffset {
		b, err := a.Alloc(newSize, align)
		if err != nil {
			return nil, err
		}
		copy(b, old)
		return b, nil
	}

	if newSize > len(a.buf)-start {
		return nil, a.outOfMemory(newSize, align, start)
	}
	a.currOffset = start + newSize
	a.updatePeak()

	b := a.buf[start : start+newSize : start+newSize]
	if newSize > len(old) {
		clear(b[len(old):])
	}
	return b, nil
}

// Free is a no-op: individual allocations are never reclaimed.
func (a *Arena) Free([]byte) {}

// EnsureCapacity reports ErrOutOfMemory if n more bytes at DefaultAlignment
// would not fit.
func (a *Arena) EnsureCapacity(n int) error {
	if a.released {
		return ErrReleased
	}
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidSize, n)
	}
	off := a.alignedOffset(DefaultAlignment)
	if off > len(a.buf) || n > len(a.buf)-off {
		return fmt.Errorf("%w: %d bytes at offset %d, capacity %d", ErrOutOfMemory, n, off, len(a.buf))
	}
	return nil
}

// Reset sets both offsets to zero, invalidating every prior allocation.
// The peak is kept.
func (a *Arena) Reset() {
	if a.released {
		return
	}
	a.prevOffset = 0
	a.currOffset = 0
	a.allocs = 0
}

// Release drops the buffer and makes the arena unusable. Owned mappings are
// unmapped and reservations returned; a caller-supplied buffer is only
// detached. Allocating calls return ErrReleased afterwards.
func (a *Arena) Release() {
	a.releaseOwned()
	a.buf = nil
	a.prevOffset = 0
	a.currOffset = 0
	a.allocs = 0
	a.released = true
}

func (a *Arena) releaseOwned() {
	if a.mapping != nil {
		if err := a.mapping.Close(); err != nil && a.logger != nil {
			a.logger.Warn("unmap arena buffer", "error", err)
		}
		a.mapping = nil
	}
	if a.acquirer != nil && a.reserved > 0 {
		a.acquirer.ReleaseMemory(a.reserved)
		a.reserved = 0
	}
}

func (a *Arena) outOfMemory(size, align, off int) error {
	if a.logger != nil {
		a.logger.Debug("arena exhausted", "size", size, "align", align, "offset", a.currOffset, "capacity", len(a.buf))
	}
	return fmt.Errorf("%w: %d bytes (align %d) at offset %d, capacity %d", ErrOutOfMemory, size, align, off, len(a.buf))
}

func (a *Arena) updatePeak() {
	if a.currOffset > a.peak {
		a.peak = a.currOffset
	}
}

// base returns the address of the first byte of the buffer.
func (a *Arena) base() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(a.buf)))
}

// alignedOffset rounds the absolute address of the next free byte up to
// align and returns it as an offset from the buffer start.
func (a *Arena) alignedOffset(align int) int {
	base := a.base()
	return int(alignForward(base+uintptr(a.currOffset), uintptr(align)) - base)
}

// offsetOf returns b's offset when all of b lies inside the buffer.
func (a *Arena) offsetOf(b []byte) (int, bool) {
	if len(a.buf) == 0 {
		return 0, false
	}
	p := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	base := a.base()
	if p < base {
		return 0, false
	}
	off := p - base
	if off >= uintptr(len(a.buf)) || uintptr(len(b)) > uintptr(len(a.buf))-off {
		return 0, false
	}
	return int(off), true
}

// alignedBuffer returns n bytes from the heap starting at a bufferAlignment boundary.
func alignedBuffer(n int) []byte {
	raw := make([]byte, n+bufferAlignment)
	p := uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
	shift := int(alignForward(p, bufferAlignment) - p)
	return raw[shift : shift+n : shift+n]
}

// alignForward rounds off up to the next multiple of align (a power of two).
func alignForward(off, align uintptr) uintptr {
	mask := align - 1
	return (off + mask) &^ mask
}

func isPowerOfTwo(x int) bool {
	return x > 0 && x&(x-1) == 0
}
