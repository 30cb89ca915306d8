// Package arena implements a fixed-capacity bump allocator (memory arena) for Go.
//
// # Overview
//
// An arena hands out consecutive, aligned regions of one pre-allocated
// buffer. It never grows and never frees individual allocations; memory is
// reclaimed in bulk with Reset or by rolling back a Checkpoint. This is
// particularly useful for:
//
//   - Fixed-size tables that live as long as their owner (entity storage)
//   - Per-frame scratch data such as formatted status strings
//   - Bounding the memory a subsystem may use up front
//
// # Basic Usage
//
//	a := arena.NewArena(0) // DefaultCapacity
//	defer a.Release()
//
//	// Raw bytes at an explicit alignment
//	buf, err := a.Alloc(1024, 64)
//
//	// Typed values
//	ptr, err := arena.Alloc[MyStruct](a)
//	slice, err := arena.AllocSlice[int64](a, 100)
//
//	// Reset for reuse (O(1))
//	a.Reset()
//
// A caller-owned buffer can be used instead:
//
//	a := arena.NewFromBuffer(make([]byte, 4096))
//
// # Checkpoints
//
// A Checkpoint captures the arena offsets; ending it discards everything
// allocated since:
//
//	cp := a.BeginCheckpoint()
//	line, _ := arena.Sprintf(a, "day %d energy %d", day, energy)
//	draw(line)
//	cp.End()
//
// Checkpoints must be ended in reverse order of creation. This is not checked.
//
// # Errors
//
// Nothing panics on exhaustion. Alloc and Resize return ErrOutOfMemory when a
// request does not fit, ErrOutOfBounds when Resize is given memory from
// elsewhere, and ErrInvalidAlignment for alignments that are not a power of
// two. A failed call leaves the offsets unchanged, so callers may fall back
// to a larger arena or to HeapAllocator.
//
// # Thread Safety
//
// Arena is not thread-safe. SafeArena serialises every call with a mutex:
//
//	s := arena.NewSafeArena(0)
//	b, err := s.AllocBytes(128)
//
// # Memory Layout
//
// Arena-owned heap buffers start at a 64-byte boundary; WithOffHeap buffers
// are page-aligned anonymous mappings. Alignment of each allocation is
// computed from the absolute address, so it holds for caller buffers with
// any starting address. The buffer is not scanned by the garbage collector:
// values stored in it must not contain Go pointers.
//
// # Metrics and Monitoring
//
//	m := a.Metrics()
//	fmt.Printf("Utilization: %.2f%%\n", m.Utilization*100)
//	fmt.Printf("Peak: %d of %d bytes\n", m.Peak, m.Capacity)
package arena
