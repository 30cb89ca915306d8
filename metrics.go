package arena

import "fmt"

// SizeInUse returns the number of bytes below the current offset,
// including alignment padding.
func (a *Arena) SizeInUse() int {
	return a.currOffset
}

// Capacity returns the size of the backing buffer in bytes.
func (a *Arena) Capacity() int {
	return len(a.buf)
}

// Remaining returns the bytes left above the current offset, before alignment.
func (a *Arena) Remaining() int {
	return len(a.buf) - a.currOffset
}

// Utilization returns the ratio of bytes in use to total capacity (0.0 to 1.0).
// Returns 0.0 if the arena has no capacity.
func (a *Arena) Utilization() float64 {
	if len(a.buf) == 0 {
		return 0
	}
	return float64(a.currOffset) / float64(len(a.buf))
}

// Peak returns the highest current offset ever reached. It survives Reset.
func (a *Arena) Peak() int {
	return a.peak
}

// NumAllocs returns the number of successful allocations since the last Reset.
func (a *Arena) NumAllocs() int {
	return a.allocs
}

// Offsets returns the previous and current offsets.
func (a *Arena) Offsets() (prev, curr int) {
	return a.prevOffset, a.currOffset
}

// OffHeap reports whether the buffer is an anonymous mapping.
func (a *Arena) OffHeap() bool {
	return a.mapping != nil
}

// Metrics returns a snapshot of arena statistics.
func (a *Arena) Metrics() ArenaMetrics {
	return ArenaMetrics{
		SizeInUse:   a.SizeInUse(),
		Capacity:    a.Capacity(),
		Remaining:   a.Remaining(),
		Peak:        a.Peak(),
		NumAllocs:   a.NumAllocs(),
		Utilization: a.Utilization(),
		OffHeap:     a.OffHeap(),
	}
}

func (a *Arena) String() string {
	return fmt.Sprintf(
		"Arena{used: %d, capacity: %d, peak: %d, allocs: %d, usage: %.1f%%}",
		a.currOffset, len(a.buf), a.peak, a.allocs, a.Utilization()*100,
	)
}

// ArenaMetrics contains statistical information about an arena.
type ArenaMetrics struct {
	SizeInUse   int     // Bytes below the current offset
	Capacity    int     // Buffer size in bytes
	Remaining   int     // Bytes above the current offset
	Peak        int     // High-water mark of SizeInUse
	NumAllocs   int     // Allocations since the last Reset
	Utilization float64 // Ratio of used to total capacity (0.0-1.0)
	OffHeap     bool    // Buffer is an anonymous mapping
}

// Thread-safe metrics for SafeArena

// SizeInUse thread-safely returns the number of bytes in use.
func (s *SafeArena) SizeInUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.SizeInUse()
}

// Capacity thread-safely returns the buffer size.
func (s *SafeArena) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Capacity()
}

// Utilization thread-safely returns the ratio of bytes in use to total capacity.
func (s *SafeArena) Utilization() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Utilization()
}

// Metrics thread-safely returns a snapshot of arena statistics.
func (s *SafeArena) Metrics() ArenaMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Metrics()
}
