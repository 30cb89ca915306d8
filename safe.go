package arena

import "sync"

// SafeArena is a mutex-protected wrapper around Arena for concurrent access.
// All operations are thread-safe but come with the overhead of mutex locking.
// Checkpoints still follow stack discipline across all goroutines sharing
// the arena.
type SafeArena struct {
	mu sync.Mutex
	a  *Arena
}

// NewSafeArena creates a new thread-safe arena with the specified capacity.
// If capacity <= 0, DefaultCapacity is used.
func NewSafeArena(capacity int) *SafeArena {
	return &SafeArena{a: NewArena(capacity)}
}

// Synchronized wraps an existing arena. The caller must stop using a directly.
func Synchronized(a *Arena) *SafeArena {
	return &SafeArena{a: a}
}

// Alloc thread-safely allocates size zeroed bytes aligned to align.
func (s *SafeArena) Alloc(size, align int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Alloc(size, align)
}

// AllocBytes thread-safely allocates size zeroed bytes at DefaultAlignment.
func (s *SafeArena) AllocBytes(size int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.AllocBytes(size)
}

// Resize thread-safely resizes old. Only the goroutine that made the most
// recent allocation can expect an in-place resize.
func (s *SafeArena) Resize(old []byte, newSize, align int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Resize(old, newSize, align)
}

// Free is a no-op.
func (s *SafeArena) Free([]byte) {}

// EnsureCapacity thread-safely checks that n more bytes fit.
func (s *SafeArena) EnsureCapacity(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.EnsureCapacity(n)
}

// Reset thread-safely resets both offsets to zero.
func (s *SafeArena) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Reset()
}

// Release thread-safely drops the buffer and makes the arena unusable.
func (s *SafeArena) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.Release()
}

// BeginCheckpoint thread-safely captures the current offsets.
func (s *SafeArena) BeginCheckpoint() Checkpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.BeginCheckpoint()
}

// EndCheckpoint thread-safely restores the offsets captured by cp.
func (s *SafeArena) EndCheckpoint(cp Checkpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.a.EndCheckpoint(cp)
}

// Scoped runs fn between BeginCheckpoint and EndCheckpoint. The lock is not
// held while fn runs, so fn may call back into s.
func (s *SafeArena) Scoped(fn func() error) error {
	cp := s.BeginCheckpoint()
	defer s.EndCheckpoint(cp)
	return fn()
}

// Generic allocation functions for SafeArena

// SafeAlloc thread-safely returns a pointer to a zeroed T stored inside the arena.
func SafeAlloc[T any](s *SafeArena) (*T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Alloc[T](s.a)
}

// SafeAllocSlice thread-safely allocates a zeroed slice of n elements of type T.
func SafeAllocSlice[T any](s *SafeArena, n int) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AllocSlice[T](s.a, n)
}

// SafeSprintf thread-safely formats into the arena.
func SafeSprintf(s *SafeArena, format string, args ...any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Sprintf(s.a, format, args...)
}
