// Package budget caps the total memory a set of arenas may reserve.
//
// A Budget is handed to arena.WithMemoryAcquirer; every arena created with
// it reserves its full capacity up front and returns it on Release.
package budget

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// ErrBudgetExceeded is returned when a reservation cannot be satisfied.
var ErrBudgetExceeded = errors.New("budget: memory limit exceeded")

// Budget tracks reserved bytes against an optional hard limit.
// It is safe for concurrent use. A nil *Budget is unlimited.
type Budget struct {
	limit int64
	sem   *semaphore.Weighted // nil if unlimited
	used  atomic.Int64
}

// New creates a budget of limit bytes. If limit <= 0, reservations are only tracked.
func New(limit int64) *Budget {
	b := &Budget{limit: limit}
	if limit > 0 {
		b.sem = semaphore.NewWeighted(limit)
	}
	return b
}

// AcquireMemory reserves n bytes, waiting for other holders to release
// until ctx is done. Requests larger than the whole limit fail at once.
func (b *Budget) AcquireMemory(ctx context.Context, n int64) error {
	if b == nil || n <= 0 {
		return nil
	}
	if b.sem != nil {
		if n > b.limit {
			return fmt.Errorf("%w: %d bytes requested, limit %d", ErrBudgetExceeded, n, b.limit)
		}
		if err := b.sem.Acquire(ctx, n); err != nil {
			return fmt.Errorf("%w: waiting for %d bytes: %w", ErrBudgetExceeded, n, err)
		}
	}
	b.used.Add(n)
	return nil
}

// TryAcquireMemory reserves n bytes without blocking.
func (b *Budget) TryAcquireMemory(n int64) error {
	if b == nil || n <= 0 {
		return nil
	}
	if b.sem != nil && !b.sem.TryAcquire(n) {
		return fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrBudgetExceeded, n, b.used.Load(), b.limit)
	}
	b.used.Add(n)
	return nil
}

// ReleaseMemory returns n previously reserved bytes.
func (b *Budget) ReleaseMemory(n int64) {
	if b == nil || n <= 0 {
		return
	}
	if b.sem != nil {
		b.sem.Release(n)
	}
	b.used.Add(-n)
}

// InUse returns the reserved bytes.
func (b *Budget) InUse() int64 {
	if b == nil {
		return 0
	}
	return b.used.Load()
}

// Limit returns the configured limit in bytes (0 if unlimited).
func (b *Budget) Limit() int64 {
	if b == nil {
		return 0
	}
	return b.limit
}
