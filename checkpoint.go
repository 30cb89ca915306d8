package arena

// Checkpoint records the arena offsets at the time it was taken.
// Checkpoints must be ended in the reverse order they were begun; the arena
// does not check this.
type Checkpoint struct {
	arena      *Arena
	prevOffset int
	currOffset int
}

// BeginCheckpoint captures the current offsets.
func (a *Arena) BeginCheckpoint() Checkpoint {
	return Checkpoint{
		arena:      a,
		prevOffset: a.prevOffset,
		currOffset: a.currOffset,
	}
}

// EndCheckpoint restores the offsets captured by cp, discarding everything
// allocated since. Ending a checkpoint after Release, or one that no longer
// fits a re-initialised buffer, does nothing.
func (a *Arena) EndCheckpoint(cp Checkpoint) {
	if a.released || cp.currOffset > len(a.buf) {
		return
	}
	a.prevOffset = cp.prevOffset
	a.currOffset = cp.currOffset
}

// End restores the arena the checkpoint was taken from.
func (cp Checkpoint) End() {
	if cp.arena != nil {
		cp.arena.EndCheckpoint(cp)
	}
}

// Scoped runs fn inside a checkpoint that is ended when fn returns, even if
// it panics. Nothing fn allocates may be used after Scoped returns.
func (a *Arena) Scoped(fn func() error) error {
	cp := a.BeginCheckpoint()
	defer cp.End()
	return fn()
}
