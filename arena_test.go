package arena

import (
	"bytes"
	"fmt"
	"math"
	"testing"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmtotable/arena/budget"
)

// offsetIn returns b's offset from the start of a's buffer.
func offsetIn(a *Arena, b []byte) int {
	return int(uintptr(unsafe.Pointer(unsafe.SliceData(b))) - a.base())
}

func TestNewArena(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		expected int
	}{
		{"default capacity", 0, DefaultCapacity},
		{"negative capacity", -1, DefaultCapacity},
		{"custom capacity", 8192, 8192},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewArena(tt.capacity)
			assert.Equal(t, tt.expected, a.Capacity())
			assert.Zero(t, a.base()%bufferAlignment, "owned buffer must start 64-byte aligned")

			prev, curr := a.Offsets()
			assert.Zero(t, prev)
			assert.Zero(t, curr)
		})
	}
}

func TestDefaultAlignment(t *testing.T) {
	assert.Equal(t, 2*int(unsafe.Sizeof(uintptr(0))), DefaultAlignment)
}

func TestArenaScenario(t *testing.T) {
	a := NewArena(1024)

	p0, err := a.Alloc(16, 16)
	require.NoError(t, err)
	assert.Equal(t, 0, offsetIn(a, p0))

	p16, err := a.Alloc(8, 8)
	require.NoError(t, err)
	assert.Equal(t, 16, offsetIn(a, p16))

	grown, err := a.Resize(p16, 40, 8)
	require.NoError(t, err)
	assert.Equal(t, 16, offsetIn(a, grown))
	assert.Len(t, grown, 40)
	prev, curr := a.Offsets()
	assert.Equal(t, 16, prev)
	assert.Equal(t, 56, curr)

	p56, err := a.Alloc(4, 4)
	require.NoError(t, err)
	assert.Equal(t, 56, offsetIn(a, p56))
}

func TestArenaAllocAlignment(t *testing.T) {
	// Deliberately misaligned caller buffer.
	backing := make([]byte, 8192)
	a := NewFromBuffer(backing[3:])

	for _, align := range []int{1, 2, 4, 8, 16, 32, 64, 128, 256} {
		for _, size := range []int{1, 3, 7, 24, 100} {
			b, err := a.Alloc(size, align)
			require.NoError(t, err, "size=%d align=%d", size, align)
			require.Len(t, b, size)
			assert.Equal(t, size, cap(b), "cap must not expose the next allocation")

			addr := uintptr(unsafe.Pointer(&b[0]))
			assert.Zero(t, addr%uintptr(align), "size=%d align=%d addr=%x", size, align, addr)
		}
	}
}

func TestArenaAllocZeroed(t *testing.T) {
	a := NewArena(256)

	b, err := a.Alloc(128, 8)
	require.NoError(t, err)
	for i := range b {
		b[i] = 0xFF
	}

	a.Reset()
	b, err = a.Alloc(128, 8)
	require.NoError(t, err)
	for i, v := range b {
		if v != 0 {
			t.Fatalf("byte %d not zeroed after reset: %#x", i, v)
		}
	}
}

func TestArenaAllocNoOverlap(t *testing.T) {
	a := NewArena(4096)

	var last uintptr
	for i := 0; i < 50; i++ {
		size := i%13 + 1
		align := 1 << (i % 5)
		b, err := a.Alloc(size, align)
		require.NoError(t, err)

		start := uintptr(unsafe.Pointer(&b[0]))
		assert.GreaterOrEqual(t, start, last, "allocation %d overlaps previous", i)
		last = start + uintptr(size)
	}
}

func TestArenaAllocOutOfMemory(t *testing.T) {
	a := NewArena(64)

	_, err := a.Alloc(40, 8)
	require.NoError(t, err)
	prev, curr := a.Offsets()

	_, err = a.Alloc(32, 8)
	require.ErrorIs(t, err, ErrOutOfMemory)

	p, c := a.Offsets()
	assert.Equal(t, prev, p)
	assert.Equal(t, curr, c)

	// Fits exactly after alignment.
	b, err := a.Alloc(24, 8)
	require.NoError(t, err)
	assert.Equal(t, 40, offsetIn(a, b))
	assert.Zero(t, a.Remaining())

	// Alignment padding alone can exhaust the arena.
	a.Reset()
	_, err = a.Alloc(63, 1)
	require.NoError(t, err)
	_, err = a.Alloc(1, 64)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestArenaAllocInvalidArguments(t *testing.T) {
	a := NewArena(1024)

	for _, align := range []int{0, -8, 3, 12, 24} {
		_, err := a.Alloc(8, align)
		assert.ErrorIs(t, err, ErrInvalidAlignment, "align=%d", align)
	}

	_, err := a.Alloc(-1, 8)
	assert.ErrorIs(t, err, ErrInvalidSize)

	b, err := a.Alloc(0, 8)
	require.NoError(t, err)
	assert.Nil(t, b)
	assert.Zero(t, a.SizeInUse())
	assert.Zero(t, a.NumAllocs())
}

func TestArenaResizeInPlace(t *testing.T) {
	a := NewArena(1024)

	b, err := a.Alloc(32, 8)
	require.NoError(t, err)
	for i := range b {
		b[i] = byte(i + 1)
	}

	// Shrink keeps the first 8 bytes.
	b, err = a.Resize(b, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, b)
	_, curr := a.Offsets()
	assert.Equal(t, 8, curr)

	// Growing again must zero the bytes that were dirty before the shrink.
	b, err = a.Resize(b, 32, 8)
	require.NoError(t, err)
	assert.Equal(t, 0, offsetIn(a, b))
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, b[:8])
	assert.Equal(t, make([]byte, 24), b[8:])
}

func TestArenaResizeNotLast(t *testing.T) {
	a := NewArena(1024)

	first, err := a.Alloc(16, 8)
	require.NoError(t, err)
	copy(first, "abcdefghijklmnop")

	_, err = a.Alloc(8, 8)
	require.NoError(t, err)

	moved, err := a.Resize(first, 24, 8)
	require.NoError(t, err)
	assert.NotEqual(t, offsetIn(a, first), offsetIn(a, moved))
	assert.Equal(t, []byte("abcdefghijklmnop"), moved[:16])
	assert.Equal(t, make([]byte, 8), moved[16:])

	// The old region is still readable.
	assert.Equal(t, []byte("abcdefghijklmnop"), first)

	shrunk, err := a.Resize(first, 4, 8)
	require.NoError(t, err)
	assert.Equal(t, []byte("abcd"), shrunk)
}

func TestArenaResizeEmptyOld(t *testing.T) {
	a := NewArena(1024)
	_, err := a.Alloc(3, 1)
	require.NoError(t, err)

	b, err := a.Resize(nil, 16, 16)
	require.NoError(t, err)
	assert.Equal(t, 16, offsetIn(a, b))

	c, err := a.Resize([]byte{}, 8, 8)
	require.NoError(t, err)
	assert.Equal(t, 32, offsetIn(a, c))
}

func TestArenaResizeOutOfBounds(t *testing.T) {
	a := NewArena(1024)
	_, err := a.Alloc(16, 8)
	require.NoError(t, err)

	foreign := make([]byte, 16)
	_, err = a.Resize(foreign, 32, 8)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	_, curr := a.Offsets()
	assert.Equal(t, 16, curr)
}

func TestArenaResizeInPlaceOutOfMemory(t *testing.T) {
	a := NewArena(64)
	b, err := a.Alloc(32, 8)
	require.NoError(t, err)

	_, err = a.Resize(b, 65, 8)
	require.ErrorIs(t, err, ErrOutOfMemory)
	prev, curr := a.Offsets()
	assert.Equal(t, 0, prev)
	assert.Equal(t, 32, curr)

	b, err = a.Resize(b, 64, 8)
	require.NoError(t, err)
	assert.Len(t, b, 64)
}

func TestArenaFreeIsNoop(t *testing.T) {
	a := NewArena(128)
	b, err := a.Alloc(16, 8)
	require.NoError(t, err)

	a.Free(b)
	a.Free(nil)
	assert.Equal(t, 16, a.SizeInUse())
}

func TestArenaEnsureCapacity(t *testing.T) {
	a := NewArena(1024)
	require.NoError(t, a.EnsureCapacity(1024))

	_, err := a.Alloc(1000, 8)
	require.NoError(t, err)
	assert.ErrorIs(t, a.EnsureCapacity(100), ErrOutOfMemory)
	assert.ErrorIs(t, a.EnsureCapacity(-1), ErrInvalidSize)
}

func TestArenaReset(t *testing.T) {
	a := NewArena(1024)

	first, err := a.Alloc(24, 16)
	require.NoError(t, err)
	_, err = a.Alloc(200, 8)
	require.NoError(t, err)
	peak := a.Peak()

	a.Reset()
	assert.Zero(t, a.SizeInUse())
	assert.Zero(t, a.NumAllocs())
	assert.Equal(t, peak, a.Peak(), "peak survives reset")

	again, err := a.Alloc(24, 16)
	require.NoError(t, err)
	assert.Same(t, &first[0], &again[0])
}

func TestArenaRelease(t *testing.T) {
	a := NewArena(1024)
	_, err := a.AllocBytes(100)
	require.NoError(t, err)

	a.Release()
	assert.Nil(t, a.buf)
	assert.Zero(t, a.Capacity())

	_, err = a.AllocBytes(100)
	assert.ErrorIs(t, err, ErrReleased)
	_, err = a.Resize([]byte{1}, 8, 8)
	assert.ErrorIs(t, err, ErrReleased)
	assert.ErrorIs(t, a.EnsureCapacity(1), ErrReleased)
	_, err = Sprintf(a, "x")
	assert.ErrorIs(t, err, ErrReleased)
}

func TestArenaInit(t *testing.T) {
	a := NewArena(64)
	_, err := a.Alloc(32, 8)
	require.NoError(t, err)

	buf := make([]byte, 512)
	a.Init(buf)
	assert.Equal(t, 512, a.Capacity())
	assert.Zero(t, a.SizeInUse())
	assert.Zero(t, a.Peak())

	// Init revives a released arena too.
	a.Release()
	a.Init(buf)
	_, err = a.AllocBytes(8)
	require.NoError(t, err)
}

func TestNewFromBufferIgnoresOwnership(t *testing.T) {
	b := budget.New(1024)
	buf := make([]byte, 4096)
	a := NewFromBuffer(buf, WithOffHeap(), WithMemoryAcquirer(b))

	assert.False(t, a.OffHeap())
	assert.Zero(t, b.InUse())
	assert.Same(t, unsafe.SliceData(buf), unsafe.SliceData(a.buf))

	a.Release()
	assert.Zero(t, b.InUse())
}

func TestNewCapacityOverflow(t *testing.T) {
	_, err := New(math.MaxInt)
	assert.ErrorIs(t, err, ErrInvalidSize)

	_, err = New(math.MaxInt-bufferAlignment+1, WithOffHeap())
	assert.ErrorIs(t, err, ErrInvalidSize)

	a := NewArena(math.MaxInt)
	assert.Zero(t, a.Capacity())
	_, err = a.AllocBytes(1)
	assert.ErrorIs(t, err, ErrOutOfMemory)
}

func TestNewOffHeap(t *testing.T) {
	a, err := New(1<<16, WithOffHeap())
	require.NoError(t, err)
	defer a.Release()

	assert.True(t, a.OffHeap())
	b, err := a.Alloc(4096, 4096)
	require.NoError(t, err)
	assert.Zero(t, uintptr(unsafe.Pointer(&b[0]))%4096)
	b[4095] = 1
}

func TestNewWithBudget(t *testing.T) {
	b := budget.New(8192)

	a1, err := New(4096, WithMemoryAcquirer(b))
	require.NoError(t, err)
	a2, err := New(4096, WithMemoryAcquirer(b))
	require.NoError(t, err)
	assert.Equal(t, int64(8192), b.InUse())

	_, err = New(4096, WithMemoryAcquirer(b))
	require.ErrorIs(t, err, budget.ErrBudgetExceeded)

	a1.Release()
	assert.Equal(t, int64(4096), b.InUse())

	a3, err := New(4096, WithMemoryAcquirer(b), WithOffHeap())
	require.NoError(t, err)
	a2.Release()
	a3.Release()
	assert.Zero(t, b.InUse())
}

func TestArenaLogsExhaustion(t *testing.T) {
	var out bytes.Buffer
	logger := log.NewWithOptions(&out, log.Options{Level: log.DebugLevel})

	a, err := New(32, WithLogger(logger))
	require.NoError(t, err)

	_, err = a.Alloc(64, 8)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Contains(t, out.String(), "arena exhausted")

	_, err = a.Resize(make([]byte, 4), 8, 8)
	require.ErrorIs(t, err, ErrOutOfBounds)
	assert.Contains(t, out.String(), "resize outside arena")
}

func TestAlignForward(t *testing.T) {
	tests := []struct {
		off, align uintptr
		expected   uintptr
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{17, 16, 32},
		{5, 1, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, alignForward(tt.off, tt.align), "alignForward(%d, %d)", tt.off, tt.align)
	}
}

func BenchmarkArenaAlloc(b *testing.B) {
	a := NewArena(1024 * 1024)
	sizes := []int{8, 64, 256, 1024}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("size-%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if _, err := a.AllocBytes(size); err != nil {
					a.Reset()
				}
			}
		})
	}
}

func BenchmarkArenaVsBuiltin(b *testing.B) {
	b.Run("arena", func(b *testing.B) {
		a := NewArena(1024 * 1024)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = a.AllocBytes(64)
			if i%1000 == 999 {
				a.Reset()
			}
		}
	})

	b.Run("builtin", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = make([]byte, 64)
		}
	})
}
