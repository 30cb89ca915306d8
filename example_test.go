package arena

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// Example demonstrates basic arena usage
func Example() {
	a := NewArena(0) // DefaultCapacity
	defer a.Release()

	buf, _ := a.AllocBytes(1024)
	fmt.Printf("Allocated buffer of size: %d\n", len(buf))

	ptr, _ := Alloc[int](a)
	*ptr = 42
	fmt.Printf("Allocated int with value: %d\n", *ptr)

	slice, _ := AllocSlice[int](a, 5)
	for i := range slice {
		slice[i] = i * 2
	}
	fmt.Printf("Allocated slice: %v\n", slice)

	fmt.Printf("Memory in use: %d bytes\n", a.SizeInUse())
	fmt.Printf("Utilization: %.2f%%\n", a.Utilization()*100)

	// Reset for reuse (O(1) operation)
	a.Reset()
	fmt.Printf("After reset, memory in use: %d bytes\n", a.SizeInUse())

	// Output:
	// Allocated buffer of size: 1024
	// Allocated int with value: 42
	// Allocated slice: [0 2 4 6 8]
	// Memory in use: 1072 bytes
	// Utilization: 1.64%
	// After reset, memory in use: 0 bytes
}

// ExampleArena_Resize walks through in-place growth of the last allocation
func ExampleArena_Resize() {
	a := NewArena(1024)
	offset := func(b []byte) uintptr {
		return uintptr(unsafe.Pointer(&b[0])) - uintptr(unsafe.Pointer(&a.buf[0]))
	}

	p0, _ := a.Alloc(16, 16)
	p16, _ := a.Alloc(8, 8)
	grown, _ := a.Resize(p16, 40, 8)
	p56, _ := a.Alloc(4, 4)

	fmt.Println(offset(p0), offset(p16), offset(grown), len(grown), offset(p56))

	// Output:
	// 0 16 16 40 56
}

// ExampleCheckpoint demonstrates scoped scratch allocations
func ExampleCheckpoint() {
	a := NewArena(256)
	defer a.Release()

	// Permanent data
	_, _ = a.Alloc(32, 8)

	cp := a.BeginCheckpoint()
	line, _ := Sprintf(a, "day %d energy %d", 3, 80)
	fmt.Println(line)
	fmt.Printf("In use during frame: %d bytes\n", a.SizeInUse())
	cp.End()

	fmt.Printf("In use after frame: %d bytes\n", a.SizeInUse())

	// Output:
	// day 3 energy 80
	// In use during frame: 47 bytes
	// In use after frame: 32 bytes
}

// ExampleHeapAllocator shows falling back to the heap when an arena is exhausted
func ExampleHeapAllocator() {
	a := NewArena(64)

	var alloc Allocator = a
	buf, err := alloc.Alloc(128, 8)
	if errors.Is(err, ErrOutOfMemory) {
		alloc = HeapAllocator{}
		buf, err = alloc.Alloc(128, 8)
	}
	fmt.Println(len(buf), err)

	// Output:
	// 128 <nil>
}

// ExampleSafeArena demonstrates thread-safe arena usage
func ExampleSafeArena() {
	s := NewSafeArena(1024)
	defer s.Release()

	var wg sync.WaitGroup
	const numWorkers = 3

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()

			buf, err := s.AllocBytes(100)
			if err != nil {
				return
			}
			ptr, err := SafeAlloc[int](s)
			if err != nil {
				return
			}
			*ptr = id
			buf[0] = byte(id)
		}(i)
	}

	wg.Wait()
	fmt.Printf("Allocations fit: %v\n", s.SizeInUse() <= s.Capacity())

	// Output:
	// Allocations fit: true
}

// ExampleArena_Reset demonstrates arena reuse with Reset
func ExampleArena_Reset() {
	a := NewArena(1024)
	defer a.Release()

	for round := 1; round <= 3; round++ {
		for i := 0; i < 5; i++ {
			_, _ = Alloc[int64](a)
		}

		fmt.Printf("Round %d - Memory in use: %d bytes\n", round, a.SizeInUse())

		a.Reset()
	}

	// Output:
	// Round 1 - Memory in use: 40 bytes
	// Round 2 - Memory in use: 40 bytes
	// Round 3 - Memory in use: 40 bytes
}

// ExampleArenaMetrics demonstrates monitoring arena usage
func ExampleArenaMetrics() {
	a := NewArena(1024)
	defer a.Release()

	_, _ = a.Alloc(100, 1)
	_, _ = Alloc[int64](a)
	_, _ = AllocSlice[int32](a, 50)

	metrics := a.Metrics()
	fmt.Printf("Metrics:\n")
	fmt.Printf("  Size in use: %d bytes\n", metrics.SizeInUse)
	fmt.Printf("  Capacity: %d bytes\n", metrics.Capacity)
	fmt.Printf("  Remaining: %d bytes\n", metrics.Remaining)
	fmt.Printf("  Allocations: %d\n", metrics.NumAllocs)
	fmt.Printf("  Utilization: %.1f%%\n", metrics.Utilization*100)

	// Output:
	// Metrics:
	//   Size in use: 312 bytes
	//   Capacity: 1024 bytes
	//   Remaining: 712 bytes
	//   Allocations: 3
	//   Utilization: 30.5%
}

// ExampleArena_alignment demonstrates that allocations are properly aligned
func ExampleArena_alignment() {
	a := NewArena(1024)
	defer a.Release()

	ptr1, _ := Alloc[int8](a)
	ptr2, _ := Alloc[int64](a)
	buf, _ := a.Alloc(10, 64)

	fmt.Printf("int8 address alignment: %d\n", uintptr(unsafe.Pointer(ptr1))%1)
	fmt.Printf("int64 address alignment: %d\n", uintptr(unsafe.Pointer(ptr2))%8)
	fmt.Printf("64-byte block alignment: %d\n", uintptr(unsafe.Pointer(&buf[0]))%64)

	// Output:
	// int8 address alignment: 0
	// int64 address alignment: 0
	// 64-byte block alignment: 0
}
