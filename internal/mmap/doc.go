// Package mmap provides anonymous read-write memory mappings.
//
// Arenas created with arena.WithOffHeap take their buffer from MapAnon, so
// a large arena costs no Go heap and is never scanned by the garbage
// collector. Pages are zeroed by the OS and committed on first touch.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON|MAP_PRIVATE
//   - Windows: VirtualAlloc with MEM_RESERVE|MEM_COMMIT
//
// # Thread Safety
//
// Close is idempotent and safe to call concurrently. Callers must ensure no
// goroutine touches Bytes() after Close returns.
package mmap
