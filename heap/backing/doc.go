// Package backing provides the hosting-environment memory capability consumed
// by the heap allocator.
//
// # Overview
//
// A Source hands out raw memory in break-style increments: every Acquire
// extends the previously acquired span, so consecutive regions are adjacent
// in address space. The allocator relies on this to merge a freshly grown
// block with the previous trailing free block without copying.
//
// # Implementations
//
// Heap: a single Go byte slice reserved up front. Portable, zeroed by the
// runtime, bounded by its limit.
//
// Mmap (linux, darwin, freebsd): an anonymous PROT_NONE reservation whose
// pages are committed with mprotect as the break advances. Memory is returned
// to the OS with munmap on Release. Other platforms get a Heap instead.
//
// File: a shared mapping of a sparse file sized to the limit. Release flushes
// the acquired span and truncates the file to it. Opened through Open with a
// "file:<path>" kind.
//
// # Failure
//
// Acquire never blocks. When the limit would be exceeded it fails with
// ErrExhausted and leaves the break untouched.
//
// # Thread Safety
//
// Sources are not thread-safe. The allocator serializes access.
package backing
