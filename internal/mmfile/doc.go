// Package mmfile provides platform-specific helpers for memory-mapping arena
// files.
//
// Map gives a read-only view of an existing file for offline inspection.
// Create gives a read/write shared mapping that persists writes to the file;
// it backs the file arena source. On platforms without mmap support both fall
// back to reading the file into memory, and Create writes the buffer back on
// Sync and Close.
package mmfile
