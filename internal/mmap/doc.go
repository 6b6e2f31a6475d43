// Package mmap provides anonymous read-write memory mappings.
//
// MapAnon obtains a page-aligned region from the operating system outside
// the Go heap. The hunk uses it as backing memory when no caller buffer is
// supplied, so large allocator regions are neither scanned nor moved by the
// garbage collector.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with MAP_ANON, madvise(2) for hints
//   - Windows: VirtualAlloc with demand paging (Advise is a no-op)
//
// # Thread Safety
//
// Close is idempotent and guarded by an atomic flag. Callers must ensure no
// goroutine touches Bytes() after Close returns.
package mmap
