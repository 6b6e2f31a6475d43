// Package pool provides a fixed-chunk allocator over a caller-supplied buffer.
//
// # Allocation Model
//
// The buffer is divided into numChunks chunks of chunkSize bytes, with
// chunkSize rounded up to a multiple of 16. Alloc and Free are O(1): free
// chunks are tracked by index on a stack kept beside the buffer, so chunk
// bytes are never reinterpreted as list links and a live chunk's contents
// belong entirely to the caller.
//
//	p, _ := pool.New(buf, 64, 48)
//	c := p.Alloc() // zeroed 48-byte chunk, or nil when exhausted
//	p.Free(c)
//
// The free stack is seeded in ascending index order, so the first Alloc after
// New or FreeAll returns the highest-index chunk and later allocations walk
// down toward chunk 0.
//
// # Invalid Frees
//
// Free ignores nil slices, slices outside the pool, slices that do not start
// on a chunk boundary, and chunks that are already free. A live-chunk bitset
// makes double frees harmless no-ops rather than free-list corruption.
//
// FreeAll rebuilds the free stack from scratch and forgets every live chunk.
//
// # Thread Safety
//
// Pool is not safe for concurrent use.
package pool
