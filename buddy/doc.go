// Package buddy provides a power-of-two buddy allocator over a caller-supplied
// buffer.
//
// # Block Model
//
// The buffer (whose length must be a power of two) is partitioned into
// contiguous blocks whose sizes are powers of two, each aligned to its own
// size. The buddy of the block of size S at offset O is the block at O^S.
// Block metadata (size order and free flag) lives in a side table indexed by
// offset/MinBlockSize, so the payload starts at the block start and the whole
// buffer is usable: a request for the full capacity succeeds on an empty
// allocator.
//
// # Allocation
//
// Alloc rounds the request up to 16 bytes and then to a power-of-two block
// size of at least MinBlockSize. It then runs scanAndMerge, a left-to-right
// walk that both looks for the best-fitting free block (smallest adequate,
// later block wins ties) and merges any free left/right buddy pair of equal
// size it passes. If nothing fits, a full coalescing pass merges free buddies
// until a pass finds nothing more, and the scan is retried once. The chosen
// block is split in halves until it matches the request; the allocated piece
// is carved from the high end of the chosen block.
//
// # Lazy Coalescing
//
// Release only marks the block free. Merging happens opportunistically during
// later scans, or in the full pass that runs when an allocation would
// otherwise fail. Release is O(1); the price is that an Alloc after heavy
// churn may walk and merge the whole region. Repeated alloc/release cycles do
// not leak capacity.
//
// # Metadata Cost
//
// The side table costs one byte per MinBlockSize bytes of buffer. Raise the
// minimum block size with WithMinBlockSize for very large regions.
//
// # Thread Safety
//
// Allocator is not safe for concurrent use.
package buddy
