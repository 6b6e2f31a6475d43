package buddy

import "github.com/hupe1980/rawmem/internal/mem"

// DefaultMinBlockSize is the smallest block the allocator hands out.
const DefaultMinBlockSize = mem.Alignment

type options struct {
	minBlockSize int
}

// Option configures an Allocator.
type Option func(*options)

// WithMinBlockSize sets the smallest block size. It must be a power of two of
// at least 16 bytes. Larger values shrink the metadata table and the cost of
// coalescing at the price of internal fragmentation.
func WithMinBlockSize(n int) Option {
	return func(o *options) {
		o.minBlockSize = n
	}
}
