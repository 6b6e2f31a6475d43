package testutil

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/hupe1980/rawmem/internal/mem"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), //nolint:gosec // deterministic test data
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Sizes returns n request sizes drawn uniformly from [minSize, maxSize].
func (r *RNG) Sizes(n, minSize, maxSize int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, n)
	for i := range out {
		out[i] = minSize + r.rand.Intn(maxSize-minSize+1)
	}
	return out
}

// Keys returns n distinct nonzero keys.
func (r *RNG) Keys(n int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[uint64]struct{}, n)
	out := make([]uint64, 0, n)
	for len(out) < n {
		k := r.rand.Uint64()
		if k == 0 {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Bytes returns n pseudo-random bytes.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, n)
	_, _ = r.rand.Read(out)
	return out
}

// Perm returns a pseudo-random permutation of [0,n).
func (r *RNG) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Perm(n)
}

// Buffer returns a size-byte buffer aligned to align and fails the test if
// size is not positive.
func Buffer(tb testing.TB, size, align int) []byte {
	tb.Helper()
	buf := mem.AllocAligned(size, align)
	if buf == nil {
		tb.Fatalf("testutil: invalid buffer size %d", size)
	}
	return buf
}

// Fill sets every byte of buf to v.
func Fill(buf []byte, v byte) {
	for i := range buf {
		buf[i] = v
	}
}

// AllZero reports whether every byte of buf is zero.
func AllZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}

// Overlaps reports whether the backing regions of a and b intersect, using
// cap rather than len so padding counts as owned.
func Overlaps(base, a, b []byte) bool {
	ao, ok := mem.Offset(base, a)
	if !ok {
		return false
	}
	bo, ok := mem.Offset(base, b)
	if !ok {
		return false
	}
	return ao < bo+cap(b) && bo < ao+cap(a)
}
