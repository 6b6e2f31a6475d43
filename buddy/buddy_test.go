package buddy

import (
	"fmt"
	"testing"

	"github.com/hupe1980/rawmem/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBuddy(t testing.TB, capacity int, opts ...Option) (*Allocator, []byte) {
	t.Helper()
	buf := testutil.Buffer(t, capacity, 64)
	b, err := New(buf, opts...)
	require.NoError(t, err)
	return b, buf
}

func offsetOf(t *testing.T, b *Allocator, p []byte) int {
	t.Helper()
	off := b.Offset(p)
	require.GreaterOrEqual(t, off, 0, "slice does not start a block")
	return off
}

func blocks(b *Allocator) []Block {
	var out []Block
	for blk := range b.Blocks() {
		out = append(out, blk)
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("single free block", func(t *testing.T) {
		b, _ := newBuddy(t, 1024)
		assert.Equal(t, []Block{{Offset: 0, Size: 1024, Free: true}}, blocks(b))
		assert.Equal(t, 1024, b.Cap())
		assert.Equal(t, 16, b.MinBlockSize())
	})

	t.Run("not a power of two", func(t *testing.T) {
		_, err := New(testutil.Buffer(t, 1000, 64))
		assert.ErrorIs(t, err, ErrNotPowerOfTwo)

		_, err = New(nil)
		assert.ErrorIs(t, err, ErrNotPowerOfTwo)
	})

	t.Run("unaligned", func(t *testing.T) {
		buf := testutil.Buffer(t, 128, 64)
		_, err := New(buf[8:72])
		assert.ErrorIs(t, err, ErrUnaligned)
	})

	t.Run("min block size", func(t *testing.T) {
		_, err := New(testutil.Buffer(t, 1024, 64), WithMinBlockSize(24))
		assert.ErrorIs(t, err, ErrInvalidBlockSize)

		_, err = New(testutil.Buffer(t, 1024, 64), WithMinBlockSize(8))
		assert.ErrorIs(t, err, ErrInvalidBlockSize)

		_, err = New(testutil.Buffer(t, 64, 64), WithMinBlockSize(128))
		assert.ErrorIs(t, err, ErrBufferTooSmall)

		b, err := New(testutil.Buffer(t, 4096, 64), WithMinBlockSize(256))
		require.NoError(t, err)
		assert.Len(t, b.meta, 16)
		p := b.Alloc(1)
		require.NotNil(t, p)
		assert.Equal(t, 256, cap(p))
	})
}

func TestAlloc_HighEndCarving(t *testing.T) {
	b, _ := newBuddy(t, 256)

	p := b.Alloc(1)
	require.NotNil(t, p)
	assert.Len(t, p, 1)
	assert.Equal(t, 16, cap(p))
	assert.Equal(t, 240, offsetOf(t, b, p))

	assert.Equal(t, []Block{
		{Offset: 0, Size: 128, Free: true},
		{Offset: 128, Size: 64, Free: true},
		{Offset: 192, Size: 32, Free: true},
		{Offset: 224, Size: 16, Free: true},
		{Offset: 240, Size: 16, Free: false},
	}, blocks(b))
}

func TestAlloc_BlockSize(t *testing.T) {
	b, _ := newBuddy(t, 1024)
	tests := []struct {
		n    int
		want int
	}{
		{1, 16}, {16, 16}, {17, 32}, {32, 32}, {33, 64}, {100, 128}, {128, 128}, {129, 256}, {1024, 1024},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.blockSize(tt.n), "blockSize(%d)", tt.n)
	}
}

func TestAlloc_FullCapacity(t *testing.T) {
	b, _ := newBuddy(t, 512)

	p := b.Alloc(512)
	require.NotNil(t, p, "the whole capacity is allocatable")
	assert.Equal(t, 0, offsetOf(t, b, p))
	assert.Nil(t, b.Alloc(512), "a second full-capacity request fails")
	assert.Nil(t, b.Alloc(1))

	require.NoError(t, b.Release(p))
	assert.NotNil(t, b.Alloc(512))
}

func TestAlloc_Invalid(t *testing.T) {
	b, _ := newBuddy(t, 256)
	assert.Nil(t, b.Alloc(0))
	assert.Nil(t, b.Alloc(-5))
	assert.Nil(t, b.Alloc(257))
	assert.Equal(t, uint64(1), b.Stats().Failed)
}

func TestAlloc_Zeroed(t *testing.T) {
	b, buf := newBuddy(t, 256)
	testutil.Fill(buf, 0xCC)

	p := b.Alloc(40)
	require.NotNil(t, p)
	assert.True(t, testutil.AllZero(p[:cap(p)]))

	testutil.Fill(p, 0x11)
	require.NoError(t, b.Release(p))
	q := b.Alloc(40)
	require.NotNil(t, q)
	assert.True(t, testutil.AllZero(q))
}

func TestAlloc_BestFit(t *testing.T) {
	b, _ := newBuddy(t, 256)

	a := b.Alloc(100) // 128 @ 128
	require.NotNil(t, a)
	assert.Equal(t, 128, offsetOf(t, b, a))

	c := b.Alloc(10) // splits 128 @ 0 down to 16 @ 112
	require.NotNil(t, c)
	assert.Equal(t, 112, offsetOf(t, b, c))

	// Free blocks now: 64 @ 0, 32 @ 64, 16 @ 96.
	d := b.Alloc(20)
	require.NotNil(t, d)
	assert.Equal(t, 64, offsetOf(t, b, d), "smallest adequate block wins")

	e := b.Alloc(16)
	require.NotNil(t, e)
	assert.Equal(t, 96, offsetOf(t, b, e))
}

func TestAlloc_BestFitTieGoesToLater(t *testing.T) {
	b, _ := newBuddy(t, 256)

	var small [][]byte
	for i := 0; i < 4; i++ {
		p := b.Alloc(64)
		require.NotNil(t, p)
		small = append(small, p)
	}
	// Free the blocks at 0 and 128; they are not buddies of each other.
	for _, p := range small {
		off := offsetOf(t, b, p)
		if off == 0 || off == 128 {
			require.NoError(t, b.Release(p))
		}
	}

	p := b.Alloc(64)
	require.NotNil(t, p)
	assert.Equal(t, 128, offsetOf(t, b, p))
}

func TestScanMergesAsSideEffect(t *testing.T) {
	b, _ := newBuddy(t, 256)

	p := b.Alloc(100)
	require.NotNil(t, p)
	require.NoError(t, b.Release(p))

	// Release is lazy: the two halves stay split.
	s := b.Stats()
	assert.Equal(t, 2, s.FreeBlocks)
	assert.Equal(t, uint64(0), s.Merges)

	// The scan merges the halves on its way and serves the request without a
	// full coalescing pass.
	q := b.Alloc(256)
	require.NotNil(t, q)
	s = b.Stats()
	assert.Equal(t, uint64(1), s.Merges)
	assert.Equal(t, uint64(0), s.CoalescePasses)
}

func TestScanMergesEvenWhenSmallRequestFits(t *testing.T) {
	b, _ := newBuddy(t, 256)

	var ps [][]byte
	for i := 0; i < 4; i++ {
		p := b.Alloc(64)
		require.NotNil(t, p)
		ps = append(ps, p)
	}
	for _, p := range ps {
		require.NoError(t, b.Release(p))
	}

	p := b.Alloc(16)
	require.NotNil(t, p)
	assert.Equal(t, uint64(2), b.Stats().Merges, "both 64-byte pairs are merged by the scan")
	assert.Equal(t, uint64(0), b.Stats().CoalescePasses)
}

func TestCoalesce_MultiLevel(t *testing.T) {
	b, _ := newBuddy(t, 256)

	var ps [][]byte
	for i := 0; i < 16; i++ {
		p := b.Alloc(16)
		require.NotNil(t, p, "alloc %d", i)
		ps = append(ps, p)
	}
	for _, p := range ps {
		require.NoError(t, b.Release(p))
	}
	assert.Equal(t, 16, b.Stats().FreeBlocks)

	// One scan only merges a single level; the full pass does the rest.
	p := b.Alloc(256)
	require.NotNil(t, p)
	assert.Equal(t, uint64(15), b.Stats().Merges)
	assert.Equal(t, uint64(1), b.Stats().CoalescePasses)
}

func TestCoalesce_Explicit(t *testing.T) {
	b, _ := newBuddy(t, 1024)
	var ps [][]byte
	for i := 0; i < 8; i++ {
		ps = append(ps, b.Alloc(100))
	}
	for _, p := range ps {
		require.NoError(t, b.Release(p))
	}
	assert.Equal(t, 7, b.Coalesce())
	assert.Equal(t, []Block{{Offset: 0, Size: 1024, Free: true}}, blocks(b))
	assert.Equal(t, 0, b.Coalesce())
}

func TestRelease_Invalid(t *testing.T) {
	b, buf := newBuddy(t, 256)
	p := b.Alloc(32)
	require.NotNil(t, p)

	assert.NoError(t, b.Release(nil))
	assert.ErrorIs(t, b.Release(make([]byte, 16)), ErrInvalidPointer)
	assert.ErrorIs(t, b.Release(p[4:]), ErrInvalidPointer)
	assert.ErrorIs(t, b.Release(buf[16:32]), ErrInvalidPointer, "interior of the free 128 block")

	require.NoError(t, b.Release(p))
	assert.ErrorIs(t, b.Release(p), ErrAlreadyFree)
	assert.Equal(t, uint64(1), b.Stats().Releases)
}

func TestNoCapacityLeak(t *testing.T) {
	sizes := []int{1, 15, 16, 17, 100, 255, 256, 1000, 4096}
	for _, size := range sizes {
		t.Run(fmt.Sprintf("size=%d", size), func(t *testing.T) {
			b, _ := newBuddy(t, 8192)
			for i := 0; i < 100; i++ {
				p := b.Alloc(size)
				require.NotNil(t, p, "iteration %d", i)
				require.NoError(t, b.Release(p))
			}
			p := b.Alloc(8192)
			require.NotNil(t, p, "full capacity is still obtainable")
		})
	}
}

func TestRandomChurn(t *testing.T) {
	rng := testutil.NewRNG(4711)
	b, buf := newBuddy(t, 1<<14)

	type alloc struct {
		p    []byte
		fill byte
	}
	var live []alloc

	for i := 0; i < 2000; i++ {
		if len(live) > 0 && rng.Intn(2) == 0 {
			j := rng.Intn(len(live))
			a := live[j]
			for _, v := range a.p {
				require.Equal(t, a.fill, v, "allocation corrupted")
			}
			require.NoError(t, b.Release(a.p))
			live = append(live[:j], live[j+1:]...)
			continue
		}

		p := b.Alloc(1 + rng.Intn(700))
		if p == nil {
			continue
		}
		assert.Zero(t, offsetOf(t, b, p)%16)
		assert.Zero(t, offsetOf(t, b, p)%cap(p), "block aligned to its size")
		for _, other := range live {
			require.False(t, testutil.Overlaps(buf, p, other.p))
		}
		fill := byte(i%250 + 1)
		testutil.Fill(p, fill)
		live = append(live, alloc{p: p, fill: fill})
	}

	for _, a := range live {
		require.NoError(t, b.Release(a.p))
	}
	assert.NotNil(t, b.Alloc(1<<14))
}

func TestStats(t *testing.T) {
	b, _ := newBuddy(t, 256)
	require.NotNil(t, b.Alloc(1))

	s := b.Stats()
	assert.Equal(t, 256, s.Capacity)
	assert.Equal(t, 240, s.FreeBytes)
	assert.Equal(t, 4, s.FreeBlocks)
	assert.Equal(t, 1, s.UsedBlocks)
	assert.Equal(t, 128, s.LargestFree)
	assert.Equal(t, uint64(1), s.Allocs)
	assert.Contains(t, b.String(), "largest free: 128")
}

func BenchmarkBuddy_AllocRelease(b *testing.B) {
	a, _ := newBuddy(b, 1<<20)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := a.Alloc(64 + i%512)
		_ = a.Release(p)
	}
}
