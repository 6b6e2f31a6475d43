package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizes(t *testing.T) {
	rng := NewRNG(4711)

	sizes := rng.Sizes(100, 8, 64)

	assert.Len(t, sizes, 100)
	for _, s := range sizes {
		assert.GreaterOrEqual(t, s, 8)
		assert.LessOrEqual(t, s, 64)
	}
}

func TestKeys(t *testing.T) {
	rng := NewRNG(4711)

	keys := rng.Keys(256)

	require.Len(t, keys, 256)
	seen := make(map[uint64]bool)
	for _, k := range keys {
		assert.NotZero(t, k)
		assert.False(t, seen[k], "duplicate key %d", k)
		seen[k] = true
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.Sizes(10, 1, 1000)
	rng.Reset()
	v2 := rng.Sizes(10, 1, 1000)
	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestBuffers(t *testing.T) {
	buf := Buffer(t, 256, 64)
	require.Len(t, buf, 256)
	assert.True(t, AllZero(buf))

	Fill(buf, 0xAB)
	assert.False(t, AllZero(buf))
	assert.Equal(t, byte(0xAB), buf[255])

	assert.True(t, Overlaps(buf, buf[0:16], buf[8:24]))
	assert.False(t, Overlaps(buf, buf[0:16:16], buf[16:32]))
	assert.False(t, Overlaps(buf, buf[0:16], make([]byte, 16)))
}
