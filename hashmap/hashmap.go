package hashmap

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"

	"github.com/hupe1980/rawmem/internal/assert"
	"github.com/hupe1980/rawmem/internal/mem"
)

const keySize = 8

var (
	// ErrInvalidBucketSize is returned when the bucket size is not positive.
	ErrInvalidBucketSize = errors.New("hashmap: bucket size must be positive")
	// ErrBufferTooSmall is returned when the buffer cannot hold a single bucket.
	ErrBufferTooSmall = errors.New("hashmap: buffer too small")
	// ErrNotPowerOfTwo is returned when the derived bucket count is not a power of two.
	ErrNotPowerOfTwo = errors.New("hashmap: number of buckets must be a power of two")
	// ErrTooLarge is returned when the table size does not fit in an int.
	ErrTooLarge = errors.New("hashmap: table size overflows int")
)

// Map is a fixed-capacity hash table mapping nonzero uint64 keys to
// fixed-size values.
type Map struct {
	keys []byte
	vals []byte

	capacity   int
	mask       uint64
	bucketSize int
	stride     int
	count      int
}

func alignBucket(n int) int {
	if n > keySize {
		return mem.Align16(n)
	}
	return n
}

// BufferSize returns the buffer size New needs for numBuckets buckets of
// bucketSize bytes. numBuckets must be a power of two.
func BufferSize(bucketSize, numBuckets int) (int, error) {
	if bucketSize <= 0 {
		return 0, ErrInvalidBucketSize
	}
	if !mem.IsPow2(numBuckets) {
		return 0, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, numBuckets)
	}
	if bucketSize > mem.MaxAlign16-keySize {
		return 0, fmt.Errorf("%w: bucket size %d", ErrTooLarge, bucketSize)
	}
	n, ok := mem.Mul(numBuckets, alignBucket(bucketSize)+keySize)
	if !ok {
		return 0, fmt.Errorf("%w: %d buckets of %d bytes", ErrTooLarge, numBuckets, bucketSize)
	}
	return n, nil
}

// New creates a map over buf storing bucketSize-byte values. The number of
// buckets is len(buf) / (aligned bucket size + 8) and must be a power of two.
func New(buf []byte, bucketSize int) (*Map, error) {
	if bucketSize <= 0 {
		return nil, ErrInvalidBucketSize
	}
	if bucketSize >= len(buf) {
		return nil, fmt.Errorf("%w: %d bytes for %d-byte buckets", ErrBufferTooSmall, len(buf), bucketSize)
	}
	stride := alignBucket(bucketSize)
	capacity := len(buf) / (stride + keySize)
	if capacity == 0 {
		return nil, fmt.Errorf("%w: %d bytes for %d-byte buckets", ErrBufferTooSmall, len(buf), stride)
	}
	if !mem.IsPow2(capacity) {
		return nil, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, capacity)
	}

	keyBytes := capacity * keySize
	valBytes := capacity * stride
	return &Map{
		keys:       buf[:keyBytes:keyBytes],
		vals:       buf[keyBytes : keyBytes+valBytes : keyBytes+valBytes],
		capacity:   capacity,
		mask:       uint64(capacity - 1), //nolint:gosec // capacity > 0
		bucketSize: bucketSize,
		stride:     stride,
	}, nil
}

func (m *Map) keyAt(slot int) uint64 {
	return binary.LittleEndian.Uint64(m.keys[slot*keySize:])
}

func (m *Map) setKey(slot int, key uint64) {
	binary.LittleEndian.PutUint64(m.keys[slot*keySize:], key)
}

func (m *Map) bucket(slot int) []byte {
	off := slot * m.stride
	return m.vals[off : off+m.stride : off+m.stride]
}

func (m *Map) value(slot int) []byte {
	off := slot * m.stride
	return m.vals[off : off+m.bucketSize : off+m.bucketSize]
}

func (m *Map) home(key uint64) int {
	return int(key & m.mask) //nolint:gosec // masked to capacity
}

// probe walks the chain of key. It returns the matching slot with found set,
// or the first empty slot, or -1 when the table is full without a match.
func (m *Map) probe(key uint64) (slot int, found bool) {
	i := m.home(key)
	for n := 0; n < m.capacity; n++ {
		switch m.keyAt(i) {
		case key:
			return i, true
		case 0:
			return i, false
		}
		i = (i + 1) & int(m.mask) //nolint:gosec // mask fits in int
	}
	return -1, false
}

// Insert stores val under key, overwriting the value if key is present. val
// may be shorter than the bucket size; the rest of the bucket is zeroed.
// Insert returns false if key is 0, val is larger than the bucket, or the
// table is full.
func (m *Map) Insert(key uint64, val []byte) bool {
	if key == 0 || len(val) > m.bucketSize {
		return false
	}
	slot, found := m.probe(key)
	if slot < 0 {
		return false
	}
	if !found {
		m.setKey(slot, key)
		m.count++
	}
	dst := m.bucket(slot)
	n := copy(dst, val)
	clear(dst[n:])
	return true
}

// Find returns the value stored under key, or nil. The returned slice aliases
// the table and stays valid until the key is removed or moved by a removal.
func (m *Map) Find(key uint64) []byte {
	if key == 0 {
		return nil
	}
	slot, found := m.probe(key)
	if !found {
		return nil
	}
	return m.value(slot)
}

// Contains reports whether key is present.
func (m *Map) Contains(key uint64) bool {
	return m.Find(key) != nil
}

// Slot returns the slot holding key, or -1.
func (m *Map) Slot(key uint64) int {
	if key == 0 {
		return -1
	}
	slot, found := m.probe(key)
	if !found {
		return -1
	}
	return slot
}

// Index returns the value in slot if the slot is occupied, or nil. It does
// not hash.
func (m *Map) Index(slot int) []byte {
	if slot < 0 || slot >= m.capacity || m.keyAt(slot) == 0 {
		return nil
	}
	return m.value(slot)
}

// Key returns the key in slot, or 0 if the slot is empty or out of range.
func (m *Map) Key(slot int) uint64 {
	if slot < 0 || slot >= m.capacity {
		return 0
	}
	return m.keyAt(slot)
}

// Remove deletes key and reports whether it was present.
func (m *Map) Remove(key uint64) bool {
	if key == 0 {
		return false
	}
	slot, found := m.probe(key)
	if !found {
		return false
	}
	m.deleteSlot(slot)
	return true
}

// RemoveIndex deletes the entry in slot. Empty or out-of-range slots are
// ignored.
func (m *Map) RemoveIndex(slot int) {
	if slot < 0 || slot >= m.capacity || m.keyAt(slot) == 0 {
		return
	}
	m.deleteSlot(slot)
}

// between reports whether h lies in the cyclic range (i, j].
func between(h, i, j int) bool {
	if i <= j {
		return i < h && h <= j
	}
	return i < h || h <= j
}

// deleteSlot empties hole and shifts later members of the probe chain back
// so no key becomes unreachable. The hole is always empty while scanning, so
// the scan ends even on a full table.
func (m *Map) deleteSlot(hole int) {
	mask := int(m.mask) //nolint:gosec // mask fits in int
	m.setKey(hole, 0)
	for j := (hole + 1) & mask; ; j = (j + 1) & mask {
		k := m.keyAt(j)
		if k == 0 {
			break
		}
		if between(m.home(k), hole, j) {
			continue
		}
		m.setKey(hole, k)
		copy(m.bucket(hole), m.bucket(j))
		m.setKey(j, 0)
		hole = j
	}
	clear(m.bucket(hole))
	m.count--
	assert.Thatf(m.count >= 0, "hashmap: negative count %d", m.count)
}

// Clear empties the table, zeroing keys and values.
func (m *Map) Clear() {
	clear(m.keys)
	clear(m.vals)
	m.count = 0
}

// All iterates over occupied slots in slot order.
func (m *Map) All() iter.Seq2[uint64, []byte] {
	return func(yield func(uint64, []byte) bool) {
		for i := 0; i < m.capacity; i++ {
			k := m.keyAt(i)
			if k == 0 {
				continue
			}
			if !yield(k, m.value(i)) {
				return
			}
		}
	}
}

// Len returns the number of stored keys.
func (m *Map) Len() int {
	return m.count
}

// Cap returns the number of buckets.
func (m *Map) Cap() int {
	return m.capacity
}

// BucketSize returns the value size.
func (m *Map) BucketSize() int {
	return m.bucketSize
}

// Stride returns the aligned distance between values.
func (m *Map) Stride() int {
	return m.stride
}

// LoadFactor returns Len()/Cap().
func (m *Map) LoadFactor() float64 {
	return float64(m.count) / float64(m.capacity)
}

func (m *Map) String() string {
	return fmt.Sprintf("HashMap{len: %d, cap: %d, bucket: %dB, stride: %dB}",
		m.count, m.capacity, m.bucketSize, m.stride)
}
