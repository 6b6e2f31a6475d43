package hashmap

import "github.com/cespare/xxhash/v2"

// HashKey hashes b into a key suitable for Insert. It never returns 0.
func HashKey(b []byte) uint64 {
	return nonzero(xxhash.Sum64(b))
}

// StringKey hashes s into a key suitable for Insert. It never returns 0 and
// equals HashKey([]byte(s)).
func StringKey(s string) uint64 {
	return nonzero(xxhash.Sum64String(s))
}

func nonzero(h uint64) uint64 {
	if h == 0 {
		return 1
	}
	return h
}
