// Package hashmap provides a fixed-capacity open-addressing hash table over a
// caller-supplied buffer.
//
// # Layout
//
// The buffer holds two parallel arrays: capacity 64-bit keys followed by
// capacity value buckets. Buckets larger than 8 bytes are padded to a
// multiple of 16; smaller buckets keep their natural size so tiny records
// pack tightly. capacity is len(buf) / (stride + 8) and must be a power of
// two; BufferSize computes the exact size for a wanted bucket count.
//
// # Keys
//
// Keys are caller-supplied 64-bit integers used directly as hashes: the home
// slot of key k is k & (capacity-1). Key 0 marks an empty slot and can never
// be stored. Callers hashing names or byte strings should use HashKey or
// StringKey, which spread bits well and never return 0.
//
// # Probing and Deletion
//
// Collisions are resolved by linear probing with wraparound. A probe stops at
// the matching key or at the first empty slot. Remove uses backward-shift
// deletion: entries later in the probe chain are moved back into the hole so
// every remaining key stays reachable without tombstones. As a consequence,
// Remove and RemoveIndex may move other entries to different slots; slot
// numbers obtained earlier are only stable until the next removal.
//
// # Thread Safety
//
// Map is not safe for concurrent use.
package hashmap
