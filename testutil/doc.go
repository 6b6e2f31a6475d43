// Package testutil provides testing utilities for rawmem.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, goroutine-safe RNG for randomized allocation churn,
// aligned buffers for the allocators' alignment preconditions, and fill
// helpers that make buffer corruption easy to spot.
//
// # Random Churn
//
//	rng := testutil.NewRNG(seed)
//	sizes := rng.Sizes(100, 1, 512)  // request sizes in [1, 512]
//	keys := rng.Keys(64)             // distinct nonzero uint64 keys
//
// # Buffers
//
//	buf := testutil.Buffer(t, 4096, 64) // 4 KiB, 64-byte aligned
//	testutil.Fill(buf, 0xAB)
//	require.True(t, testutil.AllZero(buf))
package testutil
