package mem

import (
	"math"
	"math/bits"
)

// MaxAlign16 is the largest n Align16 rounds without overflowing.
const MaxAlign16 = math.MaxInt &^ 0xf

// AlignUp rounds n up to the next multiple of align (a power of two).
func AlignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// Align16 rounds n up to the next multiple of 16.
func Align16(n int) int {
	return (n + 0xf) &^ 0xf
}

// IsPow2 reports whether n is a positive power of two.
func IsPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// NextPow2 returns the smallest power of two >= n. NextPow2(0) is 1.
func NextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1)) //nolint:gosec // n > 1
}

// Log2 returns floor(log2(n)) for n > 0.
func Log2(n int) int {
	return bits.Len(uint(n)) - 1 //nolint:gosec // callers pass n > 0
}

// Mul returns a*b for non-negative a and b, and false if the product does
// not fit in an int.
func Mul(a, b int) (int, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	hi, lo := bits.Mul(uint(a), uint(b))
	if hi != 0 || lo > math.MaxInt {
		return 0, false
	}
	return int(lo), true //nolint:gosec // checked above
}
