package mmap

import "errors"

// AccessPattern provides hints to the kernel about how the memory will be accessed.
type AccessPattern int

const (
	// AccessDefault is the default access pattern (no specific advice).
	AccessDefault AccessPattern = iota
	// AccessSequential expects memory to be accessed sequentially.
	AccessSequential
	// AccessRandom expects memory to be accessed randomly.
	AccessRandom
	// AccessWillNeed expects memory to be accessed in the near future.
	AccessWillNeed
	// AccessDontNeed lets the kernel drop the pages. On Linux and Windows
	// they read back as zero afterwards.
	AccessDontNeed
)

func (p AccessPattern) String() string {
	switch p {
	case AccessSequential:
		return "sequential"
	case AccessRandom:
		return "random"
	case AccessWillNeed:
		return "willneed"
	case AccessDontNeed:
		return "dontneed"
	default:
		return "default"
	}
}

var (
	// ErrClosed is returned when attempting to use a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned when the requested size is not positive.
	ErrInvalidSize = errors.New("mmap: invalid size")
)
