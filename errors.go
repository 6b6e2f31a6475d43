package rawmem

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rawmem/arena"
)

var (
	// ErrOutOfMemory is returned when the hunk cannot satisfy a reservation.
	ErrOutOfMemory = errors.New("rawmem: out of memory")
	// ErrClosed is returned when using a closed hunk.
	ErrClosed = errors.New("rawmem: hunk is closed")
	// ErrInvalidSize is returned for non-positive hunk or worker arena sizes.
	ErrInvalidSize = errors.New("rawmem: invalid size")
	// ErrNoWorkers is returned by WorkerSet.Acquire when the hunk was opened
	// without WithWorkers.
	ErrNoWorkers = errors.New("rawmem: no worker arenas configured")

	// ErrScratchOverflow is returned by ScratchBegin when the scope limit is reached.
	ErrScratchOverflow = arena.ErrScratchOverflow
	// ErrScratchUnderflow is returned by ScratchEnd without a matching ScratchBegin.
	ErrScratchUnderflow = arena.ErrScratchUnderflow
)

// ErrAllocation describes a reservation the hunk could not satisfy.
//
// It unwraps to ErrOutOfMemory, so errors.Is(err, ErrOutOfMemory) holds.
type ErrAllocation struct {
	// Kind names what was being carved ("push", "scratch", "arena", "pool",
	// "buddy", "hashmap" or "worker").
	Kind string
	// Size is the requested size in bytes.
	Size int
	// Available is the free space between the two stacks at failure time.
	Available int
}

func (e *ErrAllocation) Error() string {
	return fmt.Sprintf("rawmem: %s of %d bytes exceeds available %d bytes", e.Kind, e.Size, e.Available)
}

func (e *ErrAllocation) Unwrap() error { return ErrOutOfMemory }
