package arena

import "errors"

// DefaultScratchDepth is the default bound on nested scratch scopes.
const DefaultScratchDepth = 256

var (
	// ErrScratchOverflow is returned by Begin when the scope limit is reached.
	ErrScratchOverflow = errors.New("arena: scratch depth exceeded")
	// ErrScratchUnderflow is returned by End without a matching Begin.
	ErrScratchUnderflow = errors.New("arena: scratch stack underflow")
)

// Scratch manages nested temporary scopes on an Arena.
type Scratch struct {
	arena *Arena
	marks []int
}

// NewScratch wraps a with a scope stack of at most depth entries. A depth
// <= 0 selects DefaultScratchDepth.
func NewScratch(a *Arena, depth int) *Scratch {
	if depth <= 0 {
		depth = DefaultScratchDepth
	}
	return &Scratch{
		arena: a,
		marks: make([]int, 0, depth),
	}
}

// Begin opens a scope at the current cursor.
func (s *Scratch) Begin() error {
	if len(s.marks) == cap(s.marks) {
		return ErrScratchOverflow
	}
	s.marks = append(s.marks, s.arena.pos)
	return nil
}

// Push allocates n zeroed bytes in the innermost scope.
func (s *Scratch) Push(n int) []byte {
	return s.arena.Push(n)
}

// End closes the innermost scope, releasing everything pushed since the
// matching Begin.
func (s *Scratch) End() error {
	n := len(s.marks)
	if n == 0 {
		return ErrScratchUnderflow
	}
	s.arena.pos = s.marks[n-1]
	s.marks = s.marks[:n-1]
	return nil
}

// Depth returns the number of open scopes.
func (s *Scratch) Depth() int {
	return len(s.marks)
}

// MaxDepth returns the scope limit.
func (s *Scratch) MaxDepth() int {
	return cap(s.marks)
}

// Arena returns the underlying arena.
func (s *Scratch) Arena() *Arena {
	return s.arena
}

// Reset drops every open scope and clears the arena.
func (s *Scratch) Reset() {
	s.marks = s.marks[:0]
	s.arena.Clear()
}
