// Package assert provides invariant checks that are compiled in only with the
// rawmemdebug build tag:
//
//	go test -tags rawmemdebug ./...
//
// Without the tag Enabled is false and every check is a no-op the compiler
// removes. With the tag a failed check panics with the caller's file, line and
// a description of the broken invariant.
//
// Argument preconditions (buffer sizes, powers of two, alignment) are not
// asserted here; constructors always validate them and return errors.
package assert
