package assert

import (
	"fmt"
	"path/filepath"
	"runtime"
)

// Failure is the panic value raised by a failed check.
type Failure struct {
	File string
	Line int
	Expr string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("assertion failed\nfile: %s\nline: %d\nexpr: %s", f.File, f.Line, f.Expr)
}

func fail(skip int, expr string) {
	_, file, line, _ := runtime.Caller(skip + 1)
	panic(&Failure{File: filepath.Base(file), Line: line, Expr: expr})
}

// That panics with a *Failure when Enabled and cond is false.
func That(cond bool, expr string) {
	if Enabled && !cond {
		fail(1, expr)
	}
}

// Thatf is That with a formatted description. The arguments are only
// formatted when the check fails.
func Thatf(cond bool, format string, args ...any) {
	if Enabled && !cond {
		fail(1, fmt.Sprintf(format, args...))
	}
}
