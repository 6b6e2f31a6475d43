package assert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThat(t *testing.T) {
	assert.NotPanics(t, func() { That(true, "always holds") })

	if !Enabled {
		assert.NotPanics(t, func() { That(false, "ignored without rawmemdebug") })
		assert.NotPanics(t, func() { Thatf(false, "ignored %d", 1) })
		return
	}

	defer func() {
		r := recover()
		require.NotNil(t, r)
		f, ok := r.(*Failure)
		require.True(t, ok)
		assert.Equal(t, "assert_test.go", f.File)
		assert.Equal(t, "pos <= cap (17 > 16)", f.Expr)
		assert.Contains(t, f.Error(), "line:")
	}()
	Thatf(false, "pos <= cap (%d > %d)", 17, 16)
}
