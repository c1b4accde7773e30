package apperr

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := New(KindInvalidInput, "%s is not a valid image or PDF", "a.gif").WithPath("a.gif")

	assert.True(t, errors.Is(err, ErrInvalidInput))
	assert.False(t, errors.Is(err, ErrExportFailed))
	assert.Equal(t, KindInvalidInput, KindOf(err))
}

func TestError_OutOfRangeIsInvalidPosition(t *testing.T) {
	err := New(KindOutOfRange, "position %d outside 1..%d", 7, 3)

	assert.True(t, errors.Is(err, ErrOutOfRange))
	assert.True(t, errors.Is(err, ErrInvalidPosition))

	// The refinement only goes one way.
	plain := New(KindInvalidPosition, "degenerate move")
	assert.False(t, errors.Is(plain, ErrOutOfRange))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindExportFailed, "write"))
	assert.NotPanics(t, func() {
		assert.Nil(t, Wrap(nil, KindExportFailed, "write").WithPath("out.pdf"))
	})

	err := Wrap(os.ErrPermission, KindExportFailed, "write %s", "out.pdf")
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ErrExportFailed))
	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.Contains(t, err.Error(), "out.pdf")
}

func TestKindOf_ThroughFmtWrap(t *testing.T) {
	inner := New(KindUnsupportedFormat, "extension %q", ".odt")
	outer := fmt.Errorf("export: %w", inner)

	assert.Equal(t, KindUnsupportedFormat, KindOf(outer))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", &Error{Kind: KindNotFound}, "not_found"},
		{"with message", New(KindInvalidPosition, "same slot"), "invalid_position: same slot"},
		{"with path", New(KindInvalidInput, "rejected").WithPath("/x.gif"), "invalid_input: rejected (/x.gif)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}
