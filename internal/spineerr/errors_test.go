package spineerr

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSentinelsCarryNoStack(t *testing.T) {
	for _, err := range []error{ErrMalformedInput, ErrMissingTexture, ErrUnsupportedVersion, ErrInvalidArgument} {
		assert.Equal(t, err.Error(), fmt.Sprintf("%+v", err))
	}
}

func TestWrappedKinds(t *testing.T) {
	err := Malformed("bone %q", "hip")
	assert.True(t, errors.Is(err, ErrMalformedInput))
	assert.Equal(t, `bone "hip": malformed input`, err.Error())
	assert.Contains(t, fmt.Sprintf("%+v", err), "spineerr.TestWrappedKinds")

	err = InvalidArgument("track %d", 3)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.False(t, errors.Is(err, ErrMalformedInput))
}
