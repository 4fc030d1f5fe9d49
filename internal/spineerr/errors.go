// Package spineerr defines the error kinds surfaced by the loader and the
// animation API. Callers match them with errors.Is.
package spineerr

import (
	stderrors "errors"

	"github.com/pkg/errors"
)

var (
	// ErrMalformedInput reports structurally invalid atlas or skeleton data.
	ErrMalformedInput = stderrors.New("malformed input")
	// ErrMissingTexture reports an atlas page image that is absent or cannot be decoded.
	ErrMissingTexture = stderrors.New("missing texture")
	// ErrUnsupportedVersion reports skeleton data this loader cannot parse.
	ErrUnsupportedVersion = stderrors.New("unsupported version")
	// ErrInvalidArgument reports a bad caller argument (empty track list,
	// track index out of range, unknown animation name).
	ErrInvalidArgument = stderrors.New("invalid argument")
)

// Malformed wraps ErrMalformedInput with a formatted message.
func Malformed(format string, args ...interface{}) error {
	return errors.Wrapf(ErrMalformedInput, format, args...)
}

// InvalidArgument wraps ErrInvalidArgument with a formatted message.
func InvalidArgument(format string, args ...interface{}) error {
	return errors.Wrapf(ErrInvalidArgument, format, args...)
}
