package base

import (
	"errors"
	"fmt"
)

// UpMode selects how a decoder stage doubles spatial resolution.
type UpMode int

const (
	// UpModeTranspose upsamples with a learned 2x transposed convolution.
	UpModeTranspose UpMode = iota
	// UpModeTrilinear upsamples with fixed trilinear interpolation and a
	// 1x1x1 channel projection.
	UpModeTrilinear
)

// ErrInvalidUpMode is returned when parsing an unrecognized mode name.
var ErrInvalidUpMode = errors.New("invalid upsample mode")

// ParseUpMode converts a mode name to an UpMode. Unrecognized names are an
// error, never a silent default.
func ParseUpMode(s string) (UpMode, error) {
	switch s {
	case "transpose":
		return UpModeTranspose, nil
	case "trilinear":
		return UpModeTrilinear, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidUpMode, s)
	}
}

func (m UpMode) String() string {
	switch m {
	case UpModeTranspose:
		return "transpose"
	case UpModeTrilinear:
		return "trilinear"
	default:
		return fmt.Sprintf("UpMode(%d)", int(m))
	}
}
