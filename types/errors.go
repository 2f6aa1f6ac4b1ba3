package types

import (
	"errors"
	"fmt"
)

// ErrConfig marks invalid configuration: bad segment counts, non-positive
// geometry, unknown current modes. Raised immediately at the offending
// call, never retried.
var ErrConfig = errors.New("invalid configuration")

// ErrNumericalInstability marks a detected numerical failure (non-finite
// temperature, runaway motion). It aborts the episode instead of letting
// NaNs propagate silently.
var ErrNumericalInstability = errors.New("numerical instability")

// ErrEpisodeFinished is returned when the engine is ticked past a terminal
// state without a reset.
var ErrEpisodeFinished = errors.New("episode finished")

// ConfigErrorf wraps ErrConfig with a formatted description.
func ConfigErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// InstabilityErrorf wraps ErrNumericalInstability with a formatted
// description.
func InstabilityErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNumericalInstability, fmt.Sprintf(format, args...))
}
