package harmonic

import "errors"

// Failures in this package are structural or configuration defects on the
// caller's side; nothing here is transient or retryable.
var (
	// ErrMissingDegree reports that an input map lacks a degree the
	// operator requires.
	ErrMissingDegree = errors.New("harmonic: missing degree")

	// ErrShapeMismatch reports that a tensor's extents disagree with the
	// operator's configured TI/TE/channel dimensions.
	ErrShapeMismatch = errors.New("harmonic: shape mismatch")

	// ErrEmptyOutput reports a nonlinearity configured with an output
	// degree unreachable from its input degrees under the triangle
	// inequality. Detected at construction.
	ErrEmptyOutput = errors.New("harmonic: no admissible coupling for output degree")
)
