package selector

import "errors"

// ErrNoCandidates indicates that an empty candidate set was passed to a selector.
var ErrNoCandidates = errors.New("no candidates available for selection")

// ErrInvalidWeight indicates a candidate with a non-positive weight.
var ErrInvalidWeight = errors.New("candidate weight must be positive")
