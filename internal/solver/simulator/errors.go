package simulator

import "errors"

// Sentinel errors correspond to spec.md §7's error taxonomy: invalid-input
// errors (malformed index sets) and precondition violations (wrong phase,
// exhausted resources, insufficient money, mismatched permutations). Both
// classes are recovered locally by the caller — reject and continue — so
// they are ordinary values, not panics.
var (
	ErrInvalidIndices = errors.New("invalid input")
	ErrPrecondition   = errors.New("precondition violation")
	ErrWrongPhase     = errors.New("precondition violation")
)
