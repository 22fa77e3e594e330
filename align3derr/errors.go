// Package align3derr defines the sentinel error taxonomy shared by every
// alignment and fusion package: invalid caller configuration, unsolved
// least-squares steps, and exhausted surfel capacity.
package align3derr

import "errors"

var (
	// ErrInvalidParameter marks caller-supplied configuration that is
	// internally inconsistent, e.g. mismatched pyramid/parameter lengths.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNoSolution marks a Gauss-Newton step whose normal equations were
	// not positive-definite, or whose correspondence set was empty.
	// Callers recover by keeping their previous best estimate.
	ErrNoSolution = errors.New("no solution")

	// ErrCapacity marks a surfel pool allocation attempted against an
	// exhausted free list. Callers recover by dropping the candidate.
	ErrCapacity = errors.New("pool at capacity")

	// ErrAssertion marks a violated internal invariant driven by
	// caller-reachable inputs (as opposed to a programmer error, which
	// panics instead). Fatal to the calling operation.
	ErrAssertion = errors.New("assertion failed")
)
