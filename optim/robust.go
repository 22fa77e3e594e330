package optim

import "math"

// RobustEstimator reweights a scalar residual for an IRLS-style robust
// least-squares step. Not required by the core weighting path (Step/Weight
// reproduce the spec's accumulator exactly); this is an opt-in hook for
// callers that want outlier-resistant ICP.
type RobustEstimator interface {
	// Weight returns the multiplicative weight to apply to residual.
	Weight(residual float64) float64
}

// HuberEstimator implements the Huber M-estimator: residuals within
// [-k, k] are weighted 1; residuals beyond that are weighted down as
// k/|residual| so that large outliers contribute linearly rather than
// quadratically to the normal equations.
type HuberEstimator struct {
	K float64
}

// NewHuberEstimator returns a HuberEstimator with the given threshold k.
func NewHuberEstimator(k float64) HuberEstimator {
	return HuberEstimator{K: k}
}

// Weight implements RobustEstimator.
func (h HuberEstimator) Weight(residual float64) float64 {
	a := math.Abs(residual)
	if a <= h.K || a == 0 {
		return 1
	}
	return h.K / a
}
