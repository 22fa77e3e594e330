// Package optim implements the fixed-dimension Gauss-Newton accumulator
// used by every ICP variant in this repository: incremental normal-equation
// accumulation, weighting, Cholesky solve, and the commutative reduction
// that lets per-worker accumulators from a data-parallel residual loop be
// summed into one.
package optim

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/otaviog/align3d-go/align3derr"
)

// Dim is the tangent-space dimension every accumulator in this package
// works in: 3 translation + 3 rotation components of se(3).
const Dim = 6

// GaussNewton accumulates the normal equations H·ξ = g for a 6-DOF
// nonlinear least-squares problem: H = ΣJᵀJ (only the upper triangle is
// updated; it is mirrored into the full symmetric matrix at Solve time),
// g = ΣJᵀr, plus the running sum of squared residuals and a sample count.
type GaussNewton struct {
	h     [Dim][Dim]float64
	g     [Dim]float64
	sumSq float64
	n     int
}

// New returns a zeroed accumulator.
func New() *GaussNewton {
	return &GaussNewton{}
}

// Reset zeros all accumulator state.
func (gn *GaussNewton) Reset() {
	*gn = GaussNewton{}
}

// Step adds one residual/Jacobian observation: H += J·Jᵀ, g += J·r,
// sum_sq += r², n += 1.
func (gn *GaussNewton) Step(residual float64, jacobian [Dim]float64) {
	for i := 0; i < Dim; i++ {
		for j := i; j < Dim; j++ {
			v := jacobian[i] * jacobian[j]
			gn.h[i][j] += v
			if i != j {
				gn.h[j][i] += v
			}
		}
		gn.g[i] += jacobian[i] * residual
	}
	gn.sumSq += residual * residual
	gn.n++
}

// StepRobust behaves like Step but reweights the observation by
// estimator.Weight(residual) first, as an IRLS outer loop would.
func (gn *GaussNewton) StepRobust(residual float64, jacobian [Dim]float64, estimator RobustEstimator) {
	w := estimator.Weight(residual)
	var weighted [Dim]float64
	for i := range jacobian {
		weighted[i] = jacobian[i] * w
	}
	gn.Step(residual*w, weighted)
}

// Weight multiplies H by w², g by w, and sum_sq by w. Solve then returns
// the same ξ as an accumulator whose every Jacobian was scaled by w
// (residuals unchanged).
func (gn *GaussNewton) Weight(w float64) {
	w2 := w * w
	for i := 0; i < Dim; i++ {
		for j := 0; j < Dim; j++ {
			gn.h[i][j] *= w2
		}
		gn.g[i] *= w
	}
	gn.sumSq *= w
}

// Add reduces other into gn: H, g, sum_sq, and n are summed. The operation
// is commutative and associative, matching the per-worker reduction the
// concurrency model requires at the end of each ICP iteration.
func (gn *GaussNewton) Add(other *GaussNewton) {
	for i := 0; i < Dim; i++ {
		for j := 0; j < Dim; j++ {
			gn.h[i][j] += other.h[i][j]
		}
		gn.g[i] += other.g[i]
	}
	gn.sumSq += other.sumSq
	gn.n += other.n
}

// AddWeighted reduces other into gn after scaling other by w, without
// mutating other.
func (gn *GaussNewton) AddWeighted(other *GaussNewton, w float64) {
	scaled := *other
	scaled.Weight(w)
	gn.Add(&scaled)
}

// N returns the number of accumulated observations.
func (gn *GaussNewton) N() int { return gn.n }

// SumSq returns the raw accumulated sum of squared residuals.
func (gn *GaussNewton) SumSq() float64 { return gn.sumSq }

// MeanSqResidual returns sum_sq / n.
func (gn *GaussNewton) MeanSqResidual() float64 {
	if gn.n == 0 {
		return 0
	}
	return gn.sumSq / float64(gn.n)
}

// Solve solves H·ξ = g by Cholesky factorization in float64 and returns
// align3derr.ErrNoSolution if there were no observations or H is not
// positive-definite.
func (gn *GaussNewton) Solve() (xi [Dim]float64, err error) {
	if gn.n == 0 {
		return xi, align3derr.ErrNoSolution
	}

	sym := mat.NewSymDense(Dim, nil)
	for i := 0; i < Dim; i++ {
		for j := i; j < Dim; j++ {
			sym.SetSym(i, j, gn.h[i][j])
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sym); !ok {
		return xi, align3derr.ErrNoSolution
	}

	gVec := mat.NewVecDense(Dim, gn.g[:])
	var x mat.VecDense
	if err := chol.SolveVecTo(&x, gVec); err != nil {
		return xi, align3derr.ErrNoSolution
	}

	for i := 0; i < Dim; i++ {
		v := x.AtVec(i)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return xi, align3derr.ErrNoSolution
		}
		xi[i] = v
	}
	return xi, nil
}
