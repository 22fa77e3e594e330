package optim

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/otaviog/align3d-go/align3derr"
)

func TestSolveEmptyHasNoSolution(t *testing.T) {
	gn := New()
	_, err := gn.Solve()
	test.That(t, err, test.ShouldEqual, align3derr.ErrNoSolution)
}

func TestStepAccumulatesDiagonalSystem(t *testing.T) {
	gn := New()
	// A diagonal, well-conditioned system: one observation per axis.
	for i := 0; i < Dim; i++ {
		var j [Dim]float64
		j[i] = 1
		gn.Step(2.0, j)
	}
	xi, err := gn.Solve()
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < Dim; i++ {
		test.That(t, math.Abs(xi[i]-2.0) < 1e-9, test.ShouldBeTrue)
	}
	test.That(t, gn.MeanSqResidual(), test.ShouldAlmostEqual, 4.0)
}

func TestWeightingEquivalentToScalingJacobians(t *testing.T) {
	const w = 2.5

	gn := New()
	gnScaled := New()
	for i := 0; i < Dim; i++ {
		var j [Dim]float64
		j[i] = 1
		gn.Step(1.5, j)

		var jScaled [Dim]float64
		for k := range j {
			jScaled[k] = j[k] * w
		}
		gnScaled.Step(1.5, jScaled)
	}
	gn.Weight(w)

	xi1, err1 := gn.Solve()
	xi2, err2 := gnScaled.Solve()
	test.That(t, err1, test.ShouldBeNil)
	test.That(t, err2, test.ShouldBeNil)
	for i := 0; i < Dim; i++ {
		test.That(t, math.Abs(xi1[i]-xi2[i]) < 1e-9, test.ShouldBeTrue)
	}
}

func TestAddReducesWorkerAccumulators(t *testing.T) {
	a := New()
	b := New()
	total := New()
	for i := 0; i < Dim; i++ {
		var j [Dim]float64
		j[i] = 1
		a.Step(1.0, j)
		b.Step(3.0, j)
		total.Step(1.0, j)
		total.Step(3.0, j)
	}
	a.Add(b)

	xiA, errA := a.Solve()
	xiTotal, errTotal := total.Solve()
	test.That(t, errA, test.ShouldBeNil)
	test.That(t, errTotal, test.ShouldBeNil)
	for i := 0; i < Dim; i++ {
		test.That(t, math.Abs(xiA[i]-xiTotal[i]) < 1e-9, test.ShouldBeTrue)
	}
	test.That(t, a.N(), test.ShouldEqual, total.N())
}

func TestHuberDownweightsOutliers(t *testing.T) {
	h := NewHuberEstimator(1.0)
	test.That(t, h.Weight(0.5), test.ShouldEqual, 1.0)
	test.That(t, h.Weight(4.0), test.ShouldAlmostEqual, 0.25)
}
