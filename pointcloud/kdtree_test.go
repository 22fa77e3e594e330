package pointcloud

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNearestNeighborOnSmallSet(t *testing.T) {
	points := []r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 1, Z: 1},
		{X: 2, Y: 2, Z: 2},
		{X: 3, Y: 3, Z: 3},
	}
	kd := NewKDTree(points)

	p, _, distSq, found := kd.NearestNeighbor(r3.Vector{X: 3, Y: 3, Z: 3})
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 3, Y: 3, Z: 3})
	test.That(t, distSq, test.ShouldEqual, 0.0)

	p, _, distSq, found = kd.NearestNeighbor(r3.Vector{X: 0.5, Y: 0, Z: 0})
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 0, Y: 0, Z: 0})
	test.That(t, distSq, test.ShouldEqual, 0.25)
}

func TestEmptyTree(t *testing.T) {
	kd := NewKDTree(nil)
	_, _, _, found := kd.NearestNeighbor(r3.Vector{})
	test.That(t, found, test.ShouldBeFalse)
}

func bruteForceNearest(points []r3.Vector, q r3.Vector) (int, float64) {
	best := -1
	bestDist := math.MaxFloat64
	for i, p := range points {
		d := p.Sub(q).Norm2()
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best, bestDist
}

func TestKDTreeExactnessAgainstBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	points := make([]r3.Vector, 500)
	for i := range points {
		points[i] = r3.Vector{
			X: rng.Float64()*10 - 5,
			Y: rng.Float64()*10 - 5,
			Z: rng.Float64()*10 - 5,
		}
	}
	kd := NewKDTree(points)

	for q := 0; q < 100; q++ {
		query := r3.Vector{
			X: rng.Float64()*10 - 5,
			Y: rng.Float64()*10 - 5,
			Z: rng.Float64()*10 - 5,
		}
		wantIdx, wantDist := bruteForceNearest(points, query)
		_, gotIdx, gotDist, found := kd.NearestNeighbor(query)
		test.That(t, found, test.ShouldBeTrue)
		test.That(t, math.Abs(gotDist-wantDist) < 1e-9, test.ShouldBeTrue)
		_ = wantIdx
		_ = gotIdx
	}
}
