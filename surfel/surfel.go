// Package surfel implements the disk-based dense surface representation
// (Component L/M): a fixed-capacity surfel pool with free-list allocation
// and an index-map-based fusion pass that merges, adds, and ages out
// surfels as new range images arrive.
package surfel

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/otaviog/align3d-go/camera"
)

// Surfel is a disk-shaped surface element: position, normal, color,
// radius, confidence, and the frame index it was last touched at.
type Surfel struct {
	Position   r3.Vector
	Normal     r3.Vector
	Color      [3]uint8
	Radius     float64
	Confidence float64
	Age        int
}

// Merge linearly blends s1 and s2's geometric and confidence fields with
// weights w1, w2, clamps the blended color to [0,255] per channel via
// go-colorful, and takes the max age.
func Merge(s1, s2 Surfel, w1, w2 float64) Surfel {
	c1 := colorful.Color{R: float64(s1.Color[0]) / 255, G: float64(s1.Color[1]) / 255, B: float64(s1.Color[2]) / 255}
	c2 := colorful.Color{R: float64(s2.Color[0]) / 255, G: float64(s2.Color[1]) / 255, B: float64(s2.Color[2]) / 255}
	blended := colorful.Color{
		R: clamp01(c1.R*w1 + c2.R*w2),
		G: clamp01(c1.G*w1 + c2.G*w2),
		B: clamp01(c1.B*w1 + c2.B*w2),
	}
	r, g, b := blended.RGB255()

	age := s1.Age
	if s2.Age > age {
		age = s2.Age
	}

	return Surfel{
		Position:   s1.Position.Mul(w1).Add(s2.Position.Mul(w2)),
		Normal:     s1.Normal.Mul(w1).Add(s2.Normal.Mul(w2)),
		Color:      [3]uint8{r, g, b},
		Radius:     s1.Radius*w1 + s2.Radius*w2,
		Confidence: s1.Confidence*w1 + s2.Confidence*w2,
		Age:        age,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Builder constructs candidate surfels from range-image samples, caching
// the per-camera constants used by the radius and confidence formulas.
type Builder struct {
	cameraCenter       r3.Vector // (cx, cy, 0), z unused
	invMeanFocalLength float64
	maxCenterDistance  float64
}

// NewBuilder derives a Builder's cached constants from cam.
func NewBuilder(cam camera.Pinhole) Builder {
	cx, cy := cam.Cx, cam.Cy
	return Builder{
		cameraCenter:       r3.Vector{X: cx, Y: cy},
		invMeanFocalLength: 1.0 / ((cam.Fx + cam.Fy) * 0.5),
		maxCenterDistance:  math.Hypot(cx, cy),
	}
}

// Build constructs a surfel from a range-image sample at pixel (u, v)
// with the given age (frame timestamp).
//
// Radius: r = (√2/2)·z·(1/f̄)/|n_z|, clamped to ≤ 2·(√2/2)·z·(1/f̄).
// Confidence: w = exp(−d²/(2·0.6²))·d, where d = ‖(u,v) − (cx,cy)‖ / ‖(cx,cy)‖.
func (b Builder) Build(point, normal r3.Vector, color [3]uint8, u, v float64, age int) Surfel {
	const invSqrt2 = 0.7071067811865476

	base := invSqrt2 * point.Z * b.invMeanFocalLength
	radius := base / math.Abs(normal.Z)
	if maxRadius := 2.0 * base; radius > maxRadius {
		radius = maxRadius
	}

	dx, dy := u-b.cameraCenter.X, v-b.cameraCenter.Y
	d := math.Hypot(dx, dy) / b.maxCenterDistance
	const constantWeight = 2.0 * 0.6 * 0.6
	confidence := math.Exp(-(d*d)/constantWeight) * d

	return Surfel{
		Position:   point,
		Normal:     normal,
		Color:      color,
		Radius:     radius,
		Confidence: confidence,
		Age:        age,
	}
}
