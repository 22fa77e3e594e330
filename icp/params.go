// Package icp implements dense projective image-ICP (Component H) and the
// multiscale coarse-to-fine driver that runs it over a range-image pyramid
// (Component I).
package icp

import "math"

// Params configures one pyramid level of image-ICP.
type Params struct {
	MaxIterations    int
	Weight           float64
	ColorWeight      float64
	MaxDistance      float64
	MaxNormalAngle   float64
	MaxColorDistance float64
}

// DefaultParams returns the single-level defaults: 15 iterations, unit
// geometric weight, 0.1 photometric weight, 0.5 m projective gating
// distance, an 18-degree normal-angle gate, and a 0.25 luma residual clamp.
func DefaultParams() Params {
	return Params{
		MaxIterations:    15,
		Weight:           1.0,
		ColorWeight:      0.1,
		MaxDistance:      0.5,
		MaxNormalAngle:   18.0 * math.Pi / 180.0,
		MaxColorDistance: 0.25,
	}
}

// MultiscaleParams holds one Params per pyramid level, finest level first
// (index 0), matching the range-image pyramid ordering.
type MultiscaleParams []Params

// DefaultMultiscaleParams returns the 3-level multiscale defaults: unit
// geometric and photometric weight, an 18-degree (pi/10) normal gate, a
// loose 2.75 color clamp, 0.5 m distance gate, and per-level iteration
// counts 20 (finest), 20, 30 (coarsest).
func DefaultMultiscaleParams() MultiscaleParams {
	base := Params{
		Weight:           1.0,
		ColorWeight:      1.0,
		MaxNormalAngle:   math.Pi / 10.0,
		MaxColorDistance: 2.75,
		MaxDistance:      0.5,
	}
	levels := []int{20, 20, 30}
	out := make(MultiscaleParams, len(levels))
	for i, iters := range levels {
		p := base
		p.MaxIterations = iters
		out[i] = p
	}
	return out
}
