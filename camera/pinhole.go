// Package camera implements pinhole camera intrinsics: projection,
// backprojection, and scaling for use by the range-image, ICP, and surfel
// components.
package camera

import "github.com/golang/geo/r3"

// Pinhole is a pinhole camera intrinsics matrix K = {fx, fy, cx, cy} plus
// the image resolution it was calibrated for.
type Pinhole struct {
	Fx, Fy, Cx, Cy float64
	Width, Height  int
}

// NewPinhole builds a Pinhole from its four intrinsic scalars and
// resolution.
func NewPinhole(fx, fy, cx, cy float64, width, height int) Pinhole {
	return Pinhole{Fx: fx, Fy: fy, Cx: cx, Cy: cy, Width: width, Height: height}
}

// Scale returns K scaled by s: fx, fy, cx, cy are multiplied by s and the
// resolution is rounded to the nearest integer pixel count.
func (k Pinhole) Scale(s float64) Pinhole {
	return Pinhole{
		Fx:     k.Fx * s,
		Fy:     k.Fy * s,
		Cx:     k.Cx * s,
		Cy:     k.Cy * s,
		Width:  int(float64(k.Width)*s + 0.5),
		Height: int(float64(k.Height)*s + 0.5),
	}
}

// Project maps a camera-space point to continuous pixel coordinates
// (u, v) = (x*fx/z + cx, y*fy/z + cy).
func (k Pinhole) Project(p r3.Vector) (u, v float64) {
	u = p.X*k.Fx/p.Z + k.Cx
	v = p.Y*k.Fy/p.Z + k.Cy
	return u, v
}

// ProjectGrad returns the projection together with the 2x3 Jacobian of
// (u, v) with respect to camera-space (x, y, z), row-major
// [du/dx, du/dy, du/dz, dv/dx, dv/dy, dv/dz].
func (k Pinhole) ProjectGrad(p r3.Vector) (u, v float64, jac [6]float64) {
	invZ := 1.0 / p.Z
	invZ2 := invZ * invZ
	u = p.X*k.Fx*invZ + k.Cx
	v = p.Y*k.Fy*invZ + k.Cy
	jac = [6]float64{
		k.Fx * invZ, 0, -k.Fx * p.X * invZ2,
		0, k.Fy * invZ, -k.Fy * p.Y * invZ2,
	}
	return u, v, jac
}

// Backproject maps a pixel (u, v) and depth z back to a camera-space point.
func (k Pinhole) Backproject(u, v, z float64) r3.Vector {
	return r3.Vector{
		X: (u - k.Cx) * z / k.Fx,
		Y: (v - k.Cy) * z / k.Fy,
		Z: z,
	}
}

// InBounds reports whether the continuous pixel coordinate (u, v) projects
// inside the camera's integer pixel grid.
func (k Pinhole) InBounds(u, v float64) bool {
	iu, iv := int(u), int(v)
	return iu >= 0 && iu < k.Width && iv >= 0 && iv < k.Height
}

// ProjectIfVisible projects p and returns the integer pixel coordinates
// together with whether the projection lands within the image and in
// front of the camera (z > 0).
func (k Pinhole) ProjectIfVisible(p r3.Vector) (u, v int, ok bool) {
	if p.Z <= 0 {
		return 0, 0, false
	}
	fu, fv := k.Project(p)
	iu, iv := int(fu), int(fv)
	if iu < 0 || iu >= k.Width || iv < 0 || iv >= k.Height {
		return 0, 0, false
	}
	return iu, iv, true
}
