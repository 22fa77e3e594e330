// Package intensitymap implements the padded luma intensity grid used by
// photometric ICP: bilinear lookup and a fixed-step numerical gradient,
// both defined over the full [0, W-1] x [0, H-1] pixel range without
// bounds checks thanks to replicated edge padding.
package intensitymap

// H is the fixed step used by BilinearGrad's numerical derivative. The
// solver's expected gradient scale depends on this exact value; changing
// it changes ICP convergence behavior.
const H = 0.005

// Map is a (Height+2, Width+2) grid of normalized [0, 1] intensities, with
// the outermost row/column replicated from the nearest valid pixel so that
// bilinear lookups anywhere in [0, Width-1] x [0, Height-1] never read out
// of bounds.
type Map struct {
	Width, Height int
	grid          []float64 // row-major, (Height+2) x (Width+2)
}

func (m *Map) stride() int { return m.Width + 2 }

func (m *Map) at(y, x int) float64 {
	return m.grid[y*m.stride()+x]
}

func (m *Map) set(y, x int, v float64) {
	m.grid[y*m.stride()+x] = v
}

// FromLuma builds an intensity map from a row-major u8 luma image,
// normalizing each sample to [0, 1] and replicating the border into the
// 2-pixel padding.
func FromLuma(luma []uint8, width, height int) *Map {
	m := &Map{
		Width:  width,
		Height: height,
		grid:   make([]float64, (height+2)*(width+2)),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			m.set(y+1, x+1, float64(luma[y*width+x])/255.0)
		}
	}
	m.fillPadding()
	return m
}

// fillPadding replicates the nearest valid interior pixel into the
// 1-pixel padding ring on every side (the map's interior occupies
// [1, height] x [1, width] in grid coordinates).
func (m *Map) fillPadding() {
	w, h := m.Width, m.Height

	for x := 1; x <= w; x++ {
		m.set(0, x, m.at(1, x))
		m.set(h+1, x, m.at(h, x))
	}
	for y := 0; y <= h+1; y++ {
		m.set(y, 0, m.at(y, 1))
		m.set(y, w+1, m.at(y, w))
	}
}

// Bilinear returns the interpolated intensity at (u, v), u in
// [0, Width-1], v in [0, Height-1].
func (m *Map) Bilinear(u, v float64) float64 {
	x0 := int(u)
	y0 := int(v)
	fx := u - float64(x0)
	fy := v - float64(y0)

	// Grid coordinates are offset by 1 for the padding ring; clamp so that
	// the small fixed step used by BilinearGrad near the last pixel never
	// reads past the padding ring.
	gx := clampInt(x0+1, 0, m.Width+1)
	gy := clampInt(y0+1, 0, m.Height+1)
	gx1 := clampInt(gx+1, 0, m.Width+1)
	gy1 := clampInt(gy+1, 0, m.Height+1)

	v00 := m.at(gy, gx)
	v01 := m.at(gy, gx1)
	v10 := m.at(gy1, gx)
	v11 := m.at(gy1, gx1)

	return (1-fy)*(1-fx)*v00 + (1-fy)*fx*v01 + fy*(1-fx)*v10 + fy*fx*v11
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// BilinearGrad returns the intensity at (u, v) together with its
// numerical partial derivatives with respect to u and v, using the fixed
// step H.
func (m *Map) BilinearGrad(u, v float64) (f, dfdu, dfdv float64) {
	f = m.Bilinear(u, v)
	dfdu = (m.Bilinear(u+H, v) - f) / H
	dfdv = (m.Bilinear(u, v+H) - f) / H
	return f, dfdu, dfdv
}
