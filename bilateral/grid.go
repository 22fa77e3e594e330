// Package bilateral implements the edge-aware bilateral grid filter used to
// smooth depth images before normal estimation, following Chen, Paris &
// Durand's "Real-time edge-aware image processing with the bilateral grid"
// (2007): a padded 3D (space x space x intensity) grid of (sum, count)
// pairs, a separable two-pass box blur, normalization, and trilinear
// slicing back onto the image grid.
package bilateral

import "math"

const (
	spacePad = 2
	colorPad = 2
)

// DepthImage is a single-channel uint16 image, the representation depth
// frames use once converted to integer depth units.
type DepthImage struct {
	Width, Height int
	Data          []uint16 // row-major, len == Width*Height
}

func (img *DepthImage) at(y, x int) uint16 { return img.Data[y*img.Width+x] }

// Grid is the 4D (Gh, Gw, Gd, 2) bilateral grid: sum and count are stored
// in parallel flat slices indexed by the same (gy, gx, gc) coordinate.
type Grid struct {
	Gh, Gw, Gd int
	Sum, Count []float64
	sigmaSpace float64
	sigmaColor float64
	colorMin   float64
}

func (g *Grid) idx(gy, gx, gc int) int {
	return (gy*g.Gw+gx)*g.Gd + gc
}

// FromImage builds a bilateral grid from a depth image. Grid cell
// assignment uses the rounded form (+0.5) for the spatial and color
// coordinates, per the spec's explicit resolution of the rounding
// ambiguity between construction and slicing.
func FromImage(img *DepthImage, sigmaSpace, sigmaColor float64) *Grid {
	iMin, iMax := img.Data[0], img.Data[0]
	for _, v := range img.Data {
		if v < iMin {
			iMin = v
		}
		if v > iMax {
			iMax = v
		}
	}

	gh := int(math.Ceil(float64(img.Height-1)/sigmaSpace)) + 1 + 2*spacePad
	gw := int(math.Ceil(float64(img.Width-1)/sigmaSpace)) + 1 + 2*spacePad
	gd := int(math.Ceil(float64(iMax-iMin)/sigmaColor)) + 1 + 2*colorPad

	grid := &Grid{
		Gh: gh, Gw: gw, Gd: gd,
		Sum:        make([]float64, gh*gw*gd),
		Count:      make([]float64, gh*gw*gd),
		sigmaSpace: sigmaSpace,
		sigmaColor: sigmaColor,
		colorMin:   float64(iMin),
	}

	for y := 0; y < img.Height; y++ {
		gy := int(float64(y)/sigmaSpace+0.5) + spacePad
		for x := 0; x < img.Width; x++ {
			gx := int(float64(x)/sigmaSpace+0.5) + spacePad
			v := img.at(y, x)
			gc := int((float64(v)-grid.colorMin)/sigmaColor+0.5) + colorPad
			idx := grid.idx(gy, gx, gc)
			grid.Sum[idx] += float64(v)
			grid.Count[idx]++
		}
	}
	return grid
}

// Convolve applies the separable 1-2-1 box blur along the y, x, and c
// axes, each axis swept twice with double buffering; cells on the first
// or last index of the axis currently being swept are left unchanged.
func (g *Grid) Convolve() {
	g.sweepAxis(0)
	g.sweepAxis(1)
	g.sweepAxis(2)
}

func (g *Grid) sweepAxis(axis int) {
	for pass := 0; pass < 2; pass++ {
		bufSum := append([]float64(nil), g.Sum...)
		bufCount := append([]float64(nil), g.Count...)

		for gy := 0; gy < g.Gh; gy++ {
			for gx := 0; gx < g.Gw; gx++ {
				for gc := 0; gc < g.Gd; gc++ {
					if isBorder(axis, gy, gx, gc, g.Gh, g.Gw, g.Gd) {
						continue
					}
					py, px, pc := gy, gx, gc
					ny, nx, nc := gy, gx, gc
					switch axis {
					case 0:
						py, ny = gy-1, gy+1
					case 1:
						px, nx = gx-1, gx+1
					case 2:
						pc, nc = gc-1, gc+1
					}
					curr := g.idx(gy, gx, gc)
					prev := g.idx(py, px, pc)
					next := g.idx(ny, nx, nc)

					g.Sum[curr] = (bufSum[prev] + bufSum[next] + 2*bufSum[curr]) * 0.25
					g.Count[curr] = (bufCount[prev] + bufCount[next] + 2*bufCount[curr]) * 0.25
				}
			}
		}
	}
}

func isBorder(axis, gy, gx, gc, gh, gw, gd int) bool {
	switch axis {
	case 0:
		return gy == 0 || gy == gh-1
	case 1:
		return gx == 0 || gx == gw-1
	default:
		return gc == 0 || gc == gd-1
	}
}

// Normalize divides sum by count for every cell with count > 0 and resets
// count to 1, so that the grid holds a plain averaged value per cell.
func (g *Grid) Normalize() {
	for i := range g.Sum {
		if g.Count[i] > 0 {
			g.Sum[i] /= g.Count[i]
			g.Count[i] = 1
		}
	}
}

// Trilinear interpolates the sum channel at continuous grid coordinates
// (row, col, channel), clamping indices to the grid bounds.
func (g *Grid) Trilinear(row, col, channel float64) float64 {
	yIdx, yyIdx, yAlpha := splitCoord(row, g.Gh)
	xIdx, xxIdx, xAlpha := splitCoord(col, g.Gw)
	zIdx, zzIdx, zAlpha := splitCoord(channel, g.Gd)

	v := func(y, x, z int) float64 { return g.Sum[g.idx(y, x, z)] }

	return (1-yAlpha)*(1-xAlpha)*(1-zAlpha)*v(yIdx, xIdx, zIdx) +
		(1-yAlpha)*xAlpha*(1-zAlpha)*v(yIdx, xxIdx, zIdx) +
		yAlpha*(1-xAlpha)*(1-zAlpha)*v(yyIdx, xIdx, zIdx) +
		yAlpha*xAlpha*(1-zAlpha)*v(yyIdx, xxIdx, zIdx) +
		(1-yAlpha)*(1-xAlpha)*zAlpha*v(yIdx, xIdx, zzIdx) +
		(1-yAlpha)*xAlpha*zAlpha*v(yIdx, xxIdx, zzIdx) +
		yAlpha*(1-xAlpha)*zAlpha*v(yyIdx, xIdx, zzIdx) +
		yAlpha*xAlpha*zAlpha*v(yyIdx, xxIdx, zzIdx)
}

func splitCoord(v float64, size int) (idx, idxNext int, alpha float64) {
	idx = clampInt(int(v), 0, size-1)
	idxNext = clampInt(int(v+1), 0, size-1)
	alpha = v - float64(idx)
	return idx, idxNext, alpha
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

// Slice produces an output image the same shape as source, reading the
// normalized sum channel via trilinear interpolation at the continuous
// (non-rounded) grid coordinate of each source pixel.
func (g *Grid) Slice(source *DepthImage) *DepthImage {
	out := &DepthImage{Width: source.Width, Height: source.Height, Data: make([]uint16, len(source.Data))}
	for y := 0; y < source.Height; y++ {
		gy := float64(y)/g.sigmaSpace + spacePad
		for x := 0; x < source.Width; x++ {
			gx := float64(x)/g.sigmaSpace + spacePad
			v := source.at(y, x)
			gc := (float64(v)-g.colorMin)/g.sigmaColor + colorPad
			val := g.Trilinear(gy, gx, gc)
			if val < 0 {
				val = 0
			}
			out.Data[y*out.Width+x] = uint16(val + 0.5)
		}
	}
	return out
}

// Filter runs the full from_image -> convolve -> normalize -> slice
// pipeline with the given sigmas.
func Filter(img *DepthImage, sigmaSpace, sigmaColor float64) *DepthImage {
	grid := FromImage(img, sigmaSpace, sigmaColor)
	grid.Convolve()
	grid.Normalize()
	return grid.Slice(img)
}

// DefaultSigmaSpace and DefaultSigmaColor match the original filter's
// default constructor.
const (
	DefaultSigmaSpace = 4.5
	DefaultSigmaColor = 30.0
)

// ScaleDown filters img with the default sigmas then nearest-neighbor
// subsamples it by 2.
func ScaleDown(img *DepthImage) *DepthImage {
	return ScaleDownSigma(img, DefaultSigmaSpace, DefaultSigmaColor)
}

// ScaleDownSigma filters img with the given sigmas then nearest-neighbor
// subsamples it by 2.
func ScaleDownSigma(img *DepthImage, sigmaSpace, sigmaColor float64) *DepthImage {
	filtered := Filter(img, sigmaSpace, sigmaColor)
	dstW, dstH := filtered.Width/2, filtered.Height/2
	out := &DepthImage{Width: dstW, Height: dstH, Data: make([]uint16, dstW*dstH)}
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			out.Data[y*dstW+x] = filtered.at(y*2, x*2)
		}
	}
	return out
}
