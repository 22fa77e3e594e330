// Package rangeimage builds range images from RGB-D frames: backprojected
// 3D points, a validity mask, per-pixel normals, luma and intensity maps,
// and coarse-to-fine pyramids for multiscale ICP.
package rangeimage

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/golang/geo/r3"
	"golang.org/x/image/draw"

	"github.com/otaviog/align3d-go/camera"
	"github.com/otaviog/align3d-go/intensitymap"
)

// DefaultDepthScale is the meters-per-depth-unit factor used when an RGBD
// image does not specify one (1/5000, matching Kinect-style 16-bit depth
// encodings).
const DefaultDepthScale = 1.0 / 5000.0

// RGBDImage is a row-major color + depth pair sharing one resolution.
type RGBDImage struct {
	Width, Height int
	Color         []uint8  // len == Width*Height*3
	Depth         []uint16 // len == Width*Height
	DepthScale    float64  // meters per depth unit; 0 means DefaultDepthScale
}

func (img *RGBDImage) depthScale() float64 {
	if img.DepthScale == 0 {
		return DefaultDepthScale
	}
	return img.DepthScale
}

// RangeImage is a 2D grid of backprojected 3D points with a parallel
// validity mask and optional per-pixel normals, colors, luma, and an
// intensity map built from that luma.
type RangeImage struct {
	Camera        camera.Pinhole
	Width, Height int

	Points  []r3.Vector // row-major, len == Width*Height
	Mask    []bool      // row-major, len == Width*Height
	Normals []r3.Vector // nil until ComputeNormals; row-major when present
	Colors  []uint8     // row-major RGB, len == Width*Height*3

	Luma []uint8 // nil until ComputeIntensity

	validPointsCount int
	intensityMap     *intensitymap.Map
}

func (r *RangeImage) index(y, x int) int { return y*r.Width + x }

// ValidPointsCount returns the number of mask-valid pixels.
func (r *RangeImage) ValidPointsCount() int {
	n := 0
	for _, m := range r.Mask {
		if m {
			n++
		}
	}
	return n
}

// FromRGBDImage backprojects every positive-depth pixel of img through cam
// into a RangeImage, copying color unconditionally.
func FromRGBDImage(cam camera.Pinhole, img *RGBDImage) *RangeImage {
	w, h := img.Width, img.Height
	scale := img.depthScale()

	r := &RangeImage{
		Camera: cam,
		Width:  w,
		Height: h,
		Points: make([]r3.Vector, w*h),
		Mask:   make([]bool, w*h),
		Colors: append([]uint8(nil), img.Color...),
	}

	valid := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := r.index(y, x)
			d := img.Depth[i]
			if d > 0 {
				z := float64(d) * scale
				r.Points[i] = cam.Backproject(float64(x), float64(y), z)
				r.Mask[i] = true
				valid++
			}
		}
	}
	r.validPointsCount = valid
	return r
}

func (r *RangeImage) pointAt(row, col int) (r3.Vector, bool) {
	if col < 0 || col >= r.Width || row < 0 || row >= r.Height {
		return r3.Vector{}, false
	}
	i := r.index(row, col)
	return r.Points[i], r.Mask[i]
}

// ComputeNormals estimates a unit normal at every mask-valid pixel from its
// four axis-aligned neighbors, preferring the wider-baseline tangent when
// the neighbor distances are comparable (ratio in (1/4, 4)) and otherwise
// falling back to the closer neighbor, per the range-image normal
// estimation policy.
func (r *RangeImage) ComputeNormals() *RangeImage {
	const ratioThresholdSq = 4.0

	normals := make([]r3.Vector, r.Width*r.Height)

	for row := 0; row < r.Height; row++ {
		for col := 0; col < r.Width; col++ {
			i := r.index(row, col)
			if !r.Mask[i] {
				continue
			}
			center := r.Points[i]

			left, lok := r.pointAt(row, col-1)
			if !lok {
				left = r3.Vector{}
			}
			right, rok := r.pointAt(row, col+1)
			if !rok {
				right = r3.Vector{}
			}
			leftDistSq := center.Sub(left).Norm2()
			rightDistSq := center.Sub(right).Norm2()
			leftRightRatio := leftDistSq / rightDistSq

			var tx r3.Vector
			switch {
			case leftRightRatio < ratioThresholdSq && leftRightRatio > 1.0/ratioThresholdSq:
				tx = right.Sub(left)
			case leftDistSq < rightDistSq:
				tx = center.Sub(left)
			default:
				tx = right.Sub(center)
			}

			bottom, bok := r.pointAt(row+1, col)
			if !bok {
				bottom = r3.Vector{}
			}
			top, tok := r.pointAt(row-1, col)
			if !tok {
				top = r3.Vector{}
			}
			bottomDistSq := center.Sub(bottom).Norm2()
			topDistSq := center.Sub(top).Norm2()
			bottomTopRatio := bottomDistSq / topDistSq

			var ty r3.Vector
			switch {
			case bottomTopRatio < ratioThresholdSq && bottomTopRatio > 1.0/ratioThresholdSq:
				ty = top.Sub(bottom)
			case bottomDistSq < topDistSq:
				ty = center.Sub(bottom)
			default:
				ty = top.Sub(center)
			}

			n := tx.Cross(ty)
			if mag := n.Norm(); mag > 1e-6 {
				normals[i] = n.Mul(1 / mag)
			}
		}
	}
	r.Normals = normals
	return r
}

// ComputeIntensity fills Luma with the per-pixel luma of Colors:
// floor(0.3*R + 0.59*G + 0.11*B).
func (r *RangeImage) ComputeIntensity() *RangeImage {
	luma := make([]uint8, r.Width*r.Height)
	for i := range luma {
		rr := float64(r.Colors[i*3+0])
		gg := float64(r.Colors[i*3+1])
		bb := float64(r.Colors[i*3+2])
		luma[i] = uint8(math.Floor(0.3*rr + 0.59*gg + 0.11*bb))
	}
	r.Luma = luma
	return r
}

// IntensityMap lazily builds (and caches) the intensity map from Luma,
// computing Luma first if necessary.
func (r *RangeImage) IntensityMap() *intensitymap.Map {
	if r.intensityMap != nil {
		return r.intensityMap
	}
	if r.Luma == nil {
		r.ComputeIntensity()
	}
	r.intensityMap = intensitymap.FromLuma(r.Luma, r.Width, r.Height)
	return r.intensityMap
}

func neighborhoodMeanPoint(srcV, srcU int, mask []bool, points []r3.Vector, width int) (r3.Vector, bool) {
	var candidates []r3.Vector
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			idx := (srcV+i)*width + (srcU + j)
			if mask[idx] {
				candidates = append(candidates, points[idx])
			}
		}
	}
	if len(candidates) == 0 {
		return r3.Vector{}, false
	}
	var mean r3.Vector
	for _, p := range candidates {
		mean = mean.Add(p)
	}
	mean = mean.Mul(1.0 / float64(len(candidates)))

	best := candidates[0]
	bestDist := best.Sub(mean).Norm2()
	for _, p := range candidates[1:] {
		d := p.Sub(mean).Norm2()
		if d < bestDist {
			bestDist = d
			best = p
		}
	}
	return best, true
}

// DefaultPyramidSigma is the Gaussian-blur stddev ScaleDown and Pyramid
// apply to the color channel before subsampling, when a caller has no
// reason to deviate from it.
const DefaultPyramidSigma = 1.0

// ScaleDown halves the resolution: each destination pixel picks the
// point/normal nearest the mean of its 2x2 valid source window (mask- and
// neighbor-aware median-of-neighborhood), colors are Gaussian-blurred with
// stddev sigma then nearest-neighbor subsampled, and intrinsics are scaled
// by 0.5. Normals, when present, are downsampled the same way as points;
// luma and the intensity map are not carried over.
func (r *RangeImage) ScaleDown(sigma float64) *RangeImage {
	dstW, dstH := r.Width/2, r.Height/2

	dst := &RangeImage{
		Camera: r.Camera.Scale(0.5),
		Width:  dstW,
		Height: dstH,
		Points: make([]r3.Vector, dstW*dstH),
		Mask:   make([]bool, dstW*dstH),
	}

	heightRatio := float64(r.Height) / float64(dstH)
	widthRatio := float64(r.Width) / float64(dstW)

	valid := 0
	for dv := 0; dv < dstH; dv++ {
		srcV := int(float64(dv) * heightRatio)
		for du := 0; du < dstW; du++ {
			srcU := int(float64(du) * widthRatio)
			p, ok := neighborhoodMeanPoint(srcV, srcU, r.Mask, r.Points, r.Width)
			if !ok {
				continue
			}
			idx := dv*dstW + du
			dst.Points[idx] = p
			dst.Mask[idx] = true
			valid++
		}
	}
	dst.validPointsCount = valid

	if r.Normals != nil {
		dst.Normals = make([]r3.Vector, dstW*dstH)
		for dv := 0; dv < dstH; dv++ {
			srcV := int(float64(dv) * heightRatio)
			for du := 0; du < dstW; du++ {
				srcU := int(float64(du) * widthRatio)
				n, ok := neighborhoodMeanPoint(srcV, srcU, r.Mask, r.Normals, r.Width)
				if ok {
					dst.Normals[dv*dstW+du] = n
				}
			}
		}
	}

	if r.Colors != nil {
		dst.Colors = scaleDownColorRGB8(r.Colors, r.Width, r.Height, sigma)
	}

	return dst
}

// scaleDownColorRGB8 Gaussian-blurs a row-major RGB8 image with the given
// sigma and nearest-neighbor subsamples it by 2, matching the color path
// of the range-image pyramid's downsampling.
func scaleDownColorRGB8(colors []uint8, width, height int, sigma float64) []uint8 {
	img := imaging.New(width, height, color.Transparent)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			img.Set(x, y, color.RGBA{R: colors[i], G: colors[i+1], B: colors[i+2], A: 255})
		}
	}
	blurred := imaging.Blur(img, sigma)

	dstW, dstH := width/2, height/2
	resized := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.NearestNeighbor.Scale(resized, resized.Bounds(), blurred, blurred.Bounds(), draw.Over, nil)

	out := make([]uint8, dstW*dstH*3)
	for y := 0; y < dstH; y++ {
		for x := 0; x < dstW; x++ {
			rr, gg, bb, _ := resized.At(x, y).RGBA()
			i := (y*dstW + x) * 3
			out[i+0] = uint8(rr >> 8)
			out[i+1] = uint8(gg >> 8)
			out[i+2] = uint8(bb >> 8)
		}
	}
	return out
}

// Pyramid returns [r, r.ScaleDown(sigma), r.ScaleDown(sigma).ScaleDown(sigma), ...]
// of length levels, applying the same color-blur sigma at every level.
func (r *RangeImage) Pyramid(levels int, sigma float64) []*RangeImage {
	pyramid := make([]*RangeImage, 0, levels)
	pyramid = append(pyramid, r)
	for i := 1; i < levels; i++ {
		pyramid = append(pyramid, pyramid[i-1].ScaleDown(sigma))
	}
	return pyramid
}
