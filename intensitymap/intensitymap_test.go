package intensitymap

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func rampLuma(w, h int) []uint8 {
	out := make([]uint8, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = uint8((x * 255) / (w - 1))
		}
	}
	return out
}

func TestBilinearExactAtGridPoints(t *testing.T) {
	w, h := 8, 6
	m := FromLuma(rampLuma(w, h), w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			got := m.Bilinear(float64(x), float64(y))
			want := float64(rampLuma(w, h)[y*w+x]) / 255.0
			test.That(t, math.Abs(got-want) < 1e-9, test.ShouldBeTrue)
		}
	}
}

func TestBilinearGradPositiveOnRamp(t *testing.T) {
	w, h := 16, 16
	m := FromLuma(rampLuma(w, h), w, h)
	_, dfdu, dfdv := m.BilinearGrad(5, 5)
	test.That(t, dfdu > 0, test.ShouldBeTrue)
	test.That(t, math.Abs(dfdv) < 1e-6, test.ShouldBeTrue)
}

func TestBilinearGradNearLastPixelDoesNotPanic(t *testing.T) {
	w, h := 8, 8
	m := FromLuma(rampLuma(w, h), w, h)
	_, _, _ = m.BilinearGrad(float64(w-1), float64(h-1))
}

func TestPaddingReplicatesBorder(t *testing.T) {
	w, h := 4, 4
	m := FromLuma(rampLuma(w, h), w, h)
	test.That(t, m.at(0, 1), test.ShouldEqual, m.at(1, 1))
	test.That(t, m.at(h+1, 1), test.ShouldEqual, m.at(h, 1))
}
