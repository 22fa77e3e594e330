package bilateral

import (
	"testing"

	"go.viam.com/test"
)

func constantImage(w, h int, v uint16) *DepthImage {
	data := make([]uint16, w*h)
	for i := range data {
		data[i] = v
	}
	return &DepthImage{Width: w, Height: h, Data: data}
}

func TestBilateralIdempotentOnConstantDepth(t *testing.T) {
	img := constantImage(32, 24, 1000)
	out := Filter(img, 4.5, 30)
	test.That(t, out.Width, test.ShouldEqual, img.Width)
	test.That(t, out.Height, test.ShouldEqual, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			got := int(out.at(y, x))
			test.That(t, got >= 999 && got <= 1001, test.ShouldBeTrue)
		}
	}
}

func TestScaleDownHalvesResolution(t *testing.T) {
	img := constantImage(64, 48, 2000)
	out := ScaleDown(img)
	test.That(t, out.Width, test.ShouldEqual, 32)
	test.That(t, out.Height, test.ShouldEqual, 24)
}

func TestBilateralPreservesStepEdge(t *testing.T) {
	w, h := 64, 32
	data := make([]uint16, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint16(1000)
			if x >= w/2 {
				v = 2000
			}
			data[y*w+x] = v
		}
	}
	img := &DepthImage{Width: w, Height: h, Data: data}
	out := Filter(img, 4.5, 30)

	// Find the transition column on the middle row; it must stay within
	// one column of the original step at w/2.
	mid := h / 2
	transition := -1
	for x := 1; x < w; x++ {
		if out.at(mid, x-1) < 1500 && out.at(mid, x) >= 1500 {
			transition = x
			break
		}
	}
	test.That(t, transition >= 0, test.ShouldBeTrue)
	diff := transition - w/2
	if diff < 0 {
		diff = -diff
	}
	test.That(t, diff <= 1, test.ShouldBeTrue)
}
