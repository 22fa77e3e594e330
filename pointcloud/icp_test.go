package pointcloud

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/otaviog/align3d-go/camera"
	"github.com/otaviog/align3d-go/rangeimage"
	"github.com/otaviog/align3d-go/spatialmath"
)

func planeRangeImage(w, h int, depth uint16) *rangeimage.RangeImage {
	color := make([]uint8, w*h*3)
	depthData := make([]uint16, w*h)
	for i := 0; i < w*h; i++ {
		color[i*3+0] = uint8(50 + (i % 100))
		color[i*3+1] = uint8(80 + (i % 50))
		color[i*3+2] = uint8(120)
		depthData[i] = depth
	}
	img := &rangeimage.RGBDImage{Width: w, Height: h, Color: color, Depth: depthData, DepthScale: 1.0}
	cam := camera.NewPinhole(300, 300, 80, 60, 160, 120)
	ri := rangeimage.FromRGBDImage(cam, img)
	ri.ComputeNormals()
	return ri
}

func TestFromRangeImageCompactsMaskValidEntries(t *testing.T) {
	ri := planeRangeImage(160, 120, 2000)
	pc := FromRangeImage(ri)

	test.That(t, pc.Len(), test.ShouldEqual, ri.ValidPointsCount())
	test.That(t, pc.HasNormals(), test.ShouldBeTrue)
	test.That(t, len(pc.Normals), test.ShouldEqual, pc.Len())
	test.That(t, pc.HasColors(), test.ShouldBeTrue)
	test.That(t, len(pc.Colors), test.ShouldEqual, pc.Len())
}

func TestFromRangeImageSkipsInvalidPixels(t *testing.T) {
	ri := planeRangeImage(20, 20, 2000)
	ri.Mask[0] = false

	pc := FromRangeImage(ri)
	test.That(t, pc.Len(), test.ShouldEqual, ri.ValidPointsCount())
}

func TestPointCloudICPIdentityAlignment(t *testing.T) {
	ri := planeRangeImage(160, 120, 2000)
	pc := FromRangeImage(ri)
	test.That(t, pc.Len() >= 1000, test.ShouldBeTrue)

	icp, err := NewICP(DefaultParams(), pc)
	test.That(t, err, test.ShouldBeNil)

	result, err := icp.Align(pc)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, spatialmath.Angle(result) < 1e-3, test.ShouldBeTrue)
	tr := spatialmath.Translation(result)
	test.That(t, math.Sqrt(tr.X*tr.X+tr.Y*tr.Y+tr.Z*tr.Z) < 1e-3, test.ShouldBeTrue)
}

func TestPointCloudICPRejectsMissingTargetNormals(t *testing.T) {
	pc := &PointCloud{Points: []r3.Vector{{X: 1, Y: 2, Z: 3}}}
	_, err := NewICP(DefaultParams(), pc)
	test.That(t, err, test.ShouldNotBeNil)
}
