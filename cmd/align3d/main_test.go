package main

import (
	"testing"

	"go.viam.com/test"

	"github.com/otaviog/align3d-go/camera"
	"github.com/otaviog/align3d-go/rangeimage"
	"github.com/otaviog/align3d-go/rgbdio"
	"github.com/otaviog/align3d-go/spatialmath"
)

type staticDataset struct {
	frames []rgbdio.Frame
}

func (d *staticDataset) Len() int { return len(d.frames) }
func (d *staticDataset) Get(i int) (rgbdio.Frame, error) {
	return d.frames[i], nil
}

func syntheticFrame(w, h int, depth uint16) rgbdio.Frame {
	color := make([]uint8, w*h*3)
	depthData := make([]uint16, w*h)
	for i := 0; i < w*h; i++ {
		color[i*3+0] = uint8(60 + i%40)
		color[i*3+1] = uint8(90 + i%30)
		color[i*3+2] = 120
		depthData[i] = depth
	}
	return rgbdio.Frame{
		Intrinsics: camera.NewPinhole(300, 300, 80, 60, 160, 120),
		Image:      rangeimage.RGBDImage{Width: w, Height: h, Color: color, Depth: depthData, DepthScale: 1.0},
	}
}

func TestRunPipelineOnStaticFramesYieldsNearIdentityTrajectory(t *testing.T) {
	ds := &staticDataset{frames: []rgbdio.Frame{
		syntheticFrame(160, 120, 2000),
		syntheticFrame(160, 120, 2000),
	}}

	traj, err := runPipeline(ds, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, traj.Len(), test.ShouldEqual, 1)
	test.That(t, spatialmath.Angle(traj.At(0).Pose) < 1e-2, test.ShouldBeTrue)
}

func TestRunPipelineRejectsEmptyDataset(t *testing.T) {
	ds := &staticDataset{}
	_, err := runPipeline(ds, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBuildRangeImageComputesNormalsAndIntensity(t *testing.T) {
	frame := syntheticFrame(160, 120, 2000)
	ri := buildRangeImage(frame)
	test.That(t, ri.ValidPointsCount() > 0, test.ShouldBeTrue)
	test.That(t, ri.Normals, test.ShouldNotBeNil)
	test.That(t, ri.Luma, test.ShouldNotBeNil)
}
