package rgbdio

import (
	"testing"

	"go.viam.com/test"

	"github.com/otaviog/align3d-go/camera"
	"github.com/otaviog/align3d-go/rangeimage"
	"github.com/otaviog/align3d-go/spatialmath"
	"github.com/otaviog/align3d-go/trajectory"
)

type fakeDataset struct {
	frames []Frame
	traj   trajectory.Trajectory
	hasGT  bool
}

func (f *fakeDataset) Len() int { return len(f.frames) }
func (f *fakeDataset) Get(i int) (Frame, error) {
	return f.frames[i], nil
}
func (f *fakeDataset) Trajectory() (trajectory.Trajectory, bool) {
	return f.traj, f.hasGT
}

func TestSubsetDatasetRemapsIndices(t *testing.T) {
	cam := camera.NewPinhole(300, 300, 80, 60, 160, 120)
	frames := []Frame{
		{Intrinsics: cam, Image: rangeimage.RGBDImage{Width: 1, Height: 1}},
		{Intrinsics: cam, Image: rangeimage.RGBDImage{Width: 2, Height: 2}},
		{Intrinsics: cam, Image: rangeimage.RGBDImage{Width: 3, Height: 3}},
	}
	ds := &fakeDataset{frames: frames}

	subset := NewSubsetDataset(ds, []int{2, 0})
	test.That(t, subset.Len(), test.ShouldEqual, 2)

	f0, err := subset.Get(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f0.Image.Width, test.ShouldEqual, 3)

	f1, err := subset.Get(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f1.Image.Width, test.ShouldEqual, 1)
}

func TestSubsetDatasetRemapsTrajectory(t *testing.T) {
	entries := []trajectory.Entry{
		{Pose: spatialmath.Identity(), Time: 0},
		{Pose: spatialmath.ExpSE3([6]float64{0.1, 0, 0, 0, 0, 0}), Time: 1},
		{Pose: spatialmath.ExpSE3([6]float64{0.2, 0, 0, 0, 0, 0}), Time: 2},
	}
	ds := &fakeDataset{
		frames: make([]Frame, 3),
		traj:   trajectory.New(entries),
		hasGT:  true,
	}

	subset := NewSubsetDataset(ds, []int{2, 1})
	traj, ok := subset.Trajectory()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, traj.Len(), test.ShouldEqual, 2)

	got := spatialmath.Translation(traj.At(0).Pose)
	want := spatialmath.Translation(entries[2].Pose)
	test.That(t, got.X, test.ShouldAlmostEqual, want.X)
}

func TestSubsetDatasetNoTrajectory(t *testing.T) {
	ds := &fakeDataset{frames: make([]Frame, 2), hasGT: false}
	subset := NewSubsetDataset(ds, []int{0, 1})

	_, ok := subset.Trajectory()
	test.That(t, ok, test.ShouldBeFalse)
}
