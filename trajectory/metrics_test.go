package trajectory

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/otaviog/align3d-go/spatialmath"
)

func samplePose(i int) spatialmath.Transform {
	xi := [6]float64{0.01 * float64(i), -0.02 * float64(i), 0.03 * float64(i), 0.05 * float64(i), 0, 0}
	return spatialmath.ExpSE3(xi)
}

func TestMeanTrajectoryErrorIdenticalTrajectoryIsZero(t *testing.T) {
	entries := make([]Entry, 5)
	for i := range entries {
		entries[i] = Entry{Pose: samplePose(i), Time: float64(i)}
	}
	traj := New(entries)

	m, err := MeanTrajectoryError(traj, traj)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Angle, test.ShouldAlmostEqual, 0.0)
	test.That(t, m.Translation, test.ShouldAlmostEqual, 0.0)
}

func TestMeanTrajectoryErrorRejectsLengthMismatch(t *testing.T) {
	a := New([]Entry{{Pose: spatialmath.Identity()}})
	b := New([]Entry{{Pose: spatialmath.Identity()}, {Pose: spatialmath.Identity()}})

	_, err := MeanTrajectoryError(a, b)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMeanTrajectoryErrorSumsNotAverages(t *testing.T) {
	n := 4
	translation := 0.1
	pred := make([]Entry, n)
	gt := make([]Entry, n)
	for i := 0; i < n; i++ {
		pred[i] = Entry{Pose: spatialmath.Identity(), Time: float64(i)}
		gt[i] = Entry{Pose: spatialmath.ExpSE3([6]float64{translation, 0, 0, 0, 0, 0}), Time: float64(i)}
	}

	m, err := MeanTrajectoryError(New(pred), New(gt))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, math.Abs(m.Translation-float64(n)*translation) < 1e-9, test.ShouldBeTrue)
}

func TestTrajectoryErrorSeriesMeanAndStdDev(t *testing.T) {
	n := 6
	pred := make([]Entry, n)
	gt := make([]Entry, n)
	for i := 0; i < n; i++ {
		pred[i] = Entry{Pose: spatialmath.Identity(), Time: float64(i)}
		gt[i] = Entry{Pose: spatialmath.ExpSE3([6]float64{0.05 * float64(i), 0, 0, 0, 0, 0}), Time: float64(i)}
	}

	series, err := TrajectoryErrorSeries(New(pred), New(gt))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, series.MeanTranslation > 0, test.ShouldBeTrue)
	test.That(t, series.StdDevTranslation >= 0, test.ShouldBeTrue)
}

func TestTrajectoryErrorSeriesRejectsLengthMismatch(t *testing.T) {
	a := New([]Entry{{Pose: spatialmath.Identity()}})
	b := New([]Entry{{Pose: spatialmath.Identity()}, {Pose: spatialmath.Identity()}})

	_, err := TrajectoryErrorSeries(a, b)
	test.That(t, err, test.ShouldNotBeNil)
}
