package pointcloud

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"github.com/otaviog/align3d-go/spatialmath"
)

func TestTransformAppliesToPointsAndNormals(t *testing.T) {
	pc := &PointCloud{
		Points:  []r3.Vector{{X: 1, Y: 0, Z: 0}},
		Normals: []r3.Vector{{X: 0, Y: 0, Z: 1}},
	}
	tr := spatialmath.ExpSE3([6]float64{0, 0, 0, 0, 0, math.Pi / 2})
	out := Transform(pc, tr)

	test.That(t, math.Abs(out.Points[0].X) < 1e-9, test.ShouldBeTrue)
	test.That(t, math.Abs(out.Points[0].Y-1) < 1e-9, test.ShouldBeTrue)
	// normal is unaffected by rotation about Z.
	test.That(t, math.Abs(out.Normals[0].Z-1) < 1e-9, test.ShouldBeTrue)
}

func TestLenAndHasFields(t *testing.T) {
	pc := New()
	test.That(t, pc.Len(), test.ShouldEqual, 0)
	test.That(t, pc.HasNormals(), test.ShouldBeFalse)
	test.That(t, pc.HasColors(), test.ShouldBeFalse)
}

func TestTransformIdentityLeavesPointCloudUnchanged(t *testing.T) {
	pc := &PointCloud{
		Points:  []r3.Vector{{X: 1, Y: 2, Z: 3}, {X: -1, Y: 0, Z: 5}},
		Normals: []r3.Vector{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 0}},
	}
	out := Transform(pc, spatialmath.Identity())

	if diff := cmp.Diff(pc.Points, out.Points); diff != "" {
		t.Errorf("identity transform changed points (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(pc.Normals, out.Normals); diff != "" {
		t.Errorf("identity transform changed normals (-want +got):\n%s", diff)
	}
}
