// Package pointcloud implements the unordered point cloud representation
// plus point-cloud ICP (Component G) and the balanced KD-tree used for
// nearest-neighbor queries (Component F).
package pointcloud

import (
	"github.com/golang/geo/r3"

	"github.com/otaviog/align3d-go/rangeimage"
	"github.com/otaviog/align3d-go/spatialmath"
)

// Color is a packed 8-bit RGB triple.
type Color struct {
	R, G, B uint8
}

// PointCloud is a contiguous, unordered collection of 3D points with
// optional parallel normal and color arrays. It is typically materialized
// from a range image by compacting its mask-valid entries.
type PointCloud struct {
	Points  []r3.Vector
	Normals []r3.Vector // nil, or len(Normals) == len(Points)
	Colors  []Color     // nil, or len(Colors) == len(Points)
}

// New returns an empty point cloud.
func New() *PointCloud {
	return &PointCloud{}
}

// Len returns the number of points.
func (pc *PointCloud) Len() int { return len(pc.Points) }

// HasNormals reports whether per-point normals are present.
func (pc *PointCloud) HasNormals() bool { return pc.Normals != nil }

// HasColors reports whether per-point colors are present.
func (pc *PointCloud) HasColors() bool { return pc.Colors != nil }

// Transform returns a new point cloud with t applied to every point
// (rigidly) and every normal (rotation only).
func Transform(pc *PointCloud, t spatialmath.Transform) *PointCloud {
	out := &PointCloud{Points: make([]r3.Vector, pc.Len())}
	for i, p := range pc.Points {
		out.Points[i] = spatialmath.ApplyPoint(t, p)
	}
	if pc.Normals != nil {
		out.Normals = make([]r3.Vector, pc.Len())
		for i, n := range pc.Normals {
			out.Normals[i] = spatialmath.ApplyNormal(t, n)
		}
	}
	if pc.Colors != nil {
		out.Colors = append([]Color(nil), pc.Colors...)
	}
	return out
}

// FromRangeImage compacts ri's mask-valid pixels into an unordered point
// cloud, carrying normals along if ri has computed them. This is the
// range-image-to-point-cloud materialization the original's
// point_cloud_view performs by iterating (point, normal, mask) in lockstep
// and skipping mask-invalid entries, except this returns an owned,
// compacted copy rather than a lazy view over the range image's grids.
func FromRangeImage(ri *rangeimage.RangeImage) *PointCloud {
	pc := &PointCloud{
		Points: make([]r3.Vector, 0, ri.ValidPointsCount()),
	}
	if ri.Normals != nil {
		pc.Normals = make([]r3.Vector, 0, ri.ValidPointsCount())
	}
	if ri.Colors != nil {
		pc.Colors = make([]Color, 0, ri.ValidPointsCount())
	}

	for row := 0; row < ri.Height; row++ {
		for col := 0; col < ri.Width; col++ {
			idx := row*ri.Width + col
			if !ri.Mask[idx] {
				continue
			}
			pc.Points = append(pc.Points, ri.Points[idx])
			if pc.Normals != nil {
				pc.Normals = append(pc.Normals, ri.Normals[idx])
			}
			if pc.Colors != nil {
				pc.Colors = append(pc.Colors, Color{R: ri.Colors[idx*3+0], G: ri.Colors[idx*3+1], B: ri.Colors[idx*3+2]})
			}
		}
	}
	return pc
}
