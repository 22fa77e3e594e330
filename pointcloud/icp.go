package pointcloud

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"github.com/otaviog/align3d-go/align3derr"
	"github.com/otaviog/align3d-go/optim"
	"github.com/otaviog/align3d-go/spatialmath"
)

// Params configures point-cloud ICP: a standard point-to-plane
// Iterative Closest Point that associates each transformed source point
// with its nearest neighbor in the target via a KD-tree, gates the
// correspondence by distance and normal agreement, and solves one
// Gauss-Newton step per outer iteration (grounded on
// original_source/src/icp/icp_params.rs's IcpParams, restricted to the
// geometric fields pcl_icp.rs actually reads).
type Params struct {
	MaxIterations  int
	Weight         float64
	MaxDistance    float64
	MaxNormalAngle float64
}

// DefaultParams returns the reference defaults: 15 iterations, unit
// geometric weight, a 0.5 m correspondence gate, and an 18-degree normal
// gate.
func DefaultParams() Params {
	return Params{
		MaxIterations:  15,
		Weight:         1.0,
		MaxDistance:    0.5,
		MaxNormalAngle: 18.0 * math.Pi / 180.0,
	}
}

// ICP aligns source point clouds against a fixed target, reusing one
// KD-tree built over the target's points across every Align call.
type ICP struct {
	params Params
	target *PointCloud
	kdtree *KDTree
}

// NewICP builds a point-cloud ICP driver against target, which must carry
// normals (point-to-plane residuals read the target's normal at the
// associated point).
func NewICP(params Params, target *PointCloud) (*ICP, error) {
	if !target.HasNormals() {
		return nil, fmt.Errorf("%w: point-cloud ICP target has no normals", align3derr.ErrAssertion)
	}
	return &ICP{
		params: params,
		target: target,
		kdtree: NewKDTree(target.Points),
	}, nil
}

// Align aligns source onto the target point cloud, starting from the
// identity transform and running params.MaxIterations outer iterations.
// Each iteration re-associates every source point with its nearest target
// neighbor at the current estimate, gates the correspondence by distance
// and normal angle, accumulates a point-to-plane Gauss-Newton step, and
// updates the estimate by its solution. The transform returned is whichever
// iterate had the lowest mean-squared residual, matching pcl_icp.rs's
// best-transform bookkeeping (the residual is measured against the
// pre-update estimate, but the transform retained is the post-update one,
// exactly as the original computes it).
func (icp *ICP) Align(source *PointCloud) (spatialmath.Transform, error) {
	if !source.HasNormals() {
		return spatialmath.Identity(), fmt.Errorf("%w: point-cloud ICP source has no normals", align3derr.ErrAssertion)
	}

	maxDistSq := icp.params.MaxDistance * icp.params.MaxDistance

	current := spatialmath.Identity()
	best := current
	bestResidual := math.Inf(1)
	haveBest := false

	for iter := 0; iter < icp.params.MaxIterations; iter++ {
		gn := optim.New()

		for i, sp := range source.Points {
			sn := source.Normals[i]

			p := spatialmath.ApplyPoint(current, sp)
			n := spatialmath.ApplyNormal(current, sn)

			_, targetIdx, distSq, found := icp.kdtree.NearestNeighbor(p)
			if !found || distSq > maxDistSq {
				continue
			}

			targetNormal := icp.target.Normals[targetIdx]
			if angleBetween(n, targetNormal) > icp.params.MaxNormalAngle {
				continue
			}
			targetPoint := icp.target.Points[targetIdx]

			residual := targetPoint.Sub(p).Dot(targetNormal)
			twist := p.Cross(targetNormal)
			gn.Step(residual, [6]float64{targetNormal.X, targetNormal.Y, targetNormal.Z, twist.X, twist.Y, twist.Z})
		}

		residual := gn.MeanSqResidual()
		gn.Weight(icp.params.Weight)

		if xi, err := gn.Solve(); err == nil {
			current = spatialmath.Compose(spatialmath.ExpSE3(xi), current)
		}

		if residual < bestResidual {
			bestResidual = residual
			best = current
			haveBest = true
		}
	}

	if !haveBest {
		return spatialmath.Identity(), nil
	}
	return best, nil
}

func angleBetween(a, b r3.Vector) float64 {
	if a.Norm() < 1e-12 || b.Norm() < 1e-12 {
		return math.Pi
	}
	cos := a.Dot(b) / (a.Norm() * b.Norm())
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}
