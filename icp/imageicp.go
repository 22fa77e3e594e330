package icp

import (
	"errors"
	"math"
	"runtime"
	"sync"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/otaviog/align3d-go/optim"
	"github.com/otaviog/align3d-go/rangeimage"
	"github.com/otaviog/align3d-go/spatialmath"
)

// noopLogger is used whenever a caller passes a nil logger, so every call
// site in this package can log unconditionally.
var noopLogger = zap.NewNop().Sugar()

func sugar(logger *zap.SugaredLogger) *zap.SugaredLogger {
	if logger == nil {
		return noopLogger
	}
	return logger
}

// Align runs dense projective image-ICP: combined point-to-plane and
// photometric residuals on se(3), solved by Gauss-Newton, for
// params.MaxIterations outer iterations starting from initial. It returns
// the best transform seen (by accumulated squared residual), not
// necessarily the final iterate, so that a diverging late iteration never
// regresses the result.
func Align(target, source *rangeimage.RangeImage, params Params, initial spatialmath.Transform, logger *zap.SugaredLogger) spatialmath.Transform {
	log := sugar(logger)

	if target.Normals == nil {
		log.Debugw("image-icp: returning seed transform unchanged", "err", errNoTargetNormals)
		return initial
	}

	currentT := initial
	bestT := initial
	bestSumSq := math.Inf(1)
	haveBest := false

	colorEnabled := source.Luma != nil

	for iter := 0; iter < params.MaxIterations; iter++ {
		gnGeom, gnColor, err := accumulateResiduals(target, source, currentT, params, colorEnabled)
		if err != nil {
			log.Warnw("image-icp: worker error accumulating residuals", "err", err)
		}

		gnGeom.Weight(params.Weight)
		gnColor.Weight(params.ColorWeight)

		combined := optim.New()
		combined.Add(gnGeom)
		combined.Add(gnColor)

		sumSq := combined.SumSq()
		if sumSq < bestSumSq {
			bestSumSq = sumSq
			bestT = currentT
			haveBest = true
		}

		xi, err := combined.Solve()
		if err != nil {
			log.Debugw("image-icp: no solution at iteration, keeping previous estimate", "iteration", iter)
			continue
		}
		currentT = spatialmath.Compose(spatialmath.ExpSE3(xi), currentT)
	}

	if !haveBest {
		return initial
	}
	return bestT
}

// accumulateResiduals splits the source image's rows across
// runtime.GOMAXPROCS(0) workers, each owning its own Gauss-Newton
// accumulators for the geometric and (if enabled) photometric residuals;
// the per-worker accumulators are reduced via Add once every worker
// completes, matching the data-parallel-within-a-frame concurrency model.
func accumulateResiduals(target, source *rangeimage.RangeImage, t spatialmath.Transform, params Params, colorEnabled bool) (*optim.GaussNewton, *optim.GaussNewton, error) {
	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > source.Height {
		numWorkers = source.Height
	}
	if numWorkers < 1 {
		numWorkers = 1
	}

	type partial struct {
		geom, color *optim.GaussNewton
		err         error
	}

	results := make([]partial, numWorkers)
	var wg sync.WaitGroup
	rowsPerWorker := (source.Height + numWorkers - 1) / numWorkers

	for w := 0; w < numWorkers; w++ {
		startRow := w * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > source.Height {
			endRow = source.Height
		}
		if startRow >= endRow {
			results[w] = partial{geom: optim.New(), color: optim.New()}
			continue
		}

		wg.Add(1)
		go func(w, startRow, endRow int) {
			defer wg.Done()
			geom, color := optim.New(), optim.New()
			rowResiduals(target, source, t, params, colorEnabled, startRow, endRow, geom, color)
			results[w] = partial{geom: geom, color: color}
		}(w, startRow, endRow)
	}
	wg.Wait()

	totalGeom, totalColor := optim.New(), optim.New()
	var combinedErr error
	for _, r := range results {
		totalGeom.Add(r.geom)
		totalColor.Add(r.color)
		combinedErr = multierr.Append(combinedErr, r.err)
	}
	return totalGeom, totalColor, combinedErr
}

func rowResiduals(target, source *rangeimage.RangeImage, t spatialmath.Transform, params Params, colorEnabled bool, startRow, endRow int, geom, color *optim.GaussNewton) {
	for row := startRow; row < endRow; row++ {
		for col := 0; col < source.Width; col++ {
			idx := row*source.Width + col
			if !source.Mask[idx] {
				continue
			}
			ps := source.Points[idx]
			ns := source.Normals[idx]

			p := spatialmath.ApplyPoint(t, ps)
			n := spatialmath.ApplyNormal(t, ns)

			u, v := target.Camera.Project(p)
			if !target.Camera.InBounds(u, v) {
				continue
			}
			iu, iv := int(u), int(v)
			tIdx := iv*target.Width + iu
			if !target.Mask[tIdx] {
				continue
			}

			pt := target.Points[tIdx]
			nt := target.Normals[tIdx]

			if p.Sub(pt).Norm() > params.MaxDistance {
				continue
			}
			if angleBetween(n, nt) > params.MaxNormalAngle {
				continue
			}

			rGeo := pt.Sub(p).Dot(nt)
			twist := p.Cross(nt)
			geom.Step(rGeo, [6]float64{nt.X, nt.Y, nt.Z, twist.X, twist.Y, twist.Z})

			if !colorEnabled {
				continue
			}
			iMap := target.IntensityMap()
			iSrc := float64(source.Luma[idx]) / 255.0
			iTgt, dIdu, dIdv := iMap.BilinearGrad(u, v)
			rCol := iSrc - iTgt
			if math.Abs(rCol) > params.MaxColorDistance {
				continue
			}

			_, _, proj := target.Camera.ProjectGrad(p)
			// chain rule: dI/dp = dI/du * du/dp + dI/dv * dv/dp
			grad := r3.Vector{
				X: dIdu*proj[0] + dIdv*proj[3],
				Y: dIdu*proj[1] + dIdv*proj[4],
				Z: dIdu*proj[2] + dIdv*proj[5],
			}
			colorTwist := p.Cross(grad)
			color.Step(rCol, [6]float64{grad.X, grad.Y, grad.Z, colorTwist.X, colorTwist.Y, colorTwist.Z})
		}
	}
}

func angleBetween(a, b r3.Vector) float64 {
	if a.Norm() < 1e-12 || b.Norm() < 1e-12 {
		return math.Pi
	}
	cos := a.Dot(b) / (a.Norm() * b.Norm())
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos)
}

var errNoTargetNormals = errors.New("icp: target range image has no normals")
