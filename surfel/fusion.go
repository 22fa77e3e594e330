package surfel

import (
	"github.com/golang/geo/r3"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/otaviog/align3d-go/camera"
	"github.com/otaviog/align3d-go/rangeimage"
)

// noopLogger lets Fusion log unconditionally regardless of whether a
// caller supplied a logger, matching the nil-safe pattern icp.Align uses.
var noopLogger = zap.NewNop().Sugar()

func sugar(logger *zap.SugaredLogger) *zap.SugaredLogger {
	if logger == nil {
		return noopLogger
	}
	return logger
}

// FusionParams tunes when a stale surfel is evicted.
type FusionParams struct {
	ConfidenceRemoveThreshold float64
	AgeRemoveThreshold        int
}

// DefaultFusionParams matches the reference thresholds.
func DefaultFusionParams() FusionParams {
	return FusionParams{ConfidenceRemoveThreshold: 15.0, AgeRemoveThreshold: 10}
}

// Fusion integrates successive range images into a Pool via index-map
// data association: merge onto a nearby existing surfel, or add a new
// one, then evict surfels that have gone stale (Component M).
type Fusion struct {
	indexMap  *IndexMap
	timestamp int
	params    FusionParams
	logger    *zap.SugaredLogger
}

// NewFusion builds a fusion driver whose index map covers (mapWidth,
// mapHeight) at render scale mapScale (commonly 4). logger may be nil; it
// receives a Warn each time Integrate drops a candidate surfel because the
// pool is at capacity (Section 7's Capacity error, absorbed here rather
// than surfaced to the caller).
func NewFusion(mapWidth, mapHeight, mapScale int, params FusionParams, logger *zap.SugaredLogger) *Fusion {
	return &Fusion{
		indexMap: NewIndexMap(mapWidth, mapHeight, mapScale),
		params:   params,
		logger:   logger,
	}
}

// Timestamp returns the internal frame counter, incremented once per
// Integrate call.
func (f *Fusion) Timestamp() int { return f.timestamp }

const mergeDistanceThreshold = 0.1

// Integrate fuses ri (already in world/pool frame, i.e. projected through
// worldCam) into pool: it snapshots pool's live positions, renders the
// index map through worldCam, builds a candidate surfel per mask-valid
// pixel, merges it onto a sufficiently close existing surfel or adds it
// as new, then evicts surfels stale by both age and confidence. Returns
// the ids newly allocated by this call.
func (f *Fusion) Integrate(pool *Pool, ri *rangeimage.RangeImage, worldCam camera.Pinhole) ([]int, error) {
	ids := make([]int, 0, pool.LiveCount())
	positions := make([]r3.Vector, 0, pool.LiveCount())
	pool.IterLive(func(id int, s Surfel) {
		ids = append(ids, id)
		positions = append(positions, s.Position)
	})
	f.indexMap.RenderIndices(ids, positions, worldCam)

	builder := NewBuilder(worldCam)
	cmds := CommandList{}

	for row := 0; row < ri.Height; row++ {
		for col := 0; col < ri.Width; col++ {
			idx := row*ri.Width + col
			if !ri.Mask[idx] {
				continue
			}
			point := ri.Points[idx]
			normal := ri.Normals[idx]
			var color [3]uint8
			copy(color[:], ri.Colors[idx*3:idx*3+3])

			candidate := builder.Build(point, normal, color, float64(col), float64(row), f.timestamp)

			existingID, found := f.indexMap.Get(col, row)
			if !found {
				cmds.Adds = append(cmds.Adds, candidate)
				continue
			}
			existing, live := pool.Get(existingID)
			if !live {
				cmds.Adds = append(cmds.Adds, candidate)
				continue
			}
			if existing.Position.Sub(candidate.Position).Norm() < mergeDistanceThreshold {
				cmds.Updates = append(cmds.Updates, IDSurfel{ID: existingID, Surfel: Merge(existing, candidate, 0.5, 0.5)})
			} else {
				cmds.Adds = append(cmds.Adds, candidate)
			}
		}
	}

	var staleIDs []int
	pool.IterLive(func(id int, s Surfel) {
		if f.timestamp-s.Age > f.params.AgeRemoveThreshold && s.Confidence < f.params.ConfidenceRemoveThreshold {
			staleIDs = append(staleIDs, id)
		}
	})
	cmds.Frees = lo.Filter(staleIDs, func(id int, _ int) bool {
		return !containsAdd(cmds.Updates, id)
	})

	f.timestamp++
	addedIDs, dropped, err := pool.Apply(cmds)
	if dropped > 0 {
		sugar(f.logger).Warnw("surfel fusion: dropped candidate surfels, pool at capacity",
			"dropped", dropped, "capacity", pool.Capacity())
	}
	return addedIDs, err
}

func containsAdd(updates []IDSurfel, id int) bool {
	for _, u := range updates {
		if u.ID == id {
			return true
		}
	}
	return false
}
