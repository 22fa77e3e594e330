// Package rgbdio declares the external collaborator interfaces the
// pipeline driver consumes: an RGB-D frame provider and an optional
// ground-truth trajectory provider (Section 6). Concrete dataset decoders
// (TUM, SLAMTB, indoor-lidar, ...) are out of scope; this package only
// fixes the contract a decoder must satisfy.
package rgbdio

import (
	"github.com/otaviog/align3d-go/camera"
	"github.com/otaviog/align3d-go/rangeimage"
	"github.com/otaviog/align3d-go/spatialmath"
	"github.com/otaviog/align3d-go/trajectory"
)

// Frame is one dataset sample: intrinsics, a color+depth pair, the
// meters-per-depth-unit scale, and an optional pose hint (e.g. from IMU
// or a previous SLAM run) a caller may seed ICP with.
type Frame struct {
	Intrinsics camera.Pinhole
	Image      rangeimage.RGBDImage
	PoseHint   *spatialmath.Transform
}

// Dataset is an indexable, length-known sequence of RGB-D frames,
// satisfied by a decoder for a specific on-disk format.
type Dataset interface {
	Len() int
	Get(index int) (Frame, error)
}

// GroundTruthProvider optionally exposes the trajectory a dataset was
// captured along, for scoring a predicted trajectory against it.
type GroundTruthProvider interface {
	Trajectory() (trajectory.Trajectory, bool)
}

// SubsetDataset restricts a Dataset to an ordered subset of its frame
// indices, remapping ground truth (if present) to match.
type SubsetDataset struct {
	dataset Dataset
	indices []int
}

// NewSubsetDataset builds a SubsetDataset over dataset restricted to
// indices, in the given order.
func NewSubsetDataset(dataset Dataset, indices []int) *SubsetDataset {
	return &SubsetDataset{dataset: dataset, indices: indices}
}

// Len returns the number of indices in the subset.
func (s *SubsetDataset) Len() int { return len(s.indices) }

// Get returns the underlying dataset's frame at s.indices[index].
func (s *SubsetDataset) Get(index int) (Frame, error) {
	return s.dataset.Get(s.indices[index])
}

// Trajectory remaps the underlying ground-truth trajectory (if the
// wrapped dataset provides one) onto the subset's index order.
func (s *SubsetDataset) Trajectory() (trajectory.Trajectory, bool) {
	provider, ok := s.dataset.(GroundTruthProvider)
	if !ok {
		return trajectory.Trajectory{}, false
	}
	full, ok := provider.Trajectory()
	if !ok {
		return trajectory.Trajectory{}, false
	}
	entries := make([]trajectory.Entry, len(s.indices))
	for i, idx := range s.indices {
		e := full.At(idx)
		entries[i] = trajectory.Entry{Pose: e.Pose, Time: float64(i)}
	}
	return trajectory.New(entries), true
}
