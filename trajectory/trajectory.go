// Package trajectory implements the ordered pose sequence produced by
// accumulating frame-to-frame alignments (Component J) and the metrics
// used to score a predicted trajectory against ground truth (Component N).
package trajectory

import (
	"fmt"

	"github.com/otaviog/align3d-go/align3derr"
	"github.com/otaviog/align3d-go/spatialmath"
)

// Entry is one trajectory sample: a camera-to-world pose and its capture
// time.
type Entry struct {
	Pose spatialmath.Transform
	Time float64
}

// Trajectory is a 0-indexed, contiguous, time-monotonic sequence of poses.
type Trajectory struct {
	entries []Entry
}

// New wraps entries as a Trajectory, trusting the caller to have produced
// them in monotonic time order (as Builder always does).
func New(entries []Entry) Trajectory {
	return Trajectory{entries: entries}
}

// Len returns the number of entries.
func (t Trajectory) Len() int { return len(t.entries) }

// At returns the i-th entry.
func (t Trajectory) At(i int) Entry { return t.entries[i] }

// GetRelative returns T_j⁻¹ · T_i, the transform from frame i's camera
// frame into frame j's camera frame.
func (t Trajectory) GetRelative(i, j int) spatialmath.Transform {
	ti := t.entries[i].Pose
	tj := t.entries[j].Pose
	return spatialmath.Compose(spatialmath.Inverse(tj), ti)
}

// FirstFrameAtOrigin returns a new trajectory where every pose is
// traj[0]⁻¹ · traj[i], re-origining the whole trajectory at its first
// frame.
func FirstFrameAtOrigin(t Trajectory) Trajectory {
	if t.Len() == 0 {
		return t
	}
	origin := spatialmath.Inverse(t.entries[0].Pose)
	out := make([]Entry, t.Len())
	for i, e := range t.entries {
		out[i] = Entry{Pose: spatialmath.Compose(origin, e.Pose), Time: e.Time}
	}
	return New(out)
}

// Slice returns the half-open sub-trajectory [start, end), supplementing
// the distilled spec with a windowing operation useful when comparing a
// predicted trajectory against a ground truth that only covers part of
// it.
func Slice(t Trajectory, start, end int) (Trajectory, error) {
	if start < 0 || end > t.Len() || start > end {
		return Trajectory{}, fmt.Errorf("%w: invalid slice [%d, %d) of trajectory with %d entries",
			align3derr.ErrInvalidParameter, start, end, t.Len())
	}
	out := make([]Entry, end-start)
	copy(out, t.entries[start:end])
	return New(out), nil
}
