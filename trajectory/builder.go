package trajectory

import "github.com/otaviog/align3d-go/spatialmath"

// Builder accumulates frame-to-frame relative transforms into an absolute
// trajectory: T_cum ← T_rel · T_cum at every Accumulate call.
type Builder struct {
	cumulative spatialmath.Transform
	entries    []Entry
}

// NewBuilder returns a builder with an identity starting pose and no
// entries yet.
func NewBuilder() *Builder {
	return &Builder{cumulative: spatialmath.Identity()}
}

// Accumulate composes relative onto the running cumulative pose and
// appends the result at time t.
func (b *Builder) Accumulate(relative spatialmath.Transform, t float64) {
	b.cumulative = spatialmath.Compose(relative, b.cumulative)
	b.entries = append(b.entries, Entry{Pose: b.cumulative, Time: t})
}

// CurrentCameraToWorld returns the most recently accumulated pose, or
// identity if nothing has been accumulated yet.
func (b *Builder) CurrentCameraToWorld() spatialmath.Transform {
	return b.cumulative
}

// Build consumes the builder and returns the accumulated trajectory.
func (b *Builder) Build() Trajectory {
	return New(b.entries)
}
