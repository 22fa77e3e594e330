package icp

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/otaviog/align3d-go/align3derr"
	"github.com/otaviog/align3d-go/rangeimage"
	"github.com/otaviog/align3d-go/spatialmath"
)

// MultiscaleAlign runs image-ICP coarse-to-fine over a target/source
// range-image pyramid pair. The target pyramid and params must have equal
// length, checked once at construction (Section 4.I).
type MultiscaleAlign struct {
	targetPyramid []*rangeimage.RangeImage
	params        MultiscaleParams
	logger        *zap.SugaredLogger
}

// NewMultiscaleAlign validates that targetPyramid and params have equal
// length and returns a driver ready to align source pyramids against it.
func NewMultiscaleAlign(targetPyramid []*rangeimage.RangeImage, params MultiscaleParams, logger *zap.SugaredLogger) (*MultiscaleAlign, error) {
	if len(targetPyramid) != len(params) {
		return nil, fmt.Errorf("%w: target pyramid has %d levels but params has %d",
			align3derr.ErrInvalidParameter, len(targetPyramid), len(params))
	}
	return &MultiscaleAlign{targetPyramid: targetPyramid, params: params, logger: logger}, nil
}

// Align aligns sourcePyramid (same length as the target pyramid) against
// the target pyramid, running from the coarsest level (highest index)
// down to the finest (index 0), seeding each level with the previous
// level's result and returning the finest level's transform.
func (m *MultiscaleAlign) Align(sourcePyramid []*rangeimage.RangeImage) (spatialmath.Transform, error) {
	return m.AlignFrom(sourcePyramid, spatialmath.Identity())
}

// AlignFrom behaves like Align but seeds the coarsest level with seed
// instead of the identity transform, for callers with a motion prior.
func (m *MultiscaleAlign) AlignFrom(sourcePyramid []*rangeimage.RangeImage, seed spatialmath.Transform) (spatialmath.Transform, error) {
	if len(sourcePyramid) != len(m.targetPyramid) {
		return spatialmath.Identity(), fmt.Errorf("%w: source pyramid has %d levels but target has %d",
			align3derr.ErrInvalidParameter, len(sourcePyramid), len(m.targetPyramid))
	}

	log := sugar(m.logger)
	current := seed
	for level := len(m.targetPyramid) - 1; level >= 0; level-- {
		log.Debugw("multiscale icp: aligning level", "level", level)
		current = Align(m.targetPyramid[level], sourcePyramid[level], m.params[level], current, m.logger)
	}
	return current, nil
}
