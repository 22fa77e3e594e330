package trajectory

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/otaviog/align3d-go/align3derr"
	"github.com/otaviog/align3d-go/spatialmath"
)

// TransformMetrics is the angular and translational disagreement between
// two transforms of the same frame.
type TransformMetrics struct {
	Angle       float64 // radians
	Translation float64 // meters
}

// NewTransformMetrics computes the error transform lhs⁻¹ · rhs and
// returns its rotation angle and translation norm.
func NewTransformMetrics(lhs, rhs spatialmath.Transform) TransformMetrics {
	diff := spatialmath.Compose(spatialmath.Inverse(lhs), rhs)
	return TransformMetrics{
		Angle:       spatialmath.Angle(diff),
		Translation: translationNorm(diff),
	}
}

// Total returns Angle + Translation, matching the original's combined
// scalar score.
func (m TransformMetrics) Total() float64 { return m.Angle + m.Translation }

func translationNorm(t spatialmath.Transform) float64 {
	tr := spatialmath.Translation(t)
	return math.Sqrt(tr.X*tr.X + tr.Y*tr.Y + tr.Z*tr.Z)
}

// MeanTrajectoryError sums the per-frame TransformMetrics between pred and
// gt (equal length required), matching the original
// TransformMetrics::mean_trajectory_error, which despite its name returns
// a sum rather than a mean.
func MeanTrajectoryError(pred, gt Trajectory) (TransformMetrics, error) {
	if pred.Len() != gt.Len() {
		return TransformMetrics{}, fmt.Errorf("%w: predicted and ground-truth trajectories have different lengths (%d vs %d)",
			align3derr.ErrInvalidParameter, pred.Len(), gt.Len())
	}
	var accum TransformMetrics
	for i := 0; i < pred.Len(); i++ {
		m := NewTransformMetrics(pred.At(i).Pose, gt.At(i).Pose)
		accum.Angle += m.Angle
		accum.Translation += m.Translation
	}
	return accum, nil
}

// ErrorSeries is a supplemented aggregate over the whole per-frame error
// series (the original only summed): mean and population standard
// deviation of the angular and translational error independently.
type ErrorSeries struct {
	MeanAngle, StdDevAngle             float64
	MeanTranslation, StdDevTranslation float64
}

// TrajectoryErrorSeries computes per-frame TransformMetrics between pred
// and gt and summarizes the angular and translational error series with
// population mean/standard-deviation, using the stats package rather than
// hand-rolled accumulation.
func TrajectoryErrorSeries(pred, gt Trajectory) (ErrorSeries, error) {
	if pred.Len() != gt.Len() {
		return ErrorSeries{}, fmt.Errorf("%w: predicted and ground-truth trajectories have different lengths (%d vs %d)",
			align3derr.ErrInvalidParameter, pred.Len(), gt.Len())
	}
	angles := make(stats.Float64Data, pred.Len())
	translations := make(stats.Float64Data, pred.Len())
	for i := 0; i < pred.Len(); i++ {
		m := NewTransformMetrics(pred.At(i).Pose, gt.At(i).Pose)
		angles[i] = m.Angle
		translations[i] = m.Translation
	}

	meanAngle, _ := angles.Mean()
	stdAngle, _ := angles.StandardDeviation()
	meanTrans, _ := translations.Mean()
	stdTrans, _ := translations.StandardDeviation()

	return ErrorSeries{
		MeanAngle:         meanAngle,
		StdDevAngle:       stdAngle,
		MeanTranslation:   meanTrans,
		StdDevTranslation: stdTrans,
	}, nil
}
