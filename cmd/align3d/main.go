// Command align3d runs the multiscale image-ICP odometry pipeline over an
// RGB-D dataset, reporting the predicted trajectory's error against
// ground truth when one is available. Dataset decoding, point-cloud
// visualization, and general CLI-framework internals are external
// collaborators this command does not implement (Section 1 Non-goals);
// it wires urfave/cli only for its own flag surface.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/otaviog/align3d-go/bilateral"
	"github.com/otaviog/align3d-go/icp"
	"github.com/otaviog/align3d-go/rangeimage"
	"github.com/otaviog/align3d-go/rgbdio"
	"github.com/otaviog/align3d-go/trajectory"
)

// datasetFactory resolves a format name to a concrete rgbdio.Dataset.
// Registering real decoders (slamtb, ilrgbd, tum, ...) is out of scope;
// a caller embedding this command wires its own formats in here.
var datasetFactory func(format, path string) (rgbdio.Dataset, error)

func main() {
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync() //nolint:errcheck

	app := &cli.App{
		Name:  "align3d",
		Usage: "align an RGB-D dataset with multiscale image-ICP and report trajectory error",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-frames", Usage: "maximum number of frames to process"},
			&cli.BoolFlag{Name: "show", Usage: "render the predicted trajectory after alignment (not implemented)"},
		},
		ArgsUsage: "<format> <dataset-path>",
		Action:    runOdometry(logger),
	}

	if err := app.Run(os.Args); err != nil {
		logger.Errorw("align3d failed", "error", err)
		os.Exit(1)
	}
}

func runOdometry(logger *zap.SugaredLogger) cli.ActionFunc {
	return func(c *cli.Context) error {
		if c.Args().Len() < 2 {
			return cli.Exit("usage: align3d <format> <dataset-path>", 1)
		}
		format, path := c.Args().Get(0), c.Args().Get(1)

		if datasetFactory == nil {
			return cli.Exit(fmt.Sprintf("no dataset decoder registered for format %q; dataset decoding is an external collaborator of this pipeline", format), 1)
		}
		dataset, err := datasetFactory(format, path)
		if err != nil {
			return err
		}
		if maxFrames := c.Int("max-frames"); maxFrames > 0 && maxFrames < dataset.Len() {
			indices := make([]int, maxFrames)
			for i := range indices {
				indices[i] = i
			}
			dataset = rgbdio.NewSubsetDataset(dataset, indices)
		}

		predicted, err := runPipeline(dataset, logger)
		if err != nil {
			return err
		}

		if provider, ok := dataset.(rgbdio.GroundTruthProvider); ok {
			if gt, ok := provider.Trajectory(); ok {
				// predicted holds one entry per frame from frame 1 on, so the
				// ground truth's first frame is dropped to line the two up.
				gt, err = trajectory.Slice(trajectory.FirstFrameAtOrigin(gt), 1, gt.Len())
				if err != nil {
					return err
				}
				metrics, err := trajectory.MeanTrajectoryError(predicted, gt)
				if err != nil {
					return err
				}
				fmt.Printf("Mean trajectory error: angle=%.6f translation=%.6f\n", metrics.Angle, metrics.Translation)
			}
		}

		if c.Bool("show") {
			return errors.New("point-cloud visualization is not implemented by this command")
		}
		return nil
	}
}

func buildRangeImage(frame rgbdio.Frame) *rangeimage.RangeImage {
	depthImage := &bilateral.DepthImage{Width: frame.Image.Width, Height: frame.Image.Height, Data: frame.Image.Depth}
	filtered := bilateral.Filter(depthImage, bilateral.DefaultSigmaSpace, bilateral.DefaultSigmaColor)

	img := frame.Image
	img.Depth = filtered.Data

	ri := rangeimage.FromRGBDImage(frame.Intrinsics, &img)
	ri.ComputeNormals()
	ri.ComputeIntensity()
	return ri
}

func runPipeline(dataset rgbdio.Dataset, logger *zap.SugaredLogger) (trajectory.Trajectory, error) {
	if dataset.Len() == 0 {
		return trajectory.Trajectory{}, errors.New("dataset has no frames")
	}

	firstFrame, err := dataset.Get(0)
	if err != nil {
		return trajectory.Trajectory{}, err
	}
	lastPyramid := buildRangeImage(firstFrame).Pyramid(len(icp.DefaultMultiscaleParams()), rangeimage.DefaultPyramidSigma)

	builder := trajectory.NewBuilder()
	for i := 1; i < dataset.Len(); i++ {
		frame, err := dataset.Get(i)
		if err != nil {
			return trajectory.Trajectory{}, err
		}
		currentPyramid := buildRangeImage(frame).Pyramid(len(icp.DefaultMultiscaleParams()), rangeimage.DefaultPyramidSigma)

		aligner, err := icp.NewMultiscaleAlign(lastPyramid, icp.DefaultMultiscaleParams(), logger)
		if err != nil {
			return trajectory.Trajectory{}, err
		}
		relative, err := aligner.Align(currentPyramid)
		if err != nil {
			return trajectory.Trajectory{}, err
		}
		builder.Accumulate(relative, float64(i))

		lastPyramid = currentPyramid
	}

	return builder.Build(), nil
}
