package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/df07/go-gpu-pathtracer/pkg/gpu"
	"github.com/df07/go-gpu-pathtracer/pkg/log"
	"github.com/df07/go-gpu-pathtracer/pkg/renderer"
	"github.com/df07/go-gpu-pathtracer/pkg/session"
	"github.com/urfave/cli"
)

var (
	_ session.Executor    = (*gpu.Executor)(nil)
	_ session.FrameReader = (*gpu.Executor)(nil)
)

// Exit codes
const (
	exitRenderFailed = 1
	exitNoGPU        = 2
)

// newExecutor opens the GPU executor, mapping a missing device to a CLI exit error
func newExecutor(settings session.Settings) (*gpu.Executor, error) {
	exec, err := gpu.New(settings.Width, settings.Height, log.New("gpu"))
	if errors.Is(err, gpu.ErrUnsupportedExecutor) {
		return nil, cli.NewExitError(err.Error(), exitNoGPU)
	}
	return exec, err
}

// RenderFrames accumulates a number of frames of a preset or model file on the GPU
// and writes the result as a PNG.
func RenderFrames(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing preset name or model file argument")
	}
	frames := ctx.Int("frames")
	if frames < 1 {
		return fmt.Errorf("frames must be at least 1, got %d", frames)
	}

	settings, err := settingsFromContext(ctx)
	if err != nil {
		return err
	}

	exec, err := newExecutor(settings)
	if err != nil {
		return err
	}
	defer exec.Release()

	sess, err := session.New(exec, settings, log.New("session"))
	if err != nil {
		return err
	}
	if err := loadModel(context.Background(), sess, ctx.Args().First()); err != nil {
		return err
	}

	logger.Noticef("rendering %d frames at %dx%d", frames, settings.Width, settings.Height)
	start := time.Now()
	for i := 0; i < frames; i++ {
		if err := sess.Render(); err != nil {
			return cli.NewExitError(err.Error(), exitRenderFailed)
		}
	}

	img, err := sess.ReadFrame(context.Background())
	if err != nil {
		return cli.NewExitError(err.Error(), exitRenderFailed)
	}
	logger.Noticef("rendered %d frames in %v", frames, time.Since(start))

	imgFile := ctx.String("out")
	f, err := os.Create(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", imgFile, err)
	}
	logger.Noticef("wrote %s (average luminance %.3f)", imgFile, renderer.AverageLuminance(img))

	displayFrameStats(sess.Stats())
	return nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	stats.WriteTable(&buf)
	logger.Noticef("frame statistics\n%s", buf.String())
}
