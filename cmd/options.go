package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/df07/go-gpu-pathtracer/pkg/renderer"
	"github.com/df07/go-gpu-pathtracer/pkg/session"
	"github.com/urfave/cli"
)

// BSPFlags tune the tree builder
var BSPFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "leaf-size",
		Value: 4,
		Usage: "subsets with this many triangles or fewer become leaves",
	},
	cli.IntFlag{
		Name:  "max-depth",
		Value: 20,
		Usage: "nodes at this depth become leaves regardless of size",
	},
}

// SessionFlags configure the surface, the model sources and the display
var SessionFlags = append([]cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Value: 512,
		Usage: "frame width",
	},
	cli.IntFlag{
		Name:  "height",
		Value: 512,
		Usage: "frame height",
	},
	cli.StringFlag{
		Name:  "model-dir",
		Value: ".",
		Usage: "directory preset model files are resolved against",
	},
	cli.StringFlag{
		Name:  "texture, t",
		Usage: "equirectangular background image (png, jpeg, bmp, tiff or webp)",
	},
	cli.IntFlag{
		Name:  "max-texture",
		Value: 4096,
		Usage: "largest background edge uploaded; larger images are downscaled",
	},
	cli.IntFlag{
		Name:  "subdivision, s",
		Value: 2,
		Usage: "jitter level; each pixel takes level² samples per frame",
	},
	cli.Int64Flag{
		Name:  "seed",
		Usage: "jitter seed, 0 seeds from the clock",
	},
	cli.Float64Flag{
		Name:  "gamma",
		Value: 1.4,
		Usage: "display gamma",
	},
	cli.StringFlag{
		Name:  "shading",
		Value: "base",
		Usage: "shading mode: base, mirror or diffuse",
	},
	cli.BoolFlag{
		Name:  "blue-background",
		Usage: "replace the background texture with a flat blue",
	},
}, BSPFlags...)

// settingsFromContext builds session settings from SessionFlags
func settingsFromContext(ctx *cli.Context) (session.Settings, error) {
	settings := session.DefaultSettings()
	settings.Width = ctx.Int("width")
	settings.Height = ctx.Int("height")
	settings.ModelDir = ctx.String("model-dir")
	settings.TexturePath = ctx.String("texture")
	settings.MaxTexture = ctx.Int("max-texture")
	settings.Subdivision = ctx.Int("subdivision")
	settings.Seed = ctx.Int64("seed")
	settings.BSP.LeafThreshold = ctx.Int("leaf-size")
	settings.BSP.MaxDepth = ctx.Int("max-depth")

	gamma := float32(ctx.Float64("gamma"))
	if gamma <= 0 {
		return settings, fmt.Errorf("gamma must be positive, got %v", gamma)
	}
	settings.Display.Gamma = gamma
	mode, err := renderer.ParseShadingMode(ctx.String("shading"))
	if err != nil {
		return settings, err
	}
	settings.Display.ShadingMode = mode
	settings.Display.BlueBackground = ctx.Bool("blue-background")

	return settings, settings.Validate()
}

// loadModel treats arg as a preset name first and as a model file otherwise
func loadModel(ctx context.Context, sess *session.Session, arg string) error {
	if _, err := session.LookupPreset(arg); err == nil {
		return sess.LoadPreset(ctx, arg)
	} else if !errors.Is(err, session.ErrUnknownPreset) {
		return err
	}
	return sess.LoadFile(ctx, arg)
}
