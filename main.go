package main

import (
	"os"

	"github.com/df07/go-gpu-pathtracer/cmd"
	"github.com/urfave/cli"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "go-gpu-pathtracer"
	app.Usage = "compile triangle meshes for the GPU and render them progressively"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "compile",
			Usage: "build and pack the BSP tree of a preset or model file",
			Description: `
Load a preset or a wavefront obj / ply file, build a BSP tree over its triangles
and pack mesh, materials, lights and tree into the buffers the GPU executor binds.

Tree and buffer statistics are printed for every argument. With --dump the packed
buffers are also written to disk, one file per bind slot.`,
			ArgsUsage: "preset_or_file1 preset_or_file2 ...",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "dump, d",
					Usage: "write the packed buffers below this directory",
				},
				cli.BoolFlag{
					Name:  "validate",
					Usage: "check the BSP tree invariants after building it",
				},
			}, cmd.SessionFlags...),
			Action: cmd.CompileScene,
		},
		{
			Name:      "render",
			Usage:     "render a preset or model file on the GPU",
			ArgsUsage: "preset_or_file",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "frames, n",
					Value: 64,
					Usage: "number of frames to accumulate",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			}, cmd.SessionFlags...),
			Action: cmd.RenderFrames,
		},
		{
			Name:  "jitter",
			Usage: "print the stratified jitter table of a subdivision level",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "level, l",
					Value: 2,
					Usage: "subdivision level",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 512,
					Usage: "frame height the offsets are scaled to",
				},
				cli.Int64Flag{
					Name:  "seed",
					Usage: "random seed, 0 seeds from the clock",
				},
			},
			Action: cmd.ShowJitter,
		},
		{
			Name:      "shader",
			Usage:     "validate a WGSL shader against the bind group contract",
			ArgsUsage: "[shader.wgsl]",
			Action:    cmd.CheckShader,
		},
		{
			Name:   "presets",
			Usage:  "list model presets",
			Action: cmd.ListPresets,
		},
		{
			Name:  "serve",
			Usage: "serve a GPU session over the web API",
			Flags: append([]cli.Flag{
				cli.IntFlag{
					Name:  "port, p",
					Value: 8080,
					Usage: "port to serve on",
				},
				cli.StringFlag{
					Name:  "static",
					Usage: "directory of static files served at /",
				},
				cli.StringFlag{
					Name:  "model, m",
					Value: "cornell",
					Usage: "preset or model file loaded at startup",
				},
				cli.IntFlag{
					Name:  "fps",
					Usage: "accumulate in the background at this rate, 0 renders only for clients",
				},
			}, cmd.SessionFlags...),
			Action: cmd.Serve,
		},
	}

	return app
}
