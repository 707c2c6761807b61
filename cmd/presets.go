package cmd

import (
	"bytes"
	"fmt"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/session"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// ListPresets prints the preset table
func ListPresets(ctx *cli.Context) error {
	setupLogging(ctx)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Name", "File", "Eye", "At", "Camera constant", "Lens radius"})
	for _, p := range session.Presets() {
		file := p.File
		if p.Builtin() {
			file = "(built-in)"
		}
		table.Append([]string{
			p.Name,
			file,
			fmtVec(p.Camera.Eye),
			fmtVec(p.Camera.At),
			fmt.Sprintf("%g", p.Camera.CameraConstant),
			fmt.Sprintf("%g", p.Camera.LensRadius),
		})
	}
	table.Render()

	logger.Noticef("available presets\n%s", buf.String())
	return nil
}

func fmtVec(v core.Vec3) string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}
