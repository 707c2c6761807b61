package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/df07/go-gpu-pathtracer/pkg/gpu"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// CheckShader validates the embedded WGSL, or the file given as argument,
// against the bind group contract and prints its bindings.
func CheckShader(ctx *cli.Context) error {
	setupLogging(ctx)

	source, name := gpu.ShaderSource(), "embedded pathtrace.wgsl"
	if ctx.NArg() > 0 {
		name = ctx.Args().First()
		data, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		source = string(data)
	}

	info, err := gpu.ValidateShader(source)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("%s: %v", name, err), 1)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Slot", "Variable", "Address space"})
	for _, b := range info.Bindings {
		table.Append([]string{fmt.Sprintf("%d", b.Slot), b.Name, b.Space})
	}
	table.SetFooter([]string{"", "workgroup", fmt.Sprintf("%dx%dx%d", info.Workgroup[0], info.Workgroup[1], info.Workgroup[2])})
	table.Render()

	logger.Noticef("%s matches the bind group contract\n%s", name, buf.String())
	return nil
}
