package cmd

import (
	"bytes"
	"fmt"
	"math/rand"
	"time"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/sampling"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// ShowJitter prints the stratified sub-pixel offsets of one subdivision level
func ShowJitter(ctx *cli.Context) error {
	setupLogging(ctx)

	level := ctx.Int("level")
	height := ctx.Int("height")
	if height <= 0 {
		return fmt.Errorf("height must be positive, got %d", height)
	}
	seed := ctx.Int64("seed")
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	pixelSize := sampling.PixelSizeNDC(height)
	table := sampling.NewJitterTable()
	table.Compute(level, pixelSize, core.NewRandomSampler(rand.New(rand.NewSource(seed))))

	logger.Noticef("jitter level %d (%d samples, pixel size %g):\n%s",
		table.Level(), table.Count(), pixelSize, jitterTable(table, pixelSize))
	return nil
}

func jitterTable(table *sampling.JitterTable, pixelSize float32) string {
	var buf bytes.Buffer
	tw := tablewriter.NewWriter(&buf)
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)
	tw.SetHeader([]string{"#", "dx", "dy", "dx (px)", "dy (px)"})
	for i := 0; i < table.Count(); i++ {
		dx, dy := table.Offset(i)
		tw.Append([]string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%+.6f", dx),
			fmt.Sprintf("%+.6f", dy),
			fmt.Sprintf("%+.3f", dx/pixelSize),
			fmt.Sprintf("%+.3f", dy/pixelSize),
		})
	}
	tw.Render()
	return buf.String()
}
