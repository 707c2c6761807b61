package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-gpu-pathtracer/pkg/session"
	"github.com/urfave/cli"
)

// CompileScene builds the BSP tree for each preset or model file argument,
// packs it into the executor buffers and reports their statistics.
func CompileScene(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errors.New("missing preset name or model file argument")
	}

	settings, err := settingsFromContext(ctx)
	if err != nil {
		return err
	}

	// Compiling needs no device; the recording executor only keeps what it is handed
	sess, err := session.New(&session.RecordingExecutor{}, settings, logger)
	if err != nil {
		return err
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		arg := ctx.Args().Get(idx)
		logger.Noticef("parsing and compiling scene: %s", arg)
		if err := loadModel(context.Background(), sess, arg); err != nil {
			return err
		}
		scene := sess.Scene()

		if ctx.Bool("validate") {
			if err := scene.Tree.Validate(scene.Mesh); err != nil {
				return err
			}
			logger.Noticef("%s: BSP tree is valid", scene.Name)
		}

		var buf bytes.Buffer
		scene.Tree.Stats().WriteTable(&buf)
		scene.Buffers.WriteStats(&buf)
		logger.Noticef("scene information:\n%s", buf.String())

		if dir := ctx.String("dump"); dir != "" {
			if err := dumpBuffers(filepath.Join(dir, sceneDirName(scene.Name)), scene); err != nil {
				return err
			}
		}
	}

	return nil
}

// dumpBuffers writes every packed slot to <dir>/<slot>_<name>.bin
func dumpBuffers(dir string, scene *session.Scene) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create dump directory: %w", err)
	}
	for _, slot := range scene.Buffers.Slots() {
		path := filepath.Join(dir, fmt.Sprintf("%02d_%s.bin", slot.Binding, slot.Name))
		if err := os.WriteFile(path, slot.Data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Infof("wrote %d bytes to %s", len(slot.Data), path)
	}
	return nil
}

func sceneDirName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
