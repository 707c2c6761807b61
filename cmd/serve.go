package cmd

import (
	"context"
	"time"

	"github.com/df07/go-gpu-pathtracer/pkg/log"
	"github.com/df07/go-gpu-pathtracer/pkg/session"
	"github.com/df07/go-gpu-pathtracer/web/server"
	"github.com/urfave/cli"
)

// Serve exposes a GPU session over the web API
func Serve(ctx *cli.Context) error {
	setupLogging(ctx)

	settings, err := settingsFromContext(ctx)
	if err != nil {
		return err
	}

	exec, err := newExecutor(settings)
	if err != nil {
		return err
	}
	defer exec.Release()

	console := server.NewConsole()
	sess, err := session.New(exec, settings, console.Logger(log.New("session")))
	if err != nil {
		return err
	}
	if model := ctx.String("model"); model != "" {
		if err := loadModel(context.Background(), sess, model); err != nil {
			return err
		}
	}

	// Background accumulation; render streams submit their own frames as well
	if fps := ctx.Int("fps"); fps > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		runCtx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			if err := sess.Run(runCtx, ticker.C); err != nil && err != context.Canceled {
				logger.Errorf("render loop stopped: %v", err)
			}
		}()
	}

	srv := server.NewServer(ctx.Int("port"), ctx.String("static"), sess, console, log.New("web"))
	return srv.Start()
}
