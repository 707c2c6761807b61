package renderer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// Executor runs one frame on the device.
// Submit must make the uniform bytes visible to the frame before submitting it.
type Executor interface {
	Submit(uniforms []byte) error
}

// UniformSource builds the uniform payload for a frame index
type UniformSource func(frame uint32) []byte

// Loop drives progressive rendering: each render takes the next frame index,
// builds the uniforms and submits them. Renders are serialized so no two
// submissions ever carry the same index.
type Loop struct {
	mu       sync.Mutex
	acc      *Accumulator
	executor Executor
	uniforms UniformSource
	stats    FrameStats
	logger   core.Logger
}

// NewLoop creates a loop that starts accumulating when progressive is set
func NewLoop(executor Executor, uniforms UniformSource, progressive bool, logger core.Logger) *Loop {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Loop{
		acc:      NewAccumulator(progressive),
		executor: executor,
		uniforms: uniforms,
		logger:   logger,
	}
}

// RenderOnce submits a single frame and reports whether another should be scheduled
func (l *Loop) RenderOnce() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.render()
}

func (l *Loop) render() (bool, error) {
	frame, scheduleNext := l.acc.Peek()

	start := time.Now()
	if err := l.executor.Submit(l.uniforms(frame)); err != nil {
		return false, fmt.Errorf("submit frame %d: %w", frame, err)
	}
	elapsed := time.Since(start)
	l.acc.Advance()

	l.stats.Record(elapsed)
	l.logger.Debugf("frame %d submitted in %v", frame, elapsed)

	return scheduleNext, nil
}

// Run renders one frame per tick while accumulating, until ctx is cancelled or ticks is closed
func (l *Loop) Run(ctx context.Context, ticks <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-ticks:
			if !ok {
				return nil
			}
			if l.State() != Accumulating {
				continue
			}
			if _, err := l.RenderOnce(); err != nil {
				return err
			}
		}
	}
}

// Invalidate restarts accumulation after a render-affecting change.
// When idle nothing else would pick the change up, so it renders once immediately.
func (l *Loop) Invalidate() error {
	return l.Swap(nil)
}

// Swap applies change and restarts accumulation without letting a frame in between,
// so no frame is submitted against the changed state with a stale index.
// If change fails the counter is left alone and nothing is rendered.
func (l *Loop) Swap(change func() error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if change != nil {
		if err := change(); err != nil {
			return err
		}
	}
	l.acc.Reset()
	if l.acc.State() == Accumulating {
		return nil
	}
	_, err := l.render()
	return err
}

// SetProgressive switches accumulation on or off, rendering once when it is turned on
func (l *Loop) SetProgressive(on bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.acc.SetProgressive(on) {
		return nil
	}
	_, err := l.render()
	return err
}

// Frame returns the index the next accumulating frame will carry
func (l *Loop) Frame() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acc.Frame()
}

// State returns the scheduling state
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.acc.State()
}

// Stats returns a snapshot of the submission timings
func (l *Loop) Stats() FrameStats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}
