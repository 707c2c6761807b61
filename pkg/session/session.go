// Package session owns the current scene and the parameters every frame is
// rendered with. Parameter changes restart accumulation; model switches
// rebuild and re-upload the whole scene before it becomes current.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math/rand"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/loaders"
	"github.com/df07/go-gpu-pathtracer/pkg/pack"
	"github.com/df07/go-gpu-pathtracer/pkg/renderer"
	"github.com/df07/go-gpu-pathtracer/pkg/sampling"
)

var (
	// ErrNoScene is returned when rendering before any model was loaded
	ErrNoScene = errors.New("no scene loaded")

	// ErrNoFrameReadback is returned when the executor cannot read frames back
	ErrNoFrameReadback = errors.New("executor does not support frame readback")
)

// Executor is the device side of a session
type Executor interface {
	renderer.Executor

	// Upload replaces every scene buffer and the background texture
	Upload(buffers *pack.Buffers, background *image.RGBA) error

	// WriteJitter replaces the jitter table contents
	WriteJitter(jitter []byte) error
}

// FrameReader is implemented by executors that can read the accumulated image back
type FrameReader interface {
	ReadFrame(ctx context.Context) (*image.RGBA, error)
}

// Session is a single viewer: one scene, one camera and one accumulation loop
type Session struct {
	settings Settings
	executor Executor
	logger   core.Logger
	loop     *renderer.Loop
	scene    atomic.Pointer[Scene]

	// loading allows one model switch at a time
	loading *semaphore.Weighted

	mu      sync.Mutex
	camera  renderer.Camera
	display renderer.Display
	jitter  *sampling.JitterTable
	sampler core.Sampler
}

// New creates a session and uploads its initial jitter table. No scene is loaded yet.
func New(executor Executor, settings Settings, logger core.Logger) (*Session, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = core.NopLogger{}
	}

	seed := settings.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Session{
		settings: settings,
		executor: executor,
		logger:   logger,
		loading:  semaphore.NewWeighted(1),
		camera:   renderer.DefaultCamera(),
		display:  settings.Display,
		jitter:   sampling.NewJitterTable(),
		sampler:  core.NewRandomSampler(rand.New(rand.NewSource(seed))),
	}
	s.loop = renderer.NewLoop(gatedExecutor{s}, s.uniforms, settings.Progressive, logger)

	s.jitter.Compute(settings.Subdivision, sampling.PixelSizeNDC(settings.Height), s.sampler)
	if err := executor.WriteJitter(s.jitter.Bytes()); err != nil {
		return nil, fmt.Errorf("upload jitter: %w", err)
	}
	return s, nil
}

// gatedExecutor drops submissions until a scene has been uploaded
type gatedExecutor struct {
	s *Session
}

func (g gatedExecutor) Submit(uniforms []byte) error {
	if g.s.scene.Load() == nil {
		return nil
	}
	return g.s.executor.Submit(uniforms)
}

func (s *Session) uniforms(frame uint32) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := renderer.Uniforms{
		Width:       s.settings.Width,
		Height:      s.settings.Height,
		Camera:      s.camera,
		Display:     s.display,
		JitterCount: s.jitter.Count(),
		Frame:       frame,
	}
	return u.Marshal()
}

// LoadPreset loads a preset model and moves the camera to the preset's viewpoint
func (s *Session) LoadPreset(ctx context.Context, name string) error {
	preset, err := LookupPreset(name)
	if err != nil {
		return err
	}

	path := filepath.Join(s.settings.ModelDir, preset.File)
	loadMesh := func() (*geometry.Mesh, error) {
		return loaders.LoadMesh(path)
	}
	if preset.builtin != nil {
		build := preset.builtin
		loadMesh = func() (*geometry.Mesh, error) {
			return build(), nil
		}
	}
	return s.load(ctx, preset.Name, loadMesh, &preset.Camera)
}

// LoadFile loads an OBJ or PLY model, keeping the current camera
func (s *Session) LoadFile(ctx context.Context, path string) error {
	return s.load(ctx, filepath.Base(path), func() (*geometry.Mesh, error) {
		return loaders.LoadMesh(path)
	}, nil)
}

// LoadMesh makes an in-memory mesh the current scene, keeping the current camera
func (s *Session) LoadMesh(ctx context.Context, name string, mesh *geometry.Mesh) error {
	return s.load(ctx, name, func() (*geometry.Mesh, error) {
		return mesh, nil
	}, nil)
}

// load reads the mesh and background concurrently, compiles them and uploads the
// result. The previous scene stays current if any step fails.
func (s *Session) load(ctx context.Context, name string, loadMesh func() (*geometry.Mesh, error), camera *renderer.Camera) error {
	if err := s.loading.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.loading.Release(1)

	start := time.Now()
	var mesh *geometry.Mesh
	var background *image.RGBA

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := loadMesh()
		if err != nil {
			return err
		}
		mesh = m
		return nil
	})
	g.Go(func() error {
		bg, err := s.loadBackground(gctx)
		if err != nil {
			return err
		}
		background = bg
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Errorf("failed to load %s: %v", name, err)
		return fmt.Errorf("load %s: %w", name, err)
	}

	scene, err := NewScene(name, mesh, background, s.settings.BSP)
	if err != nil {
		s.logger.Errorf("failed to compile %s: %v", name, err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	// Upload, swap and counter reset happen under the loop lock so no frame
	// reaches the new buffers with an index from the old scene.
	err = s.loop.Swap(func() error {
		if err := s.executor.Upload(scene.Buffers, scene.Background); err != nil {
			return fmt.Errorf("upload %s: %w", name, err)
		}
		s.scene.Store(scene)

		if camera != nil {
			s.mu.Lock()
			s.camera = *camera
			s.mu.Unlock()
		}
		return nil
	})
	if s.scene.Load() != scene {
		return err
	}

	stats := scene.Tree.Stats()
	s.logger.Noticef("loaded %s: %d triangles, %d lights, %d BSP nodes (depth %d), %d bytes in %v",
		name, scene.Mesh.TriangleCount(), len(scene.Mesh.LightIndices), stats.TotalNodes, stats.MaxDepth,
		scene.Buffers.TotalBytes(), time.Since(start))

	return err
}

func (s *Session) loadBackground(ctx context.Context) (*image.RGBA, error) {
	if s.settings.TexturePath == "" {
		return defaultBackground(), nil
	}
	img, err := loaders.LoadImage(s.settings.TexturePath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loaders.ToRGBA(img, s.settings.MaxTexture), nil
}

// Scene returns the current scene, nil before the first load
func (s *Session) Scene() *Scene {
	return s.scene.Load()
}

// Render submits one frame
func (s *Session) Render() error {
	if s.scene.Load() == nil {
		return ErrNoScene
	}
	_, err := s.loop.RenderOnce()
	return err
}

// Run renders one frame per tick while accumulating; see renderer.Loop.Run
func (s *Session) Run(ctx context.Context, ticks <-chan time.Time) error {
	return s.loop.Run(ctx, ticks)
}

// ReadFrame reads the accumulated image back from the executor
func (s *Session) ReadFrame(ctx context.Context) (*image.RGBA, error) {
	if s.scene.Load() == nil {
		return nil, ErrNoScene
	}
	reader, ok := s.executor.(FrameReader)
	if !ok {
		return nil, ErrNoFrameReadback
	}
	return reader.ReadFrame(ctx)
}

// update applies a render-affecting change and restarts accumulation
func (s *Session) update(change func()) error {
	return s.loop.Swap(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		change()
		return nil
	})
}

// SetProgressive turns accumulation on or off
func (s *Session) SetProgressive(on bool) error {
	return s.loop.SetProgressive(on)
}

// Frame returns the index the next frame will carry
func (s *Session) Frame() uint32 {
	return s.loop.Frame()
}

// Stats returns submission timings
func (s *Session) Stats() renderer.FrameStats {
	return s.loop.Stats()
}

// Settings returns the settings the session was created with
func (s *Session) Settings() Settings {
	return s.settings
}
