package session

import (
	"fmt"

	"github.com/df07/go-gpu-pathtracer/pkg/renderer"
	"github.com/df07/go-gpu-pathtracer/pkg/sampling"
)

// State is a snapshot of what the next frame will be rendered with
type State struct {
	Model          string          `json:"model"`
	Triangles      int             `json:"triangles"`
	Lights         int             `json:"lights"`
	Nodes          int             `json:"nodes"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	Camera         renderer.Camera `json:"camera"`
	Gamma          float32         `json:"gamma"`
	Wrap           bool            `json:"wrap"`
	Filter         bool            `json:"filter"`
	UseTexture     bool            `json:"useTexture"`
	TextureScaling float32         `json:"textureScaling"`
	BlueBackground bool            `json:"blueBackground"`
	ShadingMode    string          `json:"shadingMode"`
	Subdivision    int             `json:"subdivision"`
	JitterCount    int             `json:"jitterCount"`
	Frame          uint32          `json:"frame"`
	Progressive    bool            `json:"progressive"`
}

// State returns a snapshot of the session
func (s *Session) State() State {
	s.mu.Lock()
	st := State{
		Width:          s.settings.Width,
		Height:         s.settings.Height,
		Camera:         s.camera,
		Gamma:          s.display.Gamma,
		Wrap:           s.display.Wrap,
		Filter:         s.display.Filter,
		UseTexture:     s.display.UseTexture,
		TextureScaling: s.display.TextureScaling,
		BlueBackground: s.display.BlueBackground,
		ShadingMode:    s.display.ShadingMode.String(),
		Subdivision:    s.jitter.Level(),
		JitterCount:    s.jitter.Count(),
	}
	s.mu.Unlock()

	if scene := s.scene.Load(); scene != nil {
		st.Model = scene.Name
		st.Triangles = scene.Mesh.TriangleCount()
		st.Lights = len(scene.Mesh.LightIndices)
		st.Nodes = len(scene.Tree.Nodes)
	}
	st.Frame = s.loop.Frame()
	st.Progressive = s.loop.State() == renderer.Accumulating
	return st
}

// Camera returns the current camera
func (s *Session) Camera() renderer.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.camera
}

// SetCamera replaces the camera
func (s *Session) SetCamera(c renderer.Camera) error {
	return s.update(func() { s.camera = c })
}

// Zoom scales the camera constant by a wheel delta
func (s *Session) Zoom(deltaY float32) error {
	return s.update(func() { s.camera.Zoom(deltaY) })
}

// SetFocusDistance moves the plane in focus
func (s *Session) SetFocusDistance(d float32) error {
	if d <= 0 {
		return fmt.Errorf("focus distance must be positive, got %v", d)
	}
	return s.update(func() { s.camera.FocusDistance = d })
}

// SetLensRadius sets the aperture; 0 is a pinhole
func (s *Session) SetLensRadius(r float32) error {
	if r < 0 {
		return fmt.Errorf("lens radius must not be negative, got %v", r)
	}
	return s.update(func() { s.camera.LensRadius = r })
}

// SetGamma sets the display gamma
func (s *Session) SetGamma(gamma float32) error {
	if gamma <= 0 {
		return fmt.Errorf("gamma must be positive, got %v", gamma)
	}
	return s.update(func() { s.display.Gamma = gamma })
}

func (s *Session) SetWrap(repeat bool) error {
	return s.update(func() { s.display.Wrap = repeat })
}

func (s *Session) SetFilter(linear bool) error {
	return s.update(func() { s.display.Filter = linear })
}

func (s *Session) SetUseTexture(on bool) error {
	return s.update(func() { s.display.UseTexture = on })
}

func (s *Session) SetBlueBackground(on bool) error {
	return s.update(func() { s.display.BlueBackground = on })
}

func (s *Session) SetShadingMode(mode renderer.ShadingMode) error {
	return s.update(func() { s.display.ShadingMode = mode })
}

// SetTextureScaling sets the background repeat count, clamped to 1..10
func (s *Session) SetTextureScaling(level int) error {
	level = min(max(level, MinTextureScaling), MaxTextureScaling)
	return s.update(func() { s.display.TextureScaling = float32(level) })
}

// StepTextureScaling moves the texture scaling up or down by delta
func (s *Session) StepTextureScaling(delta int) error {
	s.mu.Lock()
	level := int(s.display.TextureScaling) + delta
	s.mu.Unlock()
	return s.SetTextureScaling(level)
}

// SetSubdivision recomputes the jitter table at level (clamped to 1..10) and uploads it
func (s *Session) SetSubdivision(level int) error {
	var count int
	err := s.loop.Swap(func() error {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.jitter.Compute(level, sampling.PixelSizeNDC(s.settings.Height), s.sampler)
		if err := s.executor.WriteJitter(s.jitter.Bytes()); err != nil {
			return fmt.Errorf("upload jitter: %w", err)
		}
		count = s.jitter.Count()
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Infof("subdivision %d: %d samples per pixel", sampling.ClampLevel(level), count)
	return nil
}

// StepSubdivision moves the subdivision level up or down by delta
func (s *Session) StepSubdivision(delta int) error {
	s.mu.Lock()
	level := s.jitter.Level() + delta
	s.mu.Unlock()
	return s.SetSubdivision(level)
}

// Jitter returns a copy of the meaningful jitter offsets
func (s *Session) Jitter() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	offsets := s.jitter.Offsets()
	return append([]float32(nil), offsets...)
}
