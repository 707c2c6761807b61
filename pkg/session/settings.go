package session

import (
	"fmt"

	"github.com/df07/go-gpu-pathtracer/pkg/bsp"
	"github.com/df07/go-gpu-pathtracer/pkg/renderer"
	"github.com/df07/go-gpu-pathtracer/pkg/sampling"
)

const (
	MinTextureScaling = 1
	MaxTextureScaling = 10
)

// Settings configures a new session
type Settings struct {
	Width, Height int
	ModelDir      string // preset files are resolved against this directory
	TexturePath   string // background texture, empty for the built-in checkerboard
	MaxTexture    int    // largest texture edge uploaded; 0 keeps the source size
	Subdivision   int    // jitter level, pairs per pixel = Subdivision²
	Progressive   bool
	Seed          int64 // jitter seed, 0 seeds from the clock
	BSP           bsp.Config
	Display       renderer.Display
}

// DefaultSettings returns the settings a fresh session starts with
func DefaultSettings() Settings {
	return Settings{
		Width:       512,
		Height:      512,
		ModelDir:    ".",
		MaxTexture:  4096,
		Subdivision: 2,
		Progressive: true,
		BSP:         bsp.DefaultConfig(),
		Display:     renderer.DefaultDisplay(),
	}
}

// Validate reports settings a session cannot start with
func (s Settings) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid surface size %dx%d", s.Width, s.Height)
	}
	if s.Subdivision < sampling.MinLevel || s.Subdivision > sampling.MaxLevel {
		return fmt.Errorf("subdivision %d outside %d..%d", s.Subdivision, sampling.MinLevel, sampling.MaxLevel)
	}
	return nil
}
