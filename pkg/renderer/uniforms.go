package renderer

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

const (
	// UniformFloats is the number of float32 slots in the uniform payload
	UniformFloats = 32
	// UniformSize is the uniform payload size in bytes
	UniformSize = UniformFloats * 4
)

// Indices into the uniform payload
const (
	UniformAspect         = 0
	UniformCameraConstant = 1
	UniformWrap           = 2
	UniformFilter         = 3
	UniformEye            = 4 // 4..6
	UniformUseTexture     = 7
	UniformUp             = 8 // 8..10
	UniformTextureScaling = 11
	UniformAt             = 12 // 12..14
	UniformJitterCount    = 15
	UniformGamma          = 16
	UniformFrame          = 17
	UniformFocusDistance  = 18
	UniformLensRadius     = 19
	UniformBackground     = 20
	UniformShadingMode    = 21
	UniformWidth          = 22
	UniformHeight         = 23
)

// ShadingMode selects how the executor shades surfaces
type ShadingMode int

const (
	ShadingBase ShadingMode = iota
	ShadingMirror
	ShadingDiffuse
)

var shadingModeNames = []string{"base", "mirror", "diffuse"}

func (m ShadingMode) String() string {
	if m < 0 || int(m) >= len(shadingModeNames) {
		return fmt.Sprintf("ShadingMode(%d)", int(m))
	}
	return shadingModeNames[m]
}

// ParseShadingMode accepts a mode name as printed by String
func ParseShadingMode(name string) (ShadingMode, error) {
	for i, n := range shadingModeNames {
		if strings.EqualFold(n, name) {
			return ShadingMode(i), nil
		}
	}
	return ShadingBase, fmt.Errorf("unknown shading mode %q (want one of %s)", name, strings.Join(shadingModeNames, ", "))
}

// Display holds the toggles that change how a frame is shaded but not the scene
type Display struct {
	Gamma          float32
	Wrap           bool // repeat instead of clamp when sampling the background
	Filter         bool // bilinear instead of nearest
	UseTexture     bool
	TextureScaling float32
	BlueBackground bool
	ShadingMode    ShadingMode
}

// DefaultDisplay returns the display toggles a fresh session starts with
func DefaultDisplay() Display {
	return Display{
		Gamma:          1.4,
		UseTexture:     true,
		TextureScaling: 1,
		ShadingMode:    ShadingBase,
	}
}

// Uniforms is everything the executor reads from the uniform slot for one frame
type Uniforms struct {
	Width, Height int
	Camera        Camera
	Display       Display
	JitterCount   int
	Frame         uint32
}

func flag(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

// Values lays the uniforms out as the executor expects them
func (u Uniforms) Values() [UniformFloats]float32 {
	var v [UniformFloats]float32

	v[UniformAspect] = AspectRatio(u.Width, u.Height)
	v[UniformCameraConstant] = u.Camera.CameraConstant
	v[UniformWrap] = flag(u.Display.Wrap)
	v[UniformFilter] = flag(u.Display.Filter)
	copy(v[UniformEye:UniformEye+3], u.Camera.Eye[:])
	v[UniformUseTexture] = flag(u.Display.UseTexture)
	copy(v[UniformUp:UniformUp+3], u.Camera.Up[:])
	v[UniformTextureScaling] = u.Display.TextureScaling
	copy(v[UniformAt:UniformAt+3], u.Camera.At[:])
	v[UniformJitterCount] = float32(u.JitterCount)
	v[UniformGamma] = u.Display.Gamma
	v[UniformFrame] = float32(u.Frame)
	v[UniformFocusDistance] = u.Camera.FocusDistance
	v[UniformLensRadius] = u.Camera.LensRadius
	v[UniformBackground] = flag(u.Display.BlueBackground)
	v[UniformShadingMode] = float32(u.Display.ShadingMode)
	v[UniformWidth] = float32(u.Width)
	v[UniformHeight] = float32(u.Height)

	return v
}

// Marshal encodes the uniforms as UniformSize little-endian bytes
func (u Uniforms) Marshal() []byte {
	values := u.Values()
	buf := make([]byte, UniformSize)
	for i, f := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
