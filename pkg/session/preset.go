package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/renderer"
)

// ErrUnknownPreset is returned when a preset name is not in the table
var ErrUnknownPreset = errors.New("unknown preset")

// Preset is a model with the camera it is meant to be viewed from
type Preset struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	File        string          `json:"file,omitempty"` // relative to the model directory, empty for built-in meshes
	Camera      renderer.Camera `json:"camera"`

	builtin func() *geometry.Mesh
}

// Builtin reports whether the preset mesh is generated rather than loaded from disk
func (p Preset) Builtin() bool {
	return p.builtin != nil
}

// presetCamera builds a y-up camera; focus distance keeps the default
func presetCamera(eye, at core.Vec3, cameraConstant, lensRadius float32) renderer.Camera {
	c := renderer.DefaultCamera()
	c.Eye = eye
	c.At = at
	c.Up = core.NewVec3(0, 1, 0)
	c.CameraConstant = cameraConstant
	c.LensRadius = lensRadius
	return c
}

var presets = []Preset{
	{
		Name:        "teapot",
		Description: "Utah teapot",
		File:        "objects/teapot.obj",
		Camera:      presetCamera(core.NewVec3(0.15, 1.5, 10), core.NewVec3(0.15, 1.5, 0), 2.5, 0),
	},
	{
		Name:        "bunny",
		Description: "Stanford bunny",
		File:        "objects/bunny.obj",
		Camera:      presetCamera(core.NewVec3(-0.02, 0.11, 0.6), core.NewVec3(-0.02, 0.11, 0), 3.5, 0),
	},
	{
		Name:        "cornellbox",
		Description: "Cornell box",
		File:        "objects/CornellBox.obj",
		Camera:      presetCamera(core.NewVec3(277, 275, -570), core.NewVec3(277, 275, 0), 1, 0),
	},
	{
		Name:        "cornellbox_lens_showcase",
		Description: "Cornell box seen through a thin lens",
		File:        "objects/CornellBox.obj",
		Camera:      presetCamera(core.NewVec3(220, 200, -250), core.NewVec3(220, 200, 200), 1.5, 24),
	},
	{
		Name:        "cornell",
		Description: "Procedural Cornell box with two blocks",
		Camera:      renderer.DefaultCamera(),
		builtin:     geometry.NewCornellBox,
	},
}

// Presets returns the preset table sorted by name
func Presets() []Preset {
	list := make([]Preset, len(presets))
	copy(list, presets)
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})
	return list
}

// PresetNames returns the names of every preset, sorted
func PresetNames() []string {
	var names []string
	for _, p := range Presets() {
		names = append(names, p.Name)
	}
	return names
}

// LookupPreset finds a preset by name
func LookupPreset(name string) (Preset, error) {
	for _, p := range presets {
		if p.Name == name {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w %q (have %s)", ErrUnknownPreset, name, strings.Join(PresetNames(), ", "))
}
