package geometry

import "github.com/df07/go-gpu-pathtracer/pkg/core"

// DefaultDiffuse is the albedo used when a material description has no diffuse color
var DefaultDiffuse = core.NewVec3(0.8, 0.8, 0.8)

// Material is the emission/diffuse pair the executor shades with.
// Either color may be absent from the source description; nil means "use the default".
type Material struct {
	Name     string
	Emission *core.Vec3
	Diffuse  *core.Vec3
}

// NewMaterial creates a material with both colors set
func NewMaterial(name string, diffuse, emission core.Vec3) Material {
	return Material{Name: name, Diffuse: &diffuse, Emission: &emission}
}

// NewDiffuse creates a non-emissive material
func NewDiffuse(name string, diffuse core.Vec3) Material {
	return Material{Name: name, Diffuse: &diffuse}
}

// EmissionOrDefault returns the emission color, black when absent
func (m Material) EmissionOrDefault() core.Vec3 {
	if m.Emission == nil {
		return core.Vec3{}
	}
	return *m.Emission
}

// DiffuseOrDefault returns the diffuse color, DefaultDiffuse when absent
func (m Material) DiffuseOrDefault() core.Vec3 {
	if m.Diffuse == nil {
		return DefaultDiffuse
	}
	return *m.Diffuse
}

// IsEmissive reports whether any emission channel is nonzero
func (m Material) IsEmissive() bool {
	return !m.EmissionOrDefault().IsZero()
}
