package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

func TestUniforms_Layout(t *testing.T) {
	u := Uniforms{
		Width:  800,
		Height: 400,
		Camera: Camera{
			Eye:            core.NewVec3(1, 2, 3),
			At:             core.NewVec3(4, 5, 6),
			Up:             core.NewVec3(0, 1, 0),
			CameraConstant: 2.5,
			FocusDistance:  926,
			LensRadius:     24,
		},
		Display: Display{
			Gamma:          1.4,
			Wrap:           true,
			Filter:         false,
			UseTexture:     true,
			TextureScaling: 3,
			BlueBackground: true,
			ShadingMode:    ShadingDiffuse,
		},
		JitterCount: 9,
		Frame:       17,
	}

	data := u.Marshal()
	if len(data) != UniformSize {
		t.Fatalf("Expected %d bytes, got %d", UniformSize, len(data))
	}

	want := map[int]float32{
		0: 2, 1: 2.5, 2: 1, 3: 0,
		4: 1, 5: 2, 6: 3, 7: 1,
		8: 0, 9: 1, 10: 0, 11: 3,
		12: 4, 13: 5, 14: 6, 15: 9,
		16: 1.4, 17: 17, 18: 926, 19: 24,
		20: 1, 21: 2, 22: 800, 23: 400,
	}
	for i := 0; i < UniformFloats; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		if got != want[i] {
			t.Errorf("Slot %d: expected %v, got %v", i, want[i], got)
		}
	}
}

func TestShadingMode_ParseAndString(t *testing.T) {
	for _, mode := range []ShadingMode{ShadingBase, ShadingMirror, ShadingDiffuse} {
		parsed, err := ParseShadingMode(mode.String())
		if err != nil || parsed != mode {
			t.Errorf("ParseShadingMode(%q) = %v, %v", mode.String(), parsed, err)
		}
	}
	if _, err := ParseShadingMode("glossy"); err == nil {
		t.Error("Expected error for unknown mode")
	}
	if got := ShadingMode(7).String(); got != "ShadingMode(7)" {
		t.Errorf("Unexpected string for out-of-range mode: %s", got)
	}
}
