package sampling

import (
	"encoding/binary"
	"math"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

const (
	// MinLevel and MaxLevel bound the subdivision level (pairs per pixel = level²)
	MinLevel = 1
	MaxLevel = 10

	// Capacity is the number of offset pairs the table can hold
	Capacity = MaxLevel * MaxLevel
)

// JitterTable holds stratified sub-pixel offsets in normalized device units.
// Only the first Count() pairs are meaningful; the rest keep stale values.
type JitterTable struct {
	offsets [Capacity * 2]float32
	level   int
}

// NewJitterTable creates a table at level 1 (a single centered sample)
func NewJitterTable() *JitterTable {
	return &JitterTable{level: MinLevel}
}

// ClampLevel restricts a subdivision level to the supported range
func ClampLevel(level int) int {
	return min(max(level, MinLevel), MaxLevel)
}

// PixelSizeNDC returns the height of one pixel in normalized device coordinates
func PixelSizeNDC(height int) float32 {
	if height <= 0 {
		return 0
	}
	return 2 / float32(height)
}

// Compute fills the table with level×level stratified offsets inside a pixel of size pixelSize.
// Each offset is uniformly placed inside its own cell of the level×level grid, so
// every cell receives exactly one sample. Level 1 yields the single offset (0, 0).
func (j *JitterTable) Compute(level int, pixelSize float32, sampler core.Sampler) {
	level = ClampLevel(level)
	j.level = level

	if level < 2 {
		j.offsets[0], j.offsets[1] = 0, 0
		return
	}

	step := pixelSize / float32(level)
	half := pixelSize / 2
	for i := 0; i < level; i++ {
		for k := 0; k < level; k++ {
			idx := (i*level + k) * 2
			r := sampler.Get2D()
			j.offsets[idx] = (r[0]+float32(k))*step - half
			j.offsets[idx+1] = (r[1]+float32(i))*step - half
		}
	}
}

// Level returns the subdivision level of the last Compute
func (j *JitterTable) Level() int {
	return j.level
}

// Count returns the number of meaningful offset pairs
func (j *JitterTable) Count() int {
	return j.level * j.level
}

// Offset returns pair i as (x, y)
func (j *JitterTable) Offset(i int) (float32, float32) {
	return j.offsets[2*i], j.offsets[2*i+1]
}

// Offsets returns the meaningful portion of the table as interleaved x, y values
func (j *JitterTable) Offsets() []float32 {
	return j.offsets[:j.Count()*2]
}

// Bytes encodes the meaningful pairs as little-endian float32, Count()*8 bytes
func (j *JitterTable) Bytes() []byte {
	values := j.Offsets()
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
