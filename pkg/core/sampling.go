package core

import "math/rand"

// Sampler provides random sampling for the host-side samplers
// Can be swapped out for deterministic testing
type Sampler interface {
	Get1D() float32
	Get2D() [2]float32
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with a fixed seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float32 in [0, 1)
func (r *RandomSampler) Get1D() float32 {
	return r.random.Float32()
}

// Get2D returns two random float32 values in [0, 1)
func (r *RandomSampler) Get2D() [2]float32 {
	return [2]float32{r.random.Float32(), r.random.Float32()}
}

// ConstantSampler always returns the same value, used for reproducible tables
type ConstantSampler float32

func (c ConstantSampler) Get1D() float32 { return float32(c) }

func (c ConstantSampler) Get2D() [2]float32 { return [2]float32{float32(c), float32(c)} }
