package session

import (
	"context"
	"encoding/binary"
	"image"
	"math"
	"sync"

	"github.com/df07/go-gpu-pathtracer/pkg/pack"
	"github.com/df07/go-gpu-pathtracer/pkg/renderer"
)

// RecordingExecutor is an in-memory executor that keeps what it was given.
// It backs headless runs without a GPU and the tests of everything above the device.
type RecordingExecutor struct {
	mu sync.Mutex

	Uploads    int
	Buffers    *pack.Buffers
	Background *image.RGBA
	Jitter     []byte
	Frames     []uint32
	Uniforms   []byte

	// Injected failures
	SubmitErr error
	UploadErr error
}

func (r *RecordingExecutor) Submit(uniforms []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.SubmitErr != nil {
		return r.SubmitErr
	}
	r.Uniforms = append(r.Uniforms[:0], uniforms...)
	r.Frames = append(r.Frames, uint32(r.uniform(renderer.UniformFrame)))
	return nil
}

func (r *RecordingExecutor) Upload(buffers *pack.Buffers, background *image.RGBA) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.UploadErr != nil {
		return r.UploadErr
	}
	r.Uploads++
	r.Buffers = buffers
	r.Background = background
	return nil
}

func (r *RecordingExecutor) WriteJitter(jitter []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Jitter = append(r.Jitter[:0], jitter...)
	return nil
}

// ReadFrame returns a flat mid-gray image the size of the last submitted frame
func (r *RecordingExecutor) ReadFrame(ctx context.Context) (*image.RGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	width, height := int(r.uniform(renderer.UniformWidth)), int(r.uniform(renderer.UniformHeight))
	pixels := make([]float32, width*height*4)
	for i := range pixels {
		pixels[i] = 0.5
	}
	return renderer.ToneMap(pixels, width, height, r.uniform(renderer.UniformGamma)), nil
}

// Submitted returns a copy of the frame indices seen so far
func (r *RecordingExecutor) Submitted() []uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint32(nil), r.Frames...)
}

// Uniform returns float i of the last submitted uniform payload
func (r *RecordingExecutor) Uniform(i int) float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uniform(i)
}

func (r *RecordingExecutor) uniform(i int) float32 {
	if len(r.Uniforms) < (i+1)*4 {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(r.Uniforms[i*4:]))
}
