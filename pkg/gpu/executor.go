// Package gpu runs the path tracing compute shader on a WebGPU device.
// The executor owns the device, the pipeline, the scene buffers and the
// two accumulation textures; callers drive it through Upload, WriteJitter,
// Submit and ReadFrame.
package gpu

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/pack"
	"github.com/df07/go-gpu-pathtracer/pkg/renderer"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	// Register every available backend with the HAL.
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

// ErrUnsupportedExecutor is returned when no usable adapter or device exists
var ErrUnsupportedExecutor = errors.New("no supported GPU executor")

var (
	errNoScene  = errors.New("no scene uploaded")
	errReleased = errors.New("executor released")
)

// readbackTimeout bounds a frame readback when the caller's context has no deadline
const readbackTimeout = 10 * time.Second

// Executor renders frames with the path tracing pipeline
type Executor struct {
	mu     sync.Mutex
	logger core.Logger

	width, height int

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	shader     *wgpu.ShaderModule
	bindLayout *wgpu.BindGroupLayout
	pipeLayout *wgpu.PipelineLayout
	pipeline   *wgpu.ComputePipeline

	uniformBuf *wgpu.Buffer
	jitterBuf  *wgpu.Buffer
	readback   *wgpu.Buffer

	accumPrev     *wgpu.Texture
	accumPrevView *wgpu.TextureView
	accumOut      *wgpu.Texture
	accumOutView  *wgpu.TextureView

	scene *sceneResources
	gamma float32
}

// sceneResources is everything that changes on a model switch
type sceneResources struct {
	buffers        []*wgpu.Buffer
	background     *wgpu.Texture
	backgroundView *wgpu.TextureView
	bindGroup      *wgpu.BindGroup
}

func (r *sceneResources) release() {
	if r == nil {
		return
	}
	if r.bindGroup != nil {
		r.bindGroup.Release()
	}
	if r.backgroundView != nil {
		r.backgroundView.Release()
	}
	if r.background != nil {
		r.background.Release()
	}
	for _, buf := range r.buffers {
		buf.Release()
	}
}

// New opens a device and builds the pipeline for a width x height target.
// Adapter and device failures are wrapped in ErrUnsupportedExecutor.
func New(width, height int, logger core.Logger) (*Executor, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", width, height)
	}
	if logger == nil {
		logger = core.NopLogger{}
	}

	info, err := ValidateShader(pathTraceWGSL)
	if err != nil {
		return nil, fmt.Errorf("path tracing shader: %w", err)
	}

	e := &Executor{
		logger: logger,
		width:  width,
		height: height,
		gamma:  renderer.DefaultDisplay().Gamma,
	}
	if err := e.initDevice(); err != nil {
		e.Release()
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedExecutor, err)
	}
	if err := e.createPipeline(); err != nil {
		e.Release()
		return nil, err
	}
	if err := e.createTargets(); err != nil {
		e.Release()
		return nil, err
	}

	adapterInfo := e.adapter.Info()
	e.logger.Noticef("GPU executor ready: %s (%v), %dx%d, %d bindings",
		adapterInfo.Name, adapterInfo.Backend, width, height, len(info.Bindings))
	return e, nil
}

func (e *Executor) initDevice() error {
	instance, err := wgpu.CreateInstance(nil)
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	e.instance = instance

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	e.adapter = adapter

	device, err := adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	e.device = device

	e.queue = device.Queue()
	if e.queue == nil {
		return errors.New("device has no queue")
	}
	return nil
}

func (e *Executor) createPipeline() error {
	var err error

	e.shader, err = e.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "pathtrace_shader",
		WGSL:  pathTraceWGSL,
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}

	e.bindLayout, err = e.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "pathtrace_bind_layout",
		Entries: LayoutEntries(),
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	e.pipeLayout, err = e.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "pathtrace_pipe_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{e.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	e.pipeline, err = e.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:      "pathtrace_pipeline",
		Layout:     e.pipeLayout,
		Module:     e.shader,
		EntryPoint: EntryPoint,
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	return nil
}

func (e *Executor) createTargets() error {
	var err error

	e.uniformBuf, err = e.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "uniforms",
		Size:  renderer.UniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create uniform buffer: %w", err)
	}

	e.jitterBuf, err = e.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "jitter",
		Size:  JitterBufferSize,
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create jitter buffer: %w", err)
	}

	size := wgpu.Extent3D{Width: uint32(e.width), Height: uint32(e.height), DepthOrArrayLayers: 1}
	e.accumPrev, e.accumPrevView, err = e.createTexture("accum_prev", size, accumFormat,
		wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst)
	if err != nil {
		return err
	}
	e.accumOut, e.accumOutView, err = e.createTexture("accum_out", size, accumFormat,
		wgpu.TextureUsageStorageBinding|wgpu.TextureUsageCopySrc)
	if err != nil {
		return err
	}

	e.readback, err = e.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "frame_readback",
		Size:  e.readbackSize(),
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return fmt.Errorf("create readback buffer: %w", err)
	}
	return nil
}

func (e *Executor) createTexture(label string, size wgpu.Extent3D, format gputypes.TextureFormat, usage gputypes.TextureUsage) (*wgpu.Texture, *wgpu.TextureView, error) {
	tex, err := e.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := e.device.CreateTextureView(tex, &wgpu.TextureViewDescriptor{
		Label:           label + "_view",
		Format:          format,
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		tex.Release()
		return nil, nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return tex, view, nil
}

func (e *Executor) readbackSize() uint64 {
	return uint64(alignedBytesPerRow(e.width, 16)) * uint64(e.height)
}

// Size returns the render target size
func (e *Executor) Size() (width, height int) {
	return e.width, e.height
}

// Upload replaces the scene buffers and background texture. The previous
// scene stays bound if anything fails.
func (e *Executor) Upload(buffers *pack.Buffers, background *image.RGBA) error {
	if buffers == nil || background == nil {
		return errors.New("upload: nil scene data")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.device == nil {
		return errReleased
	}

	res := &sceneResources{}
	if err := e.uploadScene(res, buffers, background); err != nil {
		res.release()
		return err
	}

	old := e.scene
	e.scene = res
	old.release()

	e.logger.Debugf("uploaded scene: %d triangles, %d nodes, %dx%d background",
		buffers.TriangleCount, buffers.NodeCount, background.Rect.Dx(), background.Rect.Dy())
	return nil
}

func (e *Executor) uploadScene(res *sceneResources, buffers *pack.Buffers, background *image.RGBA) error {
	storage := []struct {
		slot  uint32
		label string
		data  []byte
		usage gputypes.BufferUsage
	}{
		{SlotAttribs, "attribs", buffers.Attribs, wgpu.BufferUsageStorage},
		{SlotIndices, "indices", buffers.Indices, wgpu.BufferUsageStorage},
		{SlotMaterials, "materials", buffers.Materials, wgpu.BufferUsageStorage},
		{SlotLights, "lights", buffers.Lights, wgpu.BufferUsageStorage},
		{SlotTreeIDs, "tree_ids", buffers.TreeIDs, wgpu.BufferUsageStorage},
		{SlotNodes, "bsp_nodes", buffers.Nodes, wgpu.BufferUsageStorage},
		{SlotAABBs, "bsp_aabbs", buffers.AABBs, wgpu.BufferUsageStorage},
		{SlotRootAABB, "root_aabb", buffers.RootAABB, wgpu.BufferUsageUniform},
	}

	entries := make([]wgpu.BindGroupEntry, 0, slotCount)
	for _, s := range storage {
		buf, err := e.createBuffer(s.label, s.data, s.usage)
		if err != nil {
			return err
		}
		res.buffers = append(res.buffers, buf)
		entries = append(entries, wgpu.BindGroupEntry{Binding: s.slot, Buffer: buf})
	}

	bounds := background.Rect
	size := wgpu.Extent3D{Width: uint32(bounds.Dx()), Height: uint32(bounds.Dy()), DepthOrArrayLayers: 1}
	tex, view, err := e.createTexture("background", size, gputypes.TextureFormatRGBA8Unorm,
		wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopyDst)
	if err != nil {
		return err
	}
	res.background, res.backgroundView = tex, view
	err = e.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: tex, Aspect: gputypes.TextureAspectAll},
		background.Pix,
		&wgpu.ImageDataLayout{BytesPerRow: uint32(background.Stride), RowsPerImage: size.Height},
		&size,
	)
	if err != nil {
		return fmt.Errorf("write background texture: %w", err)
	}

	entries = append(entries,
		wgpu.BindGroupEntry{Binding: SlotUniforms, Buffer: e.uniformBuf},
		wgpu.BindGroupEntry{Binding: SlotBackground, TextureView: view},
		wgpu.BindGroupEntry{Binding: SlotJitter, Buffer: e.jitterBuf},
		wgpu.BindGroupEntry{Binding: SlotAccumPrev, TextureView: e.accumPrevView},
		wgpu.BindGroupEntry{Binding: SlotAccumOut, TextureView: e.accumOutView},
	)
	res.bindGroup, err = e.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "pathtrace_bind_group",
		Layout:  e.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	return nil
}

func (e *Executor) createBuffer(label string, data []byte, usage gputypes.BufferUsage) (*wgpu.Buffer, error) {
	data = padBuffer(data)
	buf, err := e.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer: %w", label, err)
	}
	if err := e.queue.WriteBuffer(buf, 0, data); err != nil {
		buf.Release()
		return nil, fmt.Errorf("write %s buffer: %w", label, err)
	}
	return buf, nil
}

// WriteJitter uploads the active jitter offsets (two float32 per sample)
func (e *Executor) WriteJitter(jitter []byte) error {
	if len(jitter) > JitterBufferSize {
		return fmt.Errorf("jitter table of %d bytes exceeds %d", len(jitter), JitterBufferSize)
	}
	if len(jitter) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.device == nil {
		return errReleased
	}
	if err := e.queue.WriteBuffer(e.jitterBuf, 0, jitter); err != nil {
		return fmt.Errorf("write jitter: %w", err)
	}
	return nil
}

// Submit writes the uniforms, dispatches one frame and copies the new
// accumulation into the texture the next frame reads.
func (e *Executor) Submit(uniforms []byte) error {
	if len(uniforms) != renderer.UniformSize {
		return fmt.Errorf("uniform payload is %d bytes, want %d", len(uniforms), renderer.UniformSize)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.device == nil {
		return errReleased
	}
	if e.scene == nil {
		return errNoScene
	}
	if gamma := uniformAt(uniforms, renderer.UniformGamma); gamma > 0 {
		e.gamma = gamma
	}
	if err := e.queue.WriteBuffer(e.uniformBuf, 0, uniforms); err != nil {
		return fmt.Errorf("write uniforms: %w", err)
	}

	encoder, err := e.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "pathtrace_frame"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	pass, err := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "pathtrace"})
	if err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("begin compute pass: %w", err)
	}
	pass.SetPipeline(e.pipeline)
	pass.SetBindGroup(0, e.scene.bindGroup, nil)
	pass.Dispatch(dispatchSize(e.width), dispatchSize(e.height), 1)
	if err := pass.End(); err != nil {
		encoder.DiscardEncoding()
		return fmt.Errorf("end compute pass: %w", err)
	}

	encoder.CopyTextureToTexture(e.accumOut, e.accumPrev, []wgpu.TextureCopy{{
		Source:      wgpu.ImageCopyTexture{Texture: e.accumOut, Aspect: gputypes.TextureAspectAll},
		Destination: wgpu.ImageCopyTexture{Texture: e.accumPrev, Aspect: gputypes.TextureAspectAll},
		Size:        wgpu.Extent3D{Width: uint32(e.width), Height: uint32(e.height), DepthOrArrayLayers: 1},
	}})

	cmd, err := encoder.Finish()
	if err != nil {
		return fmt.Errorf("finish encoder: %w", err)
	}
	if _, err := e.queue.Submit(cmd); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return nil
}

// ReadFrame copies the accumulation back to the host and tone maps it with
// the gamma of the last submitted frame.
func (e *Executor) ReadFrame(ctx context.Context) (*image.RGBA, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.device == nil {
		return nil, errReleased
	}

	pitch := alignedBytesPerRow(e.width, 16)
	encoder, err := e.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "frame_readback"})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	encoder.CopyTextureToBuffer(e.accumPrev, e.readback, []wgpu.BufferTextureCopy{{
		BufferLayout: wgpu.ImageDataLayout{BytesPerRow: pitch, RowsPerImage: uint32(e.height)},
		TextureBase:  wgpu.ImageCopyTexture{Texture: e.accumPrev, Aspect: gputypes.TextureAspectAll},
		Size:         wgpu.Extent3D{Width: uint32(e.width), Height: uint32(e.height), DepthOrArrayLayers: 1},
	}})
	cmd, err := encoder.Finish()
	if err != nil {
		return nil, fmt.Errorf("finish encoder: %w", err)
	}
	if _, err := e.queue.Submit(cmd); err != nil {
		return nil, fmt.Errorf("submit readback: %w", err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, readbackTimeout)
		defer cancel()
	}
	size := e.readbackSize()
	if err := e.readback.Map(ctx, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("map readback: %w", err)
	}
	rng, err := e.readback.MappedRange(0, size)
	if err != nil {
		_ = e.readback.Unmap()
		return nil, fmt.Errorf("mapped range: %w", err)
	}
	pixels := decodeRows(rng.Bytes(), e.width, e.height, pitch)
	if err := e.readback.Unmap(); err != nil {
		return nil, fmt.Errorf("unmap readback: %w", err)
	}
	return renderer.ToneMap(pixels, e.width, e.height, e.gamma), nil
}

// Release frees every GPU object. The executor is unusable afterwards.
func (e *Executor) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.scene.release()
	e.scene = nil

	for _, view := range []*wgpu.TextureView{e.accumPrevView, e.accumOutView} {
		if view != nil {
			view.Release()
		}
	}
	for _, tex := range []*wgpu.Texture{e.accumPrev, e.accumOut} {
		if tex != nil {
			tex.Release()
		}
	}
	for _, buf := range []*wgpu.Buffer{e.uniformBuf, e.jitterBuf, e.readback} {
		if buf != nil {
			buf.Release()
		}
	}
	if e.pipeline != nil {
		e.pipeline.Release()
	}
	if e.pipeLayout != nil {
		e.pipeLayout.Release()
	}
	if e.bindLayout != nil {
		e.bindLayout.Release()
	}
	if e.shader != nil {
		e.shader.Release()
	}
	if e.device != nil {
		e.device.Release()
	}
	if e.adapter != nil {
		e.adapter.Release()
	}
	if e.instance != nil {
		e.instance.Release()
	}
	e.accumPrev, e.accumPrevView, e.accumOut, e.accumOutView = nil, nil, nil, nil
	e.uniformBuf, e.jitterBuf, e.readback = nil, nil, nil
	e.pipeline, e.pipeLayout, e.bindLayout, e.shader = nil, nil, nil, nil
	e.device, e.adapter, e.instance, e.queue = nil, nil, nil, nil
}

// decodeRows strips row padding and decodes little-endian float32 RGBA texels
func decodeRows(data []byte, width, height int, pitch uint32) []float32 {
	pixels := make([]float32, width*height*4)
	for y := 0; y < height; y++ {
		row := int(pitch) * y
		for i := 0; i < width*4; i++ {
			offset := row + i*4
			if offset+4 > len(data) {
				return pixels
			}
			pixels[y*width*4+i] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset:]))
		}
	}
	return pixels
}

func uniformAt(uniforms []byte, index int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(uniforms[index*4:]))
}
