package gpu

import (
	"github.com/df07/go-gpu-pathtracer/pkg/renderer"
	"github.com/df07/go-gpu-pathtracer/pkg/sampling"
	"github.com/gogpu/gputypes"
)

// Bind slots in group 0
const (
	SlotUniforms uint32 = iota
	SlotBackground
	SlotJitter
	SlotAttribs
	SlotIndices
	SlotMaterials
	SlotLights
	SlotTreeIDs
	SlotNodes
	SlotAABBs
	SlotRootAABB
	SlotAccumPrev
	SlotAccumOut

	slotCount
)

const (
	// WorkgroupSize is the edge of the square compute workgroup
	WorkgroupSize = 8
	// JitterBufferSize fits the largest jitter table
	JitterBufferSize = sampling.Capacity * 2 * 4
	// minBufferSize keeps empty storage bindings valid
	minBufferSize = 16
	// bytesPerRowAlignment is the copy pitch alignment for texture readback
	bytesPerRowAlignment = 256
)

// accumFormat holds the running linear average
const accumFormat = gputypes.TextureFormatRGBA32Float

// Binding is one entry of the bind-group contract shared by the layout and the shader
type Binding struct {
	Slot  uint32
	Name  string // WGSL variable name
	Space string // uniform, storage or handle
}

// Bindings lists every slot the pipeline binds, in slot order
var Bindings = []Binding{
	{SlotUniforms, "uniforms", "uniform"},
	{SlotBackground, "background", "handle"},
	{SlotJitter, "jitter", "storage"},
	{SlotAttribs, "attribs", "storage"},
	{SlotIndices, "indices", "storage"},
	{SlotMaterials, "materials", "storage"},
	{SlotLights, "lights", "storage"},
	{SlotTreeIDs, "tree_ids", "storage"},
	{SlotNodes, "bsp_nodes", "storage"},
	{SlotAABBs, "bsp_aabbs", "storage"},
	{SlotRootAABB, "root_aabb", "uniform"},
	{SlotAccumPrev, "accum_prev", "handle"},
	{SlotAccumOut, "accum_out", "handle"},
}

func uniformEntry(slot uint32, size uint64) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    slot,
		Visibility: gputypes.ShaderStageCompute,
		Buffer: &gputypes.BufferBindingLayout{
			Type:           gputypes.BufferBindingTypeUniform,
			MinBindingSize: size,
		},
	}
}

func storageEntry(slot uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    slot,
		Visibility: gputypes.ShaderStageCompute,
		Buffer: &gputypes.BufferBindingLayout{
			Type: gputypes.BufferBindingTypeReadOnlyStorage,
		},
	}
}

func textureEntry(slot uint32, sampleType gputypes.TextureSampleType) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    slot,
		Visibility: gputypes.ShaderStageCompute,
		Texture: &gputypes.TextureBindingLayout{
			SampleType:    sampleType,
			ViewDimension: gputypes.TextureViewDimension2D,
		},
	}
}

// LayoutEntries returns the bind group layout for the path tracing pipeline
func LayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{
		uniformEntry(SlotUniforms, renderer.UniformSize),
		textureEntry(SlotBackground, gputypes.TextureSampleTypeFloat),
		storageEntry(SlotJitter),
		storageEntry(SlotAttribs),
		storageEntry(SlotIndices),
		storageEntry(SlotMaterials),
		storageEntry(SlotLights),
		storageEntry(SlotTreeIDs),
		storageEntry(SlotNodes),
		storageEntry(SlotAABBs),
		uniformEntry(SlotRootAABB, 32),
		textureEntry(SlotAccumPrev, gputypes.TextureSampleTypeUnfilterableFloat),
		{
			Binding:    SlotAccumOut,
			Visibility: gputypes.ShaderStageCompute,
			StorageTexture: &gputypes.StorageTextureBindingLayout{
				Access:        gputypes.StorageTextureAccessWriteOnly,
				Format:        accumFormat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		},
	}
}

// alignedBytesPerRow rounds a row pitch up to the copy alignment
func alignedBytesPerRow(width, bytesPerPixel int) uint32 {
	row := uint32(width * bytesPerPixel)
	return (row + bytesPerRowAlignment - 1) / bytesPerRowAlignment * bytesPerRowAlignment
}

// padBuffer returns data grown to a multiple of four bytes and at least minBufferSize
func padBuffer(data []byte) []byte {
	size := max(len(data), minBufferSize)
	size = (size + 3) &^ 3
	if size == len(data) {
		return data
	}
	out := make([]byte, size)
	copy(out, data)
	return out
}

// dispatchSize returns the workgroup count covering n pixels
func dispatchSize(n int) uint32 {
	return uint32((n + WorkgroupSize - 1) / WorkgroupSize)
}
