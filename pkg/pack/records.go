package pack

import (
	"encoding/binary"
	"math"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
)

// Record sizes in bytes
const (
	AttribSize   = 32 // position xyz1, normal xyz0
	IndexSize    = 16 // i0, i1, i2, material id
	MaterialSize = 32 // emission rgb0, diffuse rgb0
	NodeSize     = 16 // axis|count, split|start, left, right
	AABBSize     = 32 // min xyz0, max xyz0
	WordSize     = 4
)

// leafChild fills the child words of a leaf record
const leafChild = 0xFFFFFFFF

func putU32(buf []byte, offset int, v uint32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], v)
}

func putF32(buf []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(buf[offset:offset+4], math.Float32bits(v))
}

func getU32(buf []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(buf[offset : offset+4])
}

func getF32(buf []byte, offset int) float32 {
	return math.Float32frombits(getU32(buf, offset))
}

// putVec4 writes v with w as the fourth component
func putVec4(buf []byte, offset int, v core.Vec3, w float32) {
	putF32(buf, offset, v[0])
	putF32(buf, offset+4, v[1])
	putF32(buf, offset+8, v[2])
	putF32(buf, offset+12, w)
}

func getVec3(buf []byte, offset int) core.Vec3 {
	return core.NewVec3(getF32(buf, offset), getF32(buf, offset+4), getF32(buf, offset+8))
}

func putAABB(buf []byte, offset int, box core.AABB) {
	putVec4(buf, offset, box.Min, 0)
	putVec4(buf, offset+16, box.Max, 0)
}

func getAABB(buf []byte, offset int) core.AABB {
	return core.NewAABB(getVec3(buf, offset), getVec3(buf, offset+16))
}

// packWords encodes a u32 list; an empty list becomes one zero word so the buffer is never empty
func packWords(values []uint32) []byte {
	if len(values) == 0 {
		return make([]byte, WordSize)
	}
	buf := make([]byte, len(values)*WordSize)
	for i, v := range values {
		putU32(buf, i*WordSize, v)
	}
	return buf
}
