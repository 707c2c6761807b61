package geometry

import "github.com/df07/go-gpu-pathtracer/pkg/core"

// NewCornellBox builds the classic 555-unit Cornell box: five walls, a ceiling light and two blocks.
// It matches the camera used by the "cornellbox" preset and needs no model file.
func NewCornellBox() *Mesh {
	b := NewMeshBuilder()

	white := b.AddMaterial(NewDiffuse("white", core.NewVec3(0.73, 0.73, 0.73)))
	red := b.AddMaterial(NewDiffuse("red", core.NewVec3(0.65, 0.05, 0.05)))
	green := b.AddMaterial(NewDiffuse("green", core.NewVec3(0.12, 0.45, 0.15)))
	light := b.AddMaterial(NewMaterial("light", core.NewVec3(0.78, 0.78, 0.78), core.NewVec3(15, 15, 15)))

	const boxSize = 555

	// Floor and ceiling
	b.AddQuad(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, boxSize), core.NewVec3(boxSize, 0, 0), white)
	b.AddQuad(core.NewVec3(0, boxSize, 0), core.NewVec3(boxSize, 0, 0), core.NewVec3(0, 0, boxSize), white)

	// Back wall
	b.AddQuad(core.NewVec3(0, 0, boxSize), core.NewVec3(0, boxSize, 0), core.NewVec3(boxSize, 0, 0), white)

	// Left wall (red) at x=boxSize and right wall (green) at x=0, seen from -Z
	b.AddQuad(core.NewVec3(boxSize, 0, 0), core.NewVec3(0, 0, boxSize), core.NewVec3(0, boxSize, 0), red)
	b.AddQuad(core.NewVec3(0, 0, 0), core.NewVec3(0, boxSize, 0), core.NewVec3(0, 0, boxSize), green)

	// Ceiling light slightly below the ceiling, facing down
	const lightSize = 130
	const lightOffset = (boxSize - lightSize) / 2
	b.AddQuad(
		core.NewVec3(lightOffset, boxSize-1, lightOffset),
		core.NewVec3(lightSize, 0, 0),
		core.NewVec3(0, 0, lightSize),
		light,
	)

	// Tall and short blocks
	b.AddBox(core.NewVec3(368, 165, 351), core.NewVec3(82.5, 165, 82.5), 0.2967, white)
	b.AddBox(core.NewVec3(185, 82.5, 169), core.NewVec3(82.5, 82.5, 82.5), -0.3142, white)

	return b.Build()
}
