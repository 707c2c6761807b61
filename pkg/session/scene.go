package session

import (
	"fmt"
	"image"
	"image/color"

	"github.com/df07/go-gpu-pathtracer/pkg/bsp"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
	"github.com/df07/go-gpu-pathtracer/pkg/pack"
)

// Scene is everything compiled from one model. A Scene is immutable once built;
// a model switch builds a new one and swaps it in whole.
type Scene struct {
	Name       string
	Mesh       *geometry.Mesh
	Tree       *bsp.Tree
	Buffers    *pack.Buffers
	Background *image.RGBA
}

// NewScene builds the BSP tree over mesh and packs it
func NewScene(name string, mesh *geometry.Mesh, background *image.RGBA, cfg bsp.Config) (*Scene, error) {
	tree, err := bsp.Build(mesh, cfg)
	if err != nil {
		return nil, err
	}
	buffers, err := pack.Pack(mesh, tree)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", name, err)
	}
	if background == nil {
		background = defaultBackground()
	}
	return &Scene{
		Name:       name,
		Mesh:       mesh,
		Tree:       tree,
		Buffers:    buffers,
		Background: background,
	}, nil
}

const checkerSize = 64

// defaultBackground is an 8x8 green checkerboard used when no texture is configured
func defaultBackground() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, checkerSize, checkerSize))
	light := color.RGBA{R: 96, G: 160, B: 64, A: 255}
	dark := color.RGBA{R: 48, G: 96, B: 32, A: 255}
	cell := checkerSize / 8
	for y := 0; y < checkerSize; y++ {
		for x := 0; x < checkerSize; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetRGBA(x, y, light)
			} else {
				img.SetRGBA(x, y, dark)
			}
		}
	}
	return img
}
