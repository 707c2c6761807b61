// Package loaders reads meshes and background textures from disk.
package loaders

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
)

// ErrUnsupportedFormat is returned for mesh files with an unknown extension
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// LoadMesh loads an OBJ or PLY mesh, chosen by file extension
func LoadMesh(filename string) (*geometry.Mesh, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".obj":
		return LoadOBJ(filename)
	case ".ply":
		return LoadPLY(filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
