package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
)

// defaultMaterialName is assigned to faces that appear before any usemtl
const defaultMaterialName = "default"

// MaterialOpener opens a material library referenced by an OBJ file
type MaterialOpener func(name string) (io.ReadCloser, error)

// LoadOBJ loads a Wavefront OBJ file and the MTL libraries it references
func LoadOBJ(filename string) (*geometry.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open OBJ file: %w", err)
	}
	defer file.Close()

	dir := filepath.Dir(filename)
	opener := func(name string) (io.ReadCloser, error) {
		return os.Open(filepath.Join(dir, name))
	}

	mesh, err := ParseOBJ(file, opener)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return mesh, nil
}

// objVertex is a position/normal index pair; normal is -1 when absent
type objVertex struct {
	position int
	normal   int
}

type objParser struct {
	positions []core.Vec3
	normals   []core.Vec3

	mesh       geometry.Mesh
	vertices   map[objVertex]uint32
	materials  map[string]uint32
	library    map[string]geometry.Material
	current    uint32
	hasCurrent bool
	allNormals bool
}

// ParseOBJ reads OBJ geometry from reader. Polygons are fan-triangulated, negative
// indices count back from the last vertex, and materials come from the mtllib files
// resolved through opener (nil skips them). Missing normals are computed.
func ParseOBJ(reader io.Reader, opener MaterialOpener) (*geometry.Mesh, error) {
	p := &objParser{
		vertices:   make(map[objVertex]uint32),
		materials:  make(map[string]uint32),
		library:    make(map[string]geometry.Material),
		allNormals: true,
	}

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if err := p.parseLine(scanner.Text(), opener); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read OBJ: %w", err)
	}

	mesh := &p.mesh
	if !p.allNormals || len(p.normals) == 0 {
		mesh.ComputeNormals()
	}
	mesh.DeriveLightIndices()

	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

func (p *objParser) parseLine(line string, opener MaterialOpener) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "v":
		v, err := parseVec3(fields[1:])
		if err != nil {
			return fmt.Errorf("invalid vertex: %w", err)
		}
		p.positions = append(p.positions, v)
	case "vn":
		n, err := parseVec3(fields[1:])
		if err != nil {
			return fmt.Errorf("invalid normal: %w", err)
		}
		p.normals = append(p.normals, n)
	case "f":
		return p.parseFace(fields[1:])
	case "usemtl":
		if len(fields) < 2 {
			return fmt.Errorf("usemtl without a name")
		}
		p.useMaterial(fields[1])
	case "mtllib":
		if opener == nil {
			return nil
		}
		for _, name := range fields[1:] {
			if err := p.loadLibrary(name, opener); err != nil {
				return err
			}
		}
	default:
		// vt, o, g, s and friends carry nothing the tracer uses
	}
	return nil
}

func (p *objParser) loadLibrary(name string, opener MaterialOpener) error {
	rc, err := opener(name)
	if err != nil {
		return fmt.Errorf("failed to open material library %s: %w", name, err)
	}
	defer rc.Close()

	materials, err := ParseMTL(rc)
	if err != nil {
		return fmt.Errorf("material library %s: %w", name, err)
	}
	for _, mat := range materials {
		p.library[mat.Name] = mat
	}
	return nil
}

func (p *objParser) useMaterial(name string) {
	if id, ok := p.materials[name]; ok {
		p.current, p.hasCurrent = id, true
		return
	}

	mat, ok := p.library[name]
	if !ok {
		mat = geometry.Material{Name: name}
	}
	id := uint32(len(p.mesh.Materials))
	p.mesh.Materials = append(p.mesh.Materials, mat)
	p.materials[name] = id
	p.current, p.hasCurrent = id, true
}

func (p *objParser) parseFace(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("face with %d vertices", len(fields))
	}
	if !p.hasCurrent {
		p.useMaterial(defaultMaterialName)
	}

	corners := make([]uint32, len(fields))
	for i, field := range fields {
		idx, err := p.resolveVertex(field)
		if err != nil {
			return err
		}
		corners[i] = idx
	}

	// Fan triangulation around the first corner
	for i := 1; i+1 < len(corners); i++ {
		p.mesh.Indices = append(p.mesh.Indices, corners[0], corners[i], corners[i+1])
		p.mesh.MaterialIDs = append(p.mesh.MaterialIDs, p.current)
	}
	return nil
}

// resolveVertex maps a "v", "v/vt", "v//vn" or "v/vt/vn" reference to a mesh vertex
func (p *objParser) resolveVertex(ref string) (uint32, error) {
	parts := strings.Split(ref, "/")

	position, err := resolveIndex(parts[0], len(p.positions))
	if err != nil {
		return 0, fmt.Errorf("vertex reference %q: %w", ref, err)
	}

	key := objVertex{position: position, normal: -1}
	if len(parts) == 3 && parts[2] != "" {
		key.normal, err = resolveIndex(parts[2], len(p.normals))
		if err != nil {
			return 0, fmt.Errorf("normal reference %q: %w", ref, err)
		}
	} else {
		p.allNormals = false
	}

	if idx, ok := p.vertices[key]; ok {
		return idx, nil
	}

	idx := uint32(p.mesh.VertexCount())
	pos := p.positions[position]
	p.mesh.Positions = append(p.mesh.Positions, pos[0], pos[1], pos[2])
	var n core.Vec3
	if key.normal >= 0 {
		n = p.normals[key.normal].Normalize()
	}
	p.mesh.Normals = append(p.mesh.Normals, n[0], n[1], n[2])
	p.vertices[key] = idx
	return idx, nil
}

// resolveIndex converts a 1-based or negative OBJ index into a 0-based one
func resolveIndex(s string, count int) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	default:
		return 0, fmt.Errorf("index %d out of range (have %d)", i, count)
	}
}

// ParseMTL reads the materials of an MTL library.
// Kd sets the diffuse color and Ke the emission; other statements are ignored.
func ParseMTL(reader io.Reader) ([]geometry.Material, error) {
	var materials []geometry.Material
	var current *geometry.Material

	scanner := bufio.NewScanner(reader)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "newmtl":
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: newmtl without a name", lineNumber)
			}
			materials = append(materials, geometry.Material{Name: fields[1]})
			current = &materials[len(materials)-1]
		case "Kd", "Ke":
			if current == nil {
				return nil, fmt.Errorf("line %d: %s before newmtl", lineNumber, fields[0])
			}
			c, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s: %w", lineNumber, fields[0], err)
			}
			if fields[0] == "Kd" {
				current.Diffuse = &c
			} else {
				current.Emission = &c
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read MTL: %w", err)
	}
	return materials, nil
}

func parseVec3(fields []string) (core.Vec3, error) {
	if len(fields) < 3 {
		return core.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var v core.Vec3
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return core.Vec3{}, err
		}
		v[i] = float32(f)
	}
	return v, nil
}
