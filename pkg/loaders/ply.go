package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-gpu-pathtracer/pkg/geometry"
)

// PLYHeader represents the parsed header information from a PLY file
type PLYHeader struct {
	Format      string // "binary_little_endian", "binary_big_endian", or "ascii"
	Version     string
	VertexCount int
	FaceCount   int
	VertexProps []PLYProperty
	FaceProps   []PLYProperty
	HasNormals  bool
}

// PLYProperty represents a property definition in the PLY header
type PLYProperty struct {
	Name     string
	Type     string
	IsList   bool
	ListType string // For list properties, the type of the count
	DataType string // For list properties, the type of the data
}

// LoadPLY loads a PLY file into a mesh with a single default material
func LoadPLY(filename string) (*geometry.Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PLY file: %w", err)
	}
	defer file.Close()

	mesh, err := ParsePLY(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return mesh, nil
}

// ParsePLY reads ASCII and binary PLY data. Polygons are fan-triangulated and
// missing normals are computed.
func ParsePLY(reader io.Reader) (*geometry.Mesh, error) {
	r := bufio.NewReaderSize(reader, 1024*1024)

	header, err := parsePLYHeader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PLY header: %w", err)
	}

	var values plyValueReader
	switch header.Format {
	case "binary_little_endian":
		values = &plyBinaryReader{r: r, order: binary.LittleEndian}
	case "binary_big_endian":
		values = &plyBinaryReader{r: r, order: binary.BigEndian}
	case "ascii":
		values = &plyASCIIReader{r: r}
	default:
		return nil, fmt.Errorf("unsupported PLY format: %s", header.Format)
	}

	mesh := &geometry.Mesh{
		Positions: make([]float32, 0, header.VertexCount*3),
		Indices:   make([]uint32, 0, header.FaceCount*3),
		Materials: []geometry.Material{{Name: defaultMaterialName}},
	}
	if header.HasNormals {
		mesh.Normals = make([]float32, 0, header.VertexCount*3)
	}

	for i := 0; i < header.VertexCount; i++ {
		if err := readPLYVertex(values, header, mesh); err != nil {
			return nil, fmt.Errorf("failed to read vertex %d: %w", i, err)
		}
	}

	for i := 0; i < header.FaceCount; i++ {
		if err := readPLYFace(values, header, mesh); err != nil {
			return nil, fmt.Errorf("failed to read face %d: %w", i, err)
		}
	}

	mesh.MaterialIDs = make([]uint32, mesh.TriangleCount())
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	if !header.HasNormals {
		mesh.ComputeNormals()
	}
	return mesh, nil
}

// parsePLYHeader parses the header up to and including end_header
func parsePLYHeader(r *bufio.Reader) (*PLYHeader, error) {
	header := &PLYHeader{}
	var currentElement string
	var normals [3]bool

	for lineNumber := 0; ; lineNumber++ {
		line, err := r.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("header ended early: %w", err)
		}
		line = strings.TrimSpace(line)

		if lineNumber == 0 {
			if line != "ply" {
				return nil, fmt.Errorf("missing ply magic")
			}
			continue
		}
		if line == "end_header" {
			break
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "format":
			if len(parts) >= 3 {
				header.Format = parts[1]
				header.Version = parts[2]
			}
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("invalid element line: %s", line)
			}
			count, err := strconv.Atoi(parts[2])
			if err != nil {
				return nil, fmt.Errorf("invalid element count: %s", parts[2])
			}
			currentElement = parts[1]
			switch currentElement {
			case "vertex":
				header.VertexCount = count
			case "face":
				header.FaceCount = count
			}
		case "property":
			prop, err := parsePLYProperty(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("failed to parse property: %w", err)
			}
			switch currentElement {
			case "vertex":
				header.VertexProps = append(header.VertexProps, prop)
				switch prop.Name {
				case "nx":
					normals[0] = true
				case "ny":
					normals[1] = true
				case "nz":
					normals[2] = true
				}
			case "face":
				header.FaceProps = append(header.FaceProps, prop)
			}
		}
	}

	header.HasNormals = normals[0] && normals[1] && normals[2]
	return header, nil
}

// parsePLYProperty parses a property line from the PLY header
func parsePLYProperty(parts []string) (PLYProperty, error) {
	if len(parts) < 2 {
		return PLYProperty{}, fmt.Errorf("invalid property definition")
	}

	if parts[0] == "list" {
		if len(parts) < 4 {
			return PLYProperty{}, fmt.Errorf("invalid list property definition")
		}
		return PLYProperty{IsList: true, ListType: parts[1], DataType: parts[2], Name: parts[3]}, nil
	}
	return PLYProperty{Type: parts[0], Name: parts[1]}, nil
}

func readPLYVertex(values plyValueReader, header *PLYHeader, mesh *geometry.Mesh) error {
	var position, normal [3]float32
	for _, prop := range header.VertexProps {
		if prop.IsList {
			if err := skipPLYList(values, prop); err != nil {
				return err
			}
			continue
		}
		v, err := values.scalar(prop.Type)
		if err != nil {
			return fmt.Errorf("property %s: %w", prop.Name, err)
		}
		switch prop.Name {
		case "x":
			position[0] = float32(v)
		case "y":
			position[1] = float32(v)
		case "z":
			position[2] = float32(v)
		case "nx":
			normal[0] = float32(v)
		case "ny":
			normal[1] = float32(v)
		case "nz":
			normal[2] = float32(v)
		}
	}

	mesh.Positions = append(mesh.Positions, position[:]...)
	if header.HasNormals {
		mesh.Normals = append(mesh.Normals, normal[:]...)
	}
	return nil
}

func readPLYFace(values plyValueReader, header *PLYHeader, mesh *geometry.Mesh) error {
	for _, prop := range header.FaceProps {
		if !prop.IsList || (prop.Name != "vertex_indices" && prop.Name != "vertex_index") {
			if err := skipPLYProperty(values, prop); err != nil {
				return fmt.Errorf("failed to skip face property %s: %w", prop.Name, err)
			}
			continue
		}

		count, err := values.scalar(prop.ListType)
		if err != nil {
			return fmt.Errorf("failed to read face vertex count: %w", err)
		}
		if count < 3 {
			return fmt.Errorf("face with %d vertices", int(count))
		}

		corners := make([]uint32, int(count))
		for i := range corners {
			idx, err := values.scalar(prop.DataType)
			if err != nil {
				return fmt.Errorf("failed to read face index: %w", err)
			}
			if idx < 0 || int(idx) >= mesh.VertexCount() {
				return fmt.Errorf("face index %v out of range [0, %d)", idx, mesh.VertexCount())
			}
			corners[i] = uint32(idx)
		}

		for i := 1; i+1 < len(corners); i++ {
			mesh.Indices = append(mesh.Indices, corners[0], corners[i], corners[i+1])
		}
	}
	return nil
}

func skipPLYProperty(values plyValueReader, prop PLYProperty) error {
	if prop.IsList {
		return skipPLYList(values, prop)
	}
	_, err := values.scalar(prop.Type)
	return err
}

func skipPLYList(values plyValueReader, prop PLYProperty) error {
	count, err := values.scalar(prop.ListType)
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		if _, err := values.scalar(prop.DataType); err != nil {
			return err
		}
	}
	return nil
}

// plyValueReader reads one scalar of a PLY data type as float64
type plyValueReader interface {
	scalar(dataType string) (float64, error)
}

type plyBinaryReader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *plyBinaryReader) scalar(dataType string) (float64, error) {
	size := getTypeSize(dataType)
	if size == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	data := b.buf[:size]
	if _, err := io.ReadFull(b.r, data); err != nil {
		return 0, err
	}

	switch dataType {
	case "float", "float32":
		return float64(math.Float32frombits(b.order.Uint32(data))), nil
	case "double", "float64":
		return math.Float64frombits(b.order.Uint64(data)), nil
	case "int", "int32":
		return float64(int32(b.order.Uint32(data))), nil
	case "uint", "uint32":
		return float64(b.order.Uint32(data)), nil
	case "short", "int16":
		return float64(int16(b.order.Uint16(data))), nil
	case "ushort", "uint16":
		return float64(b.order.Uint16(data)), nil
	case "char", "int8":
		return float64(int8(data[0])), nil
	default: // uchar, uint8
		return float64(data[0]), nil
	}
}

type plyASCIIReader struct {
	r      *bufio.Reader
	tokens []string
}

func (a *plyASCIIReader) scalar(dataType string) (float64, error) {
	for len(a.tokens) == 0 {
		line, err := a.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return 0, err
		}
		a.tokens = strings.Fields(line)
	}
	token := a.tokens[0]
	a.tokens = a.tokens[1:]

	if getTypeSize(dataType) == 0 {
		return 0, fmt.Errorf("unsupported data type: %s", dataType)
	}
	return strconv.ParseFloat(token, 64)
}

// getTypeSize returns the size in bytes of a PLY data type, 0 if unknown
func getTypeSize(dataType string) int {
	switch dataType {
	case "float", "float32", "int", "int32", "uint", "uint32":
		return 4
	case "double", "float64":
		return 8
	case "short", "int16", "ushort", "uint16":
		return 2
	case "char", "int8", "uchar", "uint8":
		return 1
	default:
		return 0
	}
}
