package gpu

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

//go:embed shaders/pathtrace.wgsl
var pathTraceWGSL string

// EntryPoint is the compute entry point of the path tracing shader
const EntryPoint = "main"

// ErrShaderContract is returned when the shader and the bind group layout disagree
var ErrShaderContract = errors.New("shader does not match bind group contract")

// ShaderSource returns the embedded WGSL source
func ShaderSource() string {
	return pathTraceWGSL
}

// ShaderInfo summarizes a validated shader module
type ShaderInfo struct {
	Bindings  []Binding
	Workgroup [3]uint32
}

// ValidateShader parses, lowers and validates WGSL source, then checks that
// it declares exactly the group 0 bindings the executor binds.
func ValidateShader(source string) (*ShaderInfo, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse shader: %w", err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lower shader: %w", err)
	}
	problems, err := naga.Validate(module)
	if err != nil {
		return nil, fmt.Errorf("validate shader: %w", err)
	}
	if len(problems) > 0 {
		msgs := make([]string, len(problems))
		for i, p := range problems {
			msgs[i] = p.Error()
		}
		return nil, fmt.Errorf("validate shader: %s", strings.Join(msgs, "; "))
	}
	return checkContract(module)
}

func checkContract(module *ir.Module) (*ShaderInfo, error) {
	info := &ShaderInfo{}

	found := false
	for _, ep := range module.EntryPoints {
		if ep.Name != EntryPoint {
			continue
		}
		if ep.Stage != ir.StageCompute {
			return nil, fmt.Errorf("%w: entry point %q is not a compute shader", ErrShaderContract, EntryPoint)
		}
		if ep.Workgroup != [3]uint32{WorkgroupSize, WorkgroupSize, 1} {
			return nil, fmt.Errorf("%w: workgroup size %v, want %dx%dx1", ErrShaderContract, ep.Workgroup, WorkgroupSize, WorkgroupSize)
		}
		info.Workgroup = ep.Workgroup
		found = true
	}
	if !found {
		return nil, fmt.Errorf("%w: missing entry point %q", ErrShaderContract, EntryPoint)
	}

	declared := make(map[uint32]Binding)
	for _, gv := range module.GlobalVariables {
		if gv.Binding == nil {
			continue
		}
		if gv.Binding.Group != 0 {
			return nil, fmt.Errorf("%w: %s is in group %d", ErrShaderContract, gv.Name, gv.Binding.Group)
		}
		declared[gv.Binding.Binding] = Binding{Slot: gv.Binding.Binding, Name: gv.Name, Space: spaceName(gv.Space)}
	}

	for _, want := range Bindings {
		got, ok := declared[want.Slot]
		if !ok {
			return nil, fmt.Errorf("%w: slot %d (%s) not declared", ErrShaderContract, want.Slot, want.Name)
		}
		if got.Space != want.Space {
			return nil, fmt.Errorf("%w: slot %d is %s, want %s", ErrShaderContract, want.Slot, got.Space, want.Space)
		}
		info.Bindings = append(info.Bindings, got)
		delete(declared, want.Slot)
	}
	if len(declared) > 0 {
		extra := make([]int, 0, len(declared))
		for slot := range declared {
			extra = append(extra, int(slot))
		}
		sort.Ints(extra)
		return nil, fmt.Errorf("%w: unexpected slots %v", ErrShaderContract, extra)
	}
	return info, nil
}

func spaceName(space ir.AddressSpace) string {
	switch space {
	case ir.SpaceUniform:
		return "uniform"
	case ir.SpaceStorage:
		return "storage"
	case ir.SpaceHandle:
		return "handle"
	default:
		return fmt.Sprintf("space(%d)", space)
	}
}
