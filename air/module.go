package air

import "strings"

// Stage names the shader stage a Function implements, mirroring
// DXBC's program type.
type Stage uint8

const (
	StageVertex Stage = iota
	StageFragment
	StageCompute
	StageHull
	StageDomain
	StageGeometry
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	case StageCompute:
		return "kernel"
	case StageHull:
		return "hull"
	case StageDomain:
		return "domain"
	case StageGeometry:
		return "object"
	default:
		return "unknown"
	}
}

// Function is one emitted AIR function: its signature line plus the
// recorded body lines (allocas, basic-block labels, instructions).
type Function struct {
	Name  string
	Stage Stage
	Lines []string
}

// Module is a built AIR module: a target triple/data layout preamble
// (ModuleBuilder styled on spirv.ModuleBuilder) plus every emitted
// Function.
type Module struct {
	TargetTriple string
	DataLayout   string
	Functions    []*Function
}

// NewModule returns a Module preamble targeting the air64 triple Metal
// Shading Language compiles to.
func NewModule() *Module {
	return &Module{
		TargetTriple: "air64-apple-macosx14.0.0",
		DataLayout:   "e-p:64:64:64-i1:8:8-i8:8:8-i16:16:16-i32:32:32-i64:64:64-f32:32:32-f64:64:64-v16:16:16-v24:32:32-v32:32:32-v48:64:64-v64:64:64-v96:128:128-v128:128:128-v192:256:256-v256:256:256-v512:512:512-v1024:1024:1024-n8:16:32",
	}
}

// String renders the whole module as readable textual AIR, the -S
// driver's output.
func (m *Module) String() string {
	var sb strings.Builder
	sb.WriteString("target datalayout = \"" + m.DataLayout + "\"\n")
	sb.WriteString("target triple = \"" + m.TargetTriple + "\"\n\n")
	for _, fn := range m.Functions {
		for _, line := range fn.Lines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Build returns the module's bitcode-wrapper encoding: a trivial
// 20-byte header followed by the textual AIR as its payload, since
// this repo doesn't implement a real LLVM bitcode writer.
func (m *Module) Build() []byte {
	text := m.String()
	header := []byte{
		0x0B, 0x17, 0xC0, 0xDE, // bitcode wrapper magic
		0, 0, 0, 0, // version
		20, 0, 0, 0, // offset to payload (this header's length)
		0, 0, 0, 0, // payload size, patched below
		0, 0, 0, 0, // cpu type
	}
	size := len(text)
	header[12] = byte(size)
	header[13] = byte(size >> 8)
	header[14] = byte(size >> 16)
	header[15] = byte(size >> 24)
	return append(header, text...)
}
