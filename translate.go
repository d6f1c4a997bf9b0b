// Package d3dmtl translates a decoded Direct3D bytecode (DXBC) shader
// program into an Apple AIR module, plus a pipeline-key/cache model for
// the resulting variants.
//
// The pipeline is four stages, one package each:
//
//  1. dxbc decodes the raw token stream into a sequence of Instruction
//     values.
//  2. ir/cfg lift each instruction into typed IR and, in the same pass,
//     reconstruct the control-flow graph (branches, loops, switches,
//     hull-shader phases), then inline CALL/CALLC subroutines.
//  3. air lowers the finished, inlined cfg.Program into one AIR
//     function.
//  4. pso keys and caches the compiled variants of a pipeline state
//     object.
//
// Translate and TranslateWithOptions drive stages 1-3 end to end;
// Decode, BuildCFG, and EmitAIR expose them individually for callers
// that need to inspect an intermediate stage (the reflection dump, for
// instance, reads the ShaderInfo BuildCFG populates without needing to
// reach EmitAIR at all).
//
// Input is the already-extracted SHDR/SHEX token stream: the program
// header followed by its instruction tokens, as a []uint32. Splitting a
// DXBC container into its named chunks (ISGN/OSGN/RDEF/SHEX) and
// locating SHEX within it is a container-format concern this package
// does not implement, matching dxbc's own scope.
package d3dmtl

import (
	"errors"
	"fmt"

	"github.com/gogpu/dxmtl/air"
	"github.com/gogpu/dxmtl/cfg"
	"github.com/gogpu/dxmtl/dxbc"
	"github.com/gogpu/dxmtl/ir"
	"github.com/gogpu/dxmtl/pso"
)

// Sentinel errors, one per §7 error kind; wrapping errors from Decode/
// BuildCFG/EmitAIR satisfy errors.Is against these so callers can branch
// on error kind without importing dxbc/ir/cfg/air directly.
var (
	ErrDecode          = errors.New("d3dmtl: decode failed")
	ErrUnsupported     = errors.New("d3dmtl: unsupported shader construct")
	ErrInconsistentCFG = errors.New("d3dmtl: inconsistent control flow")
	ErrCodegen         = errors.New("d3dmtl: codegen failed")
)

// Options configures one translation.
type Options struct {
	// Name is the emitted AIR function's name.
	Name string

	// Stage is the target AIR entry-point kind. EmitAIR and
	// EmitAIRVariant use it as given; TranslateWithOptions always
	// replaces it with the stage the decoded program header's
	// ProgramType implies.
	Stage air.Stage

	// OutputControlPointRead mirrors ir.ShaderInfo.OutputControlPointRead
	// before BuildCFG has run; only consulted for hull-shader programs,
	// where it picks ApplyHullEpilogue's epilogue shape. Ignored for
	// every other stage.
	OutputControlPointRead bool
}

// DefaultOptions returns the options Translate uses.
func DefaultOptions() Options {
	return Options{Name: "main", Stage: air.StageVertex}
}

// StageFromProgramType maps a decoded DXBC program header's shader
// type to the AIR entry-point kind it lowers to.
func StageFromProgramType(t dxbc.ProgramType) air.Stage {
	switch t {
	case dxbc.ProgramVertex:
		return air.StageVertex
	case dxbc.ProgramPixel:
		return air.StageFragment
	case dxbc.ProgramGeometry:
		return air.StageGeometry
	case dxbc.ProgramHull:
		return air.StageHull
	case dxbc.ProgramDomain:
		return air.StageDomain
	case dxbc.ProgramCompute:
		return air.StageCompute
	default:
		return air.StageVertex
	}
}

// Decode parses tokens into a Header plus the Instruction sequence it
// contains, reading every instruction to the end of the stream.
func Decode(tokens []uint32) (dxbc.Header, []*dxbc.Instruction, error) {
	cursor, err := dxbc.NewCursor(tokens)
	if err != nil {
		return dxbc.Header{}, nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var insts []*dxbc.Instruction
	for !cursor.Done() {
		inst, err := cursor.ParseInstruction()
		if err != nil {
			return dxbc.Header{}, nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		insts = append(insts, inst)
	}
	return cursor.Header, insts, nil
}

// BuildCFG lifts insts into typed IR while reconstructing their
// control-flow graph, then inlines every CALL/CALLC subroutine. For
// hull-shader programs it also applies the hull epilogue, using
// outputControlPointRead where the instruction stream hasn't yet told
// the builder's ShaderInfo otherwise.
func BuildCFG(insts []*dxbc.Instruction, stage air.Stage, outputControlPointRead bool) (*cfg.Program, *ir.ShaderInfo, error) {
	info := ir.NewShaderInfo()
	lifter := ir.NewLifter(info)
	builder := cfg.NewBuilder(lifter)

	for _, inst := range insts {
		if err := builder.Process(inst); err != nil {
			return nil, nil, classifyBuildError(err)
		}
	}

	prog, err := builder.Finish()
	if err != nil {
		return nil, nil, classifyBuildError(err)
	}

	if err := cfg.Inline(prog); err != nil {
		return nil, nil, classifyBuildError(err)
	}

	if stage == air.StageHull {
		ocpRead := outputControlPointRead || info.OutputControlPointRead
		cfg.ApplyHullEpilogue(prog, ocpRead)
	}

	return prog, info, nil
}

func classifyBuildError(err error) error {
	var unsupported *ir.UnsupportedShaderError
	if errors.As(err, &unsupported) {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	var inconsistent *cfg.InconsistentCFGError
	if errors.As(err, &inconsistent) {
		return fmt.Errorf("%w: %v", ErrInconsistentCFG, err)
	}
	var dup *ir.DuplicateRangeError
	if errors.As(err, &dup) {
		return fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	return fmt.Errorf("%w: %v", ErrInconsistentCFG, err)
}

// EmitAIR lowers a built, inlined cfg.Program into one AIR function.
func EmitAIR(prog *cfg.Program, info *ir.ShaderInfo, opts Options) (*air.Function, error) {
	fn, err := air.Emit(prog, info, opts.Name, opts.Stage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodegen, err)
	}
	return fn, nil
}

// EmitAIRVariant lowers a built, inlined cfg.Program the same way
// EmitAIR does, but specializes the emitted function's entry signature
// and return sequence for one stage's slice of a pso.VariantSet:
// geometry pass-through for a vertex shader (from the Domain slice's
// GSPassthroughMask), sample
// mask/dual-source/depth/unorm8 knobs for a pixel shader. Other stages
// have no variant-dependent signature shape yet, so they fall back to
// the plain Emit path with an empty air.VariantOptions.
func EmitAIRVariant(prog *cfg.Program, info *ir.ShaderInfo, opts Options, variants pso.VariantSet) (*air.Function, error) {
	fn, err := air.EmitVariant(prog, info, opts.Name, opts.Stage, variantOptionsFor(opts.Stage, variants))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodegen, err)
	}
	return fn, nil
}

// variantOptionsFor projects the one slice of variants relevant to
// stage into air.VariantOptions; every other stage gets the zero value
// (no specialization).
func variantOptionsFor(stage air.Stage, variants pso.VariantSet) air.VariantOptions {
	switch stage {
	case air.StageFragment:
		return air.VariantOptions{
			SampleMask:          variants.Pixel.SampleMask,
			DualSourceBlending:  variants.Pixel.DualSourceBlending,
			DepthOutputDisabled: variants.Pixel.DepthOutputDisabled,
			Unorm8OutputMask:    variants.Pixel.Unorm8OutputMask,
		}
	case air.StageVertex:
		var opts air.VariantOptions
		if mask := variants.Domain.GSPassthroughMask; mask != pso.GSPassthroughNone {
			opts.GSPassthrough = mask
		}
		return opts
	default:
		return air.VariantOptions{}
	}
}

// Translate decodes, lifts, and lowers tokens into a single AIR
// function using DefaultOptions with its Stage overridden by the
// decoded program header.
func Translate(tokens []uint32) (*air.Function, *ir.ShaderInfo, error) {
	return TranslateWithOptions(tokens, DefaultOptions())
}

// TranslateWithOptions runs the full Decode -> BuildCFG -> EmitAIR
// pipeline. opts.Stage is replaced with the stage implied by the
// decoded program header; the other Options fields are honored as
// given.
func TranslateWithOptions(tokens []uint32, opts Options) (*air.Function, *ir.ShaderInfo, error) {
	header, insts, err := Decode(tokens)
	if err != nil {
		return nil, nil, err
	}
	opts.Stage = StageFromProgramType(header.Type)

	prog, info, err := BuildCFG(insts, opts.Stage, opts.OutputControlPointRead)
	if err != nil {
		return nil, nil, err
	}

	fn, err := EmitAIR(prog, info, opts)
	if err != nil {
		return nil, info, err
	}
	return fn, info, nil
}
