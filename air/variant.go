package air

import (
	"fmt"

	"github.com/gogpu/dxmtl/cfg"
	"github.com/gogpu/dxmtl/dxbc"
	"github.com/gogpu/dxmtl/ir"
)

// VariantOptions carries the per-PSO knobs a single compiled DXBC
// program's AIR function must vary by, grounded in dxmt's
// IMTLD3D11Shader::GetCompiledPixelShader/GetCompiledVertexShader
// (src/d3d11/d3d11_shader.hpp): a vertex shader specializes on its
// input-layout-driven geometry pass-through, a pixel shader on sample
// mask, dual-source blending, disabled depth output, and which color
// outputs need unorm8 clamping. DualSourceBlending and GSPassthrough
// are recorded as function-level metadata rather than threaded through
// a second data path: the cfg/ir model carries no multi-render-target
// or GS-amplification dataflow for a fuller implementation to hang
// off of.
type VariantOptions struct {
	SampleMask          uint32
	DualSourceBlending  bool
	DepthOutputDisabled bool
	Unorm8OutputMask    uint32
	GSPassthrough       uint32
}

// EmitVariant lowers prog into one AIR Function the same way Emit
// does, then specializes its entry signature and return sequence per
// opts.
func EmitVariant(prog *cfg.Program, info *ir.ShaderInfo, name string, stage Stage, opts VariantOptions) (*Function, error) {
	fb := NewFunctionBuilder(name, stage)
	buildSignature(fb, info)
	applyVariant(fb, opts)

	order, err := reachable(prog)
	if err != nil {
		return nil, err
	}
	for _, h := range order {
		block := prog.Arena.Block(h)
		fb.Label(blockLabel(h))
		for _, inst := range block.Instructions {
			if err := lowerInstruction(fb, inst); err != nil {
				return nil, err
			}
		}
		if err := lowerTerminator(fb, h, block.Terminator); err != nil {
			return nil, err
		}
	}
	return fb.Build(), nil
}

func applyVariant(fb *FunctionBuilder, opts VariantOptions) {
	if opts.DepthOutputDisabled {
		for reg, sv := range fb.outputSV {
			if sv == dxbc.SVDepth {
				fb.SkipOutput(reg)
			}
		}
	}
	for reg := range fb.outputAllocas {
		if opts.Unorm8OutputMask&(1<<reg) != 0 {
			fb.ClampOutputUnorm8(reg)
		}
	}
	if opts.SampleMask != 0xffffffff {
		fb.ApplySampleMask(opts.SampleMask)
	}
	if opts.DualSourceBlending {
		fb.AddFunctionAttribute("dual_source_blending")
	}
	if opts.GSPassthrough != 0 {
		fb.AddFunctionAttribute(fmt.Sprintf("gs_passthrough_mask(%d)", opts.GSPassthrough))
	}
}
