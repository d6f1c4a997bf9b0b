package cfg

// ApplyHullEpilogue closes out a hull-shader program's final block: if
// the program reads control-point outputs during a patch-constant
// phase, or never declared a control-point phase at all, the control
// points need an explicit write before the module returns, so the
// epilogue is a HullShaderWriteOutput terminator; otherwise it's a
// plain branch to the module's return block. outputControlPointRead is
// ir.ShaderInfo.OutputControlPointRead.
//
// Call this once, after Inline, for hull-shader programs only; other
// stages never populate Program.SawControlPointPhase meaningfully and
// should skip this pass.
func ApplyHullEpilogue(prog *Program, outputControlPointRead bool) {
	final := prog.FinalBlock
	if final == prog.Return {
		return
	}
	block := prog.Arena.Block(final)
	if _, undef := block.Terminator.(Undefined); !undef {
		return
	}
	if outputControlPointRead || !prog.SawControlPointPhase {
		prog.Arena.SetTerminator(final, HullShaderWriteOutput{Target: prog.Return})
		return
	}
	prog.Arena.SetTerminator(final, UnconditionalBranch{Target: prog.Return})
}
