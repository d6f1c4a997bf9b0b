package cfg

import "github.com/gogpu/dxmtl/ir"

// Terminator is a closed sum type: every block ends in exactly one of
// these.
type Terminator interface {
	terminator()
}

// Undefined marks a block the builder has allocated but not yet
// terminated. A CFG with any Undefined terminator left after building
// is malformed — see Builder.Finish.
type Undefined struct{}

func (Undefined) terminator() {}

// Return ends execution of the whole program (the module's exit
// block).
type Return struct{}

func (Return) terminator() {}

// UnconditionalBranch transfers control to Target.
type UnconditionalBranch struct {
	Target BlockHandle
}

func (UnconditionalBranch) terminator() {}

// ConditionalBranch transfers to True if Cond is nonzero, else to
// False. DXBC's conditional opcodes all reduce to this after CFG
// construction.
type ConditionalBranch struct {
	Cond        ir.Operand
	True, False BlockHandle
}

func (ConditionalBranch) terminator() {}

// SwitchCase maps one immediate case value to its target block.
type SwitchCase struct {
	Value  uint32
	Target BlockHandle
}

// Switch dispatches on Value to the matching Cases entry, or Default
// if none match.
type Switch struct {
	Value   ir.Operand
	Cases   []SwitchCase
	Default BlockHandle
}

func (Switch) terminator() {}

// InstanceBarrier marks a hull-shader phase boundary: Count patch
// instances execute Target before the phase is considered complete.
type InstanceBarrier struct {
	Count  uint32
	Target BlockHandle
}

func (InstanceBarrier) terminator() {}

// HullShaderWriteOutput is the synthetic epilogue terminator inserted
// when a hull shader reads control-point outputs during a
// patch-constant phase, or omits the control-point phase entirely.
type HullShaderWriteOutput struct {
	Target BlockHandle
}

func (HullShaderWriteOutput) terminator() {}

// Call is a pending call site: Target is the callee's entry block,
// ReturnPoint is where control resumes after the callee executes. All
// Call terminators are eliminated by inlining before the CFG is
// considered complete.
type Call struct {
	Target      BlockHandle
	ReturnPoint BlockHandle
}

func (Call) terminator() {}
