package cfg

import (
	"fmt"

	"github.com/gogpu/dxmtl/dxbc"
	"github.com/gogpu/dxmtl/ir"
)

// Program is a built, fully-terminated control-flow graph: an arena of
// blocks reachable from Entry. As Finish returns it, CALL/CALLC sites
// are still Call terminators; Inline eliminates them in place.
type Program struct {
	Arena  *Arena
	Entry  BlockHandle
	Return BlockHandle // module's single Return{}-terminated block

	// FinalBlock is wherever the cursor sat when the instruction stream
	// ran out, for the HS output epilogue (see ApplyHullEpilogue).
	FinalBlock BlockHandle

	// SawControlPointPhase records whether an HS_CONTROL_POINT_PHASE
	// opcode was ever processed.
	SawControlPointPhase bool
}

// phaseFrame tracks one active hull-shader phase: the block whose
// terminator is this phase's InstanceBarrier (so a later
// DCL_HS_*_PHASE_INSTANCE_COUNT can override its Count), and the sync
// block RET inside the phase resumes at.
type phaseFrame struct {
	barrierBlock BlockHandle
	syncBlock    BlockHandle
}

// switchFrame tracks one open SWITCH..ENDSWITCH region.
type switchFrame struct {
	header      BlockHandle
	value       ir.Operand
	cases       []SwitchCase
	defaultBlk  BlockHandle
	hasDefault  bool
	breakTarget BlockHandle
}

// pendingCallSite is a CALL/CALLC whose target LABEL may not have
// been seen yet; Builder.Finish resolves labelID against b.labels
// once the whole instruction stream has been walked.
type pendingCallSite struct {
	block       BlockHandle
	labelID     uint32
	returnPoint BlockHandle
}

// Builder assembles one shader program's instruction stream into a
// Program. Create one with NewBuilder, call Process for every
// dxbc.Instruction in program order, then Finish.
type Builder struct {
	lifter *ir.Lifter
	arena  *Arena

	current BlockHandle
	void     BlockHandle // absorbs dead code after an unconditional terminator
	entry    BlockHandle
	moduleReturn BlockHandle

	endIfStack        []BlockHandle
	loopContinueStack []BlockHandle
	loopBreakStack    []BlockHandle
	switchStack       []*switchFrame
	functionReturnStack []BlockHandle
	phaseStack        []*phaseFrame

	labels       map[uint32]BlockHandle
	pendingCalls []pendingCallSite

	sawControlPointPhase bool
	usedHSPhases         bool
}

// NewBuilder returns a Builder ready to receive a program's
// instruction stream in order. lifter supplies operand canonicalization
// and owns the ShaderInfo registry the declarations populate.
func NewBuilder(lifter *ir.Lifter) *Builder {
	arena := NewArena()
	entry := arena.Alloc("entry")
	moduleReturn := arena.Alloc("module_return")
	arena.SetTerminator(moduleReturn, Return{})
	void := arena.Alloc("void")
	arena.SetTerminator(void, Return{})

	return &Builder{
		lifter:       lifter,
		arena:        arena,
		current:      entry,
		void:         void,
		entry:        entry,
		moduleReturn: moduleReturn,
		labels:       make(map[uint32]BlockHandle),
	}
}

// Process advances the builder by one decoded instruction.
func (b *Builder) Process(inst *dxbc.Instruction) error {
	switch inst.Opcode {
	case dxbc.OpIf:
		return b.doIf(inst)
	case dxbc.OpElse:
		return b.doElse(inst)
	case dxbc.OpEndIf:
		return b.doEndIf(inst)
	case dxbc.OpLoop:
		return b.doLoop(inst)
	case dxbc.OpEndLoop:
		return b.doEndLoop(inst)
	case dxbc.OpBreak:
		return b.doBreak(inst)
	case dxbc.OpContinue:
		return b.doContinue(inst)
	case dxbc.OpBreakc:
		return b.doBreakc(inst)
	case dxbc.OpContinuec:
		return b.doContinuec(inst)
	case dxbc.OpSwitch:
		return b.doSwitch(inst)
	case dxbc.OpCase:
		return b.doCase(inst)
	case dxbc.OpDefault:
		return b.doDefault(inst)
	case dxbc.OpEndSwitch:
		return b.doEndSwitch(inst)
	case dxbc.OpRet:
		return b.doRet(inst)
	case dxbc.OpRetc:
		return b.doRetc(inst)
	case dxbc.OpDiscard, dxbc.OpDiscardNZ:
		return b.doDiscard(inst)
	case dxbc.OpLabel:
		return b.doLabel(inst)
	case dxbc.OpCall:
		return b.doCall(inst)
	case dxbc.OpCallc:
		return b.doCallc(inst)
	case dxbc.OpHSDecls:
		return nil
	case dxbc.OpHSControlPointPhase:
		return b.doHSControlPointPhase(inst)
	case dxbc.OpHSForkPhase, dxbc.OpHSJoinPhase:
		return b.doHSPhase(inst)
	case dxbc.OpDclHSForkPhaseInstanceCount, dxbc.OpDclHSJoinPhaseInstanceCount:
		return b.doPhaseInstanceCount(inst)
	default:
		return b.emit(inst)
	}
}

// Finish resolves every pending CALL/CALLC's label reference and
// returns the built Program. Callers still need package cfg's inline
// pass to eliminate the resulting Call terminators.
func (b *Builder) Finish() (*Program, error) {
	for _, site := range b.pendingCalls {
		target, ok := b.labels[site.labelID]
		if !ok {
			return nil, newInconsistentCFGError(0, "call to undeclared label %d", site.labelID)
		}
		b.arena.SetTerminator(site.block, Call{Target: target, ReturnPoint: site.returnPoint})
	}
	if len(b.endIfStack) != 0 || len(b.loopContinueStack) != 0 || len(b.switchStack) != 0 {
		return nil, newInconsistentCFGError(0, "unbalanced control-flow stack at end of program")
	}
	// A hull-shader program's trailing block is closed by
	// ApplyHullEpilogue, not here; every other program's trailing block
	// gets an implicit branch to the module return, matching a shader
	// that falls off the end of its instruction stream without an
	// explicit final RET.
	if _, ok := b.arena.Block(b.current).Terminator.(Undefined); ok && !b.usedHSPhases {
		b.arena.SetTerminator(b.current, UnconditionalBranch{Target: b.moduleReturn})
	}
	for _, h := range b.arena.Blocks() {
		if h == b.current && b.usedHSPhases {
			continue
		}
		if _, ok := b.arena.Block(h).Terminator.(Undefined); ok {
			return nil, newInconsistentCFGError(0, "block %q left without a terminator", b.arena.Block(h).DebugTag)
		}
	}
	return &Program{
		Arena:                 b.arena,
		Entry:                 b.entry,
		Return:                b.moduleReturn,
		FinalBlock:            b.current,
		SawControlPointPhase:  b.sawControlPointPhase,
	}, nil
}

// emit lowers a straight-line instruction through the lifter and
// appends it to the current block, dropping it if current is the void
// sentinel (dead code after an unconditional terminator).
func (b *Builder) emit(inst *dxbc.Instruction) error {
	lifted, err := b.lifter.Lift(inst)
	if err != nil {
		return fmt.Errorf("lifting instruction at word %d: %w", inst.Offset, err)
	}
	if lifted == nil {
		return nil
	}
	if b.current == b.void {
		return nil
	}
	b.arena.Append(b.current, *lifted)
	return nil
}

func (b *Builder) cond(inst *dxbc.Instruction, idx int) ir.Operand {
	return b.lifter.Operand(inst.Operands[idx], ir.DataUint)
}

// branchTargets orders (taken, fallthrough) into ConditionalBranch's
// (True, False) fields according to the opcode's TestNonZero polarity:
// DISCARD_NZ/BREAKC/CONTINUEC/RETC test nonzero by default, their
// plain-DISCARD-style counterparts test zero.
func branchTargets(testNonZero bool, taken, fallthrough_ BlockHandle) (trueB, falseB BlockHandle) {
	if testNonZero {
		return taken, fallthrough_
	}
	return fallthrough_, taken
}

func (b *Builder) doIf(inst *dxbc.Instruction) error {
	ifTrue := b.arena.Alloc("if_true")
	endIf := b.arena.Alloc("end_if")
	trueB, falseB := branchTargets(inst.TestNonZero, ifTrue, endIf)
	b.arena.SetTerminator(b.current, ConditionalBranch{Cond: b.cond(inst, 0), True: trueB, False: falseB})
	b.endIfStack = append(b.endIfStack, endIf)
	b.current = ifTrue
	return nil
}

func (b *Builder) doElse(inst *dxbc.Instruction) error {
	if len(b.endIfStack) == 0 {
		return newInconsistentCFGError(inst.Offset, "else with no matching if")
	}
	top := b.endIfStack[len(b.endIfStack)-1]
	newEndIf := b.arena.Alloc("end_if")
	b.arena.SetTerminator(b.current, UnconditionalBranch{Target: top})
	b.arena.Block(top).DebugTag = "if_alternative"
	b.endIfStack[len(b.endIfStack)-1] = newEndIf
	b.current = top
	return nil
}

func (b *Builder) doEndIf(inst *dxbc.Instruction) error {
	if len(b.endIfStack) == 0 {
		return newInconsistentCFGError(inst.Offset, "endif with no matching if")
	}
	top := b.endIfStack[len(b.endIfStack)-1]
	b.endIfStack = b.endIfStack[:len(b.endIfStack)-1]
	b.arena.SetTerminator(b.current, UnconditionalBranch{Target: top})
	b.current = top
	return nil
}

func (b *Builder) doLoop(inst *dxbc.Instruction) error {
	entrance := b.arena.Alloc("loop_entrance")
	endLoop := b.arena.Alloc("end_loop")
	b.arena.SetTerminator(b.current, UnconditionalBranch{Target: entrance})
	b.loopContinueStack = append(b.loopContinueStack, entrance)
	b.loopBreakStack = append(b.loopBreakStack, endLoop)
	b.current = entrance
	return nil
}

func (b *Builder) doEndLoop(inst *dxbc.Instruction) error {
	if len(b.loopContinueStack) == 0 {
		return newInconsistentCFGError(inst.Offset, "endloop with no matching loop")
	}
	entrance := b.loopContinueStack[len(b.loopContinueStack)-1]
	endLoop := b.loopBreakStack[len(b.loopBreakStack)-1]
	b.loopContinueStack = b.loopContinueStack[:len(b.loopContinueStack)-1]
	b.loopBreakStack = b.loopBreakStack[:len(b.loopBreakStack)-1]
	b.arena.SetTerminator(b.current, UnconditionalBranch{Target: entrance})
	b.current = endLoop
	return nil
}

func (b *Builder) doBreak(inst *dxbc.Instruction) error {
	if len(b.loopBreakStack) == 0 {
		return newInconsistentCFGError(inst.Offset, "break outside a loop")
	}
	target := b.loopBreakStack[len(b.loopBreakStack)-1]
	b.arena.SetTerminator(b.current, UnconditionalBranch{Target: target})
	b.current = b.void
	return nil
}

func (b *Builder) doContinue(inst *dxbc.Instruction) error {
	if len(b.loopContinueStack) == 0 {
		return newInconsistentCFGError(inst.Offset, "continue outside a loop")
	}
	target := b.loopContinueStack[len(b.loopContinueStack)-1]
	b.arena.SetTerminator(b.current, UnconditionalBranch{Target: target})
	b.current = b.void
	return nil
}

func (b *Builder) doBreakc(inst *dxbc.Instruction) error {
	if len(b.loopBreakStack) == 0 {
		return newInconsistentCFGError(inst.Offset, "breakc outside a loop")
	}
	target := b.loopBreakStack[len(b.loopBreakStack)-1]
	after := b.arena.Alloc("after_breakc")
	trueB, falseB := branchTargets(inst.TestNonZero, target, after)
	b.arena.SetTerminator(b.current, ConditionalBranch{Cond: b.cond(inst, 0), True: trueB, False: falseB})
	b.current = after
	return nil
}

func (b *Builder) doContinuec(inst *dxbc.Instruction) error {
	if len(b.loopContinueStack) == 0 {
		return newInconsistentCFGError(inst.Offset, "continuec outside a loop")
	}
	target := b.loopContinueStack[len(b.loopContinueStack)-1]
	after := b.arena.Alloc("after_continuec")
	trueB, falseB := branchTargets(inst.TestNonZero, target, after)
	b.arena.SetTerminator(b.current, ConditionalBranch{Cond: b.cond(inst, 0), True: trueB, False: falseB})
	b.current = after
	return nil
}

func (b *Builder) doSwitch(inst *dxbc.Instruction) error {
	breakTarget := b.arena.Alloc("end_switch")
	frame := &switchFrame{
		header:      b.current,
		value:       b.cond(inst, 0),
		breakTarget: breakTarget,
	}
	b.switchStack = append(b.switchStack, frame)
	b.current = b.void
	return nil
}

func (b *Builder) topSwitch(inst *dxbc.Instruction) (*switchFrame, error) {
	if len(b.switchStack) == 0 {
		return nil, newInconsistentCFGError(inst.Offset, "switch case opcode with no open switch")
	}
	return b.switchStack[len(b.switchStack)-1], nil
}

func (b *Builder) doCase(inst *dxbc.Instruction) error {
	frame, err := b.topSwitch(inst)
	if err != nil {
		return err
	}
	caseBlock := b.arena.Alloc("case")
	frame.cases = append(frame.cases, SwitchCase{Value: immValue(inst.Operands[0]), Target: caseBlock})
	// A preceding case body with no BREAK falls through into this label.
	if b.current != b.void {
		b.arena.SetTerminator(b.current, UnconditionalBranch{Target: caseBlock})
	}
	b.current = caseBlock
	return nil
}

func (b *Builder) doDefault(inst *dxbc.Instruction) error {
	frame, err := b.topSwitch(inst)
	if err != nil {
		return err
	}
	defaultBlock := b.arena.Alloc("default")
	frame.defaultBlk = defaultBlock
	frame.hasDefault = true
	if b.current != b.void {
		b.arena.SetTerminator(b.current, UnconditionalBranch{Target: defaultBlock})
	}
	b.current = defaultBlock
	return nil
}

func (b *Builder) doEndSwitch(inst *dxbc.Instruction) error {
	frame, err := b.topSwitch(inst)
	if err != nil {
		return err
	}
	b.switchStack = b.switchStack[:len(b.switchStack)-1]
	if b.current != b.void {
		b.arena.SetTerminator(b.current, UnconditionalBranch{Target: frame.breakTarget})
	}
	def := frame.breakTarget
	if frame.hasDefault {
		def = frame.defaultBlk
	}
	b.arena.SetTerminator(frame.header, Switch{Value: frame.value, Cases: frame.cases, Default: def})
	b.current = frame.breakTarget
	return nil
}

// currentReturnTarget resolves RET/RETC's destination: the active
// LABEL-defined function's synthetic return block, else the active
// hull-shader phase's sync block, else the module's single return
// block.
func (b *Builder) currentReturnTarget() (target BlockHandle, isFunction, isPhase bool) {
	if len(b.functionReturnStack) > 0 {
		return b.functionReturnStack[len(b.functionReturnStack)-1], true, false
	}
	if len(b.phaseStack) > 0 {
		return b.phaseStack[len(b.phaseStack)-1].syncBlock, false, true
	}
	return b.moduleReturn, false, false
}

func (b *Builder) doRet(inst *dxbc.Instruction) error {
	target, isFunction, isPhase := b.currentReturnTarget()
	b.arena.SetTerminator(b.current, UnconditionalBranch{Target: target})
	switch {
	case isFunction:
		b.functionReturnStack = b.functionReturnStack[:len(b.functionReturnStack)-1]
		b.current = b.void
	case isPhase:
		b.phaseStack = b.phaseStack[:len(b.phaseStack)-1]
		b.current = target
	default:
		b.current = b.void
	}
	return nil
}

func (b *Builder) doRetc(inst *dxbc.Instruction) error {
	target, _, _ := b.currentReturnTarget()
	after := b.arena.Alloc("after_retc")
	trueB, falseB := branchTargets(inst.TestNonZero, target, after)
	b.arena.SetTerminator(b.current, ConditionalBranch{Cond: b.cond(inst, 0), True: trueB, False: falseB})
	b.current = after
	return nil
}

func (b *Builder) doDiscard(inst *dxbc.Instruction) error {
	fulfilled := b.arena.Alloc("discard_fulfilled")
	otherwise := b.arena.Alloc("discard_otherwise")
	trueB, falseB := branchTargets(inst.TestNonZero, fulfilled, otherwise)
	b.arena.SetTerminator(b.current, ConditionalBranch{Cond: b.cond(inst, 0), True: trueB, False: falseB})
	b.arena.Append(fulfilled, ir.Instruction{Kind: ir.InstDiscard{Cond: b.cond(inst, 0), NonZero: inst.TestNonZero}})
	b.arena.SetTerminator(fulfilled, UnconditionalBranch{Target: otherwise})
	b.current = otherwise
	return nil
}

func (b *Builder) doLabel(inst *dxbc.Instruction) error {
	labelID := immIndexValue(inst.Operands[0])
	entryBlock := b.arena.Alloc("label")
	returnBlock := b.arena.Alloc("function_return")
	b.arena.SetTerminator(returnBlock, Return{})
	b.labels[labelID] = entryBlock
	b.functionReturnStack = append(b.functionReturnStack, returnBlock)
	b.current = entryBlock
	return nil
}

func (b *Builder) doCall(inst *dxbc.Instruction) error {
	labelID := immIndexValue(inst.Operands[0])
	returnPoint := b.arena.Alloc("after_call")
	b.pendingCalls = append(b.pendingCalls, pendingCallSite{block: b.current, labelID: labelID, returnPoint: returnPoint})
	b.current = returnPoint
	return nil
}

func (b *Builder) doCallc(inst *dxbc.Instruction) error {
	labelID := immIndexValue(inst.Operands[1])
	callTaken := b.arena.Alloc("callc_taken")
	after := b.arena.Alloc("after_callc")
	trueB, falseB := branchTargets(inst.TestNonZero, callTaken, after)
	b.arena.SetTerminator(b.current, ConditionalBranch{Cond: b.cond(inst, 0), True: trueB, False: falseB})
	b.pendingCalls = append(b.pendingCalls, pendingCallSite{block: callTaken, labelID: labelID, returnPoint: after})
	b.current = after
	return nil
}

func (b *Builder) doHSControlPointPhase(inst *dxbc.Instruction) error {
	b.usedHSPhases = true
	b.sawControlPointPhase = true
	b.lifter.Info.NoControlPointPhasePassthrough = true
	count := b.lifter.Info.Tessellation.OutputControlPointCount
	b.lifter.Info.RaiseHullMaximumThreadsPerPatch(count)
	return b.openPhase(count)
}

func (b *Builder) doHSPhase(inst *dxbc.Instruction) error {
	b.usedHSPhases = true
	b.lifter.Info.RaiseHullMaximumThreadsPerPatch(1)
	return b.openPhase(1)
}

// openPhase closes the builder's "current" straight line into an
// InstanceBarrier pointing at a fresh phase body, pushing a
// phaseFrame so RET and a later instance-count override can find it.
func (b *Builder) openPhase(count uint32) error {
	body := b.arena.Alloc("phase_body")
	sync := b.arena.Alloc("phase_sync")
	b.arena.SetTerminator(b.current, InstanceBarrier{Count: count, Target: body})
	b.phaseStack = append(b.phaseStack, &phaseFrame{barrierBlock: b.current, syncBlock: sync})
	b.current = body
	return nil
}

func (b *Builder) doPhaseInstanceCount(inst *dxbc.Instruction) error {
	if len(b.phaseStack) == 0 {
		return newInconsistentCFGError(inst.Offset, "phase instance count declaration outside a fork/join phase")
	}
	count := immValue(inst.Operands[0])
	frame := b.phaseStack[len(b.phaseStack)-1]
	barrier, ok := b.arena.Block(frame.barrierBlock).Terminator.(InstanceBarrier)
	if !ok {
		return newInconsistentCFGError(inst.Offset, "phase barrier block has no InstanceBarrier terminator")
	}
	barrier.Count = count
	b.arena.SetTerminator(frame.barrierBlock, barrier)
	b.lifter.Info.RaiseHullMaximumThreadsPerPatch(count)
	return nil
}

// immValue reads an immediate32 operand's first literal word (case
// values, instance counts).
func immValue(o dxbc.Operand) uint32 {
	if len(o.ImmediateValues) > 0 {
		return uint32(o.ImmediateValues[0])
	}
	return 0
}

// immIndexValue reads a label operand's identifying number, encoded
// (like a declaration's range_id) as the first index dimension.
func immIndexValue(o dxbc.Operand) uint32 {
	if len(o.Indices) == 0 {
		return 0
	}
	idx := o.Indices[0]
	if idx.Repr == dxbc.IndexImmediate32 || idx.Repr == dxbc.IndexImmediate64 {
		return uint32(idx.Immediate)
	}
	return 0
}
