package cfg

import (
	"testing"

	"github.com/gogpu/dxmtl/dxbc"
	"github.com/gogpu/dxmtl/ir"
)

func tempOperand(reg uint32) dxbc.Operand {
	return dxbc.Operand{
		Type:          dxbc.OperandTemp,
		NumComponents: 4,
		Selection:     dxbc.SelectMask,
		SelectionData: 0xf,
		Indices:       []dxbc.Index{{Repr: dxbc.IndexImmediate32, Immediate: uint64(reg)}},
	}
}

func singleComponentOperand(reg uint32) dxbc.Operand {
	return dxbc.Operand{
		Type:          dxbc.OperandTemp,
		NumComponents: 1,
		Selection:     dxbc.SelectSingle,
		Indices:       []dxbc.Index{{Repr: dxbc.IndexImmediate32, Immediate: uint64(reg)}},
	}
}

func labelOperand(id uint32) dxbc.Operand {
	return dxbc.Operand{Indices: []dxbc.Index{{Repr: dxbc.IndexImmediate32, Immediate: uint64(id)}}}
}

func immOperand(v uint32) dxbc.Operand {
	return dxbc.Operand{Type: dxbc.OperandImmediate32, ImmediateValues: []uint64{uint64(v)}}
}

func newTestBuilder() *Builder {
	return NewBuilder(ir.NewLifter(ir.NewShaderInfo()))
}

func process(t *testing.T, b *Builder, instrs ...*dxbc.Instruction) {
	t.Helper()
	for _, inst := range instrs {
		if err := b.Process(inst); err != nil {
			t.Fatalf("Process(%s): %v", inst.Opcode.Name(), err)
		}
	}
}

func TestIfElseEndIfShape(t *testing.T) {
	b := newTestBuilder()
	process(t, b,
		&dxbc.Instruction{Opcode: dxbc.OpMov, Operands: []dxbc.Operand{tempOperand(0), tempOperand(1)}},
		&dxbc.Instruction{Opcode: dxbc.OpIf, TestNonZero: true, Operands: []dxbc.Operand{singleComponentOperand(0)}},
		&dxbc.Instruction{Opcode: dxbc.OpMov, Operands: []dxbc.Operand{tempOperand(2), tempOperand(3)}},
		&dxbc.Instruction{Opcode: dxbc.OpElse},
		&dxbc.Instruction{Opcode: dxbc.OpMov, Operands: []dxbc.Operand{tempOperand(4), tempOperand(5)}},
		&dxbc.Instruction{Opcode: dxbc.OpEndIf},
		&dxbc.Instruction{Opcode: dxbc.OpRet},
	)
	prog, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	entry := prog.Arena.Block(prog.Entry)
	cb, ok := entry.Terminator.(ConditionalBranch)
	if !ok {
		t.Fatalf("entry terminator = %T, want ConditionalBranch", entry.Terminator)
	}
	ifTrue := prog.Arena.Block(cb.True)
	if len(ifTrue.Instructions) != 1 {
		t.Fatalf("if_true has %d instructions, want 1", len(ifTrue.Instructions))
	}
	ifFalseBranch, ok := ifTrue.Terminator.(UnconditionalBranch)
	if !ok {
		t.Fatalf("if_true terminator = %T, want UnconditionalBranch", ifTrue.Terminator)
	}
	alt := prog.Arena.Block(ifFalseBranch.Target)
	if alt.DebugTag != "if_alternative" {
		t.Errorf("renamed block tag = %q, want if_alternative", alt.DebugTag)
	}
	joinBranch, ok := alt.Terminator.(UnconditionalBranch)
	if !ok {
		t.Fatalf("if_alternative terminator = %T, want UnconditionalBranch", alt.Terminator)
	}
	join := prog.Arena.Block(joinBranch.Target)
	if _, ok := join.Terminator.(UnconditionalBranch); !ok {
		t.Fatalf("join terminator = %T, want UnconditionalBranch to module return", join.Terminator)
	}
}

func TestLoopBreakShape(t *testing.T) {
	b := newTestBuilder()
	process(t, b,
		&dxbc.Instruction{Opcode: dxbc.OpLoop},
		&dxbc.Instruction{Opcode: dxbc.OpBreakc, TestNonZero: true, Operands: []dxbc.Operand{singleComponentOperand(0)}},
		&dxbc.Instruction{Opcode: dxbc.OpMov, Operands: []dxbc.Operand{tempOperand(0), tempOperand(1)}},
		&dxbc.Instruction{Opcode: dxbc.OpContinue},
		&dxbc.Instruction{Opcode: dxbc.OpEndLoop},
		&dxbc.Instruction{Opcode: dxbc.OpRet},
	)
	prog, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	entryBranch, ok := prog.Arena.Block(prog.Entry).Terminator.(UnconditionalBranch)
	if !ok {
		t.Fatalf("entry terminator = %T, want UnconditionalBranch into loop_entrance", prog.Arena.Block(prog.Entry).Terminator)
	}
	entrance := prog.Arena.Block(entryBranch.Target)
	if entrance.DebugTag != "loop_entrance" {
		t.Fatalf("target tag = %q, want loop_entrance", entrance.DebugTag)
	}
	cb, ok := entrance.Terminator.(ConditionalBranch)
	if !ok {
		t.Fatalf("loop_entrance terminator = %T, want ConditionalBranch", entrance.Terminator)
	}
	breakTarget := prog.Arena.Block(cb.True)
	if breakTarget.DebugTag != "end_loop" {
		t.Errorf("breakc true target tag = %q, want end_loop", breakTarget.DebugTag)
	}
}

func TestSwitchCaseDefaultShape(t *testing.T) {
	b := newTestBuilder()
	process(t, b,
		&dxbc.Instruction{Opcode: dxbc.OpSwitch, Operands: []dxbc.Operand{singleComponentOperand(0)}},
		&dxbc.Instruction{Opcode: dxbc.OpCase, Operands: []dxbc.Operand{immOperand(1)}},
	)
	// End the case body without BREAK: the builder closes it by falling
	// through into the DEFAULT label, and ENDSWITCH closes that one.
	process(t, b,
		&dxbc.Instruction{Opcode: dxbc.OpDefault},
		&dxbc.Instruction{Opcode: dxbc.OpEndSwitch},
		&dxbc.Instruction{Opcode: dxbc.OpRet},
	)
	prog, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	sw, ok := prog.Arena.Block(prog.Entry).Terminator.(Switch)
	if !ok {
		t.Fatalf("entry terminator = %T, want Switch", prog.Arena.Block(prog.Entry).Terminator)
	}
	if len(sw.Cases) != 1 || sw.Cases[0].Value != 1 {
		t.Fatalf("Cases = %+v, want one case with value 1", sw.Cases)
	}
}

func TestCallInlineRewritesReturn(t *testing.T) {
	b := newTestBuilder()
	process(t, b,
		&dxbc.Instruction{Opcode: dxbc.OpCall, Operands: []dxbc.Operand{labelOperand(0)}},
		&dxbc.Instruction{Opcode: dxbc.OpRet},
		&dxbc.Instruction{Opcode: dxbc.OpLabel, Operands: []dxbc.Operand{labelOperand(0)}},
		&dxbc.Instruction{Opcode: dxbc.OpMov, Operands: []dxbc.Operand{tempOperand(0), tempOperand(1)}},
		&dxbc.Instruction{Opcode: dxbc.OpRet},
	)
	prog, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	entry := prog.Arena.Block(prog.Entry)
	call, ok := entry.Terminator.(Call)
	if !ok {
		t.Fatalf("entry terminator = %T, want Call", entry.Terminator)
	}
	calleeBody := prog.Arena.Block(call.Target)
	if len(calleeBody.Instructions) != 1 {
		t.Fatalf("callee body has %d instructions, want 1", len(calleeBody.Instructions))
	}

	if err := Inline(prog); err != nil {
		t.Fatalf("Inline: %v", err)
	}
	entry = prog.Arena.Block(prog.Entry)
	branch, ok := entry.Terminator.(UnconditionalBranch)
	if !ok {
		t.Fatalf("post-inline entry terminator = %T, want UnconditionalBranch", entry.Terminator)
	}
	clonedEntry := prog.Arena.Block(branch.Target)
	if len(clonedEntry.Instructions) != 1 {
		t.Fatalf("cloned callee entry has %d instructions, want 1", len(clonedEntry.Instructions))
	}
	clonedReturn, ok := clonedEntry.Terminator.(UnconditionalBranch)
	if !ok {
		t.Fatalf("cloned callee terminator = %T, want UnconditionalBranch (Return rewritten)", clonedEntry.Terminator)
	}
	for _, h := range prog.Arena.Blocks() {
		if _, isCall := prog.Arena.Block(h).Terminator.(Call); isCall {
			t.Fatalf("block %d still has a Call terminator after Inline", h)
		}
	}
	_ = clonedReturn
}

func TestDiscardBuildsConditionalBranch(t *testing.T) {
	b := newTestBuilder()
	process(t, b,
		&dxbc.Instruction{Opcode: dxbc.OpDiscardNZ, TestNonZero: true, Operands: []dxbc.Operand{singleComponentOperand(0)}},
		&dxbc.Instruction{Opcode: dxbc.OpRet},
	)
	prog, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	cb, ok := prog.Arena.Block(prog.Entry).Terminator.(ConditionalBranch)
	if !ok {
		t.Fatalf("entry terminator = %T, want ConditionalBranch", prog.Arena.Block(prog.Entry).Terminator)
	}
	fulfilled := prog.Arena.Block(cb.True)
	if len(fulfilled.Instructions) != 1 {
		t.Fatalf("discard_fulfilled has %d instructions, want 1", len(fulfilled.Instructions))
	}
	if _, ok := fulfilled.Instructions[0].Kind.(ir.InstDiscard); !ok {
		t.Fatalf("fulfilled instruction kind = %T, want ir.InstDiscard", fulfilled.Instructions[0].Kind)
	}
}

func TestHSControlPointPhaseBuildsInstanceBarrier(t *testing.T) {
	b := newTestBuilder()
	b.lifter.Info.Tessellation.OutputControlPointCount = 3
	process(t, b,
		&dxbc.Instruction{Opcode: dxbc.OpHSDecls},
		&dxbc.Instruction{Opcode: dxbc.OpHSControlPointPhase},
		&dxbc.Instruction{Opcode: dxbc.OpMov, Operands: []dxbc.Operand{tempOperand(0), tempOperand(1)}},
		&dxbc.Instruction{Opcode: dxbc.OpRet},
	)
	prog, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	barrier, ok := prog.Arena.Block(prog.Entry).Terminator.(InstanceBarrier)
	if !ok {
		t.Fatalf("entry terminator = %T, want InstanceBarrier", prog.Arena.Block(prog.Entry).Terminator)
	}
	if barrier.Count != 3 {
		t.Errorf("barrier.Count = %d, want 3", barrier.Count)
	}
	if !b.lifter.Info.NoControlPointPhasePassthrough {
		t.Errorf("NoControlPointPhasePassthrough not set")
	}

	ApplyHullEpilogue(prog, true) // simulate a patch-constant phase reading control-point outputs
	final := prog.Arena.Block(prog.FinalBlock)
	if _, ok := final.Terminator.(HullShaderWriteOutput); !ok {
		t.Fatalf("final terminator = %T, want HullShaderWriteOutput", final.Terminator)
	}
}

func TestHSEpilogueBranchesWhenOutputsNotRead(t *testing.T) {
	b := newTestBuilder()
	b.lifter.Info.Tessellation.OutputControlPointCount = 2
	process(t, b,
		&dxbc.Instruction{Opcode: dxbc.OpHSControlPointPhase},
		&dxbc.Instruction{Opcode: dxbc.OpRet},
	)
	prog, err := b.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	ApplyHullEpilogue(prog, false)
	final := prog.Arena.Block(prog.FinalBlock)
	if _, ok := final.Terminator.(UnconditionalBranch); !ok {
		t.Fatalf("final terminator = %T, want UnconditionalBranch", final.Terminator)
	}
}
