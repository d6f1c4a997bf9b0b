package d3dmtl

import (
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/dxmtl/air"
	"github.com/gogpu/dxmtl/dxbc"
	"github.com/gogpu/dxmtl/ir"
)

func tempOp(reg uint32) dxbc.Operand {
	return dxbc.Operand{
		Type:          dxbc.OperandTemp,
		NumComponents: 4,
		Selection:     dxbc.SelectMask,
		SelectionData: 0xf,
		Indices:       []dxbc.Index{{Repr: dxbc.IndexImmediate32, Immediate: uint64(reg)}},
	}
}

func singleCompOp(reg uint32) dxbc.Operand {
	return dxbc.Operand{
		Type:          dxbc.OperandTemp,
		NumComponents: 1,
		Selection:     dxbc.SelectSingle,
		Indices:       []dxbc.Index{{Repr: dxbc.IndexImmediate32, Immediate: uint64(reg)}},
	}
}

func inputOp(reg uint32) dxbc.Operand {
	return dxbc.Operand{
		Type:          dxbc.OperandInput,
		NumComponents: 4,
		Selection:     dxbc.SelectSwizzle,
		SelectionData: 0xe4, // identity swizzle
		Indices:       []dxbc.Index{{Repr: dxbc.IndexImmediate32, Immediate: uint64(reg)}},
	}
}

func outputOp(reg uint32) dxbc.Operand {
	return dxbc.Operand{
		Type:          dxbc.OperandOutput,
		NumComponents: 4,
		Selection:     dxbc.SelectMask,
		SelectionData: 0xf,
		Indices:       []dxbc.Index{{Repr: dxbc.IndexImmediate32, Immediate: uint64(reg)}},
	}
}

func immOp(v uint32) dxbc.Operand {
	return dxbc.Operand{Type: dxbc.OperandImmediate32, ImmediateValues: []uint64{uint64(v)}}
}

func rangeOp(rangeID, secondary uint32) dxbc.Operand {
	return dxbc.Operand{
		Indices: []dxbc.Index{
			{Repr: dxbc.IndexImmediate32, Immediate: uint64(rangeID)},
			{Repr: dxbc.IndexImmediate32, Immediate: uint64(secondary)},
		},
	}
}

func cbOperand(rangeID, element uint32) dxbc.Operand {
	return dxbc.Operand{
		Type:          dxbc.OperandConstantBuffer,
		NumComponents: 4,
		Selection:     dxbc.SelectSwizzle,
		SelectionData: 0xe4, // identity swizzle
		Indices: []dxbc.Index{
			{Repr: dxbc.IndexImmediate32, Immediate: uint64(rangeID)},
			{Repr: dxbc.IndexImmediate32, Immediate: uint64(element)},
		},
	}
}

func uavOperand(rangeID uint32) dxbc.Operand {
	return dxbc.Operand{
		Type:    dxbc.OperandUAV,
		Indices: []dxbc.Index{{Repr: dxbc.IndexImmediate32, Immediate: uint64(rangeID)}},
	}
}

func airText(fn *air.Function) string { return strings.Join(fn.Lines, "\n") }

// Scenario 1: the smallest possible vertex shader — declare one input
// and one output register, move the input straight to the output, and
// return it. The declarations must produce a real stage-in parameter
// and a real struct-typed return, not a void function that silently
// drops the data.
func TestTranslateMinimalVertexShaderMovRet(t *testing.T) {
	insts := []*dxbc.Instruction{
		{Opcode: dxbc.OpDclInput, Operands: []dxbc.Operand{inputOp(0)}},
		{Opcode: dxbc.OpDclOutput, Operands: []dxbc.Operand{outputOp(0)}},
		{Opcode: dxbc.OpMov, Operands: []dxbc.Operand{outputOp(0), inputOp(0)}},
		{Opcode: dxbc.OpRet},
	}

	prog, info, err := BuildCFG(insts, air.StageVertex, false)
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	if _, ok := info.Inputs[0]; !ok {
		t.Fatal("input register v0 not reflected into ShaderInfo")
	}
	if _, ok := info.Outputs[0]; !ok {
		t.Fatal("output register o0 not reflected into ShaderInfo")
	}

	fn, err := EmitAIR(prog, info, Options{Name: "main", Stage: air.StageVertex})
	if err != nil {
		t.Fatalf("EmitAIR: %v", err)
	}

	text := airText(fn)
	if !strings.Contains(text, "define vertex { <4 x float> } @main(") {
		t.Fatalf("missing struct-typed vertex signature:\n%s", text)
	}
	if !strings.Contains(text, "[[attribute(0)]]") {
		t.Fatalf("missing bound stage-in attribute for v0:\n%s", text)
	}
	if !strings.Contains(text, "ret { <4 x float> }") {
		t.Fatalf("missing struct-typed return:\n%s", text)
	}
	if strings.Contains(text, "ret void") {
		t.Fatalf("a declared-output vertex shader must not return void:\n%s", text)
	}
	// Only o0's alloca is needed: v0 reads straight off the bound
	// parameter and never touches the mutable-register file.
	allocas := strings.Count(text, "alloca")
	if allocas != 1 {
		t.Fatalf("alloca count = %d, want 1 (the o0 output slot)", allocas)
	}
}

// Scenario 2: IF (r0.x != 0) DISCARD; ENDIF; RET — a conditional
// discard compiling down to a branch around a kill call.
func TestTranslateConditionalDiscard(t *testing.T) {
	insts := []*dxbc.Instruction{
		{Opcode: dxbc.OpIf, TestNonZero: true, Operands: []dxbc.Operand{singleCompOp(0)}},
		{Opcode: dxbc.OpDiscard, TestNonZero: true, Operands: []dxbc.Operand{singleCompOp(0)}},
		{Opcode: dxbc.OpEndIf},
		{Opcode: dxbc.OpRet},
	}

	prog, info, err := BuildCFG(insts, air.StageFragment, false)
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	fn, err := EmitAIR(prog, info, Options{Name: "main", Stage: air.StageFragment})
	if err != nil {
		t.Fatalf("EmitAIR: %v", err)
	}

	text := airText(fn)
	if !strings.Contains(text, "br i1") {
		t.Fatalf("missing conditional branch:\n%s", text)
	}
	if !strings.Contains(text, "air.discard_fragment") {
		t.Fatalf("missing discard call:\n%s", text)
	}
	if !strings.Contains(text, "define fragment void @main(") {
		t.Fatalf("missing fragment signature:\n%s", text)
	}
}

// Scenario 3: a constant-buffer binding declared and read. The bound
// cb0 parameter must actually back the read: a getelementptr into it
// at the operand's element index, followed by a load, not the
// zeroinitializer placeholder reserved for unmodeled operand kinds.
func TestTranslateConstantBufferBindingReflected(t *testing.T) {
	insts := []*dxbc.Instruction{
		{Opcode: dxbc.OpDclConstantBuffer, Operands: []dxbc.Operand{rangeOp(0, 4)}},
		{Opcode: dxbc.OpMov, Operands: []dxbc.Operand{tempOp(0), cbOperand(0, 2)}},
		{Opcode: dxbc.OpRet},
	}

	prog, info, err := BuildCFG(insts, air.StageVertex, false)
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	if _, ok := info.CBuffers[0]; !ok {
		t.Fatal("constant buffer range 0 not reflected into ShaderInfo")
	}
	if info.CBuffers[0].Size != 4 {
		t.Fatalf("CBuffers[0].Size = %d, want 4", info.CBuffers[0].Size)
	}

	fn, err := EmitAIR(prog, info, Options{Name: "main", Stage: air.StageVertex})
	if err != nil {
		t.Fatalf("EmitAIR: %v", err)
	}
	text := airText(fn)
	if !strings.Contains(text, "[[buffer(0)]]") {
		t.Fatalf("missing bound cb0 parameter:\n%s", text)
	}
	if !strings.Contains(text, "getelementptr inbounds <4 x float>, <4 x float>* %cb0, i32 2") {
		t.Fatalf("missing constant-buffer element GEP:\n%s", text)
	}
	if strings.Contains(text, "zeroinitializer") {
		t.Fatal("constant-buffer read must resolve to a real load, not the zeroinitializer placeholder")
	}
}

// Scenario 4: a UAV declared raw and bumped with an immediate atomic
// add, marking the UAV read+written in reflection and lowering to an
// atomic intrinsic rather than the generic register model.
func TestTranslateUAVAtomicIncrement(t *testing.T) {
	insts := []*dxbc.Instruction{
		{Opcode: dxbc.OpDclUAVRaw, Operands: []dxbc.Operand{rangeOp(0, 0)}},
		{Opcode: dxbc.OpImmAtomicAdd, Operands: []dxbc.Operand{tempOp(0), uavOperand(0), immOp(0), immOp(1)}},
		{Opcode: dxbc.OpRet},
	}

	prog, info, err := BuildCFG(insts, air.StageCompute, false)
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	uav, ok := info.UAVs[0]
	if !ok {
		t.Fatal("UAV range 0 not reflected into ShaderInfo")
	}
	if !uav.Read || !uav.Written {
		t.Fatalf("uav = %+v, want Read=Written=true after an atomic op", uav)
	}

	fn, err := EmitAIR(prog, info, Options{Name: "main", Stage: air.StageCompute})
	if err != nil {
		t.Fatalf("EmitAIR: %v", err)
	}
	if !strings.Contains(airText(fn), "define kernel void @main(") {
		t.Fatalf("missing kernel signature:\n%s", airText(fn))
	}
}

func TestClassifyBuildErrorMapsUnsupportedShaderError(t *testing.T) {
	err := classifyBuildError(&ir.UnsupportedShaderError{Offset: 0, Message: "reserved opcode"})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("classifyBuildError(UnsupportedShaderError) = %v, want wrapping ErrUnsupported", err)
	}
}

func TestStageFromProgramTypeCoversAllStages(t *testing.T) {
	cases := map[dxbc.ProgramType]air.Stage{
		dxbc.ProgramVertex:   air.StageVertex,
		dxbc.ProgramPixel:    air.StageFragment,
		dxbc.ProgramGeometry: air.StageGeometry,
		dxbc.ProgramHull:     air.StageHull,
		dxbc.ProgramDomain:   air.StageDomain,
		dxbc.ProgramCompute:  air.StageCompute,
	}
	for pt, want := range cases {
		if got := StageFromProgramType(pt); got != want {
			t.Errorf("StageFromProgramType(%v) = %v, want %v", pt, got, want)
		}
	}
}

func TestDecodeErrorsWrapErrDecode(t *testing.T) {
	_, _, err := Decode([]uint32{0xFFFFFFFF})
	if err == nil {
		t.Fatal("Decode succeeded on a malformed token stream")
	}
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Decode error = %v, want wrapping ErrDecode", err)
	}
}
