package air

import (
	"strings"
	"testing"

	"github.com/gogpu/dxmtl/dxbc"
	"github.com/gogpu/dxmtl/ir"
)

func tempOperand(reg uint32, dt ir.DataType) ir.Operand {
	return ir.Operand{
		Kind:      dxbc.OperandTemp,
		Indices:   []ir.IndexExpr{ir.IndexByTempComponent{Register: reg}},
		Selection: dxbc.SelectMask,
		Mask:      ir.WriteAll,
		DataType:  dt,
	}
}

// TestLoadAndWriteShareOneAllocaForTheSameImmediateRegister guards the
// fix making an immediate-indexed temp (r0) resolve to a register key,
// the same as a relative-indexed one: two operands naming register 0
// must load/store through the same alloca rather than each falling
// back to the zeroinitializer placeholder.
func TestLoadAndWriteShareOneAllocaForTheSameImmediateRegister(t *testing.T) {
	fb := NewFunctionBuilder("main", StageVertex)
	dst := tempOperand(0, ir.DataFloat)
	src := tempOperand(0, ir.DataFloat)

	writeRegister(fb, dst, "%v")
	vec := readOperand(fb, src)
	if vec == "zeroinitializer" {
		t.Fatal("readOperand of an immediate-indexed temp fell back to zeroinitializer")
	}

	fn := fb.Build()
	allocas := 0
	for _, line := range fn.Lines {
		if strings.Contains(line, "alloca") {
			allocas++
		}
	}
	if allocas != 1 {
		t.Fatalf("function has %d allocas, want 1 (read and write of r0 must share it)", allocas)
	}
}

// TestDistinctRegistersGetDistinctAllocas checks r0 and r1 don't alias.
func TestDistinctRegistersGetDistinctAllocas(t *testing.T) {
	fb := NewFunctionBuilder("main", StageVertex)
	writeRegister(fb, tempOperand(0, ir.DataFloat), "%a")
	writeRegister(fb, tempOperand(1, ir.DataFloat), "%b")

	fn := fb.Build()
	allocas := 0
	for _, line := range fn.Lines {
		if strings.Contains(line, "alloca") {
			allocas++
		}
	}
	if allocas != 2 {
		t.Fatalf("function has %d allocas, want 2 (r0 and r1 must not share one)", allocas)
	}
}

// TestIndexableTempKeyIncludesBank checks x0[0] and x1[0] don't alias,
// since registerKey for an indexable temp must key on bank too.
func TestIndexableTempKeyIncludesBank(t *testing.T) {
	fb := NewFunctionBuilder("main", StageVertex)
	indexableOperand := func(bank, reg uint32) ir.Operand {
		return ir.Operand{
			Kind: dxbc.OperandIndexableTemp,
			Indices: []ir.IndexExpr{
				ir.IndexImmediate{Value: bank},
				ir.IndexByIndexableTempComponent{Bank: bank, Register: reg, Phase: ir.PhaseNone},
			},
			Selection: dxbc.SelectMask,
			Mask:      ir.WriteAll,
			DataType:  ir.DataFloat,
		}
	}
	writeRegister(fb, indexableOperand(0, 0), "%a")
	writeRegister(fb, indexableOperand(1, 0), "%b")

	fn := fb.Build()
	allocas := 0
	for _, line := range fn.Lines {
		if strings.Contains(line, "alloca") {
			allocas++
		}
	}
	if allocas != 2 {
		t.Fatalf("function has %d allocas, want 2 (bank 0 and bank 1 must not share one)", allocas)
	}
}

// TestWriteRegisterFullMaskStoresDirectly checks a full write mask
// skips the read-modify-write select sequence.
func TestWriteRegisterFullMaskStoresDirectly(t *testing.T) {
	fb := NewFunctionBuilder("main", StageVertex)
	writeRegister(fb, tempOperand(0, ir.DataFloat), "%v")

	fn := fb.Build()
	for _, line := range fn.Lines {
		if strings.Contains(line, "select") {
			t.Fatalf("full write mask emitted a select: %q", line)
		}
	}
}

// TestWriteRegisterPartialMaskSelectsLanes checks a partial write mask
// does go through load+select+store.
func TestWriteRegisterPartialMaskSelectsLanes(t *testing.T) {
	fb := NewFunctionBuilder("main", StageVertex)
	o := tempOperand(0, ir.DataFloat)
	o.Mask = ir.WriteX | ir.WriteY
	writeRegister(fb, o, "%v")

	fn := fb.Build()
	var sawLoad, sawSelect, sawStore bool
	for _, line := range fn.Lines {
		sawLoad = sawLoad || strings.Contains(line, "= load")
		sawSelect = sawSelect || strings.Contains(line, "= select")
		sawStore = sawStore || strings.Contains(line, "store ")
	}
	if !sawLoad || !sawSelect || !sawStore {
		t.Fatalf("partial write mask lowering missing a step: load=%v select=%v store=%v", sawLoad, sawSelect, sawStore)
	}
}

// TestReadOperandFallsBackForNonRegisterOperand checks a constant
// buffer read whose range was never bound to an AIR argument resolves
// to the documented zero-vector placeholder rather than a panic or a
// bogus alloca.
func TestReadOperandFallsBackForNonRegisterOperand(t *testing.T) {
	fb := NewFunctionBuilder("main", StageVertex)
	o := ir.Operand{
		Kind:      dxbc.OperandConstantBuffer,
		Indices:   []ir.IndexExpr{ir.IndexImmediate{Value: 0}, ir.IndexImmediate{Value: 2}},
		Selection: dxbc.SelectSwizzle,
		DataType:  ir.DataFloat,
	}
	if got := readOperand(fb, o); got != "zeroinitializer" {
		t.Fatalf("readOperand(cb) = %q, want zeroinitializer placeholder", got)
	}
}

func TestImmediateConstantBroadcastsScalarAcrossLanes(t *testing.T) {
	fb := NewFunctionBuilder("main", StageVertex)
	o := ir.Operand{
		Kind:      dxbc.OperandImmediate32,
		Immediate: []uint64{0x3F800000}, // 1.0f
		DataType:  ir.DataFloat,
	}
	vec := readOperand(fb, o)
	for _, want := range []string{"float 1", "float 1", "float 1", "float 1"} {
		if !strings.Contains(vec, want) {
			t.Fatalf("immediate vector %q missing broadcast lane %q", vec, want)
		}
	}
}

func TestApplyModifierNegateThenAbsOrder(t *testing.T) {
	fb := NewFunctionBuilder("main", StageVertex)
	o := tempOperand(0, ir.DataFloat)
	o.Modifier = ir.Modifier{Negate: true, Abs: true}
	_ = readOperand(fb, o)

	fn := fb.Build()
	var negIdx, absIdx = -1, -1
	for i, line := range fn.Lines {
		if strings.Contains(line, "air.fneg") {
			negIdx = i
		}
		if strings.Contains(line, "air.fabs") {
			absIdx = i
		}
	}
	if negIdx == -1 || absIdx == -1 {
		t.Fatalf("expected both fneg and fabs in output, got negIdx=%d absIdx=%d", negIdx, absIdx)
	}
	if negIdx >= absIdx {
		t.Fatalf("negate must be applied before abs (DXBC read pipeline order); got neg at %d, abs at %d", negIdx, absIdx)
	}
}
