package air

import (
	"fmt"
	"strings"

	"github.com/gogpu/dxmtl/dxbc"
	"github.com/gogpu/dxmtl/ir"
)

// FunctionBuilder accumulates one AIR function's body the way
// spirv.Writer accumulates an instruction stream: a monotonic %N value
// counter, typed Emit* methods that append a textual line and return
// the value name they just defined, and a final Build that wraps the
// recorded lines in a function signature.
type FunctionBuilder struct {
	name  string
	stage Stage

	nextValue uint32
	allocas   map[registerKey]allocaSlot
	preamble  []string
	body      []string

	params []string

	inputs    map[uint32]paramBinding
	cbuffers  map[uint32]paramBinding
	srvs      map[uint32]paramBinding
	uavs      map[uint32]paramBinding
	samplers  map[uint32]paramBinding
	tgsm      map[uint32]paramBinding
	sysValues map[dxbc.SystemValue]paramBinding

	outputAllocas map[uint32]allocaSlot
	outputOrder   []uint32
	outputSV      map[uint32]dxbc.SystemValue
	skipOutputs   map[uint32]bool
	unorm8Outputs map[uint32]bool
	sampleMaskAnd *uint32

	attributes []string
}

type allocaSlot struct {
	value    string
	dataType ir.DataType
}

// paramBinding is a bound signature slot: the SSA name the value is
// known by inside the function body, plus either the DataType a
// readOperand-style vector load should use (inputs, system values,
// constant buffers) or a literal AIR type string for opaque handles
// (textures, samplers, threadgroup pointers).
type paramBinding struct {
	name     string
	dataType ir.DataType
	airType  string
}

// NewFunctionBuilder starts a function named name implementing stage.
func NewFunctionBuilder(name string, stage Stage) *FunctionBuilder {
	return &FunctionBuilder{
		name:          name,
		stage:         stage,
		allocas:       make(map[registerKey]allocaSlot),
		inputs:        make(map[uint32]paramBinding),
		cbuffers:      make(map[uint32]paramBinding),
		srvs:          make(map[uint32]paramBinding),
		uavs:          make(map[uint32]paramBinding),
		samplers:      make(map[uint32]paramBinding),
		tgsm:          make(map[uint32]paramBinding),
		sysValues:     make(map[dxbc.SystemValue]paramBinding),
		outputAllocas: make(map[uint32]allocaSlot),
		outputSV:      make(map[uint32]dxbc.SystemValue),
		skipOutputs:   make(map[uint32]bool),
		unorm8Outputs: make(map[uint32]bool),
	}
}

// AddParam records a formal parameter line (e.g. a buffer or texture
// binding) to appear in the function signature.
func (f *FunctionBuilder) AddParam(decl string) {
	f.params = append(f.params, decl)
}

// value returns a fresh SSA name and advances the counter.
func (f *FunctionBuilder) value() string {
	v := fmt.Sprintf("%%%d", f.nextValue)
	f.nextValue++
	return v
}

func (f *FunctionBuilder) emit(line string) {
	f.body = append(f.body, "  "+line)
}

// Label opens a new basic block.
func (f *FunctionBuilder) Label(name string) {
	f.body = append(f.body, name+":")
}

// RegisterAlloca returns the alloca pointer for a DXBC register,
// allocating it in the function preamble on first use. Every
// temp/indexable-temp register gets exactly one alloca regardless of
// how many instructions touch it.
func (f *FunctionBuilder) RegisterAlloca(key registerKey, dt ir.DataType) string {
	if slot, ok := f.allocas[key]; ok {
		return slot.value
	}
	ptr := f.value()
	f.preamble = append(f.preamble, fmt.Sprintf("  %s = alloca %s, align 16", ptr, vectorType(dt)))
	f.allocas[key] = allocaSlot{value: ptr, dataType: dt}
	return ptr
}

// EmitLoad loads typ from ptr.
func (f *FunctionBuilder) EmitLoad(typ, ptr string) string {
	v := f.value()
	f.emit(fmt.Sprintf("%s = load %s, %s* %s, align 16", v, typ, typ, ptr))
	return v
}

// EmitStore stores val (of type typ) into ptr.
func (f *FunctionBuilder) EmitStore(typ, val, ptr string) {
	f.emit(fmt.Sprintf("store %s %s, %s* %s, align 16", typ, val, typ, ptr))
}

// EmitShuffle applies a constant shufflevector mask to vec, the
// swizzle-read half of the register model.
func (f *FunctionBuilder) EmitShuffle(typ, vec, mask string) string {
	v := f.value()
	f.emit(fmt.Sprintf("%s = shufflevector %s %s, %s undef, <4 x i32> %s", v, typ, vec, typ, mask))
	return v
}

// EmitSelect builds a component-wise select between two vectors under
// a <4 x i1> mask, the write-mask half of the register model.
func (f *FunctionBuilder) EmitSelect(typ, condMask, a, b string) string {
	v := f.value()
	f.emit(fmt.Sprintf("%s = select <4 x i1> %s, %s %s, %s %s", v, condMask, typ, a, typ, b))
	return v
}

// EmitBinOp emits `v = op typ a, b`.
func (f *FunctionBuilder) EmitBinOp(op, typ, a, b string) string {
	v := f.value()
	f.emit(fmt.Sprintf("%s = %s %s %s, %s", v, op, typ, a, b))
	return v
}

// EmitUnaryIntrinsic calls a single-argument air.* intrinsic.
func (f *FunctionBuilder) EmitUnaryIntrinsic(name, typ, arg string) string {
	return f.EmitCall(name, typ, typ+" "+arg)
}

// EmitCall emits a call to name, returning the result value (unless
// retType is "void", in which case no value is defined).
func (f *FunctionBuilder) EmitCall(name, retType string, argsWithTypes ...string) string {
	joined := strings.Join(argsWithTypes, ", ")
	if retType == "void" {
		f.emit(fmt.Sprintf("call void @%s(%s)", name, joined))
		return ""
	}
	v := f.value()
	f.emit(fmt.Sprintf("%s = call %s @%s(%s)", v, retType, name, joined))
	return v
}

// EmitBr emits an unconditional branch.
func (f *FunctionBuilder) EmitBr(target string) {
	f.emit(fmt.Sprintf("br label %%%s", target))
}

// EmitCondBr emits a conditional branch on an i1 value.
func (f *FunctionBuilder) EmitCondBr(cond, trueLabel, falseLabel string) {
	f.emit(fmt.Sprintf("br i1 %s, label %%%s, label %%%s", cond, trueLabel, falseLabel))
}

// SwitchCase is one value/target pair of an AIR switch terminator.
type SwitchCase struct {
	Value  int64
	Target string
}

// EmitSwitch emits a switch over an i32 value.
func (f *FunctionBuilder) EmitSwitch(val string, cases []SwitchCase, defaultLabel string) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("switch i32 %s, label %%%s [", val, defaultLabel))
	for _, c := range cases {
		sb.WriteString(fmt.Sprintf(" i32 %d, label %%%s", c.Value, c.Target))
	}
	sb.WriteString(" ]")
	f.emit(sb.String())
}

// EmitRet emits a void return.
func (f *FunctionBuilder) EmitRet() {
	f.emit("ret void")
}

// EmitUnreachable marks a block the builder proved can never run (the
// arena's void sink for dead post-discard code).
func (f *FunctionBuilder) EmitUnreachable() {
	f.emit("unreachable")
}

// BindInput records one declared input register as either a stage-in
// attribute parameter or, for a system-value declaration, the matching
// Metal stage attribute (vertex_id, position, thread_position_in_grid,
// ...). Declarations this package has no Metal attribute for (rare
// tessellation-only system values) are silently skipped; reads against
// them fall back to readOperand's zero default.
func (f *FunctionBuilder) BindInput(info *ir.IOInfo) {
	if info.HasSystemValue {
		attr, typ, dt := systemValueAttribute(info.SystemValue, f.stage)
		if attr == "" {
			return
		}
		name := fmt.Sprintf("%%sv.%d", info.Register)
		f.AddParam(fmt.Sprintf("%s %s [[%s]]", typ, name, attr))
		b := paramBinding{name: name, dataType: dt, airType: typ}
		f.sysValues[info.SystemValue] = b
		f.inputs[info.Register] = b
		return
	}
	name := fmt.Sprintf("%%in.%d", info.Register)
	if f.stage == StageFragment {
		f.AddParam(fmt.Sprintf("<4 x float> %s [[user(locn%d)]]", name, info.Register))
	} else {
		f.AddParam(fmt.Sprintf("<4 x float> %s [[attribute(%d)]]", name, info.Register))
	}
	f.inputs[info.Register] = paramBinding{name: name, dataType: ir.DataFloat}
}

// DeclareOutput fixes info.Register's place in the return-struct field
// order and, for a depth/coverage system-value output, remembers which
// Metal output attribute it binds. It also creates the register's
// output alloca right away (through OutputAlloca); the alloca is not
// initialized, so a register written along only some CFG paths holds
// no defined value on the others.
func (f *FunctionBuilder) DeclareOutput(info *ir.IOInfo) {
	if _, ok := f.outputSV[info.Register]; ok {
		return
	}
	for _, r := range f.outputOrder {
		if r == info.Register {
			return
		}
	}
	f.outputOrder = append(f.outputOrder, info.Register)
	dt := ir.DataFloat
	if info.HasSystemValue {
		f.outputSV[info.Register] = info.SystemValue
		if _, _, svDT := systemValueAttribute(info.SystemValue, f.stage); svDT != ir.DataFloat {
			dt = svDT
		}
	}
	f.OutputAlloca(info.Register, dt)
}

// SkipOutput drops a declared output register from the return struct
// entirely — used for SV_Depth when the pixel variant disables depth
// output.
func (f *FunctionBuilder) SkipOutput(register uint32) {
	f.skipOutputs[register] = true
}

// ClampOutputUnorm8 marks a color output register for saturate-to-[0,1]
// clamping at return time, matching a unorm8 render-target format's
// storage range.
func (f *FunctionBuilder) ClampOutputUnorm8(register uint32) {
	f.unorm8Outputs[register] = true
}

// ApplySampleMask ANDs mask into the declared SV_Coverage output at
// return time, narrowing the shader's own computed coverage to the
// pipeline's static sample mask.
func (f *FunctionBuilder) ApplySampleMask(mask uint32) {
	m := mask
	f.sampleMaskAnd = &m
}

// AddFunctionAttribute records a function-level AIR metadata attribute
// string (e.g. a geometry-pass-through or dual-source-blending marker)
// to be rendered alongside the signature.
func (f *FunctionBuilder) AddFunctionAttribute(attr string) {
	f.attributes = append(f.attributes, attr)
}

// BindCBuffer records a constant-buffer range as a `constant` pointer
// parameter, the handle loadConstantBuffer GEPs off of.
func (f *FunctionBuilder) BindCBuffer(rangeID uint32) {
	name := fmt.Sprintf("%%cb%d", rangeID)
	f.AddParam(fmt.Sprintf("constant <4 x float>* %s [[buffer(%d)]]", name, rangeID))
	f.cbuffers[rangeID] = paramBinding{name: name, dataType: ir.DataFloat}
}

// BindSRV records a shader-resource-view range as a texture (or
// device-pointer, for raw/structured buffers) parameter.
func (f *FunctionBuilder) BindSRV(rangeID uint32, info *ir.SRVInfo) {
	typ := resourceAIRType(info.Dimension, info.ReturnType[0])
	name := fmt.Sprintf("%%t%d", rangeID)
	f.AddParam(fmt.Sprintf("%s %s [[texture(%d)]]", typ, name, rangeID))
	f.srvs[rangeID] = paramBinding{name: name, airType: typ}
}

// BindUAV records an unordered-access-view range the same way as an
// SRV, with the same AIR type an SRV of that dimension and return type
// gets.
func (f *FunctionBuilder) BindUAV(rangeID uint32, info *ir.UAVInfo) {
	typ := resourceAIRType(info.Dimension, info.ReturnType[0])
	name := fmt.Sprintf("%%u%d", rangeID)
	f.AddParam(fmt.Sprintf("%s %s [[texture(%d)]]", typ, name, rangeID))
	f.uavs[rangeID] = paramBinding{name: name, airType: typ}
}

// BindSampler records a declared sampler range as a sampler parameter.
func (f *FunctionBuilder) BindSampler(rangeID uint32) {
	name := fmt.Sprintf("%%s%d", rangeID)
	f.AddParam(fmt.Sprintf("sampler %s [[sampler(%d)]]", name, rangeID))
	f.samplers[rangeID] = paramBinding{name: name, airType: "sampler"}
}

// BindTGSM declares a threadgroup-memory range as a preamble-local
// threadgroup allocation (Metal's `threadgroup` address space has no
// function-parameter form; every kernel declares its own).
func (f *FunctionBuilder) BindTGSM(rangeID uint32, info *ir.TGSMInfo) {
	name := fmt.Sprintf("%%g%d", rangeID)
	elems := info.SizeBytes / 16
	if elems == 0 {
		elems = 1
	}
	typ := fmt.Sprintf("threadgroup [%d x <4 x float>]*", elems)
	f.preamble = append(f.preamble, fmt.Sprintf("  %s = alloca [%d x <4 x float>], align 16, addrspace(3)", name, elems))
	f.tgsm[rangeID] = paramBinding{name: name, airType: typ}
}

// OutputAlloca returns the alloca pointer backing output register reg,
// allocating it in the preamble on first use.
func (f *FunctionBuilder) OutputAlloca(reg uint32, dt ir.DataType) string {
	if slot, ok := f.outputAllocas[reg]; ok {
		return slot.value
	}
	ptr := f.value()
	f.preamble = append(f.preamble, fmt.Sprintf("  %s = alloca %s, align 16", ptr, vectorType(dt)))
	f.outputAllocas[reg] = allocaSlot{value: ptr, dataType: dt}
	return ptr
}

// outputStructType renders the anonymous LLVM struct type an entry
// point with declared outputs returns, in outputOrder.
func (f *FunctionBuilder) outputStructType() string {
	var parts []string
	for _, reg := range f.outputOrder {
		if f.skipOutputs[reg] {
			continue
		}
		parts = append(parts, vectorType(f.outputAllocas[reg].dataType))
	}
	return "{ " + strings.Join(parts, ", ") + " }"
}

// EmitReturn closes out the current (final) block: a compute kernel, or
// a stage with no declared outputs, just returns void; otherwise it
// loads every output alloca, folds them into the return struct via a
// chain of insertvalue, and returns that.
func (f *FunctionBuilder) EmitReturn() {
	live := f.liveOutputOrder()
	if f.stage == StageCompute || len(live) == 0 {
		f.EmitRet()
		return
	}
	typeName := f.outputStructType()
	agg := "undef"
	for i, reg := range live {
		slot := f.outputAllocas[reg]
		typ := vectorType(slot.dataType)
		val := f.EmitLoad(typ, slot.value)
		if f.unorm8Outputs[reg] {
			val = f.EmitCall("air.saturate.v4f32", typ, typ+" "+val)
		}
		if f.sampleMaskAnd != nil && f.outputSV[reg] == dxbc.SVCoverage {
			lane := f.value()
			f.emit(fmt.Sprintf("%s = extractelement %s %s, i32 0", lane, typ, val))
			anded := f.value()
			f.emit(fmt.Sprintf("%s = and i32 %s, %d", anded, lane, *f.sampleMaskAnd))
			ins := f.value()
			f.emit(fmt.Sprintf("%s = insertelement %s %s, i32 %s, i32 0", ins, typ, val, anded))
			val = ins
		}
		next := f.value()
		f.emit(fmt.Sprintf("%s = insertvalue %s %s, %s %s, %d", next, typeName, agg, typ, val, i))
		agg = next
	}
	f.emit(fmt.Sprintf("ret %s %s", typeName, agg))
}

func (f *FunctionBuilder) liveOutputOrder() []uint32 {
	var out []uint32
	for _, reg := range f.outputOrder {
		if !f.skipOutputs[reg] {
			out = append(out, reg)
		}
	}
	return out
}

// Build renders the accumulated preamble and body into a Function.
func (f *FunctionBuilder) Build() *Function {
	retType := "void"
	if f.stage != StageCompute && len(f.liveOutputOrder()) > 0 {
		retType = f.outputStructType()
	}
	sig := fmt.Sprintf("define %s %s @%s(%s) {", f.stage, retType, f.name, strings.Join(f.params, ", "))
	lines := make([]string, 0, len(f.attributes)+len(f.preamble)+len(f.body)+2)
	for _, attr := range f.attributes {
		lines = append(lines, "; "+attr)
	}
	lines = append(lines, sig)
	lines = append(lines, f.preamble...)
	lines = append(lines, f.body...)
	lines = append(lines, "}")
	return &Function{Name: f.name, Stage: f.stage, Lines: lines}
}
