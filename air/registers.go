package air

import (
	"fmt"
	"math"

	"github.com/gogpu/dxmtl/dxbc"
	"github.com/gogpu/dxmtl/ir"
)

// readOperand produces a <4 x T> value for o: an immediate constant, or
// a resolved value (register, bound input, system value, constant
// buffer) run through the swizzle/modifier read pipeline. Resource,
// sampler, and threadgroup-memory operands are opaque handles rather
// than data vectors and never reach this function's swizzle/modifier
// path; their one caller (instruction lowering) resolves them directly
// through boundHandle.
func readOperand(fb *FunctionBuilder, o ir.Operand) string {
	if o.Kind == dxbc.OperandImmediate32 || o.Kind == dxbc.OperandImmediate64 {
		return applyModifier(fb, o, immediateConstant(o))
	}
	vec := loadOperandValue(fb, o)
	// A zero-vector fallback reads the same under any swizzle.
	if vec != "zeroinitializer" {
		vec = applySwizzle(fb, o, vec)
	}
	return applyModifier(fb, o, vec)
}

// loadOperandValue resolves a data-bearing operand to its <4 x T>
// value: the register file for Temp/IndexableTemp, the bound function
// parameter for a declared input or control point/patch constant, the
// matching stage attribute for a system value, or a GEP+load against
// the bound constant-buffer pointer. Operand kinds with no backing
// value at read time (an output self-read, a null operand) fall back
// to a zero vector; that is the one remaining narrow gap this package
// leaves undefined, since DXBC programs don't read back their own
// outputs and a null operand carries no data by definition.
func loadOperandValue(fb *FunctionBuilder, o ir.Operand) string {
	switch o.Kind {
	case dxbc.OperandTemp, dxbc.OperandIndexableTemp:
		return loadRegister(fb, o)
	case dxbc.OperandInput, dxbc.OperandControlPointInput, dxbc.OperandPatchConstant:
		return boundInput(fb, o)
	case dxbc.OperandSystemValue:
		return boundSystemValue(fb, o)
	case dxbc.OperandConstantBuffer, dxbc.OperandImmediateConstantBuffer:
		return loadConstantBuffer(fb, o)
	default:
		return "zeroinitializer"
	}
}

// loadRegister loads the full 4-wide vector out of a temp/indexable-temp
// register's alloca.
func loadRegister(fb *FunctionBuilder, o ir.Operand) string {
	typ := vectorType(o.DataType)
	key, ok := registerKeyOf(o)
	if !ok {
		return "zeroinitializer"
	}
	ptr := fb.RegisterAlloca(key, o.DataType)
	return fb.EmitLoad(typ, ptr)
}

func registerKeyOf(o ir.Operand) (registerKey, bool) {
	if len(o.Indices) == 0 {
		return registerKey{}, false
	}
	// An indexable-temp operand carries its bank as dimension 0 and its
	// element register (the part that identifies the alloca) as
	// dimension 1; a plain temp's only dimension, at 0, is the register
	// itself.
	if o.Kind == dxbc.OperandIndexableTemp {
		if len(o.Indices) < 2 {
			return registerKey{}, false
		}
		return keyFor(o.Indices[1])
	}
	return keyFor(o.Indices[0])
}

// immediateOperandIndex reads the immediate register/range_id o's
// dim-th index dimension carries. Every operand kind but Temp and
// IndexableTemp keeps a plain IndexImmediate at each dimension (see
// ir/lift.go's canonOperand), so this is how Input/Output/
// ConstantBuffer/Resource/Sampler/UAV/TGSM operands report which
// declared range they name.
func immediateOperandIndex(o ir.Operand, dim int) (uint32, bool) {
	if dim >= len(o.Indices) {
		return 0, false
	}
	imm, ok := o.Indices[dim].(ir.IndexImmediate)
	if !ok {
		return 0, false
	}
	return imm.Value, true
}

// boundInput reads a declared input/control-point-input/patch-constant
// register from the stage-in parameter buildSignature bound it to.
// Every input is bound as a full <4 x float> parameter, so lanes beyond
// what the declaration's mask covers carry whatever the caller passes
// in them; broadcastToVec4 leaves an already 4-wide value unchanged.
func boundInput(fb *FunctionBuilder, o ir.Operand) string {
	reg, ok := immediateOperandIndex(o, 0)
	if !ok {
		return "zeroinitializer"
	}
	b, ok := fb.inputs[reg]
	if !ok {
		return "zeroinitializer"
	}
	return broadcastToVec4(fb, b, o.DataType)
}

// boundSystemValue reads a SystemValue operand from the matching stage
// attribute parameter, broadcasting scalar/narrow attributes (vertex_id,
// thread_position_in_grid, ...) up to the 4-wide vector the rest of the
// register pipeline expects.
func boundSystemValue(fb *FunctionBuilder, o ir.Operand) string {
	b, ok := fb.sysValues[o.SystemValue]
	if !ok {
		return "zeroinitializer"
	}
	return broadcastToVec4(fb, b, o.DataType)
}

// broadcastToVec4 widens a bound parameter (a plain scalar, a <3 x T>
// thread-ID vector, or already a <4 x T>) up to the <4 x T> every
// register-pipeline value is shaped as.
func broadcastToVec4(fb *FunctionBuilder, b paramBinding, dt ir.DataType) string {
	typ := vectorType(dt)
	switch b.airType {
	case "uint3":
		v := fb.value()
		fb.emit(fmt.Sprintf("%s = shufflevector <3 x i32> %s, <3 x i32> zeroinitializer, <4 x i32> <i32 0, i32 1, i32 2, i32 3>", v, b.name))
		return v
	case "float4", "":
		if b.dataType == dt || b.airType == "float4" {
			return b.name
		}
		return b.name
	default:
		// A plain scalar attribute (vertex_id, instance_id, sample_id,
		// front_facing, ...): splat it across all four lanes.
		scalar := scalarType(dt)
		ins := fb.value()
		fb.emit(fmt.Sprintf("%s = insertelement %s undef, %s %s, i32 0", ins, typ, scalar, b.name))
		v := fb.value()
		fb.emit(fmt.Sprintf("%s = shufflevector %s %s, %s undef, <4 x i32> zeroinitializer", v, typ, ins, typ))
		return v
	}
}

// loadConstantBuffer GEPs into the bound constant-buffer pointer at the
// operand's element index (a compile-time constant, or a dynamic index
// computed from a temp/indexable-temp register for relative addressing
// like cb0[r2.x+3]) and loads the selected vec4.
func loadConstantBuffer(fb *FunctionBuilder, o ir.Operand) string {
	rangeID, ok := immediateOperandIndex(o, 0)
	if !ok {
		return "zeroinitializer"
	}
	b, ok := fb.cbuffers[rangeID]
	if !ok {
		return "zeroinitializer"
	}
	typ := vectorType(b.dataType)
	idx := "0"
	if len(o.Indices) > 1 {
		idx = cbElementIndex(fb, o.Indices[1])
	}
	ptr := fb.value()
	fb.emit(fmt.Sprintf("%s = getelementptr inbounds %s, %s* %s, i32 %s", ptr, typ, typ, b.name, idx))
	return fb.EmitLoad(typ, ptr)
}

// cbElementIndex renders a constant-buffer element index expression as
// an i32 SSA value: the literal value for a plain immediate, or a
// register-component load plus a compile-time offset for relative
// addressing.
func cbElementIndex(fb *FunctionBuilder, idx ir.IndexExpr) string {
	switch v := idx.(type) {
	case ir.IndexImmediate:
		return fmt.Sprintf("%d", v.Value)
	case ir.IndexByTempComponent:
		return dynamicElementIndex(fb, registerKey{register: v.Register}, v.Component, v.Offset)
	case ir.IndexByIndexableTempComponent:
		return dynamicElementIndex(fb, registerKey{bank: v.Bank, register: v.Register, indexed: true}, v.Component, v.Offset)
	default:
		return "0"
	}
}

func dynamicElementIndex(fb *FunctionBuilder, key registerKey, comp ir.ComponentIndex, offset int32) string {
	ptr := fb.RegisterAlloca(key, ir.DataUint)
	vec := fb.EmitLoad(vectorType(ir.DataUint), ptr)
	lane := fb.value()
	fb.emit(fmt.Sprintf("%s = extractelement <4 x i32> %s, i32 %d", lane, vec, int(comp)))
	if offset == 0 {
		return lane
	}
	sum := fb.value()
	fb.emit(fmt.Sprintf("%s = add i32 %s, %d", sum, lane, offset))
	return sum
}

// boundHandle resolves a Resource/Sampler/UAV/TGSM operand straight to
// the opaque handle buildSignature bound it to, bypassing the
// swizzle/modifier pipeline entirely: these operands name a texture,
// sampler, or pointer argument, never a data vector.
func boundHandle(fb *FunctionBuilder, o ir.Operand) string {
	rangeID, ok := immediateOperandIndex(o, 0)
	if !ok {
		return "undef"
	}
	switch o.Kind {
	case dxbc.OperandResource:
		if b, ok := fb.srvs[rangeID]; ok {
			return b.name
		}
	case dxbc.OperandSampler:
		if b, ok := fb.samplers[rangeID]; ok {
			return b.name
		}
	case dxbc.OperandUAV:
		if b, ok := fb.uavs[rangeID]; ok {
			return b.name
		}
	case dxbc.OperandTGSM:
		if b, ok := fb.tgsm[rangeID]; ok {
			return b.name
		}
	}
	return "undef"
}

// handleType returns the AIR handle type (texture2d<float>, sampler,
// device float*, ...) o's bound resource/sampler/TGSM parameter was
// declared with, for use as a call argument's type annotation instead
// of the vector-register scalarType/vectorType spelling that only
// fits data operands.
func handleType(fb *FunctionBuilder, o ir.Operand) string {
	rangeID, ok := immediateOperandIndex(o, 0)
	if !ok {
		return "i32"
	}
	switch o.Kind {
	case dxbc.OperandResource:
		if b, ok := fb.srvs[rangeID]; ok {
			return b.airType
		}
	case dxbc.OperandSampler:
		if b, ok := fb.samplers[rangeID]; ok {
			return b.airType
		}
	case dxbc.OperandUAV:
		if b, ok := fb.uavs[rangeID]; ok {
			return b.airType
		}
	case dxbc.OperandTGSM:
		if b, ok := fb.tgsm[rangeID]; ok {
			return b.airType
		}
	}
	return "i32"
}

// applySwizzle reads the selected components out of vec per o's
// Selection mode.
func applySwizzle(fb *FunctionBuilder, o ir.Operand, vec string) string {
	typ := vectorType(o.DataType)
	switch o.Selection {
	case dxbc.SelectSwizzle:
		return fb.EmitShuffle(typ, vec, swizzleString(o.Swizzle))
	case dxbc.SelectSingle:
		c := o.Swizzle[0]
		mask := fmt.Sprintf("<i32 %d, i32 %d, i32 %d, i32 %d>", c, c, c, c)
		return fb.EmitShuffle(typ, vec, mask)
	default:
		return vec
	}
}

// applyModifier applies DXBC's read-time negate-then-abs pipeline.
func applyModifier(fb *FunctionBuilder, o ir.Operand, vec string) string {
	typ := vectorType(o.DataType)
	if o.Modifier.Negate {
		if o.DataType == ir.DataFloat {
			vec = fb.EmitUnaryIntrinsic("air.fneg.v4f32", typ, vec)
		} else {
			vec = fb.EmitBinOp("sub", typ, "zeroinitializer", vec)
		}
	}
	if o.Modifier.Abs {
		if o.DataType == ir.DataFloat {
			vec = fb.EmitUnaryIntrinsic("air.fabs.v4f32", typ, vec)
		} else {
			vec = fb.EmitUnaryIntrinsic("air.abs.v4i32", typ, vec)
		}
	}
	return vec
}

// immediateConstant renders an OperandImmediate32/64 operand's literal
// words as an AIR vector constant, reinterpreting each word's bits per
// o.DataType.
func immediateConstant(o ir.Operand) string {
	n := len(o.Immediate)
	if n == 0 {
		return "zeroinitializer"
	}
	vals := make([]string, 4)
	for i := 0; i < 4; i++ {
		src := o.Immediate[i%n]
		vals[i] = formatImmediate(src, o.DataType)
	}
	scalar := scalarType(o.DataType)
	return fmt.Sprintf("<%s %s, %s %s, %s %s, %s %s>",
		scalar, vals[0], scalar, vals[1], scalar, vals[2], scalar, vals[3])
}

func formatImmediate(bits uint64, dt ir.DataType) string {
	switch dt {
	case ir.DataFloat:
		return fmt.Sprintf("%g", math.Float32frombits(uint32(bits)))
	case ir.DataBool:
		if bits != 0 {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%d", int32(uint32(bits)))
	}
}

// writeRegister stores val into the components o.Mask selects,
// dispatching to a temp/indexable-temp register's alloca or a declared
// output register's alloca depending on operand kind.
func writeRegister(fb *FunctionBuilder, o ir.Operand, val string) {
	switch o.Kind {
	case dxbc.OperandOutput, dxbc.OperandControlPointOutput:
		reg, ok := immediateOperandIndex(o, 0)
		if !ok {
			return
		}
		ptr := fb.OutputAlloca(reg, o.DataType)
		storeWithMask(fb, ptr, o, val)
	default:
		key, ok := registerKeyOf(o)
		if !ok {
			return
		}
		ptr := fb.RegisterAlloca(key, o.DataType)
		storeWithMask(fb, ptr, o, val)
	}
}

// storeWithMask performs the register model's masked read-modify-write:
// load the old vector, select the new lanes in per mask, store back
// (or, when the mask is full, store val directly).
func storeWithMask(fb *FunctionBuilder, ptr string, o ir.Operand, val string) {
	typ := vectorType(o.DataType)
	comps := maskComponents(o.Mask)
	if len(comps) == 4 {
		fb.EmitStore(typ, val, ptr)
		return
	}
	old := fb.EmitLoad(typ, ptr)
	condMask := maskSelector(o.Mask)
	merged := fb.EmitSelect(typ, condMask, val, old)
	fb.EmitStore(typ, merged, ptr)
}

// maskSelector renders a WriteMask as a <4 x i1> constant selecting
// the new-value lane wherever the mask bit is set.
func maskSelector(m ir.WriteMask) string {
	bits := [4]string{"false", "false", "false", "false"}
	for i := 0; i < 4; i++ {
		if m&(1<<uint(i)) != 0 {
			bits[i] = "true"
		}
	}
	return fmt.Sprintf("<i1 %s, i1 %s, i1 %s, i1 %s>", bits[0], bits[1], bits[2], bits[3])
}
