package air

import (
	"fmt"

	"github.com/gogpu/dxmtl/ir"
)

// lowerInstruction dispatches one lifted ir.Instruction to its AIR
// expansion, applying Saturate to the result when the opcode supports
// it.
func lowerInstruction(fb *FunctionBuilder, inst ir.Instruction) error {
	switch k := inst.Kind.(type) {
	case ir.InstMov:
		writeRegister(fb, k.Dst, saturate(fb, inst, k.Dst, readOperand(fb, k.Src)))
	case ir.InstMovc:
		cond := lowerPredicate(fb, k.Cond)
		condVec := splatBool(fb, cond)
		t, f := readOperand(fb, k.True), readOperand(fb, k.False)
		v := fb.EmitSelect(vectorType(k.Dst.DataType), condVec, t, f)
		writeRegister(fb, k.Dst, saturate(fb, inst, k.Dst, v))
	case ir.InstSwapc:
		cond := lowerPredicate(fb, k.Cond)
		condVec := splatBool(fb, cond)
		s0, s1 := readOperand(fb, k.Src0), readOperand(fb, k.Src1)
		v0 := fb.EmitSelect(vectorType(k.Dst0.DataType), condVec, s1, s0)
		v1 := fb.EmitSelect(vectorType(k.Dst1.DataType), condVec, s0, s1)
		writeRegister(fb, k.Dst0, v0)
		writeRegister(fb, k.Dst1, v1)
	case ir.InstDot:
		a, b := readOperand(fb, k.A), readOperand(fb, k.B)
		v := fb.EmitCall(fmt.Sprintf("air.dot%d.v4f32", k.Components), "float", "<4 x float> "+a, "<4 x float> "+b)
		writeRegister(fb, k.Dst, saturate(fb, inst, k.Dst, broadcast(fb, v)))
	case ir.InstMad:
		a, b, c := readOperand(fb, k.A), readOperand(fb, k.B), readOperand(fb, k.C)
		typ := vectorType(k.Dst.DataType)
		mul := fb.EmitBinOp(mulOp(k.Dst.DataType), typ, a, b)
		v := fb.EmitBinOp(addOp(k.Dst.DataType), typ, mul, c)
		writeRegister(fb, k.Dst, saturate(fb, inst, k.Dst, v))
	case ir.InstFloatUnary:
		src := readOperand(fb, k.Src)
		v := fb.EmitUnaryIntrinsic(floatUnaryIntrinsic(k.Op), vectorType(k.Dst.DataType), src)
		writeRegister(fb, k.Dst, saturate(fb, inst, k.Dst, v))
	case ir.InstFloatBinary:
		a, b := readOperand(fb, k.A), readOperand(fb, k.B)
		v := lowerFloatBinary(fb, k.Op, vectorType(k.Dst.DataType), a, b)
		writeRegister(fb, k.Dst, saturate(fb, inst, k.Dst, v))
	case ir.InstSinCos:
		src := readOperand(fb, k.Src)
		typ := vectorType(ir.DataFloat)
		sin := fb.EmitUnaryIntrinsic("air.sin.v4f32", typ, src)
		cos := fb.EmitUnaryIntrinsic("air.cos.v4f32", typ, src)
		writeRegister(fb, k.DstSin, sin)
		writeRegister(fb, k.DstCos, cos)
	case ir.InstCompare:
		a, b := readOperand(fb, k.A), readOperand(fb, k.B)
		v := fb.EmitBinOp(compareOp(k.Op, k.Integer, k.Signed), vectorType(k.A.DataType), a, b)
		wide := fb.EmitCall("air.mask_to_i32.v4i1", vectorType(ir.DataUint), "<4 x i1> "+v)
		writeRegister(fb, k.Dst, wide)
	case ir.InstIntUnary:
		src := readOperand(fb, k.Src)
		v := fb.EmitUnaryIntrinsic(intUnaryIntrinsic(k.Op), vectorType(k.Dst.DataType), src)
		writeRegister(fb, k.Dst, v)
	case ir.InstIntBinary:
		a, b := readOperand(fb, k.A), readOperand(fb, k.B)
		v := lowerIntBinary(fb, k.Op, k.Signed, vectorType(k.Dst.DataType), a, b)
		writeRegister(fb, k.Dst, v)
	case ir.InstBfi:
		width, offset, src, base := readOperand(fb, k.Width), readOperand(fb, k.Offset), readOperand(fb, k.Src), readOperand(fb, k.Base)
		typ := vectorType(k.Dst.DataType)
		v := fb.EmitCall("air.bfi.v4i32", typ, typ+" "+width, typ+" "+offset, typ+" "+src, typ+" "+base)
		writeRegister(fb, k.Dst, v)
	case ir.InstBfe:
		width, offset, src := readOperand(fb, k.Width), readOperand(fb, k.Offset), readOperand(fb, k.Src)
		typ := vectorType(k.Dst.DataType)
		name := "air.ubfe.v4i32"
		if k.Signed {
			name = "air.sbfe.v4i32"
		}
		v := fb.EmitCall(name, typ, typ+" "+width, typ+" "+offset, typ+" "+src)
		writeRegister(fb, k.Dst, v)
	case ir.InstIntBinaryTwoDst:
		a, b := readOperand(fb, k.A), readOperand(fb, k.B)
		typ := vectorType(k.Dst0.DataType)
		name := twoDstIntrinsic(k.Op)
		lo := fb.EmitCall(name+".lo", typ, typ+" "+a, typ+" "+b)
		hi := fb.EmitCall(name+".hi", typ, typ+" "+a, typ+" "+b)
		writeRegister(fb, k.Dst0, lo)
		writeRegister(fb, k.Dst1, hi)
	case ir.InstConvert:
		src := readOperand(fb, k.Src)
		v := fb.EmitUnaryIntrinsic(convertIntrinsic(k.Op), vectorType(k.Dst.DataType), src)
		writeRegister(fb, k.Dst, v)
	case ir.InstTextureSample:
		lowerTextureSample(fb, k)
	case ir.InstTextureLoad:
		lowerTextureLoad(fb, k)
	case ir.InstSampleInfo:
		res := boundHandle(fb, k.Resource)
		name := "air.get_num_samples.texture_2d"
		if k.Uint {
			name = "air.is_colorspace_srgb.texture_2d"
		}
		v := fb.EmitCall(name, vectorType(k.Dst.DataType), handleType(fb, k.Resource)+" "+res)
		writeRegister(fb, k.Dst, v)
	case ir.InstSamplePos:
		res, sample := boundHandle(fb, k.Resource), readOperand(fb, k.Sample)
		v := fb.EmitCall("air.get_sample_position.texture_2d", vectorType(k.Dst.DataType),
			handleType(fb, k.Resource)+" "+res, vectorType(k.Sample.DataType)+" "+sample)
		writeRegister(fb, k.Dst, v)
	case ir.InstResourceInfo:
		res, mip := boundHandle(fb, k.Resource), readOperand(fb, k.MipLevel)
		v := fb.EmitCall("air.resinfo.texture_2d", vectorType(k.Dst.DataType),
			handleType(fb, k.Resource)+" "+res, vectorType(k.MipLevel.DataType)+" "+mip,
			fmt.Sprintf("i32 %d", k.ReturnType))
		writeRegister(fb, k.Dst, v)
	case ir.InstBufferInfo:
		res := boundHandle(fb, k.Resource)
		v := fb.EmitCall("air.bufinfo", vectorType(k.Dst.DataType), handleType(fb, k.Resource)+" "+res)
		writeRegister(fb, k.Dst, v)
	case ir.InstMemoryLoad:
		lowerMemoryLoad(fb, k)
	case ir.InstMemoryStore:
		lowerMemoryStore(fb, k)
	case ir.InstAtomic:
		lowerAtomic(fb, k)
	case ir.InstAtomicImmediate:
		lowerAtomicImmediate(fb, k)
	case ir.InstAtomicCounter:
		res := boundHandle(fb, k.Resource)
		name := "air.atomic_counter.decrement"
		if k.Increment {
			name = "air.atomic_counter.increment"
		}
		v := fb.EmitCall(name, vectorType(k.Dst.DataType), handleType(fb, k.Resource)+" "+res)
		writeRegister(fb, k.Dst, v)
	case ir.InstSync:
		fb.EmitCall("air.wg.barrier", "void", fmt.Sprintf("i32 %d", k.Flags))
	case ir.InstCalcLOD:
		coord, res, samp := readOperand(fb, k.Coord), boundHandle(fb, k.Resource), boundHandle(fb, k.Sampler)
		v := fb.EmitCall("air.calculate_clamped_lod.texture_2d", vectorType(k.Dst.DataType),
			vectorType(k.Coord.DataType)+" "+coord, handleType(fb, k.Resource)+" "+res,
			handleType(fb, k.Sampler)+" "+samp)
		writeRegister(fb, k.Dst, v)
	case ir.InstDiscard:
		// The enclosing cfg.ConditionalBranch already gated reachability
		// on this predicate; only the kill effect remains to emit.
		fb.EmitCall("air.discard_fragment", "void")
	case ir.InstEmit:
		fb.EmitCall("air.emit_vertex", "void", fmt.Sprintf("i32 %d", k.Stream))
	case ir.InstCut:
		fb.EmitCall("air.end_primitive", "void", fmt.Sprintf("i32 %d", k.Stream))
	case ir.InstEval:
		lowerEval(fb, k)
	case ir.InstMsad:
		ref, src, accum := readOperand(fb, k.Ref), readOperand(fb, k.Src), readOperand(fb, k.Accum)
		typ := vectorType(k.Dst.DataType)
		v := fb.EmitCall("air.msad4", typ, typ+" "+ref, typ+" "+src, typ+" "+accum)
		writeRegister(fb, k.Dst, v)
	case ir.InstNop:
		// nothing to emit
	default:
		return newCodegenError(0, "unhandled instruction kind %T", k)
	}
	return nil
}

func broadcast(fb *FunctionBuilder, scalar string) string {
	return fb.EmitCall("air.splat.v4f32", "<4 x float>", "float "+scalar)
}

// splatBool widens a single i1 predicate to a <4 x i1> select mask.
func splatBool(fb *FunctionBuilder, cond string) string {
	return fb.EmitCall("air.splat.v4i1", "<4 x i1>", "i1 "+cond)
}

func saturate(fb *FunctionBuilder, inst ir.Instruction, dst ir.Operand, v string) string {
	if !inst.Saturate {
		return v
	}
	typ := vectorType(dst.DataType)
	return fb.EmitCall("air.saturate.v4f32", typ, typ+" "+v)
}

func mulOp(dt ir.DataType) string {
	if dt == ir.DataFloat {
		return "fmul"
	}
	return "mul"
}

func addOp(dt ir.DataType) string {
	if dt == ir.DataFloat {
		return "fadd"
	}
	return "add"
}

func floatUnaryIntrinsic(op ir.FloatUnaryOp) string {
	switch op {
	case ir.FRcp:
		return "air.recip.v4f32"
	case ir.FRsq:
		return "air.rsqrt.v4f32"
	case ir.FSqrt:
		return "air.sqrt.v4f32"
	case ir.FExp:
		return "air.exp2.v4f32"
	case ir.FLog:
		return "air.log2.v4f32"
	case ir.FFrc:
		return "air.fract.v4f32"
	case ir.FRoundNE:
		return "air.rint.v4f32"
	case ir.FRoundNI:
		return "air.floor.v4f32"
	case ir.FRoundPI:
		return "air.ceil.v4f32"
	case ir.FRoundZ:
		return "air.trunc.v4f32"
	case ir.FDerivRTX, ir.FDerivRTXCoarse, ir.FDerivRTXFine:
		return "air.dfdx.v4f32"
	case ir.FDerivRTY, ir.FDerivRTYCoarse, ir.FDerivRTYFine:
		return "air.dfdy.v4f32"
	default:
		return "air.unknown_float_unary"
	}
}

func lowerFloatBinary(fb *FunctionBuilder, op ir.FloatBinaryOp, typ, a, b string) string {
	switch op {
	case ir.FAdd:
		return fb.EmitBinOp("fadd", typ, a, b)
	case ir.FMul:
		return fb.EmitBinOp("fmul", typ, a, b)
	case ir.FDiv:
		return fb.EmitBinOp("fdiv", typ, a, b)
	case ir.FMin:
		return fb.EmitCall("air.fmin.v4f32", typ, typ+" "+a, typ+" "+b)
	case ir.FMax:
		return fb.EmitCall("air.fmax.v4f32", typ, typ+" "+a, typ+" "+b)
	default:
		return fb.EmitCall("air.unknown_float_binary", typ, typ+" "+a, typ+" "+b)
	}
}

func compareOp(op ir.CompareOp, integer, signed bool) string {
	prefix := "fcmp"
	if integer {
		prefix = "icmp"
	}
	switch op {
	case ir.CmpEq:
		return prefix + " eq"
	case ir.CmpNe:
		return prefix + " ne"
	case ir.CmpLt:
		if integer && !signed {
			return "icmp ult"
		}
		if integer {
			return "icmp slt"
		}
		return "fcmp olt"
	case ir.CmpGe:
		if integer && !signed {
			return "icmp uge"
		}
		if integer {
			return "icmp sge"
		}
		return "fcmp oge"
	default:
		return prefix + " eq"
	}
}

func intUnaryIntrinsic(op ir.IntUnaryOp) string {
	switch op {
	case ir.INeg:
		return "air.ineg.v4i32"
	case ir.BNot:
		return "air.not.v4i32"
	case ir.BCountBits:
		return "air.popcount.v4i32"
	case ir.BFirstBitHi:
		return "air.firstbithigh.v4i32"
	case ir.BFirstBitLo:
		return "air.firstbitlow.v4i32"
	case ir.BFirstBitShi:
		return "air.firstbitshigh.v4i32"
	case ir.BBitReverse:
		return "air.reverse_bits.v4i32"
	default:
		return "air.unknown_int_unary"
	}
}

// lowerIntBinary emits either a plain infix binop or an intrinsic call,
// depending on which AIR provides for op.
func lowerIntBinary(fb *FunctionBuilder, op ir.IntBinaryOp, signed bool, typ, a, b string) string {
	switch op {
	case ir.IAdd:
		return fb.EmitBinOp("add", typ, a, b)
	case ir.BAnd:
		return fb.EmitBinOp("and", typ, a, b)
	case ir.BOr:
		return fb.EmitBinOp("or", typ, a, b)
	case ir.BXor:
		return fb.EmitBinOp("xor", typ, a, b)
	case ir.BShl:
		return fb.EmitBinOp("shl", typ, a, b)
	case ir.BUShr:
		return fb.EmitBinOp("lshr", typ, a, b)
	case ir.BIShr:
		return fb.EmitBinOp("ashr", typ, a, b)
	case ir.IMin:
		if signed {
			return fb.EmitCall("air.smin.v4i32", typ, typ+" "+a, typ+" "+b)
		}
		return fb.EmitCall("air.umin.v4i32", typ, typ+" "+a, typ+" "+b)
	case ir.IMax:
		if signed {
			return fb.EmitCall("air.smax.v4i32", typ, typ+" "+a, typ+" "+b)
		}
		return fb.EmitCall("air.umax.v4i32", typ, typ+" "+a, typ+" "+b)
	case ir.UMin:
		return fb.EmitCall("air.umin.v4i32", typ, typ+" "+a, typ+" "+b)
	case ir.UMax:
		return fb.EmitCall("air.umax.v4i32", typ, typ+" "+a, typ+" "+b)
	default:
		return fb.EmitBinOp("add", typ, a, b)
	}
}

func twoDstIntrinsic(op ir.IntBinaryTwoDstOp) string {
	switch op {
	case ir.TwoDstIMul:
		return "air.imul_extended"
	case ir.TwoDstIDiv:
		return "air.idiv_extended"
	case ir.TwoDstUDiv:
		return "air.udiv_extended"
	case ir.TwoDstAddC:
		return "air.addc"
	case ir.TwoDstSubB:
		return "air.subb"
	default:
		return "air.unknown_two_dst"
	}
}

func convertIntrinsic(op ir.ConvertOp) string {
	switch op {
	case ir.ConvFtoI:
		return "air.fptosi.v4"
	case ir.ConvFtoU:
		return "air.fptoui.v4"
	case ir.ConvItoF:
		return "air.sitofp.v4"
	case ir.ConvUtoF:
		return "air.uitofp.v4"
	case ir.ConvF32toF16:
		return "air.f32tof16.v4"
	case ir.ConvF16toF32:
		return "air.f16tof32.v4"
	default:
		return "air.unknown_convert"
	}
}

func lowerTextureSample(fb *FunctionBuilder, k ir.InstTextureSample) {
	coord := readOperand(fb, k.Coord)
	res := boundHandle(fb, k.Resource)
	samp := boundHandle(fb, k.Sampler)
	args := []string{handleType(fb, k.Resource) + " " + res, handleType(fb, k.Sampler) + " " + samp, vectorType(k.Coord.DataType) + " " + coord}
	if k.LODOrBias != nil {
		args = append(args, "float "+readOperand(fb, *k.LODOrBias))
	}
	if k.Dref != nil {
		args = append(args, "float "+readOperand(fb, *k.Dref))
	}
	v := fb.EmitCall(textureSampleName(k.Op), vectorType(k.Dst.DataType), args...)
	writeRegister(fb, k.Dst, v)
}

func textureSampleName(op ir.TextureSampleOp) string {
	switch op {
	case ir.TexSampleL:
		return "air.sample_lod.texture_2d"
	case ir.TexSampleB:
		return "air.sample_bias.texture_2d"
	case ir.TexSampleD:
		return "air.sample_grad.texture_2d"
	case ir.TexSampleC, ir.TexSampleCLz:
		return "air.sample_compare.texture_2d"
	case ir.TexGather4, ir.TexGather4C, ir.TexGather4Po, ir.TexGather4PoC:
		return "air.gather4.texture_2d"
	default:
		return "air.sample.texture_2d"
	}
}

func lowerTextureLoad(fb *FunctionBuilder, k ir.InstTextureLoad) {
	coord := readOperand(fb, k.Coord)
	res := boundHandle(fb, k.Resource)
	args := []string{handleType(fb, k.Resource) + " " + res, vectorType(k.Coord.DataType) + " " + coord}
	name := "air.read.texture_2d"
	if k.Sample != nil {
		args = append(args, "i32 "+readOperand(fb, *k.Sample))
		name = "air.read_ms.texture_2d"
	}
	v := fb.EmitCall(name, vectorType(k.Dst.DataType), args...)
	writeRegister(fb, k.Dst, v)
}

func lowerMemoryLoad(fb *FunctionBuilder, k ir.InstMemoryLoad) {
	addr := readOperand(fb, k.Address)
	res := boundHandle(fb, k.Resource)
	args := []string{handleType(fb, k.Resource) + " " + res, vectorType(k.Address.DataType) + " " + addr}
	if k.StructureIndex != nil {
		args = append(args, "i32 "+readOperand(fb, *k.StructureIndex))
	}
	v := fb.EmitCall(memoryIntrinsic(k.Kind, true), vectorType(k.Dst.DataType), args...)
	writeRegister(fb, k.Dst, v)
}

func lowerMemoryStore(fb *FunctionBuilder, k ir.InstMemoryStore) {
	addr := readOperand(fb, k.Address)
	res := boundHandle(fb, k.Resource)
	val := readOperand(fb, k.Value)
	args := []string{handleType(fb, k.Resource) + " " + res, vectorType(k.Address.DataType) + " " + addr}
	if k.StructureIndex != nil {
		args = append(args, "i32 "+readOperand(fb, *k.StructureIndex))
	}
	args = append(args, vectorType(k.Value.DataType)+" "+val)
	fb.EmitCall(memoryIntrinsic(k.Kind, false), "void", args...)
}

func memoryIntrinsic(kind ir.MemoryKind, load bool) string {
	verb := "write"
	if load {
		verb = "read"
	}
	switch kind {
	case ir.MemUAVRaw:
		return "air." + verb + "_raw"
	case ir.MemUAVStructured:
		return "air." + verb + "_structured"
	case ir.MemUAVTyped:
		return "air." + verb + ".texture_2d"
	case ir.MemTGSMRaw:
		return "air." + verb + "_threadgroup_raw"
	case ir.MemTGSMStructured:
		return "air." + verb + "_threadgroup_structured"
	default:
		return "air." + verb + "_raw"
	}
}

func lowerAtomic(fb *FunctionBuilder, k ir.InstAtomic) {
	addr := readOperand(fb, k.Address)
	res := boundHandle(fb, k.Resource)
	val := readOperand(fb, k.Value)
	args := []string{handleType(fb, k.Resource) + " " + res, vectorType(k.Address.DataType) + " " + addr}
	if k.CompareValue != nil {
		args = append(args, "i32 "+readOperand(fb, *k.CompareValue))
	}
	args = append(args, "i32 "+val)
	fb.EmitCall(atomicIntrinsic(k.Op), "void", args...)
}

func lowerAtomicImmediate(fb *FunctionBuilder, k ir.InstAtomicImmediate) {
	addr := readOperand(fb, k.Address)
	res := boundHandle(fb, k.Resource)
	val := readOperand(fb, k.Value)
	args := []string{handleType(fb, k.Resource) + " " + res, vectorType(k.Address.DataType) + " " + addr}
	if k.CompareValue != nil {
		args = append(args, "i32 "+readOperand(fb, *k.CompareValue))
	}
	args = append(args, "i32 "+val)
	v := fb.EmitCall(atomicIntrinsic(k.Op), vectorType(k.Dst.DataType), args...)
	writeRegister(fb, k.Dst, v)
}

func atomicIntrinsic(op ir.AtomicOp) string {
	switch op {
	case ir.AtomAnd:
		return "air.atomic.and"
	case ir.AtomOr:
		return "air.atomic.or"
	case ir.AtomXor:
		return "air.atomic.xor"
	case ir.AtomAdd:
		return "air.atomic.add"
	case ir.AtomIMin:
		return "air.atomic.min"
	case ir.AtomIMax:
		return "air.atomic.max"
	case ir.AtomUMin:
		return "air.atomic.umin"
	case ir.AtomUMax:
		return "air.atomic.umax"
	case ir.AtomCmpStore, ir.AtomCmpExchange:
		return "air.atomic.cmpxchg"
	case ir.AtomExchange:
		return "air.atomic.xchg"
	default:
		return "air.atomic.add"
	}
}

func lowerEval(fb *FunctionBuilder, k ir.InstEval) {
	src := readOperand(fb, k.Src)
	args := []string{vectorType(k.Src.DataType) + " " + src}
	name := "air.interpolate_at_centroid"
	switch k.Op {
	case ir.EvalSampleIndex:
		name = "air.interpolate_at_sample"
		args = append(args, "i32 "+readOperand(fb, *k.Arg))
	case ir.EvalSnapped:
		name = "air.interpolate_at_offset"
		args = append(args, "<2 x float> "+readOperand(fb, *k.Arg))
	}
	v := fb.EmitCall(name, vectorType(k.Dst.DataType), args...)
	writeRegister(fb, k.Dst, v)
}
