package ir

import (
	"errors"

	"github.com/gogpu/dxmtl/dxbc"
)

// ErrControlFlowOpcode is returned if Lift is asked to lift a branch or
// call opcode. Those opcodes never become an Instruction; package cfg
// reads them directly off the dxbc.Instruction stream to build block
// boundaries and terminators, and must never pass them to Lift.
var ErrControlFlowOpcode = errors.New("ir: opcode is a control-flow marker, not lowered by Lift")

// Lifter turns decoded dxbc.Instructions into ir.Instructions,
// accumulating declarations into a ShaderInfo as it goes. A Lifter is
// not safe for concurrent use; package cfg owns one per shader program
// (and, within a hull shader, tracks which phase is current via
// SetPhase).
type Lifter struct {
	Info  *ShaderInfo
	phase uint32
}

// NewLifter returns a Lifter that populates info.
func NewLifter(info *ShaderInfo) *Lifter {
	return &Lifter{Info: info, phase: PhaseNone}
}

// SetPhase tells the lifter which hull-shader phase subsequent
// indexable-temp declarations and accesses belong to. Pass PhaseNone
// outside hull shaders or in the control-point phase.
func (l *Lifter) SetPhase(phase uint32) { l.phase = phase }

// Lift converts one decoded instruction. Declarations return (nil, nil)
// after updating l.Info; control-flow opcodes return
// ErrControlFlowOpcode; everything else returns a populated
// Instruction with Saturate/PreciseMask copied from the token header
// (PreciseMask already widened by the caller via ApplyPreciseOverride
// when global flags require it).
func (l *Lifter) Lift(inst *dxbc.Instruction) (*Instruction, error) {
	ops := inst.Operands
	mk := func(kind InstructionKind) *Instruction {
		return &Instruction{Kind: kind, Saturate: inst.Saturate, PreciseMask: inst.PreciseMask}
	}

	switch inst.Opcode {
	case dxbc.OpNop:
		return mk(InstNop{}), nil
	case dxbc.OpMov:
		return mk(InstMov{Dst: l.dst(ops[0], DataFloat), Src: l.src(ops[1], DataFloat)}), nil
	case dxbc.OpMovc:
		return mk(InstMovc{
			Dst: l.dst(ops[0], DataFloat), Cond: l.src(ops[1], DataInt),
			True: l.src(ops[2], DataFloat), False: l.src(ops[3], DataFloat),
		}), nil
	case dxbc.OpSwapc:
		return mk(InstSwapc{
			Dst0: l.dst(ops[0], DataFloat), Dst1: l.dst(ops[1], DataFloat),
			Cond: l.src(ops[2], DataInt), Src0: l.src(ops[3], DataFloat), Src1: l.src(ops[4], DataFloat),
		}), nil

	case dxbc.OpDp2, dxbc.OpDp3, dxbc.OpDp4:
		n := map[dxbc.Opcode]int{dxbc.OpDp2: 2, dxbc.OpDp3: 3, dxbc.OpDp4: 4}[inst.Opcode]
		return mk(InstDot{Dst: l.dst(ops[0], DataFloat), A: l.src(ops[1], DataFloat), B: l.src(ops[2], DataFloat), Components: n}), nil
	case dxbc.OpMad:
		return mk(InstMad{Dst: l.dst(ops[0], DataFloat), A: l.src(ops[1], DataFloat), B: l.src(ops[2], DataFloat), C: l.src(ops[3], DataFloat)}), nil
	case dxbc.OpIMad:
		return mk(InstMad{Dst: l.dst(ops[0], DataInt), A: l.src(ops[1], DataInt), B: l.src(ops[2], DataInt), C: l.src(ops[3], DataInt)}), nil

	case dxbc.OpRcp, dxbc.OpRsq, dxbc.OpSqrt, dxbc.OpExp, dxbc.OpLog, dxbc.OpFrc,
		dxbc.OpRound_NE, dxbc.OpRound_NI, dxbc.OpRound_PI, dxbc.OpRound_Z,
		dxbc.OpDeriv_RTX, dxbc.OpDeriv_RTY, dxbc.OpDeriv_RTX_Coarse, dxbc.OpDeriv_RTX_Fine,
		dxbc.OpDeriv_RTY_Coarse, dxbc.OpDeriv_RTY_Fine:
		op := floatUnaryOps[inst.Opcode]
		return mk(InstFloatUnary{Op: op, Dst: l.dst(ops[0], DataFloat), Src: l.src(ops[1], DataFloat)}), nil

	case dxbc.OpAdd, dxbc.OpMul, dxbc.OpDiv, dxbc.OpMin, dxbc.OpMax:
		op := floatBinaryOps[inst.Opcode]
		return mk(InstFloatBinary{Op: op, Dst: l.dst(ops[0], DataFloat), A: l.src(ops[1], DataFloat), B: l.src(ops[2], DataFloat)}), nil

	case dxbc.OpSinCos:
		return mk(InstSinCos{DstSin: l.dst(ops[0], DataFloat), DstCos: l.dst(ops[1], DataFloat), Src: l.src(ops[2], DataFloat)}), nil

	case dxbc.OpEq, dxbc.OpNe, dxbc.OpLt, dxbc.OpGe:
		op := compareOps[inst.Opcode]
		return mk(InstCompare{Op: op, Dst: l.dst(ops[0], DataUint), A: l.src(ops[1], DataFloat), B: l.src(ops[2], DataFloat)}), nil
	case dxbc.OpIEq, dxbc.OpINe, dxbc.OpILt, dxbc.OpIGe:
		op := compareOps[inst.Opcode]
		return mk(InstCompare{Op: op, Dst: l.dst(ops[0], DataUint), A: l.src(ops[1], DataInt), B: l.src(ops[2], DataInt), Integer: true, Signed: true}), nil
	case dxbc.OpULt, dxbc.OpUGe:
		op := compareOps[inst.Opcode]
		return mk(InstCompare{Op: op, Dst: l.dst(ops[0], DataUint), A: l.src(ops[1], DataUint), B: l.src(ops[2], DataUint), Integer: true}), nil

	case dxbc.OpIAdd, dxbc.OpIMin, dxbc.OpIMax:
		op := intBinaryOps[inst.Opcode]
		return mk(InstIntBinary{Op: op, Dst: l.dst(ops[0], DataInt), A: l.src(ops[1], DataInt), B: l.src(ops[2], DataInt), Signed: true}), nil
	case dxbc.OpUMin, dxbc.OpUMax:
		op := intBinaryOps[inst.Opcode]
		return mk(InstIntBinary{Op: op, Dst: l.dst(ops[0], DataUint), A: l.src(ops[1], DataUint), B: l.src(ops[2], DataUint)}), nil
	case dxbc.OpAnd, dxbc.OpOr, dxbc.OpXor, dxbc.OpShl, dxbc.OpUShr, dxbc.OpIShr:
		op := intBinaryOps[inst.Opcode]
		return mk(InstIntBinary{Op: op, Dst: l.dst(ops[0], DataUint), A: l.src(ops[1], DataUint), B: l.src(ops[2], DataUint)}), nil

	case dxbc.OpINeg:
		return mk(InstIntUnary{Op: INeg, Dst: l.dst(ops[0], DataInt), Src: l.src(ops[1], DataInt)}), nil
	case dxbc.OpNot:
		return mk(InstIntUnary{Op: BNot, Dst: l.dst(ops[0], DataUint), Src: l.src(ops[1], DataUint)}), nil
	case dxbc.OpCountBits:
		return mk(InstIntUnary{Op: BCountBits, Dst: l.dst(ops[0], DataUint), Src: l.src(ops[1], DataUint)}), nil
	case dxbc.OpFirstBitHi:
		return mk(InstIntUnary{Op: BFirstBitHi, Dst: l.dst(ops[0], DataUint), Src: l.src(ops[1], DataUint)}), nil
	case dxbc.OpFirstBitLo:
		return mk(InstIntUnary{Op: BFirstBitLo, Dst: l.dst(ops[0], DataUint), Src: l.src(ops[1], DataUint)}), nil
	case dxbc.OpFirstBitShi:
		return mk(InstIntUnary{Op: BFirstBitShi, Dst: l.dst(ops[0], DataUint), Src: l.src(ops[1], DataUint)}), nil
	case dxbc.OpBitReverse:
		return mk(InstIntUnary{Op: BBitReverse, Dst: l.dst(ops[0], DataUint), Src: l.src(ops[1], DataUint)}), nil

	case dxbc.OpBfi:
		return mk(InstBfi{Dst: l.dst(ops[0], DataUint), Width: l.src(ops[1], DataUint), Offset: l.src(ops[2], DataUint), Src: l.src(ops[3], DataUint), Base: l.src(ops[4], DataUint)}), nil
	case dxbc.OpUbfe:
		return mk(InstBfe{Dst: l.dst(ops[0], DataUint), Width: l.src(ops[1], DataUint), Offset: l.src(ops[2], DataUint), Src: l.src(ops[3], DataUint)}), nil
	case dxbc.OpIbfe:
		return mk(InstBfe{Dst: l.dst(ops[0], DataInt), Width: l.src(ops[1], DataUint), Offset: l.src(ops[2], DataUint), Src: l.src(ops[3], DataInt), Signed: true}), nil

	case dxbc.OpIMul:
		return mk(InstIntBinaryTwoDst{Op: TwoDstIMul, Dst0: l.dst(ops[0], DataInt), Dst1: l.dst(ops[1], DataInt), A: l.src(ops[2], DataInt), B: l.src(ops[3], DataInt)}), nil
	case dxbc.OpIDiv:
		return mk(InstIntBinaryTwoDst{Op: TwoDstIDiv, Dst0: l.dst(ops[0], DataInt), Dst1: l.dst(ops[1], DataInt), A: l.src(ops[2], DataInt), B: l.src(ops[3], DataInt)}), nil
	case dxbc.OpUDiv:
		return mk(InstIntBinaryTwoDst{Op: TwoDstUDiv, Dst0: l.dst(ops[0], DataUint), Dst1: l.dst(ops[1], DataUint), A: l.src(ops[2], DataUint), B: l.src(ops[3], DataUint)}), nil
	case dxbc.OpUAddc:
		return mk(InstIntBinaryTwoDst{Op: TwoDstAddC, Dst0: l.dst(ops[0], DataUint), Dst1: l.dst(ops[1], DataUint), A: l.src(ops[2], DataUint), B: l.src(ops[3], DataUint)}), nil
	case dxbc.OpUSubb:
		return mk(InstIntBinaryTwoDst{Op: TwoDstSubB, Dst0: l.dst(ops[0], DataUint), Dst1: l.dst(ops[1], DataUint), A: l.src(ops[2], DataUint), B: l.src(ops[3], DataUint)}), nil

	case dxbc.OpFtoI:
		return mk(InstConvert{Op: ConvFtoI, Dst: l.dst(ops[0], DataInt), Src: l.src(ops[1], DataFloat)}), nil
	case dxbc.OpFtoU:
		return mk(InstConvert{Op: ConvFtoU, Dst: l.dst(ops[0], DataUint), Src: l.src(ops[1], DataFloat)}), nil
	case dxbc.OpItoF:
		return mk(InstConvert{Op: ConvItoF, Dst: l.dst(ops[0], DataFloat), Src: l.src(ops[1], DataInt)}), nil
	case dxbc.OpUtoF:
		return mk(InstConvert{Op: ConvUtoF, Dst: l.dst(ops[0], DataFloat), Src: l.src(ops[1], DataUint)}), nil
	case dxbc.OpF32ToF16:
		return mk(InstConvert{Op: ConvF32toF16, Dst: l.dst(ops[0], DataTwoHalfs), Src: l.src(ops[1], DataFloat)}), nil
	case dxbc.OpF16ToF32:
		return mk(InstConvert{Op: ConvF16toF32, Dst: l.dst(ops[0], DataFloat), Src: l.src(ops[1], DataTwoHalfs)}), nil

	case dxbc.OpSample:
		return mk(l.textureSample(inst, TexSample, ops, nil)), nil
	case dxbc.OpSampleL:
		lod := l.src(ops[4], DataFloat)
		return mk(l.textureSample(inst, TexSampleL, ops[:4], &lod)), nil
	case dxbc.OpSampleB:
		bias := l.src(ops[4], DataFloat)
		return mk(l.textureSample(inst, TexSampleB, ops[:4], &bias)), nil
	case dxbc.OpSampleD:
		s := l.textureSample(inst, TexSampleD, ops[:4], nil)
		ddx := l.src(ops[4], DataFloat)
		ddy := l.src(ops[5], DataFloat)
		s.Gradients[0], s.Gradients[1] = &ddx, &ddy
		return mk(s), nil
	case dxbc.OpSampleC:
		s := l.textureSample(inst, TexSampleC, ops[:4], nil)
		dref := l.src(ops[4], DataFloat)
		s.Dref = &dref
		return mk(s), nil
	case dxbc.OpSampleCLz:
		s := l.textureSample(inst, TexSampleCLz, ops[:4], nil)
		dref := l.src(ops[4], DataFloat)
		s.Dref = &dref
		return mk(s), nil
	case dxbc.OpGather4:
		return mk(l.textureSample(inst, TexGather4, ops, nil)), nil
	case dxbc.OpGather4C:
		s := l.textureSample(inst, TexGather4C, ops[:4], nil)
		dref := l.src(ops[4], DataFloat)
		s.Dref = &dref
		return mk(s), nil
	case dxbc.OpGather4Po:
		off := l.src(ops[4], DataInt)
		return mk(l.textureSample(inst, TexGather4Po, ops[:4], &off)), nil
	case dxbc.OpGather4PoC:
		s := l.textureSample(inst, TexGather4PoC, ops[:4], nil)
		off := l.src(ops[4], DataInt)
		s.LODOrBias = &off
		dref := l.src(ops[5], DataFloat)
		s.Dref = &dref
		return mk(s), nil

	case dxbc.OpLd:
		l.markSRVLoad(ops[2])
		return mk(InstTextureLoad{Dst: l.dst(ops[0], l.resourceDataType(ops[2])), Coord: l.src(ops[1], DataInt), Resource: l.src(ops[2], DataUint)}), nil
	case dxbc.OpLdMs:
		l.markSRVLoad(ops[2])
		samp := l.src(ops[3], DataInt)
		return mk(InstTextureLoad{Dst: l.dst(ops[0], l.resourceDataType(ops[2])), Coord: l.src(ops[1], DataInt), Resource: l.src(ops[2], DataUint), Sample: &samp}), nil
	case dxbc.OpLdSparse:
		l.markSRVLoad(ops[2])
		return mk(InstTextureLoad{Dst: l.dst(ops[0], l.resourceDataType(ops[2])), Coord: l.src(ops[1], DataInt), Resource: l.src(ops[2], DataUint), Sparse: true}), nil

	case dxbc.OpSampleInfo:
		return mk(InstSampleInfo{Dst: l.dst(ops[0], DataUint), Resource: l.src(ops[1], DataUint)}), nil
	case dxbc.OpSamplePos:
		l.Info.UseSamplePos = true
		return mk(InstSamplePos{Dst: l.dst(ops[0], DataFloat), Resource: l.src(ops[1], DataUint), Sample: l.src(ops[2], DataInt)}), nil
	case dxbc.OpResInfo:
		return mk(InstResourceInfo{Dst: l.dst(ops[0], DataFloat), Resource: l.src(ops[1], DataUint), MipLevel: l.src(ops[2], DataInt), ReturnType: inst.ResInfoReturnType}), nil
	case dxbc.OpBufInfo:
		return mk(InstBufferInfo{Dst: l.dst(ops[0], DataUint), Resource: l.src(ops[1], DataUint)}), nil

	case dxbc.OpLdRaw:
		l.markUAVOrTGSMRead(ops[2])
		return mk(InstMemoryLoad{Kind: l.memKind(ops[2], false), Dst: l.dst(ops[0], DataUint), Address: l.src(ops[1], DataUint), Resource: l.src(ops[2], DataUint)}), nil
	case dxbc.OpStoreRaw:
		l.markUAVOrTGSMWrite(ops[0])
		return mk(InstMemoryStore{Kind: l.memKind(ops[0], false), Resource: l.src(ops[0], DataUint), Address: l.src(ops[1], DataUint), Value: l.src(ops[2], DataUint)}), nil
	case dxbc.OpLdStructured:
		l.markUAVOrTGSMRead(ops[3])
		idx := l.src(ops[1], DataUint)
		return mk(InstMemoryLoad{Kind: l.memKind(ops[3], true), Dst: l.dst(ops[0], DataUint), Address: l.src(ops[2], DataUint), StructureIndex: &idx, Resource: l.src(ops[3], DataUint)}), nil
	case dxbc.OpStoreStructured:
		l.markUAVOrTGSMWrite(ops[0])
		idx := l.src(ops[1], DataUint)
		return mk(InstMemoryStore{Kind: l.memKind(ops[0], true), Resource: l.src(ops[0], DataUint), Address: l.src(ops[2], DataUint), StructureIndex: &idx, Value: l.src(ops[3], DataUint)}), nil
	case dxbc.OpLdUAVTyped:
		l.markUAVOrTGSMRead(ops[2])
		return mk(InstMemoryLoad{Kind: MemUAVTyped, Dst: l.dst(ops[0], l.resourceDataType(ops[2])), Address: l.src(ops[1], DataInt), Resource: l.src(ops[2], DataUint)}), nil
	case dxbc.OpStoreUAVTyped:
		l.markUAVOrTGSMWrite(ops[0])
		return mk(InstMemoryStore{Kind: MemUAVTyped, Resource: l.src(ops[0], DataUint), Address: l.src(ops[1], DataInt), Value: l.src(ops[2], l.resourceDataType(ops[0]))}), nil

	case dxbc.OpAtomicAnd, dxbc.OpAtomicOr, dxbc.OpAtomicXor, dxbc.OpAtomicAdd,
		dxbc.OpAtomicIMin, dxbc.OpAtomicIMax, dxbc.OpAtomicUMin, dxbc.OpAtomicUMax:
		op := atomicBinOps[inst.Opcode]
		l.markUAVAtomic(ops[0], false)
		return mk(InstAtomic{Op: op, Resource: l.src(ops[0], DataUint), Address: l.src(ops[1], DataUint), Value: l.src(ops[2], DataUint)}), nil
	case dxbc.OpAtomicCmpStore:
		l.Info.UseCmpExch = true
		l.markUAVAtomic(ops[0], false)
		cmp := l.src(ops[2], DataUint)
		return mk(InstAtomic{Op: AtomCmpStore, Resource: l.src(ops[0], DataUint), Address: l.src(ops[1], DataUint), Value: l.src(ops[3], DataUint), CompareValue: &cmp}), nil

	case dxbc.OpImmAtomicAlloc:
		l.markUAVAtomic(ops[1], true)
		return mk(InstAtomicCounter{Dst: l.dst(ops[0], DataUint), Resource: l.src(ops[1], DataUint), Increment: true}), nil
	case dxbc.OpImmAtomicConsume:
		l.markUAVAtomic(ops[1], true)
		return mk(InstAtomicCounter{Dst: l.dst(ops[0], DataUint), Resource: l.src(ops[1], DataUint), Increment: false}), nil
	case dxbc.OpImmAtomicExch:
		l.markUAVAtomic(ops[1], false)
		return mk(InstAtomicImmediate{Op: AtomExchange, Dst: l.dst(ops[0], DataUint), Resource: l.src(ops[1], DataUint), Address: l.src(ops[2], DataUint), Value: l.src(ops[3], DataUint)}), nil
	case dxbc.OpImmAtomicCmpExch:
		l.Info.UseCmpExch = true
		l.markUAVAtomic(ops[1], false)
		cmp := l.src(ops[3], DataUint)
		return mk(InstAtomicImmediate{Op: AtomCmpExchange, Dst: l.dst(ops[0], DataUint), Resource: l.src(ops[1], DataUint), Address: l.src(ops[2], DataUint), Value: l.src(ops[4], DataUint), CompareValue: &cmp}), nil
	case dxbc.OpImmAtomicAdd, dxbc.OpImmAtomicIMin, dxbc.OpImmAtomicIMax,
		dxbc.OpImmAtomicUMin, dxbc.OpImmAtomicUMax, dxbc.OpImmAtomicAnd,
		dxbc.OpImmAtomicOr, dxbc.OpImmAtomicXor:
		op := atomicImmOps[inst.Opcode]
		l.markUAVAtomic(ops[1], false)
		return mk(InstAtomicImmediate{Op: op, Dst: l.dst(ops[0], DataUint), Resource: l.src(ops[1], DataUint), Address: l.src(ops[2], DataUint), Value: l.src(ops[3], DataUint)}), nil

	case dxbc.OpSync:
		return mk(InstSync{Flags: l.syncFlags(inst)}), nil

	case dxbc.OpEvalCentroid:
		l.markPullMode(ops[1])
		return mk(InstEval{Op: EvalCentroid, Dst: l.dst(ops[0], DataFloat), Src: l.src(ops[1], DataFloat)}), nil
	case dxbc.OpEvalSampleIndex:
		l.markPullMode(ops[1])
		idx := l.src(ops[2], DataInt)
		return mk(InstEval{Op: EvalSampleIndex, Dst: l.dst(ops[0], DataFloat), Src: l.src(ops[1], DataFloat), Arg: &idx}), nil
	case dxbc.OpEvalSnapped:
		l.markPullMode(ops[1])
		off := l.src(ops[2], DataInt)
		return mk(InstEval{Op: EvalSnapped, Dst: l.dst(ops[0], DataFloat), Src: l.src(ops[1], DataFloat), Arg: &off}), nil

	case dxbc.OpDiscard, dxbc.OpDiscardNZ:
		return mk(InstDiscard{Cond: l.src(ops[0], DataInt), NonZero: inst.TestNonZero}), nil

	case dxbc.OpEmit:
		return mk(InstEmit{Stream: 0}), nil
	case dxbc.OpCut:
		return mk(InstCut{Stream: 0}), nil
	case dxbc.OpEmitStream:
		return mk(InstEmit{Stream: l.streamIndex(ops[0])}), nil
	case dxbc.OpCutStream:
		return mk(InstCut{Stream: l.streamIndex(ops[0])}), nil

	case dxbc.OpMsad:
		l.Info.UseMsad = true
		return mk(InstMsad{Dst: l.dst(ops[0], DataUint), Ref: l.src(ops[1], DataUint), Src: l.src(ops[2], DataUint), Accum: l.src(ops[3], DataUint)}), nil

	case dxbc.OpCustomData:
		l.Info.ImmediateConstantBufferData = append(l.Info.ImmediateConstantBufferData, inst.CustomData...)
		return nil, nil

	case dxbc.OpIf, dxbc.OpElse, dxbc.OpEndIf, dxbc.OpLoop, dxbc.OpEndLoop,
		dxbc.OpBreak, dxbc.OpBreakc, dxbc.OpContinue, dxbc.OpContinuec,
		dxbc.OpSwitch, dxbc.OpCase, dxbc.OpDefault, dxbc.OpEndSwitch,
		dxbc.OpRet, dxbc.OpRetc, dxbc.OpLabel, dxbc.OpCall, dxbc.OpCallc,
		dxbc.OpHSDecls, dxbc.OpHSControlPointPhase, dxbc.OpHSForkPhase, dxbc.OpHSJoinPhase:
		return nil, ErrControlFlowOpcode

	default:
		return l.liftDeclaration(inst)
	}
}

// streamIndex reads an EMIT_STREAM/CUT_STREAM operand's immediate
// stream number.
func (l *Lifter) streamIndex(o dxbc.Operand) uint8 {
	if len(o.ImmediateValues) > 0 {
		return uint8(o.ImmediateValues[0])
	}
	return 0
}

// dst canonicalizes an operand used as an instruction's destination;
// src canonicalizes one used as a source. Both share canonOperand but
// are named separately so call sites read like the operand list they
// annotate in the DXBC reference manual.
func (l *Lifter) dst(o dxbc.Operand, dt DataType) Operand { return l.canonOperand(o, dt) }
func (l *Lifter) src(o dxbc.Operand, dt DataType) Operand { return l.canonOperand(o, dt) }

// Operand canonicalizes a single operand outside the context of a full
// instruction lowering. Package cfg uses this for the predicate/value
// operands that live on control-flow opcodes (IF, BREAKC, CONTINUEC,
// RETC, DISCARD, SWITCH), which Lift never sees because they're
// intercepted before reaching it (see ErrControlFlowOpcode).
func (l *Lifter) Operand(o dxbc.Operand, dt DataType) Operand { return l.canonOperand(o, dt) }

func (l *Lifter) canonOperand(o dxbc.Operand, dt DataType) Operand {
	out := Operand{
		Kind:        o.Type,
		SystemValue: o.SystemValueKind,
		Selection:   o.Selection,
		DataType:    dt,
		Immediate:   o.ImmediateValues,
		Modifier: Modifier{
			Negate:       o.Modifier.Negate,
			Abs:          o.Modifier.Abs,
			MinPrecision: o.Modifier.MinPrecision,
			NonUniform:   o.Modifier.NonUniform,
		},
	}
	switch o.Selection {
	case dxbc.SelectMask:
		out.Mask = WriteMask(o.SelectionData & 0xf)
	case dxbc.SelectSwizzle:
		for i := 0; i < 4; i++ {
			out.Swizzle[i] = ComponentIndex((o.SelectionData >> uint(2*i)) & 0x3)
		}
	case dxbc.SelectSingle:
		c := ComponentIndex(o.SelectionData & 0x3)
		out.Swizzle = Swizzle{c, c, c, c}
	}
	for _, idx := range o.Indices {
		out.Indices = append(out.Indices, l.toIndexExpr(idx))
	}
	if o.Type == dxbc.OperandIndexableTemp && len(out.Indices) >= 2 {
		if bankIdx, ok := out.Indices[0].(IndexImmediate); ok {
			l.growIndexableTemp(bankIdx.Value)
		}
	}
	if o.Type == dxbc.OperandTemp && len(o.Indices) > 0 {
		if o.Indices[0].Repr == dxbc.IndexImmediate32 || o.Indices[0].Repr == dxbc.IndexImmediate64 {
			l.Info.growTempRegisterCount(uint32(o.Indices[0].Immediate))
		}
	}
	// A plain immediate index (r0, x0[3]) addresses the same mutable
	// register an equivalent relative index would, so it gets the same
	// register-identifying tag; only the raw register/bank number
	// differs between the two forms, never the addressing mode a
	// register's identity is keyed on.
	if o.Type == dxbc.OperandTemp && len(out.Indices) > 0 {
		if imm, ok := out.Indices[0].(IndexImmediate); ok {
			out.Indices[0] = IndexByTempComponent{Register: imm.Value}
		}
	}
	if o.Type == dxbc.OperandIndexableTemp && len(out.Indices) >= 2 {
		if bankIdx, ok := out.Indices[0].(IndexImmediate); ok {
			if imm, ok := out.Indices[1].(IndexImmediate); ok {
				out.Indices[1] = IndexByIndexableTempComponent{Bank: bankIdx.Value, Register: imm.Value, Phase: l.phase}
			}
		}
	}
	return out
}

func (l *Lifter) toIndexExpr(idx dxbc.Index) IndexExpr {
	switch idx.Repr {
	case dxbc.IndexImmediate32, dxbc.IndexImmediate64:
		return IndexImmediate{Value: uint32(idx.Immediate)}
	case dxbc.IndexRelative:
		return l.relativeIndexExpr(idx.Relative, 0)
	case dxbc.IndexImmediatePlusRelative:
		return l.relativeIndexExpr(idx.Relative, int32(idx.Immediate))
	default:
		return IndexImmediate{Value: 0}
	}
}

func (l *Lifter) relativeIndexExpr(rel dxbc.RelativeIndex, extraOffset int32) IndexExpr {
	comp := ComponentIndex(rel.Component)
	if rel.RegFile == dxbc.RegFileIndexableTemp {
		return IndexByIndexableTempComponent{
			Bank: rel.Bank, Register: rel.Register, Component: comp,
			Offset: rel.ConstOffset + extraOffset, Phase: l.phase,
		}
	}
	return IndexByTempComponent{Register: rel.Register, Component: comp, Offset: rel.ConstOffset + extraOffset}
}

func (l *Lifter) growIndexableTemp(bank uint32) {
	l.Info.growIndexableTemp(l.phase, bank, 1)
}

func (l *Lifter) textureSample(inst *dxbc.Instruction, op TextureSampleOp, ops []dxbc.Operand, extra *Operand) InstTextureSample {
	l.markSRVSample(ops[2], op == TexSampleC || op == TexSampleCLz || op == TexGather4C || op == TexGather4PoC)
	s := InstTextureSample{
		Op:       op,
		Dst:      l.dst(ops[0], l.resourceDataType(ops[2])),
		Coord:    l.src(ops[1], DataFloat),
		Resource: l.src(ops[2], DataUint),
		Sampler:  l.src(ops[3], DataUint),
	}
	switch op {
	case TexSampleL, TexSampleB:
		s.LODOrBias = extra
	case TexGather4Po:
		s.LODOrBias = extra
	}
	for _, ext := range inst.Extended {
		if ext.Kind == dxbc.ExtSampleTexelOffset {
			s.TexelOffset = ext.TexelOffset
		}
	}
	return s
}

func (l *Lifter) resourceDataType(resource dxbc.Operand) DataType {
	rangeID, ok := immediateIndex(resource)
	if !ok {
		return DataFloat
	}
	if srv, exists := l.Info.SRVs[rangeID]; exists {
		return resourceReturnDataType(srv.ReturnType[0])
	}
	if uav, exists := l.Info.UAVs[rangeID]; exists {
		return resourceReturnDataType(uav.ReturnType[0])
	}
	return DataFloat
}

func (l *Lifter) memKind(resource dxbc.Operand, structured bool) MemoryKind {
	if resource.Type == dxbc.OperandTGSM {
		if structured {
			return MemTGSMStructured
		}
		return MemTGSMRaw
	}
	if structured {
		return MemUAVStructured
	}
	return MemUAVRaw
}

func (l *Lifter) markSRVLoad(resource dxbc.Operand) {
	if id, ok := immediateIndex(resource); ok {
		l.Info.markSRVRead(id)
	}
}

func (l *Lifter) markSRVSample(resource dxbc.Operand, compared bool) {
	if id, ok := immediateIndex(resource); ok {
		l.Info.markSRVSampled(id, compared)
	}
}

func (l *Lifter) markUAVOrTGSMRead(resource dxbc.Operand) {
	if resource.Type == dxbc.OperandTGSM {
		return
	}
	if id, ok := immediateIndex(resource); ok {
		l.Info.markUAVRead(id)
	}
}

func (l *Lifter) markUAVOrTGSMWrite(resource dxbc.Operand) {
	if resource.Type == dxbc.OperandTGSM {
		return
	}
	if id, ok := immediateIndex(resource); ok {
		l.Info.markUAVWritten(id)
	}
}

func (l *Lifter) markUAVAtomic(resource dxbc.Operand, withCounter bool) {
	if resource.Type == dxbc.OperandTGSM {
		return
	}
	if id, ok := immediateIndex(resource); ok {
		l.Info.markUAVAtomic(id, withCounter)
	}
}

func (l *Lifter) markPullMode(src dxbc.Operand) {
	if id, ok := immediateIndex(src); ok {
		l.Info.markPullMode(id)
	}
}

func immediateIndex(o dxbc.Operand) (uint32, bool) {
	if len(o.Indices) == 0 {
		return 0, false
	}
	idx := o.Indices[0]
	if idx.Repr == dxbc.IndexImmediate32 || idx.Repr == dxbc.IndexImmediate64 {
		return uint32(idx.Immediate), true
	}
	return 0, false
}

func (l *Lifter) syncFlags(inst *dxbc.Instruction) SyncFlags {
	var f SyncFlags
	if inst.ResInfoReturnType&0x1 != 0 {
		f |= SyncThreadGroup
	}
	if inst.ResInfoReturnType&0x2 != 0 {
		f |= SyncThreadGroupMemory
	}
	if inst.PreciseMask&0x1 != 0 {
		f |= SyncUAVGroup
	}
	if inst.PreciseMask&0x2 != 0 {
		f |= SyncUAVGlobal
	}
	return f
}

var floatUnaryOps = map[dxbc.Opcode]FloatUnaryOp{
	dxbc.OpRcp: FRcp, dxbc.OpRsq: FRsq, dxbc.OpSqrt: FSqrt, dxbc.OpExp: FExp,
	dxbc.OpLog: FLog, dxbc.OpFrc: FFrc,
	dxbc.OpRound_NE: FRoundNE, dxbc.OpRound_NI: FRoundNI, dxbc.OpRound_PI: FRoundPI, dxbc.OpRound_Z: FRoundZ,
	dxbc.OpDeriv_RTX: FDerivRTX, dxbc.OpDeriv_RTY: FDerivRTY,
	dxbc.OpDeriv_RTX_Coarse: FDerivRTXCoarse, dxbc.OpDeriv_RTX_Fine: FDerivRTXFine,
	dxbc.OpDeriv_RTY_Coarse: FDerivRTYCoarse, dxbc.OpDeriv_RTY_Fine: FDerivRTYFine,
}

var floatBinaryOps = map[dxbc.Opcode]FloatBinaryOp{
	dxbc.OpAdd: FAdd, dxbc.OpMul: FMul, dxbc.OpDiv: FDiv, dxbc.OpMin: FMin, dxbc.OpMax: FMax,
}

var compareOps = map[dxbc.Opcode]CompareOp{
	dxbc.OpEq: CmpEq, dxbc.OpNe: CmpNe, dxbc.OpLt: CmpLt, dxbc.OpGe: CmpGe,
	dxbc.OpIEq: CmpEq, dxbc.OpINe: CmpNe, dxbc.OpILt: CmpLt, dxbc.OpIGe: CmpGe,
	dxbc.OpULt: CmpLt, dxbc.OpUGe: CmpGe,
}

var intBinaryOps = map[dxbc.Opcode]IntBinaryOp{
	dxbc.OpIAdd: IAdd, dxbc.OpIMin: IMin, dxbc.OpIMax: IMax, dxbc.OpUMin: UMin, dxbc.OpUMax: UMax,
	dxbc.OpAnd: BAnd, dxbc.OpOr: BOr, dxbc.OpXor: BXor,
	dxbc.OpShl: BShl, dxbc.OpUShr: BUShr, dxbc.OpIShr: BIShr,
}

var atomicBinOps = map[dxbc.Opcode]AtomicOp{
	dxbc.OpAtomicAnd: AtomAnd, dxbc.OpAtomicOr: AtomOr, dxbc.OpAtomicXor: AtomXor, dxbc.OpAtomicAdd: AtomAdd,
	dxbc.OpAtomicIMin: AtomIMin, dxbc.OpAtomicIMax: AtomIMax, dxbc.OpAtomicUMin: AtomUMin, dxbc.OpAtomicUMax: AtomUMax,
}

var atomicImmOps = map[dxbc.Opcode]AtomicOp{
	dxbc.OpImmAtomicAdd: AtomAdd, dxbc.OpImmAtomicIMin: AtomIMin, dxbc.OpImmAtomicIMax: AtomIMax,
	dxbc.OpImmAtomicUMin: AtomUMin, dxbc.OpImmAtomicUMax: AtomUMax,
	dxbc.OpImmAtomicAnd: AtomAnd, dxbc.OpImmAtomicOr: AtomOr, dxbc.OpImmAtomicXor: AtomXor,
}
