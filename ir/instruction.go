package ir

// Instruction is one lifted instruction: a closed InstructionKind
// variant plus the header bits common to every DXBC instruction.
type Instruction struct {
	Kind        InstructionKind
	Saturate    bool
	PreciseMask uint8 // one bit per output component; see typing.go ApplyPreciseOverride
}

// InstructionKind is a closed sum type, one implementation per
// instruction shape. Pattern-match exhaustively in the CFG builder and
// AIR emitter; never add virtual dispatch methods beyond the marker.
type InstructionKind interface {
	instructionKind()
}

// InstMov is MOV: Dst = Src (components per the destination mask).
type InstMov struct{ Dst, Src Operand }

func (InstMov) instructionKind() {}

// InstMovc is MOVC: Dst = Cond != 0 ? True : False, per-component.
type InstMovc struct{ Dst, Cond, True, False Operand }

func (InstMovc) instructionKind() {}

// InstSwapc is SWAPC: conditionally exchanges two sources into two
// destinations based on Cond.
type InstSwapc struct {
	Dst0, Dst1     Operand
	Cond           Operand
	Src0, Src1     Operand
}

func (InstSwapc) instructionKind() {}

// InstDot is DP2/DP3/DP4: Dst = dot(A, B) over Components components.
type InstDot struct {
	Dst, A, B  Operand
	Components int
}

func (InstDot) instructionKind() {}

// InstMad is MAD/IMAD: Dst = A*B + C.
type InstMad struct{ Dst, A, B, C Operand }

func (InstMad) instructionKind() {}

// FloatUnaryOp enumerates single-operand float instructions.
type FloatUnaryOp uint8

const (
	FRcp FloatUnaryOp = iota
	FRsq
	FSqrt
	FExp
	FLog
	FFrc
	FRoundNE
	FRoundNI
	FRoundPI
	FRoundZ
	FDerivRTX
	FDerivRTY
	FDerivRTXCoarse
	FDerivRTXFine
	FDerivRTYCoarse
	FDerivRTYFine
)

// InstFloatUnary covers the single-operand float opcodes.
type InstFloatUnary struct {
	Op       FloatUnaryOp
	Dst, Src Operand
}

func (InstFloatUnary) instructionKind() {}

// FloatBinaryOp enumerates two-operand float instructions.
type FloatBinaryOp uint8

const (
	FAdd FloatBinaryOp = iota
	FMul
	FDiv
	FMin
	FMax
)

// InstFloatBinary covers the two-operand float opcodes.
type InstFloatBinary struct {
	Op      FloatBinaryOp
	Dst, A, B Operand
}

func (InstFloatBinary) instructionKind() {}

// InstSinCos is SINCOS: two destinations, sin and cos of the source.
type InstSinCos struct {
	DstSin, DstCos Operand
	Src            Operand
}

func (InstSinCos) instructionKind() {}

// CompareOp enumerates the comparison predicates shared by float and
// integer compare instructions.
type CompareOp uint8

const (
	CmpEq CompareOp = iota
	CmpNe
	CmpLt
	CmpGe
)

// InstCompare covers EQ/NE/LT/GE (float) and IEQ/INE/ILT/IGE/ULT/UGE
// (integer); Signed distinguishes the int/uint compare family.
type InstCompare struct {
	Op       CompareOp
	Dst, A, B Operand
	Integer  bool
	Signed   bool
}

func (InstCompare) instructionKind() {}

// IntUnaryOp enumerates single-operand integer/bitwise instructions.
type IntUnaryOp uint8

const (
	INeg IntUnaryOp = iota
	BNot
	BCountBits
	BFirstBitHi
	BFirstBitLo
	BFirstBitShi
	BBitReverse
)

// InstIntUnary covers the single-operand integer/bitwise opcodes.
type InstIntUnary struct {
	Op       IntUnaryOp
	Dst, Src Operand
}

func (InstIntUnary) instructionKind() {}

// IntBinaryOp enumerates two-operand integer/bitwise instructions.
type IntBinaryOp uint8

const (
	IAdd IntBinaryOp = iota
	IMin
	IMax
	UMin
	UMax
	BAnd
	BOr
	BXor
	BShl
	BUShr
	BIShr
)

// InstIntBinary covers the two-operand integer/bitwise opcodes.
type InstIntBinary struct {
	Op      IntBinaryOp
	Dst, A, B Operand
	Signed  bool
}

func (InstIntBinary) instructionKind() {}

// InstBfi is BFI: bitfield insert, Dst = insert(Width, Offset, Src, Base).
type InstBfi struct {
	Dst, Width, Offset, Src, Base Operand
}

func (InstBfi) instructionKind() {}

// InstBfe is (U/I)BFE: bitfield extract, Dst = extract(Width, Offset, Src).
type InstBfe struct {
	Dst, Width, Offset, Src Operand
	Signed                  bool
}

func (InstBfe) instructionKind() {}

// IntBinaryTwoDstOp enumerates integer ops with two destination
// operands.
type IntBinaryTwoDstOp uint8

const (
	TwoDstIMul IntBinaryTwoDstOp = iota // hi, lo
	TwoDstIDiv                          // quotient, remainder (signed)
	TwoDstUDiv                          // quotient, remainder (unsigned)
	TwoDstAddC                          // result, carry
	TwoDstSubB                          // result, borrow
)

// InstIntBinaryTwoDst covers IMUL/IDIV/UDIV/UADDC/USUBB.
type InstIntBinaryTwoDst struct {
	Op         IntBinaryTwoDstOp
	Dst0, Dst1 Operand
	A, B       Operand
}

func (InstIntBinaryTwoDst) instructionKind() {}

// ConvertOp enumerates the explicit numeric conversion directions.
type ConvertOp uint8

const (
	ConvFtoI ConvertOp = iota
	ConvFtoU
	ConvItoF
	ConvUtoF
	ConvF32toF16
	ConvF16toF32
)

// InstConvert covers FTOI/FTOU/ITOF/UTOF/F32TOF16/F16TOF32.
type InstConvert struct {
	Op       ConvertOp
	Dst, Src Operand
}

func (InstConvert) instructionKind() {}

// TextureSampleOp enumerates the texture-sample instruction family.
type TextureSampleOp uint8

const (
	TexSample TextureSampleOp = iota
	TexSampleL
	TexSampleB
	TexSampleD
	TexSampleC
	TexSampleCLz
	TexGather4
	TexGather4C
	TexGather4Po
	TexGather4PoC
)

// InstTextureSample covers SAMPLE and its L/B/D/C/Lz/Gather4 variants.
type InstTextureSample struct {
	Op             TextureSampleOp
	Dst            Operand
	Coord          Operand
	Resource       Operand
	Sampler        Operand
	LODOrBias      *Operand // valid for SampleL/SampleB/Gather4Po's offset
	Gradients      [2]*Operand // ddx, ddy for SampleD
	Dref           *Operand // comparison reference value, Sample*C variants
	TexelOffset    [3]int8
	Sparse         bool
	MinLODClamp    *Operand
}

func (InstTextureSample) instructionKind() {}

// InstTextureLoad covers LD / LD_MS / LD_SPARSE.
type InstTextureLoad struct {
	Dst         Operand
	Coord       Operand
	Resource    Operand
	Sample      *Operand // multisample index, LD_MS
	TexelOffset [3]int8
	Sparse      bool
	MinLODClamp *Operand
}

func (InstTextureLoad) instructionKind() {}

// InstSampleInfo is SAMPLE_INFO: Dst = sample count or (if UAV-typed)
// is-uint indicator for Resource.
type InstSampleInfo struct {
	Dst, Resource Operand
	Uint          bool
}

func (InstSampleInfo) instructionKind() {}

// InstSamplePos is SAMPLE_POS: Dst = the subpixel position of Sample
// within Resource. Sets ShaderInfo.UseSamplePos.
type InstSamplePos struct {
	Dst, Resource, Sample Operand
}

func (InstSamplePos) instructionKind() {}

// InstResourceInfo is RESINFO: Dst = dimensions/mip-count of Resource
// at MipLevel, interpreted per ReturnType.
type InstResourceInfo struct {
	Dst, Resource, MipLevel Operand
	ReturnType              uint8
}

func (InstResourceInfo) instructionKind() {}

// InstBufferInfo is BUFINFO: Dst = element/byte count of Resource.
type InstBufferInfo struct {
	Dst, Resource Operand
}

func (InstBufferInfo) instructionKind() {}

// MemoryKind names the address space a raw/structured/typed memory
// instruction targets.
type MemoryKind uint8

const (
	MemUAVRaw MemoryKind = iota
	MemUAVStructured
	MemUAVTyped
	MemTGSMRaw
	MemTGSMStructured
)

// InstMemoryLoad covers LD_RAW / LD_STRUCTURED / LD_UAV_TYPED and their
// TGSM equivalents.
type InstMemoryLoad struct {
	Kind             MemoryKind
	Dst              Operand
	Address          Operand // byte or element offset
	StructureIndex   *Operand // structured resources only
	Resource         Operand
}

func (InstMemoryLoad) instructionKind() {}

// InstMemoryStore covers STORE_RAW / STORE_STRUCTURED / STORE_UAV_TYPED
// and their TGSM equivalents.
type InstMemoryStore struct {
	Kind           MemoryKind
	Resource       Operand
	Address        Operand
	StructureIndex *Operand
	Value          Operand
}

func (InstMemoryStore) instructionKind() {}

// AtomicOp enumerates the bin-op atomics shared by ATOMIC_* and
// IMM_ATOMIC_* instructions.
type AtomicOp uint8

const (
	AtomAnd AtomicOp = iota
	AtomOr
	AtomXor
	AtomAdd
	AtomIMin
	AtomIMax
	AtomUMin
	AtomUMax
	AtomCmpStore
	AtomExchange
	AtomCmpExchange
)

// InstAtomic covers the no-result ATOMIC_* bin-op and CMP_STORE forms.
type InstAtomic struct {
	Op             AtomicOp
	Resource       Operand
	Address        Operand
	Value          Operand
	CompareValue   *Operand // AtomCmpStore
}

func (InstAtomic) instructionKind() {}

// InstAtomicImmediate covers IMM_ATOMIC_* forms that return the
// pre-operation value into Dst.
type InstAtomicImmediate struct {
	Op           AtomicOp
	Dst          Operand
	Resource     Operand
	Address      Operand
	Value        Operand
	CompareValue *Operand // AtomCmpExchange
}

func (InstAtomicImmediate) instructionKind() {}

// InstAtomicCounter covers IMM_ATOMIC_ALLOC / IMM_ATOMIC_CONSUME, the
// UAV hidden-counter increment/decrement.
type InstAtomicCounter struct {
	Dst      Operand
	Resource Operand
	Increment bool // true = alloc (post-increment), false = consume (pre-decrement)
}

func (InstAtomicCounter) instructionKind() {}

// SyncFlags mirrors ir/statement-level BarrierFlags (spirv/wgsl naming)
// adapted to DXBC's SYNC instruction, which packs execution and
// memory-barrier scope into one instruction.
type SyncFlags uint32

const (
	SyncThreadGroup SyncFlags = 1 << iota
	SyncThreadGroupMemory
	SyncUAVGroup
	SyncUAVGlobal
)

// InstSync is SYNC: a thread-group execution and/or memory barrier.
type InstSync struct{ Flags SyncFlags }

func (InstSync) instructionKind() {}

// InstCalcLOD is LOD: Dst = computed/clamped level of detail for a
// Sample operation against Resource/Sampler at Coord.
type InstCalcLOD struct {
	Dst, Coord, Resource, Sampler Operand
}

func (InstCalcLOD) instructionKind() {}

// InstDiscard is DISCARD / DISCARD_NZ: kill the current pixel if
// (Cond != 0) == NonZero.
type InstDiscard struct {
	Cond    Operand
	NonZero bool
}

func (InstDiscard) instructionKind() {}

// InstEmit is EMIT / EMIT_STREAM: emit the current vertex to Stream.
type InstEmit struct{ Stream uint8 }

func (InstEmit) instructionKind() {}

// InstCut is CUT / CUT_STREAM: end the current primitive on Stream.
type InstCut struct{ Stream uint8 }

func (InstCut) instructionKind() {}

// EvalOp enumerates the pull-mode interpolation instructions.
type EvalOp uint8

const (
	EvalCentroid EvalOp = iota
	EvalSampleIndex
	EvalSnapped
)

// InstEval covers EVAL_CENTROID/EVAL_SAMPLE_INDEX/EVAL_SNAPPED. Sets
// ShaderInfo.PullModeRegMask on the source register.
type InstEval struct {
	Op      EvalOp
	Dst, Src Operand
	Arg     *Operand // sample index or (x,y) snap offset
}

func (InstEval) instructionKind() {}

// InstMsad is MSAD: Dst += sum of per-byte absolute differences
// between Ref and Src, accumulated onto Accum. Sets ShaderInfo.UseMsad.
type InstMsad struct {
	Dst, Ref, Src, Accum Operand
}

func (InstMsad) instructionKind() {}

// InstNop is NOP: no operation.
type InstNop struct{}

func (InstNop) instructionKind() {}
