package ir

import "github.com/gogpu/dxmtl/dxbc"

// DataType is the read or write type a lifter assigns to an operand
// from opcode context — DXBC operands carry no static type of their
// own.
type DataType uint8

const (
	DataFloat DataType = iota
	DataInt
	DataUint
	DataTwoHalfs // two packed 16-bit floats, per F16 conversions
	DataBool     // boolean stage attributes such as front_facing;
	// comparison results are lifted as DataUint, the same integer type
	// MOVC's condition operand reads (see typing.go).
)

// ComponentIndex names one of the four components (.x=0 .. .w=3).
type ComponentIndex uint8

// Swizzle selects, per component of the destination, which source
// component to read. Identity is {0,1,2,3}.
type Swizzle [4]ComponentIndex

// WriteMask is a 4-bit mask, bit 0 meaning .x. The dxbc operand decoder
// shifts the token's raw write-mask field right by 4 bits, and the
// lifter keeps the low 4 bits of that value.
type WriteMask uint8

const (
	WriteX WriteMask = 1 << iota
	WriteY
	WriteZ
	WriteW
	WriteAll = WriteX | WriteY | WriteZ | WriteW
)

// Modifier is the canonicalized per-operand modifier pipeline. DXBC
// encodes the modifier token in abs-then-neg order, but the read
// pipeline applies negate then abs.
type Modifier struct {
	Negate       bool
	Abs          bool
	MinPrecision uint8
	NonUniform   bool
}

// IndexExpr is one dimension of a canonicalized operand index.
type IndexExpr interface {
	indexExpr()
}

// IndexImmediate is a compile-time-constant index.
type IndexImmediate struct {
	Value uint32
}

func (IndexImmediate) indexExpr() {}

// IndexByTempComponent addresses temp[Register].Component + Offset.
type IndexByTempComponent struct {
	Register  uint32
	Component ComponentIndex
	Offset    int32
}

func (IndexByTempComponent) indexExpr() {}

// IndexByIndexableTempComponent addresses x_Bank[Register].Component +
// Offset, tagged with the HS phase it executes in (Phase == PhaseNone
// outside hull-shader phases).
type IndexByIndexableTempComponent struct {
	Bank      uint32
	Register  uint32
	Component ComponentIndex
	Offset    int32
	Phase     uint32
}

func (IndexByIndexableTempComponent) indexExpr() {}

// PhaseNone tags an index or declaration as belonging to the module
// scope rather than any particular hull-shader phase.
const PhaseNone uint32 = ^uint32(0)

// Operand is a canonicalized operand: component selection has been
// normalized (write mask shifted, swizzle unpacked), indices have been
// tagged, and (for reads) a DataType has been assigned by the lifter.
type Operand struct {
	Kind        dxbc.OperandType
	SystemValue dxbc.SystemValue

	Indices []IndexExpr

	Selection dxbc.SelectionMode
	Swizzle   Swizzle    // valid when Selection == SelectSwizzle or SelectSingle
	Mask      WriteMask  // valid when Selection == SelectMask (write operands)

	Modifier Modifier
	DataType DataType

	// Immediate holds literal component values for
	// dxbc.OperandImmediate32 / dxbc.OperandImmediate64 operands, as
	// raw bit patterns (reinterpret per DataType at the read site).
	Immediate []uint64

	// OptFlagOffsetIsVec4Aligned marks a raw/structured load whose byte
	// offset is an immediate aligned to 16, permitting the AIR emitter
	// to use a single 128-bit load.
	OptFlagOffsetIsVec4Aligned bool
}
