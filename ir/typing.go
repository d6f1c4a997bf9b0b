package ir

import "github.com/gogpu/dxmtl/dxbc"

// classDataType returns the DataType every operand of an opcode in the
// given dxbc.Class is read/written as, when the class alone determines
// it. ClassMem, ClassTex, ClassAtomic, and ClassMisc opcodes assign
// types per-instruction in lift.go instead, so this function is never
// consulted for them.
func classDataType(class dxbc.Class) DataType {
	switch class {
	case dxbc.ClassFloat:
		return DataFloat
	case dxbc.ClassInt:
		return DataInt
	case dxbc.ClassUint, dxbc.ClassBit:
		return DataUint
	default:
		return DataUint
	}
}

// ApplyPreciseOverride widens an instruction's precise mask to WriteAll
// when the shader's global flags forbid IEEE-refactoring-unsafe
// optimizations: when refactoring is disallowed, every instruction's
// effective precise mask is all four components, regardless of the
// token's own PreciseMask field. Call this once per lifted
// instruction, after the instruction's own PreciseMask has been copied
// over.
func ApplyPreciseOverride(mask uint8, refactoringAllowed bool) uint8 {
	if refactoringAllowed {
		return mask
	}
	return uint8(WriteAll)
}

// resourceReturnDataType maps one of DXBC's 4-bit resource return-type
// codes to the DataType a load/sample instruction should assign its
// destination components.
// Code 9 ("MIXED") has no single Metal-compatible interpretation; the
// emitter treats it as Uint and documents the loss (see DESIGN.md, Open
// Question "MIXED resource return type").
func resourceReturnDataType(code uint8) DataType {
	switch code {
	case 1, 2: // UNORM, SNORM
		return DataFloat
	case 3: // SINT
		return DataInt
	case 4: // UINT
		return DataUint
	case 5: // FLOAT
		return DataFloat
	default:
		return DataUint
	}
}
