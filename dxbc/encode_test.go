package dxbc

// Test-only encoder mirroring the bit layout documented in instruction.go
// and operand.go, used to build synthetic token streams for the decoder
// tests below (this package has no corresponding encoder of its own:
// real input comes from the D3D HLSL compiler).

func encodeHeader(typ ProgramType, major, minor uint8, lengthWords uint32) []uint32 {
	w0 := uint32(typ)<<16 | uint32(major)<<4 | uint32(minor)
	return []uint32{w0, lengthWords}
}

func encodeOpcodeToken(op Opcode, length int, saturate bool, preciseMask uint8) uint32 {
	w := uint32(op) & opcodeFieldMask
	w |= uint32(length&0xfff) << 11
	if saturate {
		w |= 1 << 23
	}
	w |= uint32(preciseMask&0xf) << 28
	return w
}

func encodeOperandToken(numComponents int, sel SelectionMode, selData uint8, typ OperandType, indexDim int, reprs [3]IndexRepresentation) uint32 {
	var nc uint32
	switch numComponents {
	case 0:
		nc = 0
	case 1:
		nc = 1
	default:
		nc = 2
	}
	w := nc
	w |= uint32(sel) << 2
	w |= uint32(selData) << 4
	w |= uint32(typ) << 12
	w |= uint32(indexDim) << 17
	w |= uint32(reprs[0]) << 19
	w |= uint32(reprs[1]) << 21
	w |= uint32(reprs[2]) << 23
	return w
}

// swizzleIdentity packs the .xyzw swizzle into SelectMode selection data.
const swizzleIdentity uint8 = 0<<0 | 1<<2 | 2<<4 | 3<<6

// maskXYZW packs the full write mask.
const maskXYZW uint8 = 0xf

func simpleOperand(typ OperandType, sel SelectionMode, selData uint8, regIndex uint32) []uint32 {
	reprs := [3]IndexRepresentation{}
	tok := encodeOperandToken(4, sel, selData, typ, 1, reprs)
	return []uint32{tok, regIndex}
}
