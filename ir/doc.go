// Package ir lifts decoded DXBC instructions (package dxbc) into a
// typed, language-neutral intermediate representation, and accumulates
// the by-slot reflection registry (ShaderInfo) that declarations
// populate along the way.
//
// # Structure
//
// The lifted IR mirrors dxbc.Instruction's shape closely — this is a
// lowering of representation, not of control flow or types computed
// from data flow. What changes between dxbc.Instruction and
// Instruction is:
//
//   - Every instruction becomes exactly one closed InstructionKind
//     variant (a sum type over instruction shapes) instead of a
//     generic (Opcode, []Operand) pair.
//   - Every operand gets a read or write type assigned from a static
//     opcode table (see typing.go), and its component selection is
//     canonicalized: write masks become a WriteMask (bit 0 means .x),
//     swizzles are unpacked to four 2-bit fields, and relative indices
//     are tagged IndexByTempComponent / IndexByIndexableTempComponent.
//   - Declarations (DCL_*) do not become Instruction values at all;
//     they update ShaderInfo, the by-range_id reflection registry
//     consumed later by the AIR emitter.
//
// Building the block graph from the resulting Instruction stream is
// package cfg's job, not this package's.
package ir
