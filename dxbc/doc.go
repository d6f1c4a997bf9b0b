// Package dxbc decodes Direct3D Bytecode (DXBC) shader tokens.
//
// DXBC is a stream of 32-bit words: a program header (shader type,
// shader-model version, length) followed by a sequence of instruction
// tokens. Each instruction token is itself followed by a variable
// number of operand tokens, and each operand token by a variable tail
// of extended-operand tokens, index literals, and (for immediates)
// value words.
//
// This package only decodes the token stream into [Instruction] and
// [Operand] values; it assigns no types and builds no control-flow
// graph — those are the job of package ir and package cfg
// respectively. Decoding is strictly sequential: a [Cursor] owns an
// offset into the word stream and never looks ahead further than a
// single token requires.
package dxbc
