// Package air lowers a built cfg.Program into Apple's AIR: an
// LLVM-IR-like SSA representation. Lowering follows the same
// accumulate-then-serialize shape as spirv.ModuleBuilder — a
// ModuleBuilder/FunctionBuilder pair records typed instruction lines
// behind monotonic %N value names, and Build/String concatenate them.
//
// DXBC registers are mutable, not SSA, so every temp/indexable-temp
// register gets a function-entry alloca; reads are load+shufflevector
// (swizzle) and writes are load-select-store (write mask), the same
// technique an unoptimizing LLVM frontend uses before a later mem2reg
// pass — appropriate here since the emitter has one unoptimized codegen
// path whatever -O level the CLI is given (see DESIGN.md, "Register
// read/write model").
//
// Declared inputs, outputs, constant buffers, and resource/sampler/
// threadgroup-memory ranges are a second, parallel binding model
// (signature.go, function.go): buildSignature walks a ShaderInfo's
// declarations once per function and binds each to a function
// parameter or return-struct field, the way a real frontend's argument
// lowering would, rather than through the register alloca model above.
package air
