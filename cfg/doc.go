// Package cfg assembles a lifted instruction stream (package ir) into a
// basic-block control-flow graph with typed terminators, following the
// program's IF/LOOP/SWITCH/CALL/RET structure. It owns the block arena,
// inlines CALL sites, and folds hull-shader phases into their
// InstanceBarrier/HullShaderWriteOutput epilogue.
package cfg
