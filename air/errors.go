package air

import "fmt"

// CodegenError reports a cfg.Program the emitter cannot lower: a Call
// terminator survived inlining, an operand's DataType has no AIR
// representation, or a block graph invariant the builder should have
// guaranteed doesn't hold.
type CodegenError struct {
	Block   uint32
	Message string
}

func (e *CodegenError) Error() string {
	return fmt.Sprintf("air: codegen failed at block %d: %s", e.Block, e.Message)
}

func newCodegenError(block uint32, format string, args ...any) *CodegenError {
	return &CodegenError{Block: block, Message: fmt.Sprintf(format, args...)}
}
