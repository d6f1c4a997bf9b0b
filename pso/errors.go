package pso

import "fmt"

// CompileError wraps a CompileFunc failure with the fingerprint that
// triggered it. Cache itself never returns this directly: it surfaces
// through CompileResult.Err exactly as the CompileFunc returned it,
// this type exists for CompileFunc implementations to use.
type CompileError struct {
	Fingerprint Fingerprint
	Err         error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("pso: compile failed for fingerprint %s: %v", e.Fingerprint, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
