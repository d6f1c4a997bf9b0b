package air

import (
	"fmt"
	"strings"

	"github.com/gogpu/dxmtl/ir"
)

// scalarType returns the AIR scalar type name for a DataType.
func scalarType(dt ir.DataType) string {
	switch dt {
	case ir.DataFloat:
		return "float"
	case ir.DataInt:
		return "i32"
	case ir.DataUint:
		return "i32" // AIR has no unsigned integer types; signedness lives in the opcode
	case ir.DataTwoHalfs:
		return "i32" // two packed half floats, bitcast at the point of use
	case ir.DataBool:
		return "i1"
	default:
		return "i32"
	}
}

// vectorType returns the 4-wide vector type every register alloca uses.
func vectorType(dt ir.DataType) string {
	return fmt.Sprintf("<4 x %s>", scalarType(dt))
}

const componentLetters = "xyzw"

// swizzleString renders a Swizzle as an air.vector.extract-compatible
// constant mask, e.g. {1,1,2,0} -> "<i32 1, i32 1, i32 2, i32 0>".
func swizzleString(sw ir.Swizzle) string {
	parts := make([]string, 4)
	for i, c := range sw {
		parts[i] = fmt.Sprintf("i32 %d", c)
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

// maskComponents returns the component indices a WriteMask selects, in
// ascending order.
func maskComponents(m ir.WriteMask) []int {
	var out []int
	for i := 0; i < 4; i++ {
		if m&(1<<uint(i)) != 0 {
			out = append(out, i)
		}
	}
	return out
}

// registerKey identifies one DXBC mutable register: a temp or
// indexable-temp slot, addressed by its lifted index expression. Two
// operands that read/write the same register produce the same key, so
// they share one alloca.
type registerKey struct {
	bank     uint32
	register uint32
	indexed  bool
}

func keyFor(idx ir.IndexExpr) (registerKey, bool) {
	switch v := idx.(type) {
	case ir.IndexByTempComponent:
		return registerKey{register: v.Register}, true
	case ir.IndexByIndexableTempComponent:
		return registerKey{bank: v.Bank, register: v.Register, indexed: true}, true
	default:
		return registerKey{}, false
	}
}
