package air

import (
	"fmt"

	"github.com/gogpu/dxmtl/cfg"
	"github.com/gogpu/dxmtl/ir"
)

// blockLabel names a cfg.BlockHandle's AIR basic-block label.
func blockLabel(h cfg.BlockHandle) string {
	return fmt.Sprintf("bb%d", h)
}

// Emit lowers a built, inlined cfg.Program into one AIR Function. info
// supplies the reflection state (register widths, tessellation
// factors) the terminator and instruction lowering consult.
func Emit(prog *cfg.Program, info *ir.ShaderInfo, name string, stage Stage) (*Function, error) {
	fb := NewFunctionBuilder(name, stage)
	buildSignature(fb, info)

	order, err := reachable(prog)
	if err != nil {
		return nil, err
	}

	for _, h := range order {
		block := prog.Arena.Block(h)
		fb.Label(blockLabel(h))
		for _, inst := range block.Instructions {
			if err := lowerInstruction(fb, inst); err != nil {
				return nil, err
			}
		}
		if err := lowerTerminator(fb, h, block.Terminator); err != nil {
			return nil, err
		}
	}

	return fb.Build(), nil
}

// reachable returns every block handle reachable from prog.Entry in
// breadth-first order, so a block's label always follows the labels of
// the blocks that can fall through to it in program order as closely
// as BFS permits.
func reachable(prog *cfg.Program) ([]cfg.BlockHandle, error) {
	seen := make(map[cfg.BlockHandle]bool)
	queue := []cfg.BlockHandle{prog.Entry}
	seen[prog.Entry] = true
	var order []cfg.BlockHandle

	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		order = append(order, h)

		block := prog.Arena.Block(h)
		for _, succ := range successors(block.Terminator) {
			if !seen[succ] {
				seen[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	return order, nil
}

func successors(t cfg.Terminator) []cfg.BlockHandle {
	switch v := t.(type) {
	case cfg.Return:
		return nil
	case cfg.UnconditionalBranch:
		return []cfg.BlockHandle{v.Target}
	case cfg.ConditionalBranch:
		return []cfg.BlockHandle{v.True, v.False}
	case cfg.Switch:
		out := make([]cfg.BlockHandle, 0, len(v.Cases)+1)
		for _, c := range v.Cases {
			out = append(out, c.Target)
		}
		return append(out, v.Default)
	case cfg.InstanceBarrier:
		return []cfg.BlockHandle{v.Target}
	case cfg.HullShaderWriteOutput:
		return []cfg.BlockHandle{v.Target}
	case cfg.Call:
		return []cfg.BlockHandle{v.Target, v.ReturnPoint}
	default:
		return nil
	}
}

func lowerTerminator(fb *FunctionBuilder, h cfg.BlockHandle, t cfg.Terminator) error {
	switch v := t.(type) {
	case cfg.Undefined:
		return newCodegenError(uint32(h), "block left unterminated")
	case cfg.Return:
		fb.EmitReturn()
	case cfg.UnconditionalBranch:
		fb.EmitBr(blockLabel(v.Target))
	case cfg.ConditionalBranch:
		cond := lowerPredicate(fb, v.Cond)
		fb.EmitCondBr(cond, blockLabel(v.True), blockLabel(v.False))
	case cfg.Switch:
		val := lowerScalarRead(fb, v.Value)
		cases := make([]SwitchCase, len(v.Cases))
		for i, c := range v.Cases {
			cases[i] = SwitchCase{Value: int64(c.Value), Target: blockLabel(c.Target)}
		}
		fb.EmitSwitch(val, cases, blockLabel(v.Default))
	case cfg.InstanceBarrier:
		fb.EmitCall("air.wg.barrier", "void", fmt.Sprintf("i32 %d", v.Count))
		fb.EmitBr(blockLabel(v.Target))
	case cfg.HullShaderWriteOutput:
		fb.EmitCall("air.tessellation.write_control_point", "void")
		fb.EmitBr(blockLabel(v.Target))
	case cfg.Call:
		return newCodegenError(uint32(h), "Call terminator survived inlining")
	default:
		return newCodegenError(uint32(h), "unknown terminator %T", t)
	}
	return nil
}

// lowerPredicate reads an operand and reduces it to an i1 the way
// DXBC's implicit "!= 0" test does.
func lowerPredicate(fb *FunctionBuilder, o ir.Operand) string {
	v := readOperand(fb, o)
	cmp := fb.value()
	fb.emit(fmt.Sprintf("%s = icmp ne %s %s, zeroinitializer", cmp, vectorType(o.DataType), v))
	lane := fb.value()
	fb.emit(fmt.Sprintf("%s = extractelement <4 x i1> %s, i32 0", lane, cmp))
	return lane
}

// lowerScalarRead reads an operand's selected single component as a
// plain i32, for switch dispatch.
func lowerScalarRead(fb *FunctionBuilder, o ir.Operand) string {
	vec := readOperand(fb, o)
	v := fb.value()
	fb.emit(fmt.Sprintf("%s = extractelement %s %s, i32 0", v, vectorType(o.DataType), vec))
	return v
}
