package cfg

import "github.com/gogpu/dxmtl/ir"

// maxInlineIterations bounds how many worklist passes Inline runs
// before it gives up eliminating Call terminators by collapsing the
// rest to unconditional branches to their return points. This bounds
// recursion depth rather than rejecting legitimately deep (but finite)
// call chains outright.
const maxInlineIterations = 32

// Inline repeatedly clones each Call terminator's callee subgraph into
// the caller until no Call terminators remain. It mutates prog.Arena
// in place.
func Inline(prog *Program) error {
	for iteration := 0; iteration < maxInlineIterations; iteration++ {
		sites := findCallSites(prog.Arena)
		if len(sites) == 0 {
			return nil
		}
		for _, site := range sites {
			inlineOne(prog.Arena, site)
		}
	}
	// Backstop: any Call terminators still standing after the cap are
	// collapsed to a direct branch to their return point, dropping the
	// callee body reached through them. This only triggers on a call
	// graph recursing past maxInlineIterations levels.
	for _, site := range findCallSites(prog.Arena) {
		prog.Arena.SetTerminator(site.callerBlock, UnconditionalBranch{Target: site.call.ReturnPoint})
	}
	return nil
}

type callSite struct {
	callerBlock BlockHandle
	call        Call
}

func findCallSites(a *Arena) []callSite {
	var sites []callSite
	for _, h := range a.Blocks() {
		if call, ok := a.Block(h).Terminator.(Call); ok {
			sites = append(sites, callSite{callerBlock: h, call: call})
		}
	}
	return sites
}

// inlineOne clones the callee subgraph reachable from site.call.Target
// into a, rewriting every cloned Return terminator into an
// UnconditionalBranch to site.call.ReturnPoint, and replaces the call
// site's terminator with a branch into the clone's entry.
func inlineOne(a *Arena, site callSite) {
	visited := make(map[BlockHandle]BlockHandle)
	entry := cloneBlock(a, site.call.Target, site.call.ReturnPoint, visited)
	a.SetTerminator(site.callerBlock, UnconditionalBranch{Target: entry})
}

// cloneBlock returns the clone of old, creating it (and recursively
// its successors) on first visit. visited maps old handles already
// cloned in this inlineOne call to their new handles, so a callee with
// internal joins or loops is cloned exactly once.
func cloneBlock(a *Arena, old BlockHandle, returnPoint BlockHandle, visited map[BlockHandle]BlockHandle) BlockHandle {
	if h, ok := visited[old]; ok {
		return h
	}
	src := a.Block(old)
	newHandle := a.Alloc(src.DebugTag)
	visited[old] = newHandle

	instructions := make([]ir.Instruction, len(src.Instructions))
	copy(instructions, src.Instructions)
	a.Block(newHandle).Instructions = instructions

	a.SetTerminator(newHandle, cloneTerminator(a, src.Terminator, returnPoint, visited))
	return newHandle
}

func cloneTerminator(a *Arena, t Terminator, returnPoint BlockHandle, visited map[BlockHandle]BlockHandle) Terminator {
	switch term := t.(type) {
	case Return:
		return UnconditionalBranch{Target: returnPoint}
	case UnconditionalBranch:
		return UnconditionalBranch{Target: cloneBlock(a, term.Target, returnPoint, visited)}
	case ConditionalBranch:
		return ConditionalBranch{
			Cond:  term.Cond,
			True:  cloneBlock(a, term.True, returnPoint, visited),
			False: cloneBlock(a, term.False, returnPoint, visited),
		}
	case Switch:
		cases := make([]SwitchCase, len(term.Cases))
		for i, c := range term.Cases {
			cases[i] = SwitchCase{Value: c.Value, Target: cloneBlock(a, c.Target, returnPoint, visited)}
		}
		return Switch{Value: term.Value, Cases: cases, Default: cloneBlock(a, term.Default, returnPoint, visited)}
	case InstanceBarrier:
		return InstanceBarrier{Count: term.Count, Target: cloneBlock(a, term.Target, returnPoint, visited)}
	case HullShaderWriteOutput:
		return HullShaderWriteOutput{Target: cloneBlock(a, term.Target, returnPoint, visited)}
	case Call:
		// Nested calls are left as-is; the outer Inline loop's next
		// iteration will find and clone this new Call terminator in
		// its own pass, since findCallSites re-scans the whole arena.
		return Call{Target: term.Target, ReturnPoint: term.ReturnPoint}
	default:
		return Undefined{}
	}
}
