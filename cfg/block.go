package cfg

import "github.com/gogpu/dxmtl/ir"

// BlockHandle is an index into an Arena's block slice.
type BlockHandle uint32

// Block is one basic block: a straight-line instruction run ending in
// exactly one Terminator. Blocks are immutable once the builder moves
// past them, except that Terminator may be rewritten in place during
// call inlining.
type Block struct {
	DebugTag     string
	Instructions []ir.Instruction
	Terminator   Terminator
}

// Arena owns every block created while building one shader program's
// CFG. Terminators refer to sibling blocks by handle, never by
// pointer, so that join points and loop back-edges don't require deep
// copies.
type Arena struct {
	blocks []*Block
}

// NewArena returns an empty arena.
func NewArena() *Arena { return &Arena{} }

// Alloc creates a new, empty block tagged debugTag and returns its
// handle. The block's terminator starts as Undefined until the
// builder assigns one.
func (a *Arena) Alloc(debugTag string) BlockHandle {
	a.blocks = append(a.blocks, &Block{DebugTag: debugTag, Terminator: Undefined{}})
	return BlockHandle(len(a.blocks) - 1)
}

// Block returns the block a handle refers to.
func (a *Arena) Block(h BlockHandle) *Block { return a.blocks[h] }

// Len reports how many blocks the arena holds.
func (a *Arena) Len() int { return len(a.blocks) }

// Append adds a lifted instruction to a block's straight-line body.
func (a *Arena) Append(h BlockHandle, inst ir.Instruction) {
	b := a.blocks[h]
	b.Instructions = append(b.Instructions, inst)
}

// SetTerminator assigns a block's terminator, overwriting whatever was
// there (Undefined, or — during inlining — a Call being replaced by
// its cloned callee).
func (a *Arena) SetTerminator(h BlockHandle, t Terminator) {
	a.blocks[h].Terminator = t
}

// Blocks returns every block handle in allocation order, for passes
// that walk the whole arena (Finish's terminator validation, Inline's
// call-site scan).
func (a *Arena) Blocks() []BlockHandle {
	hs := make([]BlockHandle, len(a.blocks))
	for i := range hs {
		hs[i] = BlockHandle(i)
	}
	return hs
}
