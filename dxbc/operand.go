package dxbc

// OperandType names the register file (or pseudo-register) an operand
// refers to.
type OperandType uint8

const (
	OperandImmediate32 OperandType = iota
	OperandImmediate64
	OperandTemp
	OperandIndexableTemp
	OperandInput
	OperandOutput
	OperandConstantBuffer
	OperandImmediateConstantBuffer
	OperandResource
	OperandSampler
	OperandUAV
	OperandTGSM
	// System-value inputs/outputs: ~20 kinds collapsed to one type
	// carrying a SystemValue code.
	OperandSystemValue
	OperandControlPointInput
	OperandControlPointOutput
	OperandPatchConstant
	OperandNull
)

// SystemValue enumerates the system-value semantics an
// OperandSystemValue operand can carry.
type SystemValue uint8

const (
	SVPosition SystemValue = iota
	SVClipDistance
	SVCullDistance
	SVRenderTargetArrayIndex
	SVViewportArrayIndex
	SVVertexID
	SVPrimitiveID
	SVInstanceID
	SVIsFrontFace
	SVSampleIndex
	SVFinalQuadEdgeTessFactor
	SVFinalQuadInsideTessFactor
	SVFinalTriEdgeTessFactor
	SVFinalTriInsideTessFactor
	SVFinalLineDetailTessFactor
	SVFinalLineDensityTessFactor
	SVDepth
	SVCoverage
	SVDepthGE
	SVDepthLE
	SVStencilRef
	SVDispatchThreadID
	SVGroupID
	SVGroupThreadID
	SVGroupIndex
	SVOutputControlPointID
)

// SelectionMode describes how an operand picks its components out of
// a 4-component register.
type SelectionMode uint8

const (
	SelectMask SelectionMode = iota
	SelectSwizzle
	SelectSingle
	SelectNone
)

// IndexRepresentation describes how one dimension of an operand's
// index is encoded.
type IndexRepresentation uint8

const (
	IndexImmediate32 IndexRepresentation = iota
	IndexImmediate64
	IndexRelative
	IndexImmediatePlusRelative
)

// RegisterFile names the register file a relative index addresses:
// the temp bank or an indexable-temp bank.
type RegisterFile uint8

const (
	RegFileTemp RegisterFile = iota
	RegFileIndexableTemp
)

// RelativeIndex describes `temp[r.c]` or `x_n[r.c]` addressing: a
// register in RegFile (plus, for indexable temps, which indexable-temp
// bank), a component selector, and a constant offset added to the
// dynamic value read from that component.
type RelativeIndex struct {
	RegFile  RegisterFile
	Bank     uint32 // indexable-temp bank number; 0 for RegFileTemp
	Register uint32
	Component uint8
	ConstOffset int32
}

// Index is one dimension of an operand's index. Repr determines which
// of Immediate / Relative is meaningful; IndexImmediatePlusRelative
// populates both.
type Index struct {
	Repr      IndexRepresentation
	Immediate uint64
	Relative  RelativeIndex
}

// Modifier holds the per-channel source modifiers an extended operand
// token can carry: negate, absolute value, a minimum-precision hint,
// and non-uniform-resource-index. The source format reuses the
// modifier extended token to carry the min-precision hint too.
type Modifier struct {
	Negate        bool
	Abs           bool
	MinPrecision  uint8
	NonUniform    bool
}

// Operand is one fully decoded operand, still DXBC-native: component
// selection has not yet been normalized to a write mask, and no read
// or write type has been assigned (that happens in package ir).
type Operand struct {
	Type OperandType

	// SystemValueKind is meaningful only when Type == OperandSystemValue.
	SystemValueKind SystemValue

	NumComponents int // 0, 1, or 4
	Selection     SelectionMode

	// SelectionData packs the mode-specific bits: a 4-bit write mask
	// when Selection == SelectMask, a swizzle (2 bits per component,
	// 4 components) when Selection == SelectSwizzle, or a 2-bit
	// component index when Selection == SelectSingle.
	SelectionData uint8

	Modifier Modifier

	Indices []Index

	// ImmediateValues holds the literal words for OperandImmediate32 /
	// OperandImmediate64 operands: 1 or 4 values (doubled for 64-bit).
	ImmediateValues []uint64
}

func decodeOperandToken(w uint32) (numComponents int, sel SelectionMode, selData uint8, typ OperandType, indexDim int, reprs [3]IndexRepresentation, extPresent bool) {
	switch (w >> 0) & 0x3 {
	case 0:
		numComponents = 0
	case 1:
		numComponents = 1
	case 2:
		numComponents = 4
	default:
		numComponents = 4
	}
	sel = SelectionMode((w >> 2) & 0x3)
	selData = uint8((w >> 4) & 0xff)
	typ = OperandType((w >> 12) & 0x1f)
	indexDim = int((w >> 17) & 0x3)
	reprs[0] = IndexRepresentation((w >> 19) & 0x3)
	reprs[1] = IndexRepresentation((w >> 21) & 0x3)
	reprs[2] = IndexRepresentation((w >> 23) & 0x3)
	extPresent = (w>>25)&1 != 0
	return
}

// ParseOperand decodes a single operand at the cursor's current
// position: the operand token, any extended-operand tokens, the index
// literals for each declared dimension, and — for immediate operands —
// the literal value words.
func (c *Cursor) ParseOperand() (*Operand, error) {
	startOffset := c.offset
	tok, err := c.word()
	if err != nil {
		return nil, err
	}
	numComponents, sel, selData, typ, indexDim, reprs, extPresent := decodeOperandToken(tok)
	if int(typ) > int(OperandNull) {
		return nil, newDecodeError(startOffset, "unknown operand type %d", typ)
	}
	if indexDim > 3 {
		return nil, newDecodeError(startOffset, "invalid index dimensionality %d", indexDim)
	}

	op := &Operand{
		Type:          typ,
		NumComponents: numComponents,
		Selection:     sel,
		SelectionData: selData,
	}
	if typ == OperandSystemValue {
		op.SystemValueKind = SystemValue(selData)
	}

	if extPresent {
		for {
			extTok, err := c.word()
			if err != nil {
				return nil, err
			}
			mod, more, err := decodeOperandModifier(extTok)
			if err != nil {
				return nil, newDecodeError(startOffset, "%s", err.Error())
			}
			op.Modifier = mod
			if !more {
				break
			}
		}
	}

	for i := 0; i < indexDim; i++ {
		idx, err := c.parseIndex(reprs[i])
		if err != nil {
			return nil, err
		}
		op.Indices = append(op.Indices, *idx)
	}

	if typ == OperandImmediate32 || typ == OperandImmediate64 {
		count := 1
		if numComponents == 4 {
			count = 4
		}
		words := count
		if typ == OperandImmediate64 {
			words = count * 2
		}
		for i := 0; i < words; i++ {
			w, err := c.word()
			if err != nil {
				return nil, err
			}
			if typ == OperandImmediate64 && i%2 == 1 {
				lo := op.ImmediateValues[len(op.ImmediateValues)-1]
				op.ImmediateValues[len(op.ImmediateValues)-1] = lo | (uint64(w) << 32)
				continue
			}
			op.ImmediateValues = append(op.ImmediateValues, uint64(w))
		}
	}

	return op, nil
}

func decodeOperandModifier(w uint32) (Modifier, bool, error) {
	kind := w & 0x3f
	more := (w>>6)&1 != 0
	var mod Modifier
	switch kind {
	case 0: // Modifier: neg/abs, and (by design) min-precision share this token.
		mod.Negate = (w>>7)&1 != 0
		mod.Abs = (w>>8)&1 != 0
		mod.MinPrecision = uint8((w >> 9) & 0x7)
	case 1: // NonUniform.
		mod.NonUniform = (w>>7)&1 != 0
	default:
		return Modifier{}, false, newDecodeError(0, "unknown extended-operand kind %d", kind)
	}
	return mod, more, nil
}

// parseIndex decodes one Index per its representation: an immediate
// literal (1 or 2 words), a relative-addressing expression (3 words:
// register file/bank, register+component, constant offset), or both
// for IndexImmediatePlusRelative.
func (c *Cursor) parseIndex(repr IndexRepresentation) (*Index, error) {
	idx := &Index{Repr: repr}
	switch repr {
	case IndexImmediate32:
		w, err := c.word()
		if err != nil {
			return nil, err
		}
		idx.Immediate = uint64(w)
	case IndexImmediate64:
		lo, err := c.word()
		if err != nil {
			return nil, err
		}
		hi, err := c.word()
		if err != nil {
			return nil, err
		}
		idx.Immediate = uint64(lo) | (uint64(hi) << 32)
	case IndexRelative:
		rel, err := c.parseRelativeIndex()
		if err != nil {
			return nil, err
		}
		idx.Relative = *rel
	case IndexImmediatePlusRelative:
		w, err := c.word()
		if err != nil {
			return nil, err
		}
		idx.Immediate = uint64(w)
		rel, err := c.parseRelativeIndex()
		if err != nil {
			return nil, err
		}
		idx.Relative = *rel
	default:
		return nil, newDecodeError(c.offset, "invalid index representation %d", repr)
	}
	return idx, nil
}

func (c *Cursor) parseRelativeIndex() (*RelativeIndex, error) {
	w0, err := c.word()
	if err != nil {
		return nil, err
	}
	w1, err := c.word()
	if err != nil {
		return nil, err
	}
	w2, err := c.word()
	if err != nil {
		return nil, err
	}
	return &RelativeIndex{
		RegFile:     RegisterFile(w0 & 0x1),
		Bank:        w0 >> 1,
		Register:    w1 & 0x00ffffff,
		Component:   uint8((w1 >> 24) & 0x3),
		ConstOffset: int32(w2),
	}, nil
}
