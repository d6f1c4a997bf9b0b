package dxbc

// ProgramType identifies the shader stage a token stream belongs to.
type ProgramType uint8

const (
	ProgramPixel ProgramType = iota
	ProgramVertex
	ProgramGeometry
	ProgramHull
	ProgramDomain
	ProgramCompute
)

// Header is the decoded DXBC program header: shader type, shader-model
// version, and the length of the token stream in 32-bit words
// (including the header itself).
type Header struct {
	Type        ProgramType
	MajorVer    uint8
	MinorVer    uint8
	LengthWords uint32
}

// decodeHeaderWord0 splits the program-version token the way DXBC packs
// it: ProgramType in the high 16 bits, the major version in bits 4-7
// and the minor version in bits 0-3.
func decodeHeaderWord0(w uint32) (ProgramType, uint8, uint8) {
	return ProgramType(w >> 16), uint8((w >> 4) & 0xf), uint8(w & 0xf)
}

// Cursor reads a DXBC token stream sequentially. It never looks ahead
// further than the token currently being parsed requires; all state is
// the current word offset into buf.
type Cursor struct {
	buf    []uint32
	offset int
	Header Header
}

// NewCursor creates a Cursor over buf and consumes the program header.
// buf must start at the first header word (the program-version token).
func NewCursor(buf []uint32) (*Cursor, error) {
	if len(buf) < 2 {
		return nil, newDecodeError(0, "truncated program header: need at least 2 words, have %d", len(buf))
	}
	typ, major, minor := decodeHeaderWord0(buf[0])
	length := buf[1]
	if int(length) > len(buf) {
		return nil, newDecodeError(1, "program length %d words exceeds buffer of %d words", length, len(buf))
	}
	c := &Cursor{
		buf:    buf[:length],
		offset: 2,
		Header: Header{Type: typ, MajorVer: major, MinorVer: minor, LengthWords: length},
	}
	return c, nil
}

// Offset returns the current word offset from the start of the stream
// (header words included), for error reporting.
func (c *Cursor) Offset() int { return c.offset }

// Done reports whether the cursor has consumed the entire token stream.
func (c *Cursor) Done() bool { return c.offset >= len(c.buf) }

// word reads the next word without bounds-checking against the
// instruction's own declared length; callers that need a length-bounded
// read should use wordIn instead.
func (c *Cursor) word() (uint32, error) {
	if c.offset >= len(c.buf) {
		return 0, newDecodeError(c.offset, "unexpected end of token stream")
	}
	w := c.buf[c.offset]
	c.offset++
	return w, nil
}

// peek returns the next word without advancing the cursor.
func (c *Cursor) peek() (uint32, error) {
	if c.offset >= len(c.buf) {
		return 0, newDecodeError(c.offset, "unexpected end of token stream")
	}
	return c.buf[c.offset], nil
}

// skipTo advances the cursor to an absolute word offset, used after
// parsing an instruction to realign on its declared length even if a
// decode step consumed fewer or more words than expected in a
// recoverable way.
func (c *Cursor) skipTo(offset int) error {
	if offset < c.offset || offset > len(c.buf) {
		return newDecodeError(c.offset, "invalid instruction length: target offset %d out of range", offset)
	}
	c.offset = offset
	return nil
}
