package dxbc

import "testing"

func buildStream(header []uint32, instrWords ...[]uint32) []uint32 {
	buf := append([]uint32{}, header...)
	for _, w := range instrWords {
		buf = append(buf, w...)
	}
	buf[1] = uint32(len(buf))
	return buf
}

func movInstructionWords() []uint32 {
	// mov o0.xyzw, v0.xyzw
	dst := simpleOperand(OperandOutput, SelectMask, maskXYZW, 0)
	src := simpleOperand(OperandInput, SelectSwizzle, swizzleIdentity, 0)
	length := 1 + len(dst) + len(src)
	opTok := encodeOpcodeToken(OpMov, length, false, 0)
	words := []uint32{opTok}
	words = append(words, dst...)
	words = append(words, src...)
	return words
}

func TestCursorHeader(t *testing.T) {
	stream := buildStream(encodeHeader(ProgramVertex, 5, 0, 0), movInstructionWords(), []uint32{encodeOpcodeToken(OpRet, 1, false, 0)})

	c, err := NewCursor(stream)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	if c.Header.Type != ProgramVertex {
		t.Errorf("Type = %v, want ProgramVertex", c.Header.Type)
	}
	if c.Header.MajorVer != 5 || c.Header.MinorVer != 0 {
		t.Errorf("version = %d.%d, want 5.0", c.Header.MajorVer, c.Header.MinorVer)
	}
}

func TestParseInstructionMov(t *testing.T) {
	stream := buildStream(encodeHeader(ProgramVertex, 5, 0, 0), movInstructionWords())

	c, err := NewCursor(stream)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}

	inst, err := c.ParseInstruction()
	if err != nil {
		t.Fatalf("ParseInstruction: %v", err)
	}
	if inst.Opcode != OpMov {
		t.Errorf("Opcode = %v, want OpMov", inst.Opcode)
	}
	if len(inst.Operands) != 2 {
		t.Fatalf("len(Operands) = %d, want 2", len(inst.Operands))
	}
	dst := inst.Operands[0]
	if dst.Type != OperandOutput || dst.Selection != SelectMask || dst.SelectionData != maskXYZW {
		t.Errorf("dst operand = %+v, want output write-mask xyzw", dst)
	}
	src := inst.Operands[1]
	if src.Type != OperandInput || src.Selection != SelectSwizzle || src.SelectionData != swizzleIdentity {
		t.Errorf("src operand = %+v, want input swizzle xyzw", src)
	}
	if !c.Done() {
		t.Errorf("cursor should be at end of stream after single instruction")
	}
}

func TestParseInstructionUnsupportedOpcode(t *testing.T) {
	stream := buildStream(encodeHeader(ProgramHull, 5, 0, 0), []uint32{encodeOpcodeToken(OpDclTessOutputPrimitiveIsoline, 1, false, 0)})

	c, err := NewCursor(stream)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	_, err = c.ParseInstruction()
	if err == nil {
		t.Fatal("expected error for unsupported opcode")
	}
	var decErr *DecodeError
	if !asDecodeError(err, &decErr) {
		t.Fatalf("expected *DecodeError, got %T", err)
	}
}

func TestParseInstructionTruncated(t *testing.T) {
	stream := buildStream(encodeHeader(ProgramPixel, 5, 0, 0), []uint32{encodeOpcodeToken(OpMov, 4, false, 0)})
	// Instruction claims length 4 but stream only has 1 more word (the header+opcode consumed it).
	c, err := NewCursor(stream)
	if err != nil {
		t.Fatalf("NewCursor: %v", err)
	}
	_, err = c.ParseInstruction()
	if err == nil {
		t.Fatal("expected truncation error")
	}
}

func TestSaturateAndPreciseMaskRoundtrip(t *testing.T) {
	opTok := encodeOpcodeToken(OpAdd, 1, true, 0b1011)
	op, length, sat, _, _, _, precise := decodeOpcodeToken(opTok)
	if op != OpAdd || length != 1 || !sat || precise != 0b1011 {
		t.Errorf("roundtrip mismatch: op=%v length=%d sat=%v precise=%04b", op, length, sat, precise)
	}
}

func asDecodeError(err error, target **DecodeError) bool {
	if de, ok := err.(*DecodeError); ok {
		*target = de
		return true
	}
	return false
}
