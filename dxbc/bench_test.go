package dxbc

import "testing"

// BenchmarkParseInstructionMov exercises the decode hot path: one
// cursor creation plus one instruction decode, mirroring the pack's
// per-stage bench_test.go convention (ir/bench_test.go, hlsl/bench_test.go).
func BenchmarkParseInstructionMov(b *testing.B) {
	stream := buildStream(encodeHeader(ProgramVertex, 5, 0, 0), movInstructionWords())
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c, err := NewCursor(stream)
		if err != nil {
			b.Fatalf("NewCursor: %v", err)
		}
		if _, err := c.ParseInstruction(); err != nil {
			b.Fatalf("ParseInstruction: %v", err)
		}
	}
}
