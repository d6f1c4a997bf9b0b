package ir

import (
	"strings"
	"testing"
)

func TestDebugDumpIsSortedByRangeID(t *testing.T) {
	si := NewShaderInfo()
	if err := si.declareCBuffer(CBufferInfo{RangeID: 2, Size: 4}); err != nil {
		t.Fatalf("declareCBuffer(2): %v", err)
	}
	if err := si.declareCBuffer(CBufferInfo{RangeID: 0, Size: 16}); err != nil {
		t.Fatalf("declareCBuffer(0): %v", err)
	}
	si.growTempRegisterCount(2)

	dump := si.DebugDump()
	i0 := strings.Index(dump, "cb0")
	i2 := strings.Index(dump, "cb2")
	if i0 == -1 || i2 == -1 {
		t.Fatalf("dump missing a declared cbuffer:\n%s", dump)
	}
	if i0 >= i2 {
		t.Fatalf("cb0 must be listed before cb2, got:\n%s", dump)
	}
	if !strings.Contains(dump, "temps: 3") {
		t.Fatalf("dump missing temp register count:\n%s", dump)
	}
}

func TestDebugDumpReflectsUAVFlags(t *testing.T) {
	si := NewShaderInfo()
	if err := si.declareUAV(UAVInfo{RangeID: 0, Dimension: ResDimRawBuffer}); err != nil {
		t.Fatalf("declareUAV: %v", err)
	}
	si.markUAVAtomic(0, true)

	dump := si.DebugDump()
	if !strings.Contains(dump, "uav u0:") || !strings.Contains(dump, "with_counter=true") {
		t.Fatalf("dump missing atomic UAV flags:\n%s", dump)
	}
}

func TestDebugDumpIsStableAcrossRuns(t *testing.T) {
	build := func() *ShaderInfo {
		si := NewShaderInfo()
		_ = si.declareSRV(SRVInfo{RangeID: 1})
		_ = si.declareSampler(SamplerInfo{RangeID: 0})
		si.growIndexableTemp(PhaseNone, 3, 8)
		return si
	}
	a, b := build().DebugDump(), build().DebugDump()
	if a != b {
		t.Fatalf("DebugDump not deterministic:\n--- a ---\n%s\n--- b ---\n%s", a, b)
	}
}
