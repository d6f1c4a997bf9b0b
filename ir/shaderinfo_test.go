package ir

import (
	"errors"
	"testing"
)

func TestDeclareCBufferRejectsDuplicateRangeID(t *testing.T) {
	si := NewShaderInfo()
	if err := si.declareCBuffer(CBufferInfo{RangeID: 0, Size: 4}); err != nil {
		t.Fatalf("first declareCBuffer: %v", err)
	}
	err := si.declareCBuffer(CBufferInfo{RangeID: 0, Size: 8})
	var dup *DuplicateRangeError
	if err == nil {
		t.Fatal("second declareCBuffer with the same range_id succeeded, want DuplicateRangeError")
	}
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v (%T), want *DuplicateRangeError", err, err)
	}
	if dup.Class != "constant buffer" || dup.RangeID != 0 {
		t.Errorf("dup = %+v, want Class=constant buffer RangeID=0", dup)
	}
}

func TestDeclareSRVUAVSamplerTGSMEachRejectDuplicates(t *testing.T) {
	si := NewShaderInfo()

	if err := si.declareSRV(SRVInfo{RangeID: 1}); err != nil {
		t.Fatalf("declareSRV: %v", err)
	}
	if err := si.declareSRV(SRVInfo{RangeID: 1}); err == nil {
		t.Fatal("duplicate SRV range_id accepted")
	}

	if err := si.declareUAV(UAVInfo{RangeID: 2}); err != nil {
		t.Fatalf("declareUAV: %v", err)
	}
	if err := si.declareUAV(UAVInfo{RangeID: 2}); err == nil {
		t.Fatal("duplicate UAV range_id accepted")
	}

	if err := si.declareSampler(SamplerInfo{RangeID: 3}); err != nil {
		t.Fatalf("declareSampler: %v", err)
	}
	if err := si.declareSampler(SamplerInfo{RangeID: 3}); err == nil {
		t.Fatal("duplicate sampler range_id accepted")
	}

	if err := si.declareTGSM(TGSMInfo{RangeID: 4}); err != nil {
		t.Fatalf("declareTGSM: %v", err)
	}
	if err := si.declareTGSM(TGSMInfo{RangeID: 4}); err == nil {
		t.Fatal("duplicate TGSM range_id accepted")
	}
}

func TestGrowTempRegisterCountTracksHighWaterMark(t *testing.T) {
	si := NewShaderInfo()
	si.growTempRegisterCount(3)
	si.growTempRegisterCount(1)
	if si.TempRegisterCount != 4 {
		t.Fatalf("TempRegisterCount = %d, want 4", si.TempRegisterCount)
	}
	si.growTempRegisterCount(0)
	if si.TempRegisterCount != 4 {
		t.Fatalf("TempRegisterCount regressed to %d after a lower register index", si.TempRegisterCount)
	}
}

func TestGrowIndexableTempIsPerPhaseAndBank(t *testing.T) {
	si := NewShaderInfo()
	si.growIndexableTemp(PhaseNone, 0, 4)
	si.growIndexableTemp(PhaseNone, 1, 9)
	si.growIndexableTemp(5, 0, 2)

	if got := si.IndexableTempSizes[indexableTempKey{Phase: PhaseNone, Bank: 0}]; got != 4 {
		t.Errorf("bank 0 size = %d, want 4", got)
	}
	if got := si.IndexableTempSizes[indexableTempKey{Phase: PhaseNone, Bank: 1}]; got != 9 {
		t.Errorf("bank 1 size = %d, want 9", got)
	}
	if got := si.IndexableTempSizes[indexableTempKey{Phase: 5, Bank: 0}]; got != 2 {
		t.Errorf("phase-5 bank 0 size = %d, want 2 (must not alias phase-none bank 0)", got)
	}

	si.growIndexableTemp(PhaseNone, 0, 2)
	if got := si.IndexableTempSizes[indexableTempKey{Phase: PhaseNone, Bank: 0}]; got != 4 {
		t.Errorf("bank 0 size regressed to %d after a smaller count", got)
	}
}

func TestMarkUAVAtomicSetsReadWrittenAndCounter(t *testing.T) {
	si := NewShaderInfo()
	if err := si.declareUAV(UAVInfo{RangeID: 0}); err != nil {
		t.Fatalf("declareUAV: %v", err)
	}
	si.markUAVAtomic(0, true)
	uav := si.UAVs[0]
	if !uav.Read || !uav.Written || !uav.WithCounter {
		t.Fatalf("uav = %+v, want Read=Written=WithCounter=true", uav)
	}
}

func TestMarkSRVSampledSetsComparedOnlyWhenCompared(t *testing.T) {
	si := NewShaderInfo()
	if err := si.declareSRV(SRVInfo{RangeID: 0}); err != nil {
		t.Fatalf("declareSRV: %v", err)
	}
	si.markSRVSampled(0, false)
	if !si.SRVs[0].Sampled || si.SRVs[0].Compared {
		t.Fatalf("srv = %+v, want Sampled=true Compared=false", si.SRVs[0])
	}
	si.markSRVSampled(0, true)
	if !si.SRVs[0].Compared {
		t.Fatal("Compared never set true by a compared sample")
	}
}

func TestRaiseHullMaximumThreadsPerPatchTracksHighWaterMark(t *testing.T) {
	si := NewShaderInfo()
	si.RaiseHullMaximumThreadsPerPatch(4)
	si.RaiseHullMaximumThreadsPerPatch(16)
	si.RaiseHullMaximumThreadsPerPatch(8)
	if si.Tessellation.HullMaximumThreadsPerPatch != 16 {
		t.Fatalf("HullMaximumThreadsPerPatch = %d, want 16", si.Tessellation.HullMaximumThreadsPerPatch)
	}
}

func TestMarkPullModeSetsRegisterBit(t *testing.T) {
	si := NewShaderInfo()
	si.markPullMode(2)
	si.markPullMode(5)
	want := uint64(1<<2 | 1<<5)
	if si.PullModeRegMask != want {
		t.Fatalf("PullModeRegMask = %#x, want %#x", si.PullModeRegMask, want)
	}
}
