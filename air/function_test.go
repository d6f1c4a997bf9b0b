package air

import (
	"strings"
	"testing"

	"github.com/gogpu/dxmtl/ir"
)

func TestValueNamesAreMonotonicAndUnique(t *testing.T) {
	fb := NewFunctionBuilder("main", StageVertex)
	a := fb.value()
	b := fb.value()
	if a == b {
		t.Fatalf("value() returned %q twice", a)
	}
	if a != "%0" || b != "%1" {
		t.Fatalf("value names = %q, %q, want %%0, %%1", a, b)
	}
}

func TestRegisterAllocaCachesByKey(t *testing.T) {
	fb := NewFunctionBuilder("main", StageVertex)
	key := registerKey{register: 3}
	a := fb.RegisterAlloca(key, ir.DataFloat)
	b := fb.RegisterAlloca(key, ir.DataFloat)
	if a != b {
		t.Fatalf("RegisterAlloca returned distinct pointers %q, %q for the same key", a, b)
	}

	fn := fb.Build()
	allocas := 0
	for _, line := range fn.Lines {
		if strings.Contains(line, "alloca") {
			allocas++
		}
	}
	if allocas != 1 {
		t.Fatalf("%d alloca lines emitted, want 1", allocas)
	}
}

func TestBuildEmitsSignatureParamsAndTerminatorOrder(t *testing.T) {
	fb := NewFunctionBuilder("vs_main", StageFragment)
	fb.AddParam("float4 %in [[stage_in]]")
	fb.Label("bb0")
	fb.EmitRet()

	fn := fb.Build()
	if fn.Name != "vs_main" || fn.Stage != StageFragment {
		t.Fatalf("fn = %+v, want Name=vs_main Stage=StageFragment", fn)
	}
	if len(fn.Lines) == 0 {
		t.Fatal("Build produced no lines")
	}
	sig := fn.Lines[0]
	if !strings.HasPrefix(sig, "define fragment void @vs_main(") {
		t.Fatalf("signature line = %q", sig)
	}
	if !strings.Contains(sig, "stage_in") {
		t.Fatalf("signature line missing the declared param: %q", sig)
	}
	last := fn.Lines[len(fn.Lines)-1]
	if last != "}" {
		t.Fatalf("last line = %q, want closing brace", last)
	}
}

func TestEmitSwitchRendersAllCasesAndDefault(t *testing.T) {
	fb := NewFunctionBuilder("main", StageVertex)
	fb.EmitSwitch("%v", []SwitchCase{{Value: 0, Target: "bb1"}, {Value: 2, Target: "bb2"}}, "bb3")

	fn := fb.Build()
	var switchLine string
	for _, line := range fn.Lines {
		if strings.Contains(line, "switch") {
			switchLine = line
		}
	}
	for _, want := range []string{"i32 0, label %bb1", "i32 2, label %bb2", "label %bb3"} {
		if !strings.Contains(switchLine, want) {
			t.Fatalf("switch line %q missing %q", switchLine, want)
		}
	}
}

func TestWritePreambleOrderedBeforeBody(t *testing.T) {
	fb := NewFunctionBuilder("main", StageVertex)
	fb.Label("bb0")
	fb.EmitCall("air.discard_fragment", "void")
	fb.RegisterAlloca(registerKey{register: 0}, ir.DataFloat)
	fb.EmitRet()

	fn := fb.Build()
	allocaLine, callLine := -1, -1
	for i, line := range fn.Lines {
		if strings.Contains(line, "alloca") {
			allocaLine = i
		}
		if strings.Contains(line, "call void @air.discard_fragment") {
			callLine = i
		}
	}
	if allocaLine == -1 || callLine == -1 {
		t.Fatalf("missing expected lines: alloca=%d call=%d", allocaLine, callLine)
	}
	if allocaLine >= callLine {
		t.Fatalf("alloca (preamble) must precede body lines; alloca at %d, call at %d", allocaLine, callLine)
	}
}
