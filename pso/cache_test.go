package pso

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func tessellationDescriptor() *PipelineDescriptor {
	desc := baseDescriptor()
	desc.VertexShader = 1
	desc.HullShader = 2
	desc.DomainShader = 3
	desc.PixelShader = 4
	desc.IndexBufferFormat = IndexBufferFormatU16
	desc.TopologyClass = TopologyClassPatch
	desc.MaxTessFactor = 16
	return desc
}

func TestCacheCompilesOnceConcurrentWaiters(t *testing.T) {
	var compiles int32
	started := make(chan struct{})
	release := make(chan struct{})

	compile := func(desc *PipelineDescriptor, variants VariantSet) (*Pipeline, error) {
		atomic.AddInt32(&compiles, 1)
		close(started)
		<-release
		return &Pipeline{ID: 1, Variants: variants}, nil
	}

	c := NewCache(compile, 4)
	defer c.Close()

	desc := tessellationDescriptor()

	const waiters = 8
	results := make([]*Pipeline, waiters)
	var wg sync.WaitGroup
	wg.Add(waiters)
	for i := 0; i < waiters; i++ {
		go func(i int) {
			defer wg.Done()
			p, err := c.GetPipeline(desc)
			if err != nil {
				t.Errorf("GetPipeline: %v", err)
				return
			}
			results[i] = p
		}(i)
	}

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("compile never started")
	}
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&compiles); got != 1 {
		t.Fatalf("compile ran %d times, want 1", got)
	}
	for i, p := range results {
		if p != results[0] {
			t.Fatalf("waiter %d got a different pipeline than waiter 0", i)
		}
	}

	p, err := c.GetPipeline(desc)
	if err != nil {
		t.Fatalf("second GetPipeline: %v", err)
	}
	if p != results[0] {
		t.Fatal("second call returned a different pipeline object")
	}
	if got := atomic.LoadInt32(&compiles); got != 1 {
		t.Fatalf("compile ran %d times after a second call, want 1", got)
	}
}

func TestCacheConsumesExpectedVariants(t *testing.T) {
	var captured VariantSet
	compile := func(desc *PipelineDescriptor, variants VariantSet) (*Pipeline, error) {
		captured = variants
		return &Pipeline{Variants: variants}, nil
	}

	c := NewCache(compile, 1)
	defer c.Close()

	desc := tessellationDescriptor()
	if _, err := c.GetPipeline(desc); err != nil {
		t.Fatalf("GetPipeline: %v", err)
	}

	if captured.Vertex.HullShader != 2 {
		t.Errorf("Vertex.HullShader = %v, want 2", captured.Vertex.HullShader)
	}
	if captured.Vertex.MaxTessFactor != 16 {
		t.Errorf("Vertex.MaxTessFactor = %v, want 16", captured.Vertex.MaxTessFactor)
	}
	if captured.Hull.VertexShader != 1 {
		t.Errorf("Hull.VertexShader = %v, want 1", captured.Hull.VertexShader)
	}
	if captured.Domain.HullShader != 2 {
		t.Errorf("Domain.HullShader = %v, want 2", captured.Domain.HullShader)
	}
}

func TestCacheIsReady(t *testing.T) {
	release := make(chan struct{})
	compile := func(desc *PipelineDescriptor, variants VariantSet) (*Pipeline, error) {
		<-release
		return &Pipeline{}, nil
	}

	c := NewCache(compile, 1)
	defer c.Close()

	desc := baseDescriptor()
	if c.IsReady(desc) {
		t.Fatal("IsReady true before any request was made")
	}

	done := make(chan struct{})
	go func() {
		_, _ = c.GetPipeline(desc)
		close(done)
	}()

	// Give the compile a moment to register as in-flight.
	time.Sleep(20 * time.Millisecond)
	if c.IsReady(desc) {
		t.Fatal("IsReady true while compile still in flight")
	}

	close(release)
	<-done
	if !c.IsReady(desc) {
		t.Fatal("IsReady false after compile finished")
	}
}

func TestCacheSurfacesCompileError(t *testing.T) {
	wantErr := &CompileError{Err: errTest}
	compile := func(desc *PipelineDescriptor, variants VariantSet) (*Pipeline, error) {
		return nil, wantErr
	}

	c := NewCache(compile, 1)
	defer c.Close()

	p, err := c.GetPipeline(baseDescriptor())
	if p != nil {
		t.Fatalf("expected nil pipeline on compile failure, got %+v", p)
	}
	if err != wantErr {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

var errTest = &testError{"compile failed"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestStateCacheReturnsCanonicalObjects(t *testing.T) {
	sc := NewStateCache()

	a := sc.Blend(BlendState{AlphaToCoverage: true})
	b := sc.Blend(BlendState{AlphaToCoverage: true})
	if a != b {
		t.Fatal("equal BlendState values returned distinct canonical pointers")
	}

	c := sc.Blend(BlendState{AlphaToCoverage: false})
	if c == a {
		t.Fatal("unequal BlendState values returned the same canonical pointer")
	}
	if sc.blend.Len() != 2 {
		t.Fatalf("blend sub-cache has %d entries, want 2", sc.blend.Len())
	}
}

func TestStateCacheInputLayoutByStructuralEquality(t *testing.T) {
	sc := NewStateCache()
	entries := []InputLayoutEntry{{Slot: 0, Semantic: "POSITION", Format: VertexFormatFloat32x3}}

	a := sc.InputLayout(entries)
	// A distinct slice with equal elements must still hit the same
	// canonical object, since InputLayout is keyed structurally.
	b := sc.InputLayout(append([]InputLayoutEntry{}, entries...))
	if a != b {
		t.Fatal("structurally-equal input layouts returned distinct canonical pointers")
	}
}
