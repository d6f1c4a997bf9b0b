package pso

import "sync"

// Pipeline is the compiled bundle this cache hands back. Its contents
// are opaque here, per §4.5: at minimum a handle to the compiled Metal
// function(s). Variants records exactly which per-stage variant keys
// the compile that produced this Pipeline consumed.
type Pipeline struct {
	ID       uint64
	Variants VariantSet
	Native   any
}

// CompileFunc performs one pipeline compilation. It runs on the cache's
// worker pool, never on the calling goroutine, and is called at most
// once per distinct Fingerprint.
type CompileFunc func(desc *PipelineDescriptor, variants VariantSet) (*Pipeline, error)

// CompileResult is the outcome of one compile: either a usable Pipeline
// or an error, observable through IsReady/GetPipeline without a panic
// or partial result either way.
type CompileResult struct {
	Pipeline *Pipeline
	Err      error
}

type cacheEntry struct {
	submit sync.Once
	done   chan struct{}
	result CompileResult
}

func (e *cacheEntry) ready() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

// Cache is a process-wide map from pipeline fingerprint to compiled
// pipeline. At most one compile runs per fingerprint; concurrent
// requests for the same fingerprint block on the first in-flight
// compile and observe its result. Compiles run on a fixed-size worker
// pool, styled on gogpu/wgpu's software-rasterizer WorkerPool: a
// buffered task channel plus a quit channel, not a goroutine-per-job
// free-for-all.
type Cache struct {
	mu      sync.RWMutex
	entries map[Fingerprint]*cacheEntry

	compile CompileFunc
	tasks   chan func()
	quit    chan struct{}

	closeOnce sync.Once
}

// NewCache starts a Cache with a worker pool of the given size (clamped
// to at least 1) driving compile. Call Close when the cache is no
// longer needed to stop the pool.
func NewCache(compile CompileFunc, workers int) *Cache {
	if workers < 1 {
		workers = 1
	}
	c := &Cache{
		entries: make(map[Fingerprint]*cacheEntry),
		compile: compile,
		tasks:   make(chan func(), workers*4),
		quit:    make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go c.worker()
	}
	return c
}

func (c *Cache) worker() {
	for {
		select {
		case task, ok := <-c.tasks:
			if !ok {
				return
			}
			task()
		case <-c.quit:
			// Run whatever is still queued before exiting.
			for {
				select {
				case task := <-c.tasks:
					task()
				default:
					return
				}
			}
		}
	}
}

// getOrCreateEntry returns fp's cache entry, creating it and submitting
// its compile job the first time fp is seen. The map write happens
// under c.mu's write lock, so exactly one goroutine ever observes
// "entry absent" for a given fp and only that goroutine submits a job;
// submit's sync.Once is an extra guard against that invariant, not the
// sole protection against a double compile.
func (c *Cache) getOrCreateEntry(desc *PipelineDescriptor, fp Fingerprint, variants VariantSet) *cacheEntry {
	c.mu.RLock()
	if e, ok := c.entries[fp]; ok {
		c.mu.RUnlock()
		return e
	}
	c.mu.RUnlock()

	c.mu.Lock()
	if e, ok := c.entries[fp]; ok {
		c.mu.Unlock()
		return e
	}
	e := &cacheEntry{done: make(chan struct{})}
	c.entries[fp] = e
	c.mu.Unlock()

	e.submit.Do(func() {
		c.tasks <- func() {
			pipeline, err := c.compile(desc, variants)
			e.result = CompileResult{Pipeline: pipeline, Err: err}
			close(e.done)
		}
	})
	return e
}

// GetPipeline returns desc's compiled pipeline. The first call for a
// given fingerprint triggers a compile; every call, including
// concurrent ones, blocks until that compile finishes and then
// observes its result.
func (c *Cache) GetPipeline(desc *PipelineDescriptor) (*Pipeline, error) {
	fp := ComputeFingerprint(desc)
	variants := DeriveVariantSet(desc)
	e := c.getOrCreateEntry(desc, fp, variants)
	<-e.done
	return e.result.Pipeline, e.result.Err
}

// IsReady reports whether desc's pipeline has finished compiling
// (successfully or not) without blocking. A fingerprint never
// submitted before is not ready.
func (c *Cache) IsReady(desc *PipelineDescriptor) bool {
	fp := ComputeFingerprint(desc)
	c.mu.RLock()
	e, ok := c.entries[fp]
	c.mu.RUnlock()
	return ok && e.ready()
}

// Size returns the number of distinct fingerprints seen so far.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear removes every cache entry. In-flight compiles already running
// are unaffected; their eventual result is simply discarded, matching
// §4.5's "eviction is not required" (Clear is a test/diagnostic tool,
// not part of the required contract).
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Fingerprint]*cacheEntry)
}

// Close stops the worker pool. Jobs already queued or running still
// finish; no new job is accepted afterward.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.quit)
	})
}
