package pso

import "sync"

// insertOnce is the "insert once, return the canonical object" cache
// shape shared by the blend/rasterizer/depth-stencil/sampler/
// input-layout sub-caches: a descriptor maps to one canonical *V,
// created on first sight and returned by reference on every later
// lookup with an equal key.
type insertOnce[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]*V
}

func newInsertOnce[K comparable, V any]() *insertOnce[K, V] {
	return &insertOnce[K, V]{items: make(map[K]*V)}
}

// GetOrInsert returns the canonical *V for key, calling create to build
// one the first time key is seen.
func (c *insertOnce[K, V]) GetOrInsert(key K, create func() V) *V {
	c.mu.RLock()
	if v, ok := c.items[key]; ok {
		c.mu.RUnlock()
		return v
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.items[key]; ok {
		return v
	}
	v := create()
	c.items[key] = &v
	return &v
}

// Len returns the number of distinct canonical objects inserted.
func (c *insertOnce[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// RasterizerState is the fixed-function rasterizer configuration,
// named but not detailed by §4.5; supplemented here with the fields
// Metal's render-pipeline rasterizer state actually needs.
type RasterizerState struct {
	CullMode          CullMode
	FrontCounterClock bool
	DepthBias         int32
	DepthBiasClamp    float32
	SlopeScaledBias   float32
	DepthClipEnable   bool
}

// CullMode selects which winding is culled during rasterization.
type CullMode uint32

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// DepthStencilState is the fixed-function depth/stencil test
// configuration.
type DepthStencilState struct {
	DepthWriteEnabled bool
	DepthCompare      CompareFunction
	StencilEnabled    bool
	StencilReadMask   uint8
	StencilWriteMask  uint8
}

// CompareFunction is a depth or stencil comparison op.
type CompareFunction uint32

const (
	CompareFunctionNever CompareFunction = iota
	CompareFunctionLess
	CompareFunctionEqual
	CompareFunctionLessEqual
	CompareFunctionGreater
	CompareFunctionNotEqual
	CompareFunctionGreaterEqual
	CompareFunctionAlways
)

// SamplerState is a fixed-function texture sampler configuration.
type SamplerState struct {
	MinFilter     FilterMode
	MagFilter     FilterMode
	MipFilter     FilterMode
	AddressU      AddressMode
	AddressV      AddressMode
	AddressW      AddressMode
	MaxAnisotropy uint32
	CompareFunc   CompareFunction
}

// FilterMode selects nearest or linear texture filtering.
type FilterMode uint32

const (
	FilterModeNearest FilterMode = iota
	FilterModeLinear
)

// AddressMode selects the out-of-range texture-coordinate policy.
type AddressMode uint32

const (
	AddressModeClampToEdge AddressMode = iota
	AddressModeRepeat
	AddressModeMirrorRepeat
	AddressModeClampToBorder
)

// InputLayout is the canonical object an input-layout sub-cache lookup
// returns: the ordered vertex-attribute list a PipelineDescriptor
// referenced by value.
type InputLayout struct {
	Entries []InputLayoutEntry
}

// StateCache holds the five auxiliary state-object sub-caches named by
// §4.5/§9.1: blend, rasterizer, depth-stencil, sampler, and input
// layout. Each follows the same insert-once-return-canonical pattern,
// keyed by its fully-specified descriptor (or, for input layouts whose
// descriptor is a slice and so not map-keyable directly, by its
// canonical encoding).
type StateCache struct {
	blend        *insertOnce[BlendState, BlendState]
	rasterizer   *insertOnce[RasterizerState, RasterizerState]
	depthStencil *insertOnce[DepthStencilState, DepthStencilState]
	sampler      *insertOnce[SamplerState, SamplerState]
	inputLayout  *insertOnce[uint64, InputLayout]
}

// NewStateCache constructs an empty StateCache.
func NewStateCache() *StateCache {
	return &StateCache{
		blend:        newInsertOnce[BlendState, BlendState](),
		rasterizer:   newInsertOnce[RasterizerState, RasterizerState](),
		depthStencil: newInsertOnce[DepthStencilState, DepthStencilState](),
		sampler:      newInsertOnce[SamplerState, SamplerState](),
		inputLayout:  newInsertOnce[uint64, InputLayout](),
	}
}

// Blend returns the canonical object equal to bs.
func (c *StateCache) Blend(bs BlendState) *BlendState {
	return c.blend.GetOrInsert(bs, func() BlendState { return bs })
}

// Rasterizer returns the canonical object equal to rs.
func (c *StateCache) Rasterizer(rs RasterizerState) *RasterizerState {
	return c.rasterizer.GetOrInsert(rs, func() RasterizerState { return rs })
}

// DepthStencil returns the canonical object equal to ds.
func (c *StateCache) DepthStencil(ds DepthStencilState) *DepthStencilState {
	return c.depthStencil.GetOrInsert(ds, func() DepthStencilState { return ds })
}

// Sampler returns the canonical object equal to ss.
func (c *StateCache) Sampler(ss SamplerState) *SamplerState {
	return c.sampler.GetOrInsert(ss, func() SamplerState { return ss })
}

// InputLayout returns the canonical object for entries, keyed by its
// structural encoding rather than the slice itself.
func (c *StateCache) InputLayout(entries []InputLayoutEntry) *InputLayout {
	id := inputLayoutID(entries)
	return c.inputLayout.GetOrInsert(id, func() InputLayout {
		return InputLayout{Entries: entries}
	})
}
