package pso

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"io"
	"strings"
)

// Fingerprint is the pipeline cache's map key: a canonical, comparable
// value built from every field a PipelineDescriptor's recognized
// options touch. Two descriptors equivalent under those options always
// produce equal Fingerprints. hash exists only to make map bucketing
// cheap; canon, not hash, is what equality actually compares, so a hash
// collision between two distinct descriptors can never be mistaken for
// a cache hit.
type Fingerprint struct {
	hash  uint64
	canon string
}

// String renders the fingerprint's hash for diagnostics. It is not a
// stable serialization; canon backs equality, not this.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%016x", f.hash)
}

func writeUint32(w io.Writer, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, _ = w.Write(buf[:])
}

func writeUint64(w io.Writer, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = w.Write(buf[:])
}

func writeString(w io.Writer, s string) {
	writeUint32(w, uint32(len(s)))
	_, _ = io.WriteString(w, s)
}

func writeBool(w io.Writer, v bool) {
	if v {
		_, _ = w.Write([]byte{1})
	} else {
		_, _ = w.Write([]byte{0})
	}
}

func writeBlendState(w io.Writer, bs BlendState, numTargets uint32) {
	writeBool(w, bs.AlphaToCoverage)
	writeBool(w, bs.IndependentBlend)

	n := numTargets
	if n == 0 {
		n = 1
	}
	if n > 8 {
		n = 8
	}
	for i := uint32(0); i < n; i++ {
		t := bs.Targets[0]
		if bs.IndependentBlend {
			t = bs.Targets[i]
		}
		writeUint32(w, uint32(t.Mask))
		writeBool(w, t.BlendEnable)
		writeBool(w, t.LogicOpEnable)
		if t.BlendEnable {
			writeUint32(w, uint32(t.Color.SrcFactor))
			writeUint32(w, uint32(t.Color.DstFactor))
			writeUint32(w, uint32(t.Color.Op))
			writeUint32(w, uint32(t.Alpha.SrcFactor))
			writeUint32(w, uint32(t.Alpha.DstFactor))
			writeUint32(w, uint32(t.Alpha.Op))
		}
		if t.LogicOpEnable {
			writeUint32(w, uint32(t.LogicOp))
		}
	}
}

func writeInputLayout(w io.Writer, layout []InputLayoutEntry) {
	writeUint32(w, uint32(len(layout)))
	for _, e := range layout {
		writeUint32(w, e.Slot)
		writeString(w, e.Semantic)
		writeUint32(w, uint32(e.Format))
		writeUint32(w, e.Offset)
		writeUint32(w, e.StepRate)
		writeBool(w, e.PerInstance)
	}
}

// ComputeFingerprint derives desc's pipeline fingerprint. Field order
// is fixed so equivalent descriptors encode identically regardless of
// how their slices/arrays were populated.
func ComputeFingerprint(desc *PipelineDescriptor) Fingerprint {
	var b strings.Builder
	h := fnv.New64a()
	w := io.MultiWriter(&b, h)

	writeUint64(w, uint64(desc.VertexShader))
	writeUint64(w, uint64(desc.HullShader))
	writeUint64(w, uint64(desc.DomainShader))
	writeUint64(w, uint64(desc.GeometryShader))
	writeUint64(w, uint64(desc.PixelShader))

	writeInputLayout(w, desc.InputLayout)
	writeBlendState(w, desc.BlendState, desc.NumColorAttachments)

	writeUint32(w, desc.NumColorAttachments)
	n := desc.NumColorAttachments
	if n > 8 {
		n = 8
	}
	for i := uint32(0); i < n; i++ {
		writeUint32(w, uint32(desc.ColorAttachmentFormats[i]))
	}
	writeUint32(w, uint32(desc.DepthStencilFormat))

	writeBool(w, desc.RasterizationEnabled)
	writeUint32(w, desc.SampleMask)
	writeUint32(w, desc.SampleCount)

	writeUint32(w, uint32(desc.IndexBufferFormat))
	writeUint32(w, uint32(desc.TopologyClass))
	writeUint32(w, desc.GSStripTopology)
	writeUint32(w, desc.GSPassthrough)
	writeUint32(w, desc.MaxTessFactor)
	writeBool(w, desc.DepthOutputDisabled)

	return Fingerprint{hash: h.Sum64(), canon: b.String()}
}

// ComputeComputeFingerprint derives a compute pipeline's fingerprint.
// Named distinctly from ComputeFingerprint to keep the graphics/compute
// key spaces visibly separate even though both produce a Fingerprint.
func ComputeComputeFingerprint(desc *ComputePipelineDescriptor) Fingerprint {
	var b strings.Builder
	h := fnv.New64a()
	w := io.MultiWriter(&b, h)
	writeUint64(w, uint64(desc.ComputeShader))
	return Fingerprint{hash: h.Sum64(), canon: b.String()}
}

func inputLayoutID(layout []InputLayoutEntry) uint64 {
	h := fnv.New64a()
	writeInputLayout(h, layout)
	return h.Sum64()
}

// VertexVariantKey is the tessellation-aware vertex-stage variant: the
// input layout identity, the paired hull shader, the index-buffer
// format, and the max tessellation factor.
type VertexVariantKey struct {
	InputLayoutID  uint64
	HullShader     ShaderID
	IndexBufferFmt IndexBufferFormat
	MaxTessFactor  uint32
}

// HullVariantKey is the hull-stage variant: paired vertex shader.
type HullVariantKey struct {
	VertexShader ShaderID
}

// DomainVariantKey is the domain-stage variant: paired hull shader,
// geometry-passthrough mask, and max tessellation factor.
type DomainVariantKey struct {
	HullShader        ShaderID
	GSPassthroughMask uint32
	MaxTessFactor     uint32
}

// GeometryVariantKey is the geometry-stage variant: paired vertex
// shader and output strip topology.
type GeometryVariantKey struct {
	VertexShader        ShaderID
	OutputStripTopology uint32
}

// PixelVariantKey is the pixel-stage variant: sample mask, dual-source
// blending, depth-output-disabled, and the unorm-8 output mask.
type PixelVariantKey struct {
	SampleMask          uint32
	DualSourceBlending  bool
	DepthOutputDisabled bool
	Unorm8OutputMask    uint32
}

// VariantSet is every per-stage variant key a single compile
// derives from one PipelineDescriptor.
type VariantSet struct {
	Vertex   VertexVariantKey
	Hull     HullVariantKey
	Domain   DomainVariantKey
	Geometry GeometryVariantKey
	Pixel    PixelVariantKey
}

// DeriveVariantSet computes every stage's variant key from desc. It is
// a pure function of desc, called once per compile and recorded on the
// resulting Pipeline so callers can see exactly which variants a
// compile consumed.
func DeriveVariantSet(desc *PipelineDescriptor) VariantSet {
	return VariantSet{
		Vertex: VertexVariantKey{
			InputLayoutID:  inputLayoutID(desc.InputLayout),
			HullShader:     desc.HullShader,
			IndexBufferFmt: desc.IndexBufferFormat,
			MaxTessFactor:  desc.MaxTessFactor,
		},
		Hull: HullVariantKey{
			VertexShader: desc.VertexShader,
		},
		Domain: DomainVariantKey{
			HullShader:        desc.HullShader,
			GSPassthroughMask: desc.GSPassthrough,
			MaxTessFactor:     desc.MaxTessFactor,
		},
		Geometry: GeometryVariantKey{
			VertexShader:        desc.VertexShader,
			OutputStripTopology: desc.GSStripTopology,
		},
		Pixel: PixelVariantKey{
			SampleMask:          desc.SampleMask,
			DualSourceBlending:  dualSourceBlending(desc.BlendState),
			DepthOutputDisabled: desc.DepthOutputDisabled,
			Unorm8OutputMask:    unorm8OutputMask(desc),
		},
	}
}

func dualSourceBlending(bs BlendState) bool {
	t := bs.Targets[0]
	factors := [...]BlendFactor{t.Color.SrcFactor, t.Color.DstFactor, t.Alpha.SrcFactor, t.Alpha.DstFactor}
	for _, f := range factors {
		switch f {
		case BlendFactorSrc1Color, BlendFactorOneMinusSrc1Color, BlendFactorSrc1Alpha, BlendFactorOneMinusSrc1Alpha:
			return true
		}
	}
	return false
}

func unorm8OutputMask(desc *PipelineDescriptor) uint32 {
	var mask uint32
	n := desc.NumColorAttachments
	if n > 8 {
		n = 8
	}
	for i := uint32(0); i < n; i++ {
		switch desc.ColorAttachmentFormats[i] {
		case TextureFormatRGBA8Unorm, TextureFormatBGRA8Unorm, TextureFormatRGBA8UnormSRGB:
			mask |= 1 << i
		}
	}
	return mask
}
