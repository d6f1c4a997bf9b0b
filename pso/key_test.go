package pso

import "testing"

func baseDescriptor() *PipelineDescriptor {
	return &PipelineDescriptor{
		VertexShader: 1,
		PixelShader:  2,
		InputLayout: []InputLayoutEntry{
			{Slot: 0, Semantic: "POSITION", Format: VertexFormatFloat32x3, Offset: 0},
			{Slot: 0, Semantic: "TEXCOORD", Format: VertexFormatFloat32x2, Offset: 12},
		},
		NumColorAttachments:    1,
		ColorAttachmentFormats: [8]TextureFormat{TextureFormatRGBA8Unorm},
		DepthStencilFormat:     TextureFormatDepth32Float,
		RasterizationEnabled:   true,
		SampleMask:             0xFFFFFFFF,
		SampleCount:            1,
		TopologyClass:          TopologyClassTriangle,
		GSPassthrough:          GSPassthroughNone,
	}
}

func TestFingerprintPureFunctionOfOptions(t *testing.T) {
	a := baseDescriptor()
	b := baseDescriptor()

	fa := ComputeFingerprint(a)
	fb := ComputeFingerprint(b)
	if fa != fb {
		t.Fatalf("equivalent descriptors produced different fingerprints: %s vs %s", fa, fb)
	}
}

func TestFingerprintDiffersOnShaderIdentity(t *testing.T) {
	a := baseDescriptor()
	b := baseDescriptor()
	b.PixelShader = 99

	if ComputeFingerprint(a) == ComputeFingerprint(b) {
		t.Fatal("descriptors differing in PixelShader produced equal fingerprints")
	}
}

func TestFingerprintIgnoresDisabledBlendFactors(t *testing.T) {
	a := baseDescriptor()
	a.BlendState.Targets[0] = RenderTargetBlend{
		Mask:        0xF,
		BlendEnable: false,
		Color:       BlendComponent{SrcFactor: BlendFactorOne, DstFactor: BlendFactorZero, Op: BlendOperationAdd},
	}

	b := baseDescriptor()
	b.BlendState.Targets[0] = RenderTargetBlend{
		Mask:        0xF,
		BlendEnable: false,
		Color:       BlendComponent{SrcFactor: BlendFactorSrcAlpha, DstFactor: BlendFactorOneMinusSrcAlpha, Op: BlendOperationMax},
	}

	// Two blend-state objects that differ only in factors that are
	// inert because BlendEnable is false describe identical rendering
	// behavior, so their fingerprints must match.
	if ComputeFingerprint(a) != ComputeFingerprint(b) {
		t.Fatal("behaviorally-identical blend states (blend disabled) produced different fingerprints")
	}
}

func TestFingerprintDistinguishesEnabledBlendFactors(t *testing.T) {
	a := baseDescriptor()
	a.BlendState.Targets[0] = RenderTargetBlend{
		Mask:        0xF,
		BlendEnable: true,
		Color:       BlendComponent{SrcFactor: BlendFactorOne, DstFactor: BlendFactorZero, Op: BlendOperationAdd},
	}

	b := baseDescriptor()
	b.BlendState.Targets[0] = RenderTargetBlend{
		Mask:        0xF,
		BlendEnable: true,
		Color:       BlendComponent{SrcFactor: BlendFactorSrcAlpha, DstFactor: BlendFactorOneMinusSrcAlpha, Op: BlendOperationAdd},
	}

	if ComputeFingerprint(a) == ComputeFingerprint(b) {
		t.Fatal("blend states with different enabled factors produced equal fingerprints")
	}
}

func TestFingerprintIndependentOfInputLayoutOrderSlicing(t *testing.T) {
	a := baseDescriptor()
	b := baseDescriptor()
	b.InputLayout = append([]InputLayoutEntry{}, a.InputLayout...)

	if ComputeFingerprint(a) != ComputeFingerprint(b) {
		t.Fatal("two distinct but element-equal input layout slices produced different fingerprints")
	}
}

func TestDeriveVariantSetTessellation(t *testing.T) {
	desc := baseDescriptor()
	desc.HullShader = 10
	desc.DomainShader = 11
	desc.IndexBufferFormat = IndexBufferFormatU16
	desc.MaxTessFactor = 16
	desc.TopologyClass = TopologyClassPatch

	vs := DeriveVariantSet(desc)
	if vs.Vertex.HullShader != 10 {
		t.Errorf("Vertex.HullShader = %v, want 10", vs.Vertex.HullShader)
	}
	if vs.Vertex.IndexBufferFmt != IndexBufferFormatU16 {
		t.Errorf("Vertex.IndexBufferFmt = %v, want U16", vs.Vertex.IndexBufferFmt)
	}
	if vs.Vertex.MaxTessFactor != 16 {
		t.Errorf("Vertex.MaxTessFactor = %v, want 16", vs.Vertex.MaxTessFactor)
	}
	if vs.Hull.VertexShader != desc.VertexShader {
		t.Errorf("Hull.VertexShader = %v, want %v", vs.Hull.VertexShader, desc.VertexShader)
	}
	if vs.Domain.HullShader != 10 || vs.Domain.MaxTessFactor != 16 {
		t.Errorf("Domain variant key = %+v, want HullShader=10 MaxTessFactor=16", vs.Domain)
	}
	if vs.Domain.GSPassthroughMask != GSPassthroughNone {
		t.Errorf("Domain.GSPassthroughMask = %v, want GSPassthroughNone", vs.Domain.GSPassthroughMask)
	}
}

func TestDeriveVariantSetDualSourceBlending(t *testing.T) {
	desc := baseDescriptor()
	desc.BlendState.Targets[0] = RenderTargetBlend{
		BlendEnable: true,
		Color:       BlendComponent{SrcFactor: BlendFactorSrc1Color, DstFactor: BlendFactorOneMinusSrc1Color},
	}

	vs := DeriveVariantSet(desc)
	if !vs.Pixel.DualSourceBlending {
		t.Fatal("expected DualSourceBlending to be true for a Src1Color blend factor")
	}
}

func TestDeriveVariantSetUnorm8OutputMask(t *testing.T) {
	desc := baseDescriptor()
	desc.NumColorAttachments = 2
	desc.ColorAttachmentFormats[0] = TextureFormatRGBA8Unorm
	desc.ColorAttachmentFormats[1] = TextureFormatRGBA16Float

	vs := DeriveVariantSet(desc)
	if vs.Pixel.Unorm8OutputMask != 0x1 {
		t.Errorf("Unorm8OutputMask = %#x, want 0x1", vs.Pixel.Unorm8OutputMask)
	}
}
