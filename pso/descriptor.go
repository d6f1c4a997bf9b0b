package pso

// ShaderID is a stable identity for one compiled DXBC shader, stable
// across the variants lowered from it. Callers typically derive it from
// a hash of the shader's bytecode; this package only ever compares it.
type ShaderID uint64

// TextureFormat enumerates the color/depth-stencil attachment formats a
// pipeline descriptor can name. Only the formats this package's variant
// derivation inspects are listed; unrecognized formats still hash and
// compare correctly, they just never set a unorm8 output bit.
type TextureFormat uint32

const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatRGBA8Unorm
	TextureFormatBGRA8Unorm
	TextureFormatRGBA8UnormSRGB
	TextureFormatRGBA16Float
	TextureFormatRGBA32Float
	TextureFormatDepth32Float
	TextureFormatDepth24PlusStencil8
)

// IndexBufferFormat is the index-buffer width recognized by §6, or none
// for non-indexed draws.
type IndexBufferFormat uint32

const (
	IndexBufferFormatNone IndexBufferFormat = iota
	IndexBufferFormatU16
	IndexBufferFormatU32
)

// TopologyClass is the primitive topology class a pipeline is built
// for; patch lists additionally carry a control-point count via the
// descriptor's tessellation fields.
type TopologyClass uint32

const (
	TopologyClassPoint TopologyClass = iota
	TopologyClassLine
	TopologyClassTriangle
	TopologyClassPatch
)

// GSPassthroughNone marks a geometry-shader passthrough mask as "not
// passthrough", per §4's domain-variant description.
const GSPassthroughNone uint32 = ^uint32(0)

// BlendFactor mirrors the small set of D3D11/Metal blend factors needed
// to detect dual-source blending and to hash blend state structurally.
type BlendFactor uint32

const (
	BlendFactorZero BlendFactor = iota
	BlendFactorOne
	BlendFactorSrcColor
	BlendFactorOneMinusSrcColor
	BlendFactorSrcAlpha
	BlendFactorOneMinusSrcAlpha
	BlendFactorDstColor
	BlendFactorOneMinusDstColor
	BlendFactorDstAlpha
	BlendFactorOneMinusDstAlpha
	BlendFactorSrc1Color
	BlendFactorOneMinusSrc1Color
	BlendFactorSrc1Alpha
	BlendFactorOneMinusSrc1Alpha
)

// BlendOperation is the arithmetic combining the weighted source and
// destination terms of one blend component.
type BlendOperation uint32

const (
	BlendOperationAdd BlendOperation = iota
	BlendOperationSubtract
	BlendOperationReverseSubtract
	BlendOperationMin
	BlendOperationMax
)

// LogicOperation is a raster logic op, used when a target's
// LogicOpEnable is set instead of arithmetic blending.
type LogicOperation uint32

const (
	LogicOperationClear LogicOperation = iota
	LogicOperationSet
	LogicOperationCopy
	LogicOperationCopyInverted
	LogicOperationNoop
	LogicOperationInvert
	LogicOperationAnd
	LogicOperationNand
	LogicOperationOr
	LogicOperationNor
	LogicOperationXor
	LogicOperationEquiv
)

// BlendComponent is one color-or-alpha blend equation.
type BlendComponent struct {
	SrcFactor BlendFactor
	DstFactor BlendFactor
	Op        BlendOperation
}

// RenderTargetBlend is the per-color-attachment blend configuration.
// Factors/op are only meaningful, and only hashed, when BlendEnable is
// set; LogicOp is only hashed when LogicOpEnable is set. This is what
// makes two differently-constructed but behaviorally-equal blend
// states hash and compare equal, as required of the pipeline
// fingerprint.
type RenderTargetBlend struct {
	Mask          uint8
	BlendEnable   bool
	LogicOpEnable bool
	Color         BlendComponent
	Alpha         BlendComponent
	LogicOp       LogicOperation
}

// BlendState is the full blend configuration of a pipeline descriptor,
// compared structurally rather than by identity.
type BlendState struct {
	AlphaToCoverage  bool
	IndependentBlend bool
	Targets          [8]RenderTargetBlend
}

// InputLayoutEntry describes one vertex attribute's slot binding.
type InputLayoutEntry struct {
	Slot        uint32
	Semantic    string
	Format      VertexFormat
	Offset      uint32
	StepRate    uint32
	PerInstance bool
}

// VertexFormat is the wire format of one vertex attribute.
type VertexFormat uint32

const (
	VertexFormatFloat32 VertexFormat = iota
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatUint32
	VertexFormatUint32x2
	VertexFormatUint32x4
	VertexFormatSint32
	VertexFormatUnorm8x4
)

// PipelineDescriptor enumerates the recognized graphics-pipeline
// options from §6: shader identities, input layout, fixed-function
// state, attachment formats, and the tessellation/geometry knobs that
// feed shader-variant derivation.
type PipelineDescriptor struct {
	VertexShader   ShaderID
	HullShader     ShaderID
	DomainShader   ShaderID
	GeometryShader ShaderID
	PixelShader    ShaderID

	InputLayout []InputLayoutEntry

	BlendState BlendState

	NumColorAttachments    uint32
	ColorAttachmentFormats [8]TextureFormat
	DepthStencilFormat     TextureFormat

	RasterizationEnabled bool
	SampleMask           uint32
	SampleCount          uint32

	IndexBufferFormat IndexBufferFormat
	TopologyClass     TopologyClass
	GSStripTopology    uint32
	GSPassthrough      uint32

	// MaxTessFactor feeds the hull/domain variant keys; zero for
	// non-tessellating pipelines.
	MaxTessFactor uint32

	// DepthOutputDisabled forces the pixel variant to drop depth
	// writes even when the pixel shader declares an output depth.
	DepthOutputDisabled bool
}

// ComputePipelineDescriptor is the recognized option set for a compute
// pipeline: just the shader identity, since compute has no
// fixed-function attachment/blend state to fingerprint.
type ComputePipelineDescriptor struct {
	ComputeShader ShaderID
}
