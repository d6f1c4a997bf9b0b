package air

import (
	"sort"

	"github.com/gogpu/dxmtl/dxbc"
	"github.com/gogpu/dxmtl/ir"
)

// buildSignature binds every slot info declares to fb's parameter list
// and output-struct layout, in ascending register/range_id order so
// the emitted signature is deterministic across runs of the same
// program. This is what turns a DXBC program's declarations into the
// stage-appropriate entry signature an AIR function actually needs to
// be callable from a Metal pipeline.
func buildSignature(fb *FunctionBuilder, info *ir.ShaderInfo) {
	for _, reg := range sortedKeysIO(info.Inputs) {
		fb.BindInput(info.Inputs[reg])
	}
	for _, rangeID := range sortedKeysU32(info.CBuffers) {
		fb.BindCBuffer(rangeID)
	}
	for _, rangeID := range sortedKeysU32(info.SRVs) {
		fb.BindSRV(rangeID, info.SRVs[rangeID])
	}
	for _, rangeID := range sortedKeysU32(info.UAVs) {
		fb.BindUAV(rangeID, info.UAVs[rangeID])
	}
	for _, rangeID := range sortedKeysU32(info.Samplers) {
		fb.BindSampler(rangeID)
	}
	for _, rangeID := range sortedKeysU32(info.TGSM) {
		fb.BindTGSM(rangeID, info.TGSM[rangeID])
	}
	for _, reg := range sortedKeysIO(info.Outputs) {
		fb.DeclareOutput(info.Outputs[reg])
	}
}

func sortedKeysU32[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedKeysIO(m map[uint32]*ir.IOInfo) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// systemValueAttribute maps a dxbc.SystemValue to the Metal stage
// attribute it binds as a shader argument, grounded in dxmt's
// shader_common.hpp InputAttribute/OutputAttribute tables. The empty
// string return means this package has no Metal input-attribute
// mapping for sv (interpolated tessellation-factor system values have
// no direct function-parameter form); callers skip binding it.
func systemValueAttribute(sv dxbc.SystemValue, stage Stage) (attr, typ string, dt ir.DataType) {
	switch sv {
	case dxbc.SVVertexID:
		return "vertex_id", "uint", ir.DataUint
	case dxbc.SVInstanceID:
		return "instance_id", "uint", ir.DataUint
	case dxbc.SVPrimitiveID:
		return "primitive_id", "uint", ir.DataUint
	case dxbc.SVIsFrontFace:
		return "front_facing", "bool", ir.DataBool
	case dxbc.SVSampleIndex:
		return "sample_id", "uint", ir.DataUint
	case dxbc.SVCoverage:
		return "sample_mask", "uint", ir.DataUint
	case dxbc.SVDispatchThreadID:
		return "thread_position_in_grid", "uint3", ir.DataUint
	case dxbc.SVGroupID:
		return "threadgroup_position_in_grid", "uint3", ir.DataUint
	case dxbc.SVGroupThreadID:
		return "thread_position_in_threadgroup", "uint3", ir.DataUint
	case dxbc.SVGroupIndex:
		return "thread_index_in_threadgroup", "uint", ir.DataUint
	case dxbc.SVPosition:
		if stage == StageFragment {
			return "position", "float4", ir.DataFloat
		}
		return "", "", ir.DataFloat
	case dxbc.SVOutputControlPointID:
		return "thread_index_in_threadgroup", "uint", ir.DataUint
	default:
		return "", "", ir.DataFloat
	}
}

// resourceAIRType renders the AIR handle type a bound SRV/UAV range
// uses, from its declared dimension and first-component return-type
// code (the remaining three codes only matter for per-component
// reinterpretation, which this package's texture intrinsics don't
// model).
func resourceAIRType(dim ir.ResourceDimension, returnCode uint8) string {
	elem := resourceElementType(returnCode)
	switch dim {
	case ir.ResDimBuffer:
		return "device " + elem + "*"
	case ir.ResDimTexture1D:
		return "texture1d<" + elem + ">"
	case ir.ResDimTexture1DArray:
		return "texture1d_array<" + elem + ">"
	case ir.ResDimTexture2D:
		return "texture2d<" + elem + ">"
	case ir.ResDimTexture2DArray:
		return "texture2d_array<" + elem + ">"
	case ir.ResDimTexture2DMS:
		return "texture2d_ms<" + elem + ">"
	case ir.ResDimTexture2DMSArray:
		return "texture2d_ms_array<" + elem + ">"
	case ir.ResDimTexture3D:
		return "texture3d<" + elem + ">"
	case ir.ResDimTextureCube:
		return "texturecube<" + elem + ">"
	case ir.ResDimTextureCubeArray:
		return "texturecube_array<" + elem + ">"
	case ir.ResDimRawBuffer, ir.ResDimStructuredBuffer:
		return "device " + elem + "*"
	default:
		return "device " + elem + "*"
	}
}

// resourceElementType mirrors ir.resourceReturnDataType's DXBC
// RESOURCE_RETURN_TYPE codes, rendered as the Metal scalar name a
// texture/buffer handle type parameterizes over instead of the
// vector-register scalarType spelling.
func resourceElementType(code uint8) string {
	switch code {
	case 1, 2, 5: // UNORM, SNORM, FLOAT
		return "float"
	case 3: // SINT
		return "int"
	case 4: // UINT
		return "uint"
	default:
		return "uint"
	}
}
