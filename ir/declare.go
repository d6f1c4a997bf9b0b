package ir

import (
	"math"

	"github.com/gogpu/dxmtl/dxbc"
)

// liftDeclaration handles every DCL_* opcode: it updates l.Info and
// always returns (nil, nil) on success, since declarations never
// become an Instruction (see doc.go). Unrecognized opcodes (there
// should be none once OpcodeTable and this switch agree) fail closed
// with UnsupportedShaderError rather than being silently dropped.
func (l *Lifter) liftDeclaration(inst *dxbc.Instruction) (*Instruction, error) {
	ops := inst.Operands

	switch inst.Opcode {
	case dxbc.OpDclResource:
		dim, retType := l.extendedResourceInfo(inst)
		rangeID, stride := rangeAndSecondary(ops[0])
		return nil, l.Info.declareSRV(SRVInfo{RangeID: rangeID, Dimension: dim, ReturnType: retType, StructureStride: stride})

	case dxbc.OpDclConstantBuffer:
		rangeID, size := rangeAndSecondary(ops[0])
		return nil, l.Info.declareCBuffer(CBufferInfo{RangeID: rangeID, Size: size, SizeInVec4: size})

	case dxbc.OpDclSampler:
		rangeID, _ := rangeAndSecondary(ops[0])
		return nil, l.Info.declareSampler(SamplerInfo{RangeID: rangeID, Comparison: inst.TestNonZero})

	case dxbc.OpDclUAVTyped:
		dim, retType := l.extendedResourceInfo(inst)
		rangeID, _ := rangeAndSecondary(ops[0])
		return nil, l.Info.declareUAV(UAVInfo{RangeID: rangeID, Dimension: dim, ReturnType: retType})

	case dxbc.OpDclUAVRaw:
		rangeID, _ := rangeAndSecondary(ops[0])
		return nil, l.Info.declareUAV(UAVInfo{RangeID: rangeID, Dimension: ResDimRawBuffer})

	case dxbc.OpDclUAVStructured:
		rangeID, _ := rangeAndSecondary(ops[0])
		stride := immVal(ops[1])
		return nil, l.Info.declareUAV(UAVInfo{RangeID: rangeID, Dimension: ResDimStructuredBuffer, StructureStride: stride})

	case dxbc.OpDclTGSMRaw:
		rangeID, size := rangeAndSecondary(ops[0])
		return nil, l.Info.declareTGSM(TGSMInfo{RangeID: rangeID, SizeBytes: size})

	case dxbc.OpDclTGSMStructured:
		rangeID := indexAt(ops[0], 0)
		stride := indexAt(ops[0], 1)
		count := indexAt(ops[0], 2)
		return nil, l.Info.declareTGSM(TGSMInfo{RangeID: rangeID, Structured: true, Stride: stride, SizeBytes: stride * count})

	case dxbc.OpDclTemps:
		if count := immVal(ops[0]); count > 0 {
			l.Info.growTempRegisterCount(count - 1)
		}
		return nil, nil

	case dxbc.OpDclIndexableTemp:
		bank, count := immVal(ops[0]), immVal(ops[1])
		l.Info.growIndexableTemp(l.phase, bank, count)
		return nil, nil

	case dxbc.OpDclGlobalFlags:
		bits := immVal(ops[0])
		l.Info.Flags = GlobalFlags{
			RefactoringAllowed:         bits&0x1 != 0,
			ForceEarlyDepthStencil:     bits&0x2 != 0,
			SkipOptimization:           bits&0x4 != 0,
			EnableRawStructuredBuffers: bits&0x8 != 0,
			Enable64BitExtensions:      bits&0x10 != 0,
		}
		return nil, nil

	case dxbc.OpDclThreadGroup:
		l.Info.ThreadGroupSize = [3]uint32{immVal(ops[0]), immVal(ops[1]), immVal(ops[2])}
		return nil, nil

	case dxbc.OpDclStream:
		return nil, nil

	case dxbc.OpDclGSInputPrimitive:
		l.Info.Geometry.InputPrimitive = uint8(immVal(ops[0]))
		return nil, nil
	case dxbc.OpDclGSOutputPrimitiveTopology:
		l.Info.Geometry.OutputTopology = append(l.Info.Geometry.OutputTopology, uint8(immVal(ops[0])))
		return nil, nil
	case dxbc.OpDclMaxOutputVertexCount:
		l.Info.Geometry.MaxOutputVertices = immVal(ops[0])
		return nil, nil
	case dxbc.OpDclGSInstanceCount:
		l.Info.Geometry.InstanceCount = immVal(ops[0])
		return nil, nil

	case dxbc.OpDclInputControlPointCount:
		l.Info.Tessellation.InputControlPointCount = immVal(ops[0])
		return nil, nil
	case dxbc.OpDclOutputControlPointCount:
		l.Info.Tessellation.OutputControlPointCount = immVal(ops[0])
		return nil, nil
	case dxbc.OpDclTessDomain:
		l.Info.Tessellation.Domain = uint8(immVal(ops[0]))
		return nil, nil
	case dxbc.OpDclTessPartitioning:
		l.Info.Tessellation.Partitioning = uint8(immVal(ops[0]))
		return nil, nil
	case dxbc.OpDclTessOutputPrimitive:
		l.Info.Tessellation.OutputPrimitive = uint8(immVal(ops[0]))
		return nil, nil
	case dxbc.OpDclHSMaxTessFactor:
		l.Info.Tessellation.MaxTessFactor = math.Float32frombits(immVal(ops[0]))
		return nil, nil
	case dxbc.OpDclHSForkPhaseInstanceCount:
		l.Info.Tessellation.ForkPhaseInstanceCounts = append(l.Info.Tessellation.ForkPhaseInstanceCounts, immVal(ops[0]))
		return nil, nil
	case dxbc.OpDclHSJoinPhaseInstanceCount:
		l.Info.Tessellation.JoinPhaseInstanceCounts = append(l.Info.Tessellation.JoinPhaseInstanceCounts, immVal(ops[0]))
		return nil, nil

	case dxbc.OpDclInput, dxbc.OpDclInputSIV, dxbc.OpDclInputSGV,
		dxbc.OpDclInputPS, dxbc.OpDclInputPSSIV, dxbc.OpDclInputPSSGV:
		return nil, l.Info.declareInput(ioInfoFrom(ops[0]))

	case dxbc.OpDclOutput, dxbc.OpDclOutputSIV, dxbc.OpDclOutputSGV:
		return nil, l.Info.declareOutput(ioInfoFrom(ops[0]))

	default:
		return nil, newUnsupportedShaderError(inst.Offset, "unrecognized declaration opcode %s", inst.Opcode.Name())
	}
}

// extendedResourceInfo reads the ExtResourceDim/ExtResourceReturnType
// extended-opcode tokens a resource declaration carries.
func (l *Lifter) extendedResourceInfo(inst *dxbc.Instruction) (ResourceDimension, [4]uint8) {
	var dim ResourceDimension
	var ret [4]uint8
	for _, ext := range inst.Extended {
		switch ext.Kind {
		case dxbc.ExtResourceDim:
			dim = ResourceDimension(ext.ResourceDimension)
		case dxbc.ExtResourceReturnType:
			ret = ext.ResourceReturnTypes
		}
	}
	return dim, ret
}

// rangeAndSecondary reads a two-dimension operand's first index as a
// range_id and its second as a size/stride, per the dcl_constantbuffer
// `cb0[16]` convention (see DESIGN.md for why DCL operands use index
// dimensions to carry these values instead of a dedicated token
// field).
func rangeAndSecondary(o dxbc.Operand) (rangeID, secondary uint32) {
	return indexAt(o, 0), indexAt(o, 1)
}

// indexAt reads the immediate value of the dim-th index dimension of
// o, or 0 if o has no such dimension or it isn't immediate-encoded.
func indexAt(o dxbc.Operand, dim int) uint32 {
	if dim >= len(o.Indices) {
		return 0
	}
	idx := o.Indices[dim]
	if idx.Repr == dxbc.IndexImmediate32 || idx.Repr == dxbc.IndexImmediate64 {
		return uint32(idx.Immediate)
	}
	return 0
}

// ioInfoFrom reads a dcl_input*/dcl_output* operand's register and
// write/read mask, plus (for the _siv/_sgv variants, which decode with
// Type == OperandSystemValue and the system-value code packed into
// SelectionData — see ParseOperand) which system value it binds.
func ioInfoFrom(o dxbc.Operand) IOInfo {
	info := IOInfo{Register: indexAt(o, 0)}
	if o.Selection == dxbc.SelectMask {
		info.Mask = o.SelectionData & 0xf
	} else {
		info.Mask = 0xf
	}
	if o.Type == dxbc.OperandSystemValue {
		info.SystemValue = o.SystemValueKind
		info.HasSystemValue = true
	}
	return info
}

// immVal reads the first literal word of an OperandImmediate32 operand.
func immVal(o dxbc.Operand) uint32 {
	if len(o.ImmediateValues) > 0 {
		return uint32(o.ImmediateValues[0])
	}
	return 0
}
