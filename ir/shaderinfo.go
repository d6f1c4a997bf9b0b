package ir

import (
	"fmt"

	"github.com/gogpu/dxmtl/dxbc"
)

// CBufferInfo describes one declared constant-buffer range.
type CBufferInfo struct {
	RangeID    uint32
	LowerBound uint32
	Size       uint32 // element count
	Space      uint32
	SizeInVec4 uint32
}

// SamplerInfo describes one declared sampler range.
type SamplerInfo struct {
	RangeID    uint32
	LowerBound uint32
	Space      uint32
	Comparison bool
}

// ResourceDimension mirrors the DXBC RESOURCE_DIMENSION extended
// opcode's values, narrowed to what SRV/UAV declarations use.
type ResourceDimension uint8

const (
	ResDimUnknown ResourceDimension = iota
	ResDimBuffer
	ResDimTexture1D
	ResDimTexture1DArray
	ResDimTexture2D
	ResDimTexture2DArray
	ResDimTexture2DMS
	ResDimTexture2DMSArray
	ResDimTexture3D
	ResDimTextureCube
	ResDimTextureCubeArray
	ResDimRawBuffer
	ResDimStructuredBuffer
)

// SRVInfo describes one declared shader-resource view.
type SRVInfo struct {
	RangeID         uint32
	LowerBound      uint32
	Space           uint32
	Dimension       ResourceDimension
	ReturnType      [4]uint8 // per-component RESOURCE_RETURN_TYPE code
	StructureStride uint32   // valid when Dimension == ResDimStructuredBuffer

	Read     bool
	Sampled  bool
	Compared bool
}

// UAVInfo describes one declared unordered-access view.
type UAVInfo struct {
	RangeID         uint32
	LowerBound      uint32
	Space           uint32
	Dimension       ResourceDimension
	ReturnType      [4]uint8
	StructureStride uint32

	GloballyCoherent bool
	RasterOrdered    bool
	HasCounter       bool

	Read        bool
	Written     bool
	WithCounter bool
}

// TGSMInfo describes one declared thread-group-shared-memory range.
type TGSMInfo struct {
	RangeID    uint32
	SizeBytes  uint32
	Structured bool
	Stride     uint32 // valid when Structured
}

// IOInfo describes one declared input or output register: which
// components it writes/reads (Mask) and, for system-value
// declarations, which dxbc.SystemValue it binds.
type IOInfo struct {
	Register       uint32
	Mask           uint8
	SystemValue    dxbc.SystemValue
	HasSystemValue bool
}

// GlobalFlags mirrors DCL_GLOBAL_FLAGS's bitmask, unpacked for clarity.
type GlobalFlags struct {
	RefactoringAllowed     bool
	ForceEarlyDepthStencil bool
	SkipOptimization       bool
	EnableRawStructuredBuffers bool
	Enable64BitExtensions  bool
}

// TessellationInfo holds hull/domain-shader tessellation parameters,
// populated by the HS-phase declarations.
type TessellationInfo struct {
	Domain                    uint8
	Partitioning              uint8
	OutputPrimitive           uint8
	MaxTessFactor             float32
	InputControlPointCount    uint32
	OutputControlPointCount   uint32
	ForkPhaseInstanceCounts   []uint32
	JoinPhaseInstanceCounts   []uint32

	// HullMaximumThreadsPerPatch is the high-water mark across every
	// fork/join phase's instance count plus the control-point phase's
	// output count; it sizes the Metal threadgroup the hull stage runs
	// in.
	HullMaximumThreadsPerPatch uint32
}

// GeometryInfo holds geometry-shader parameters.
type GeometryInfo struct {
	InputPrimitive      uint8
	OutputTopology      []uint8 // one per declared stream
	MaxOutputVertices   uint32
	InstanceCount       uint32
}

// ShaderInfo is the by-range_id reflection registry declarations
// populate during lifting, and which the CFG builder and AIR emitter
// read back. Each resource-class registry rejects a second declaration
// of the same range_id: multiple declarations of the same range_id are
// a program error.
type ShaderInfo struct {
	CBuffers map[uint32]*CBufferInfo
	Samplers map[uint32]*SamplerInfo
	SRVs     map[uint32]*SRVInfo
	UAVs     map[uint32]*UAVInfo
	TGSM     map[uint32]*TGSMInfo

	// Inputs and Outputs are the declared entry-signature slots: the
	// AIR emitter's signature builder walks these in register order to
	// bind one function parameter (input) or return-struct field
	// (output) per slot.
	Inputs  map[uint32]*IOInfo
	Outputs map[uint32]*IOInfo

	TempRegisterCount uint32
	// IndexableTempSizes maps (phase, bank) to the declared register
	// count of that indexable-temp bank; phase is PhaseNone outside HS.
	IndexableTempSizes map[indexableTempKey]uint32

	Flags GlobalFlags

	ThreadGroupSize [3]uint32 // compute dispatch dims

	Tessellation TessellationInfo
	Geometry     GeometryInfo

	PullModeRegMask uint64 // one bit per input register index

	OutputControlPointRead         bool
	NoControlPointPhasePassthrough bool
	UseCmpExch                     bool
	UseSamplePos                   bool
	UseMsad                        bool

	// ImmediateConstantBufferData holds the raw dwords of any icb
	// (CUSTOMDATA-encoded immediate constant buffer) declared in the
	// program.
	ImmediateConstantBufferData []uint32
}

type indexableTempKey struct {
	Phase uint32
	Bank  uint32
}

// NewShaderInfo returns an empty reflection registry ready for
// declarations to populate.
func NewShaderInfo() *ShaderInfo {
	return &ShaderInfo{
		CBuffers:           make(map[uint32]*CBufferInfo),
		Samplers:           make(map[uint32]*SamplerInfo),
		SRVs:                make(map[uint32]*SRVInfo),
		UAVs:               make(map[uint32]*UAVInfo),
		TGSM:               make(map[uint32]*TGSMInfo),
		Inputs:             make(map[uint32]*IOInfo),
		Outputs:            make(map[uint32]*IOInfo),
		IndexableTempSizes: make(map[indexableTempKey]uint32),
	}
}

// DuplicateRangeError reports a second declaration of a range_id
// already registered in some resource-class registry.
type DuplicateRangeError struct {
	Class   string
	RangeID uint32
}

func (e *DuplicateRangeError) Error() string {
	return fmt.Sprintf("duplicate %s declaration for range_id %d", e.Class, e.RangeID)
}

func (si *ShaderInfo) declareCBuffer(info CBufferInfo) error {
	if _, exists := si.CBuffers[info.RangeID]; exists {
		return &DuplicateRangeError{Class: "constant buffer", RangeID: info.RangeID}
	}
	v := info
	si.CBuffers[info.RangeID] = &v
	return nil
}

func (si *ShaderInfo) declareSampler(info SamplerInfo) error {
	if _, exists := si.Samplers[info.RangeID]; exists {
		return &DuplicateRangeError{Class: "sampler", RangeID: info.RangeID}
	}
	v := info
	si.Samplers[info.RangeID] = &v
	return nil
}

func (si *ShaderInfo) declareSRV(info SRVInfo) error {
	if _, exists := si.SRVs[info.RangeID]; exists {
		return &DuplicateRangeError{Class: "SRV", RangeID: info.RangeID}
	}
	v := info
	si.SRVs[info.RangeID] = &v
	return nil
}

func (si *ShaderInfo) declareUAV(info UAVInfo) error {
	if _, exists := si.UAVs[info.RangeID]; exists {
		return &DuplicateRangeError{Class: "UAV", RangeID: info.RangeID}
	}
	v := info
	si.UAVs[info.RangeID] = &v
	return nil
}

func (si *ShaderInfo) declareTGSM(info TGSMInfo) error {
	if _, exists := si.TGSM[info.RangeID]; exists {
		return &DuplicateRangeError{Class: "TGSM", RangeID: info.RangeID}
	}
	v := info
	si.TGSM[info.RangeID] = &v
	return nil
}

func (si *ShaderInfo) declareInput(info IOInfo) error {
	if _, exists := si.Inputs[info.Register]; exists {
		return &DuplicateRangeError{Class: "input", RangeID: info.Register}
	}
	v := info
	si.Inputs[info.Register] = &v
	return nil
}

func (si *ShaderInfo) declareOutput(info IOInfo) error {
	if _, exists := si.Outputs[info.Register]; exists {
		return &DuplicateRangeError{Class: "output", RangeID: info.Register}
	}
	v := info
	si.Outputs[info.Register] = &v
	return nil
}

// growTempRegisterCount raises TempRegisterCount so it stays one past
// the highest temp register referenced anywhere in the program, per
// invariant on tempRegisterCount.
func (si *ShaderInfo) growTempRegisterCount(register uint32) {
	if register+1 > si.TempRegisterCount {
		si.TempRegisterCount = register + 1
	}
}

func (si *ShaderInfo) growIndexableTemp(phase, bank, count uint32) {
	key := indexableTempKey{Phase: phase, Bank: bank}
	if count > si.IndexableTempSizes[key] {
		si.IndexableTempSizes[key] = count
	}
}

// markSRVRead sets the read-flag side effect of an SRV load.
func (si *ShaderInfo) markSRVRead(rangeID uint32) {
	if srv, ok := si.SRVs[rangeID]; ok {
		srv.Read = true
	}
}

// markSRVSampled sets the sampled (and, for comparison samples,
// compared) side effects.
func (si *ShaderInfo) markSRVSampled(rangeID uint32, compared bool) {
	if srv, ok := si.SRVs[rangeID]; ok {
		srv.Sampled = true
		if compared {
			srv.Compared = true
		}
	}
}

func (si *ShaderInfo) markUAVRead(rangeID uint32) {
	if uav, ok := si.UAVs[rangeID]; ok {
		uav.Read = true
	}
}

func (si *ShaderInfo) markUAVWritten(rangeID uint32) {
	if uav, ok := si.UAVs[rangeID]; ok {
		uav.Written = true
	}
}

// markUAVAtomic sets both read and written, plus with_counter for the
// alloc/consume atomics that touch the UAV's hidden counter.
func (si *ShaderInfo) markUAVAtomic(rangeID uint32, withCounter bool) {
	if uav, ok := si.UAVs[rangeID]; ok {
		uav.Read = true
		uav.Written = true
		if withCounter {
			uav.WithCounter = true
		}
	}
}

// RaiseHullMaximumThreadsPerPatch keeps HullMaximumThreadsPerPatch at
// the high-water mark across phase instance counts. Exported because
// package cfg, not a declaration lift, owns the phase instance-count
// override opcodes.
func (si *ShaderInfo) RaiseHullMaximumThreadsPerPatch(count uint32) {
	if count > si.Tessellation.HullMaximumThreadsPerPatch {
		si.Tessellation.HullMaximumThreadsPerPatch = count
	}
}

func (si *ShaderInfo) markPullMode(register uint32) {
	if register < 64 {
		si.PullModeRegMask |= 1 << register
	}
}
