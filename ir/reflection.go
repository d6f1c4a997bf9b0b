package ir

import (
	"fmt"
	"sort"
	"strings"
)

// DebugDump renders si as a stable, human-readable reflection report:
// every declared binding and the temp/indexable-temp register counts,
// sorted by range_id so two runs over the same program produce
// identical output. It exists for the CLI's -dump-reflection flag.
func (si *ShaderInfo) DebugDump() string {
	var sb strings.Builder

	writeSortedCBuffers(&sb, si.CBuffers)
	writeSortedSamplers(&sb, si.Samplers)
	writeSortedSRVs(&sb, si.SRVs)
	writeSortedUAVs(&sb, si.UAVs)
	writeSortedTGSM(&sb, si.TGSM)

	fmt.Fprintf(&sb, "temps: %d\n", si.TempRegisterCount)
	if len(si.IndexableTempSizes) > 0 {
		keys := make([]indexableTempKey, 0, len(si.IndexableTempSizes))
		for k := range si.IndexableTempSizes {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].Phase != keys[j].Phase {
				return keys[i].Phase < keys[j].Phase
			}
			return keys[i].Bank < keys[j].Bank
		})
		for _, k := range keys {
			fmt.Fprintf(&sb, "  indexable_temp phase=%s bank=%d count=%d\n",
				phaseLabel(k.Phase), k.Bank, si.IndexableTempSizes[k])
		}
	}

	if si.ThreadGroupSize != [3]uint32{} {
		fmt.Fprintf(&sb, "thread_group: %d, %d, %d\n", si.ThreadGroupSize[0], si.ThreadGroupSize[1], si.ThreadGroupSize[2])
	}
	if si.Tessellation.HullMaximumThreadsPerPatch > 0 {
		fmt.Fprintf(&sb, "hull_max_threads_per_patch: %d\n", si.Tessellation.HullMaximumThreadsPerPatch)
	}
	if si.Geometry.MaxOutputVertices > 0 {
		fmt.Fprintf(&sb, "gs_max_output_vertices: %d\n", si.Geometry.MaxOutputVertices)
	}

	return sb.String()
}

func phaseLabel(phase uint32) string {
	if phase == PhaseNone {
		return "none"
	}
	return fmt.Sprintf("%d", phase)
}

func writeSortedCBuffers(sb *strings.Builder, m map[uint32]*CBufferInfo) {
	for _, id := range sortedKeys(m) {
		info := m[id]
		fmt.Fprintf(sb, "cbuffer cb%d: size=%d space=%d\n", id, info.Size, info.Space)
	}
}

func writeSortedSamplers(sb *strings.Builder, m map[uint32]*SamplerInfo) {
	for _, id := range sortedKeys(m) {
		info := m[id]
		fmt.Fprintf(sb, "sampler s%d: comparison=%v space=%d\n", id, info.Comparison, info.Space)
	}
}

func writeSortedSRVs(sb *strings.Builder, m map[uint32]*SRVInfo) {
	for _, id := range sortedKeys(m) {
		info := m[id]
		fmt.Fprintf(sb, "srv t%d: dim=%d read=%v sampled=%v compared=%v\n",
			id, info.Dimension, info.Read, info.Sampled, info.Compared)
	}
}

func writeSortedUAVs(sb *strings.Builder, m map[uint32]*UAVInfo) {
	for _, id := range sortedKeys(m) {
		info := m[id]
		fmt.Fprintf(sb, "uav u%d: dim=%d read=%v written=%v with_counter=%v\n",
			id, info.Dimension, info.Read, info.Written, info.WithCounter)
	}
}

func writeSortedTGSM(sb *strings.Builder, m map[uint32]*TGSMInfo) {
	for _, id := range sortedKeys(m) {
		info := m[id]
		fmt.Fprintf(sb, "tgsm g%d: bytes=%d structured=%v stride=%d\n", id, info.SizeBytes, info.Structured, info.Stride)
	}
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
