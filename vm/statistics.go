package vm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Statistics collects decode-side counters: factory decodes per opcode,
// cache behaviour and fusion hits. The recording methods the decoder
// calls are nil-safe so the decoder can run without a collector attached;
// the accessors, Reset, Summary and MarshalJSON require a non-nil
// collector.
type Statistics struct {
	CacheHits    uint64
	CacheMisses  uint64
	FusedCount   uint64
	opcodeCounts [256]uint64
	fusionCounts [256]uint64
}

// NewStatistics creates an empty statistics collector
func NewStatistics() *Statistics {
	return &Statistics{}
}

func (s *Statistics) recordCacheHit() {
	if s == nil {
		return
	}
	s.CacheHits++
}

func (s *Statistics) recordDecode(op Opcode) {
	if s == nil {
		return
	}
	s.CacheMisses++
	s.opcodeCounts[op]++
}

func (s *Statistics) recordFusion(op Opcode) {
	if s == nil {
		return
	}
	s.FusedCount++
	s.fusionCounts[op]++
}

// Reset clears all counters
func (s *Statistics) Reset() {
	*s = Statistics{}
}

// OpcodeCount returns how many times the given opcode was decoded by a
// factory (cache hits do not re-count).
func (s *Statistics) OpcodeCount(op Opcode) uint64 {
	return s.opcodeCounts[op]
}

// FusionCount returns how many times the given synthetic opcode was
// produced by the fusion engine.
func (s *Statistics) FusionCount(op Opcode) uint64 {
	return s.fusionCounts[op]
}

type opcodeStat struct {
	Mnemonic string `json:"mnemonic"`
	Count    uint64 `json:"count"`
}

type statisticsReport struct {
	CacheHits   uint64       `json:"cache_hits"`
	CacheMisses uint64       `json:"cache_misses"`
	FusedCount  uint64       `json:"fused_count"`
	Opcodes     []opcodeStat `json:"opcodes"`
	Fusions     []opcodeStat `json:"fusions"`
}

func collectStats(counts *[256]uint64) []opcodeStat {
	var out []opcodeStat
	for op, n := range counts {
		if n > 0 {
			out = append(out, opcodeStat{Mnemonic: Opcode(op).String(), Count: n})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Mnemonic < out[j].Mnemonic
	})
	return out
}

// MarshalJSON renders the statistics as a JSON report
func (s *Statistics) MarshalJSON() ([]byte, error) {
	return json.Marshal(statisticsReport{
		CacheHits:   s.CacheHits,
		CacheMisses: s.CacheMisses,
		FusedCount:  s.FusedCount,
		Opcodes:     collectStats(&s.opcodeCounts),
		Fusions:     collectStats(&s.fusionCounts),
	})
}

// Summary returns a human-readable statistics summary
func (s *Statistics) Summary() string {
	var sb strings.Builder

	sb.WriteString("=== Decode Statistics ===\n")
	fmt.Fprintf(&sb, "Cache hits:   %d\n", s.CacheHits)
	fmt.Fprintf(&sb, "Cache misses: %d\n", s.CacheMisses)
	fmt.Fprintf(&sb, "Fused ops:    %d\n", s.FusedCount)

	if ops := collectStats(&s.opcodeCounts); len(ops) > 0 {
		sb.WriteString("\nDecoded opcodes:\n")
		for _, st := range ops {
			fmt.Fprintf(&sb, "  %-12s %d\n", st.Mnemonic, st.Count)
		}
	}
	if fus := collectStats(&s.fusionCounts); len(fus) > 0 {
		sb.WriteString("\nFusions:\n")
		for _, st := range fus {
			fmt.Fprintf(&sb, "  %-12s %d\n", st.Mnemonic, st.Count)
		}
	}
	return sb.String()
}
