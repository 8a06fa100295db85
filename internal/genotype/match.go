// Package genotype assigns lineages to samples from their marker calls.
package genotype

import (
	"github.com/inodb/vibe-lineage/internal/barcode"
	"github.com/inodb/vibe-lineage/internal/vcf"
)

// MarkerLookup defines the interface for finding marker labels at a level.
type MarkerLookup interface {
	Lookup(level int, pos int64, ref, alt string) []string
}

// SampleMatches holds the matched lineage labels of every sample, per level.
type SampleMatches struct {
	order  []string
	labels map[string]*[barcode.NumLevels][]string
}

func newSampleMatches() *SampleMatches {
	return &SampleMatches{labels: make(map[string]*[barcode.NumLevels][]string)}
}

// sample returns the level lists of s, registering s on first sight.
func (m *SampleMatches) sample(s string) *[barcode.NumLevels][]string {
	lv, ok := m.labels[s]
	if !ok {
		lv = new([barcode.NumLevels][]string)
		m.labels[s] = lv
		m.order = append(m.order, s)
	}
	return lv
}

// Samples returns sample names in first-seen order.
func (m *SampleMatches) Samples() []string {
	return m.order
}

// Labels returns the matched labels of sample at level (1-based), in
// observation order. Duplicates are kept.
func (m *SampleMatches) Labels(sample string, level int) []string {
	lv, ok := m.labels[sample]
	if !ok {
		return nil
	}
	return lv[level-1]
}

// Match compares every call against the markers of each level. A label is
// recorded when position, reference allele and called allele are all
// identical to a marker. Samples whose calls are all no-calls are still
// registered, with empty lists.
func Match(calls []vcf.Call, markers MarkerLookup) *SampleMatches {
	m := newSampleMatches()

	for _, c := range calls {
		lv := m.sample(c.Sample)
		if c.NoCall {
			continue
		}
		for level := 1; level <= barcode.NumLevels; level++ {
			if labels := markers.Lookup(level, c.Pos, c.Ref, c.Allele); len(labels) > 0 {
				lv[level-1] = append(lv[level-1], labels...)
			}
		}
	}

	return m
}
