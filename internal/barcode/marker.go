// Package barcode provides the curated lineage marker table.
package barcode

import (
	"sort"
)

// NumLevels is the number of hierarchical classification levels.
const NumLevels = 5

// Marker is a single diagnostic SNP for a lineage at one level.
type Marker struct {
	Pos     int64  // 1-based position on the reference genome
	Ref     string // Reference allele
	Alt     string // Alternate allele
	Lineage string // Lineage label, e.g. "L4.2" or "L2.2 (modern)"
	Level   int    // Classification level, 1 (main lineage) to 5
}

// markerKey is the exact-match key used for level lookups.
type markerKey struct {
	pos      int64
	ref, alt string
}

// Index holds the markers of a single level in table order.
type Index struct {
	Level   int
	Records []Marker

	byKey map[markerKey][]int
}

func newIndex(level int) *Index {
	return &Index{
		Level: level,
		byKey: make(map[markerKey][]int),
	}
}

func (ix *Index) add(m Marker) {
	k := markerKey{m.Pos, m.Ref, m.Alt}
	ix.byKey[k] = append(ix.byKey[k], len(ix.Records))
	ix.Records = append(ix.Records, m)
}

// Len returns the number of markers at this level.
func (ix *Index) Len() int {
	return len(ix.Records)
}

// Lookup returns the lineage labels whose marker exactly matches
// (pos, ref, alt), in table order. Alleles are compared case-sensitively.
func (ix *Index) Lookup(pos int64, ref, alt string) []string {
	idx, ok := ix.byKey[markerKey{pos, ref, alt}]
	if !ok {
		return nil
	}
	labels := make([]string, len(idx))
	for i, j := range idx {
		labels[i] = ix.Records[j].Lineage
	}
	return labels
}

// Positions returns marker positions aligned with Records.
func (ix *Index) Positions() []int64 {
	out := make([]int64, len(ix.Records))
	for i, m := range ix.Records {
		out[i] = m.Pos
	}
	return out
}

// Refs returns reference alleles aligned with Records.
func (ix *Index) Refs() []string {
	out := make([]string, len(ix.Records))
	for i, m := range ix.Records {
		out[i] = m.Ref
	}
	return out
}

// Alts returns alternate alleles aligned with Records.
func (ix *Index) Alts() []string {
	out := make([]string, len(ix.Records))
	for i, m := range ix.Records {
		out[i] = m.Alt
	}
	return out
}

// Lineages returns lineage labels aligned with Records.
func (ix *Index) Lineages() []string {
	out := make([]string, len(ix.Records))
	for i, m := range ix.Records {
		out[i] = m.Lineage
	}
	return out
}

// Table is the full marker table split by level.
// A Table is immutable once loaded and safe for concurrent use.
type Table struct {
	levels    [NumLevels]*Index
	positions map[int64]struct{}
	markers   []Marker
}

func newTable() *Table {
	t := &Table{positions: make(map[int64]struct{})}
	for i := range t.levels {
		t.levels[i] = newIndex(i + 1)
	}
	return t
}

func (t *Table) add(m Marker) {
	t.levels[m.Level-1].add(m)
	t.positions[m.Pos] = struct{}{}
	t.markers = append(t.markers, m)
}

// Level returns the index for level (1-based). It panics if level is
// outside 1..NumLevels.
func (t *Table) Level(level int) *Index {
	return t.levels[level-1]
}

// Lookup returns the labels of level markers exactly matching (pos, ref, alt).
func (t *Table) Lookup(level int, pos int64, ref, alt string) []string {
	return t.Level(level).Lookup(pos, ref, alt)
}

// HasPosition reports whether any level has a marker at pos.
func (t *Table) HasPosition(pos int64) bool {
	_, ok := t.positions[pos]
	return ok
}

// Positions returns the distinct marker positions of all levels, sorted.
func (t *Table) Positions() []int64 {
	out := make([]int64, 0, len(t.positions))
	for p := range t.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Markers returns all markers in table order.
func (t *Table) Markers() []Marker {
	return t.markers
}

// MarkerCount returns the total number of markers.
func (t *Table) MarkerCount() int {
	return len(t.markers)
}
