package genotype

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"

	"github.com/inodb/vibe-lineage/internal/barcode"
)

// WarningSuffix marks a lineage supported by only one of its two markers.
const WarningSuffix = " [warning! only 1/2 snp is present]"

// Labels with special handling at levels 1 and 2.
const (
	labelL4         = "L4"
	labelL49        = "L4.9"
	labelL22Modern  = "L2.2 (modern)"
	labelL22Ancient = "L2.2 (ancient)"

	// L8 markers overlap older nomenclature and are never flagged.
	exemptPrefixL1 = "L8"
)

// ResolveLevel1 applies the reference-lineage (L4) decision and the
// two-marker count to the raw level-1 labels of one sample.
func ResolveLevel1(labels []string) []string {
	return countVariants(decideReference(labels, labelL4), exemptPrefix(exemptPrefixL1))
}

// ResolveLevel2 applies the L4.9 decision, the two-marker count and the
// L2.2 nomenclature collapse to the raw level-2 labels of one sample.
// A single "L2.2 (modern)" marker is trusted, a single "L2.2 (ancient)"
// marker is flagged.
func ResolveLevel2(labels []string) []string {
	counted := countVariants(decideReference(labels, labelL49), exemptPrefix(labelL22Modern))
	return collapseL22(counted)
}

// decideReference handles labels of the reference genome's own lineage,
// whose markers carry the ancestral allele. A match at any of its markers
// means the sample is not of that lineage and every occurrence is dropped;
// no match at all is evidence for it and the label is added twice, as if
// both markers had been called.
func decideReference(labels []string, ref string) []string {
	if lo.Contains(labels, ref) {
		return lo.Without(labels, ref)
	}
	out := slices.Clone(labels)
	return append(out, ref, ref)
}

// countVariants merges labels case-insensitively, keeping the first-seen
// spelling and order. A label seen only once gets WarningSuffix unless
// exempt reports true for it. Empty labels are dropped.
func countVariants(labels []string, exempt func(string) bool) []string {
	type group struct {
		label string
		count int
	}

	fold := cases.Fold()
	seen := make(map[string]int)
	var groups []group
	for _, l := range labels {
		if l == "" {
			continue
		}
		k := fold.String(l)
		if i, ok := seen[k]; ok {
			groups[i].count++
			continue
		}
		seen[k] = len(groups)
		groups = append(groups, group{label: l, count: 1})
	}

	out := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.count == 1 && !exempt(g.label) {
			out = append(out, g.label+WarningSuffix)
			continue
		}
		out = append(out, g.label)
	}
	return out
}

func exemptPrefix(prefix string) func(string) bool {
	return func(label string) bool {
		return strings.HasPrefix(label, prefix)
	}
}

// collapseL22 replaces a simultaneous modern and ancient L2.2 call with a
// single unflagged "L2.2 (modern)", appended after the other labels.
func collapseL22(labels []string) []string {
	isL22 := func(want string) func(string) bool {
		return func(l string) bool { return strings.TrimSuffix(l, WarningSuffix) == want }
	}
	if !lo.ContainsBy(labels, isL22(labelL22Modern)) || !lo.ContainsBy(labels, isL22(labelL22Ancient)) {
		return labels
	}

	out := lo.Reject(labels, func(l string, _ int) bool {
		return isL22(labelL22Modern)(l) || isL22(labelL22Ancient)(l)
	})
	return append(out, labelL22Modern)
}

// Resolve builds one row per sample, in first-seen sample order. Levels 1
// and 2 are resolved and joined with ", "; levels 3 to 5 keep their raw
// labels joined with ",".
func Resolve(m *SampleMatches) []Row {
	rows := make([]Row, 0, len(m.Samples()))
	for _, s := range m.Samples() {
		var r Row
		r.Sample = s
		r.Levels[0] = strings.Join(ResolveLevel1(m.Labels(s, 1)), ", ")
		r.Levels[1] = strings.Join(ResolveLevel2(m.Labels(s, 2)), ", ")
		for level := 3; level <= barcode.NumLevels; level++ {
			r.Levels[level-1] = strings.Join(m.Labels(s, level), ",")
		}
		rows = append(rows, r)
	}
	return rows
}
