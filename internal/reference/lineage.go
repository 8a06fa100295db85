package reference

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// LineageOrder is the display order of main lineages: human-adapted
// lineages first, then the animal-adapted ecotypes.
var LineageOrder = []string{
	"L1", "L2", "L3", "L4", "L5", "L6", "L7", "L8", "L9",
	"M. bovis",
	"M. caprae",
	"M. microti",
	"M. mungi",
	"M. orygis",
	"M. pinnipedii",
	"M. suricattae",
	"Chimpanzee bacillus",
	"Dassie bacillus",
}

// LineageRank returns the position of lineage in LineageOrder, or
// len(LineageOrder) for lineages outside it.
func LineageRank(lineage string) int {
	if i := lo.IndexOf(LineageOrder, lineage); i >= 0 {
		return i
	}
	return len(LineageOrder)
}

// CompareLineages orders lineages by LineageRank, then by name.
func CompareLineages(a, b string) int {
	if ra, rb := LineageRank(a), LineageRank(b); ra != rb {
		return ra - rb
	}
	return strings.Compare(a, b)
}

// LineageSummary aggregates the samples of one main lineage.
type LineageSummary struct {
	Lineage  string  `json:"lineage"`
	Samples  int     `json:"samples"`
	MeanSNPs float64 `json:"mean_snps"`
}

// CountrySummary counts the samples isolated in one country.
type CountrySummary struct {
	Country string `json:"country"`
	Samples int    `json:"samples"`
}

// Summary describes the whole dataset.
type Summary struct {
	TotalSamples int              `json:"total_samples"`
	Lineages     []LineageSummary `json:"lineages"`
	Countries    []CountrySummary `json:"countries"`
}

// SortLineageSummaries sorts summaries in lineage display order.
func SortLineageSummaries(s []LineageSummary) {
	slices.SortStableFunc(s, func(a, b LineageSummary) int {
		return CompareLineages(a.Lineage, b.Lineage)
	})
}
