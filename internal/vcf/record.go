package vcf

import (
	"fmt"
	"strconv"
	"strings"
)

// Record represents a single data line from a VCF file.
type Record struct {
	Chrom   string   // Chromosome name (e.g., "NC_000962.3")
	Pos     int64    // 1-based genomic position
	ID      string   // Variant identifier
	Ref     string   // Reference allele
	Alt     string   // Comma-separated alternate alleles
	Filter  string   // Filter status (PASS or filter name)
	Format  string   // FORMAT column
	Samples []string // Raw per-sample columns, aligned with the header
}

// Alleles returns the reference allele followed by the alternate alleles,
// so that genotype index i selects Alleles()[i].
func (r *Record) Alleles() []string {
	return append([]string{r.Ref}, strings.Split(r.Alt, ",")...)
}

// GT returns the genotype (first colon-separated value) of sample i.
func (r *Record) GT(i int) string {
	gt, _, _ := strings.Cut(r.Samples[i], ":")
	return gt
}

// ResolveGenotype converts a GT value into allele text.
// No-call tokens (".", "./.", ".|.") return ok=false. Diploid or
// multi-index genotypes resolve every non-missing index and rejoin them
// with the original separator, so heterozygous calls stay composite
// (e.g. "0/1" with alleles [C T] gives "C/T").
func ResolveGenotype(gt string, alleles []string) (allele string, ok bool, err error) {
	switch gt {
	case "", ".", "./.", ".|.":
		return "", false, nil
	}

	sep := ""
	switch {
	case strings.Contains(gt, "/"):
		sep = "/"
	case strings.Contains(gt, "|"):
		sep = "|"
	default:
		a, err := alleleAt(gt, alleles)
		if err != nil {
			return "", false, err
		}
		return a, true, nil
	}

	var resolved []string
	for _, idx := range strings.Split(gt, sep) {
		if idx == "." {
			continue
		}
		a, err := alleleAt(idx, alleles)
		if err != nil {
			return "", false, err
		}
		resolved = append(resolved, a)
	}
	if len(resolved) == 0 {
		return "", false, nil
	}
	return strings.Join(resolved, sep), true, nil
}

func alleleAt(idx string, alleles []string) (string, error) {
	i, err := strconv.Atoi(idx)
	if err != nil {
		return "", fmt.Errorf("invalid genotype index %q", idx)
	}
	if i < 0 || i >= len(alleles) {
		return "", fmt.Errorf("genotype index %d out of range for %d alleles", i, len(alleles))
	}
	return alleles[i], nil
}

// LastAllele returns the right-most allele of a composite call, so "C/T"
// becomes "T". Heterozygous information is discarded: calls on haploid
// bacterial genomes are assumed to be homozygous.
func LastAllele(allele string) string {
	if i := strings.LastIndexAny(allele, "/|"); i >= 0 {
		return allele[i+1:]
	}
	return allele
}
