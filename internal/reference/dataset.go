// Package reference loads the reference dataset of genotyped isolates.
package reference

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/inodb/vibe-lineage/internal/barcode"
)

// ErrSampleNotFound is returned when a sample is not in the dataset.
var ErrSampleNotFound = errors.New("sample not found")

// Column names of the samples table.
const (
	ColSample  = "Sample"
	ColCountry = "Country of isolation"
	ColSNPs    = "no. of SNPs"

	colGC             = "%GC"
	colTotalSequences = "Total sequences"
	colAvgLength      = "Average sequence length"
	colReadsMapped    = "%Reads mapped"
	colCoverageDepth  = "Average coverage depth"
)

// LevelColumn returns the column name of a lineage level (1-based).
func LevelColumn(level int) string {
	return "level " + strconv.Itoa(level)
}

// Sample is one isolate of the reference dataset.
type Sample struct {
	Name    string                    `json:"sample"`
	Country string                    `json:"country"`
	Levels  [barcode.NumLevels]string `json:"levels"`
	SNPs    int                       `json:"snps"`

	// Sequencing statistics; zero when the column is absent or empty.
	GC                float64 `json:"gc_percent,omitempty"`
	TotalSequences    int64   `json:"total_sequences,omitempty"`
	AvgSequenceLength float64 `json:"avg_sequence_length,omitempty"`
	ReadsMapped       float64 `json:"reads_mapped_percent,omitempty"`
	CoverageDepth     float64 `json:"avg_coverage_depth,omitempty"`
}

// MainLineage returns the level-1 lineage of the sample.
func (s Sample) MainLineage() string {
	return s.Levels[0]
}

// Dataset is the loaded samples table. The raw header and records are kept
// so the table can be exported unchanged.
type Dataset struct {
	header  []string
	records [][]string
	samples []Sample
}

// Header returns the column names in file order.
func (d *Dataset) Header() []string {
	return d.header
}

// Records returns the raw rows in file order, padded to the header width.
func (d *Dataset) Records() [][]string {
	return d.records
}

// Samples returns all samples in file order.
func (d *Dataset) Samples() []Sample {
	return d.samples
}

// Len returns the number of samples.
func (d *Dataset) Len() int {
	return len(d.samples)
}

// LoadDataset loads a tab-separated samples table.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open samples table: %w", err)
	}
	defer f.Close()

	return ParseDataset(f)
}

// ParseDataset reads a samples table. The header must name the Sample,
// country, level 1 to 5 and SNP count columns; the sequencing statistics
// columns are optional.
func ParseDataset(r io.Reader) (*Dataset, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read samples table: %w", err)
		}
		return nil, fmt.Errorf("samples table: empty file")
	}
	header := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")

	cols := make(map[string]int, len(header))
	for i, name := range header {
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}

	required := []string{ColSample, ColCountry, ColSNPs}
	for l := 1; l <= barcode.NumLevels; l++ {
		required = append(required, LevelColumn(l))
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("samples table: missing %q column", name)
		}
	}

	d := &Dataset{header: header}
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) > len(header) {
			return nil, fmt.Errorf("samples table line %d: %d fields, header has %d", lineNum, len(fields), len(header))
		}
		for len(fields) < len(header) {
			fields = append(fields, "")
		}

		s, err := parseSample(fields, cols)
		if err != nil {
			return nil, fmt.Errorf("samples table line %d: %w", lineNum, err)
		}
		if s.Name == "" {
			return nil, fmt.Errorf("samples table line %d: empty sample name", lineNum)
		}

		d.samples = append(d.samples, s)
		d.records = append(d.records, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read samples table: %w", err)
	}

	return d, nil
}

func parseSample(fields []string, cols map[string]int) (Sample, error) {
	get := func(name string) string {
		i, ok := cols[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(fields[i])
	}

	s := Sample{
		Name:    get(ColSample),
		Country: get(ColCountry),
	}
	for l := 1; l <= barcode.NumLevels; l++ {
		s.Levels[l-1] = get(LevelColumn(l))
	}

	snps, err := parseNumber(get(ColSNPs))
	if err != nil {
		return s, fmt.Errorf("invalid %s: %w", ColSNPs, err)
	}
	s.SNPs = int(snps)

	total, err := parseNumber(get(colTotalSequences))
	if err != nil {
		return s, fmt.Errorf("invalid %s: %w", colTotalSequences, err)
	}
	s.TotalSequences = int64(total)

	for _, f := range []struct {
		col string
		dst *float64
	}{
		{colGC, &s.GC},
		{colAvgLength, &s.AvgSequenceLength},
		{colReadsMapped, &s.ReadsMapped},
		{colCoverageDepth, &s.CoverageDepth},
	} {
		v, err := parseNumber(get(f.col))
		if err != nil {
			return s, fmt.Errorf("invalid %s: %w", f.col, err)
		}
		*f.dst = v
	}

	return s, nil
}

// parseNumber parses a numeric cell. Empty and NA cells are zero; counts
// written as floats ("1234.0") are accepted.
func parseNumber(v string) (float64, error) {
	switch v {
	case "", "NA", "NaN", "nan":
		return 0, nil
	}
	return strconv.ParseFloat(v, 64)
}
