package genotype

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-lineage/internal/barcode"
	"github.com/inodb/vibe-lineage/internal/vcf"
)

const vcfHeader = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT"

// fixtureRows are the expected rows of testdata/lineage.vcf, sorted.
var fixtureRows = []Row{
	{Sample: "SRR_L2", Levels: [5]string{"L2", "L2.2 (modern)", "L2.2.1", "L2.2.1.1", "L2.2.1.1.1"}},
	{Sample: "SRR_HET", Levels: [5]string{"L2" + WarningSuffix + ", L4", "L4.9", "", "", ""}},
	{Sample: "SRR_L4", Levels: [5]string{"L4", "L4.2", "L4.2.1", "", ""}},
	{Sample: "SRR_NOCALL", Levels: [5]string{"L4", "L4.9", "", "", ""}},
}

func loadFixtureTable(t *testing.T) *barcode.Table {
	t.Helper()
	tbl, err := barcode.LoadTable(findTestFile(t, "levels.tsv"))
	require.NoError(t, err)
	return tbl
}

// vcfSource builds an in-memory VCF with the given samples and data lines.
// Each line is "POS REF ALT GT..." separated by spaces.
func vcfSource(name string, samples []string, lines ...string) Source {
	var b strings.Builder
	b.WriteString(vcfHeader)
	for _, s := range samples {
		b.WriteString("\t" + s)
	}
	b.WriteString("\n")
	for _, l := range lines {
		f := strings.Fields(l)
		b.WriteString("NC_000962.3\t" + f[0] + "\t.\t" + f[1] + "\t" + f[2] + "\t.\tPASS\t.\tGT")
		for _, gt := range f[3:] {
			b.WriteString("\t" + gt)
		}
		b.WriteString("\n")
	}
	return stringSource(name, b.String())
}

func stringSource(name, content string) Source {
	return Source{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func withRows(rows []Row, source string) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		r.Source = source
		out[i] = r
	}
	return out
}

func TestGenotypeFile_Fixture(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	rows, err := g.GenotypeFile(FileSource(findTestFile(t, "lineage.vcf")))
	require.NoError(t, err)
	assert.Equal(t, withRows(fixtureRows, "lineage.vcf"), rows)
}

func TestGenotypeFile_GzipFixture(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	rows, err := g.GenotypeFile(FileSource(findTestFile(t, "lineage.vcf.gz")))
	require.NoError(t, err)
	assert.Equal(t, withRows(fixtureRows, "lineage.vcf.gz"), rows)
}

// A call at one L4 marker position that does not carry the marker allele
// leaves "L4" unmatched, so it is injected and reported once.
func TestGenotypeFile_L4CallWithoutMarkerAllele(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	rows, err := g.GenotypeFile(vcfSource("s.vcf", []string{"S"},
		"1000 G A 0",
	))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "L4", rows[0].Levels[0])
}

func TestGenotypeFile_OneL4MarkerMatched(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	rows, err := g.GenotypeFile(vcfSource("s.vcf", []string{"S"},
		"1000 G A 1",
		"1100 C T 0",
		"3100 G T 1",
		"3200 A C 1",
	))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "L1", rows[0].Levels[0])
}

func TestGenotypeFile_L22Collision(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	rows, err := g.GenotypeFile(vcfSource("s.vcf", []string{"BOTH", "MODERN1", "ANCIENT1"},
		"4000 G A 1 1 1",
		"4100 C T 1 1 1",
		"5000 A G 1 1 0",
		"5100 T C 1 0 0",
		"5200 G C 1 0 1",
		"5300 C G 1 0 0",
	))
	require.NoError(t, err)

	byName := map[string]Row{}
	for _, r := range rows {
		byName[r.Sample] = r
	}
	assert.Equal(t, "L2.2 (modern)", byName["BOTH"].Levels[1])
	assert.Equal(t, "L2.2 (modern)", byName["MODERN1"].Levels[1])
	assert.Equal(t, "L2.2 (ancient)"+WarningSuffix, byName["ANCIENT1"].Levels[1])
}

func TestGenotypeFile_L8SingleMarker(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	rows, err := g.GenotypeFile(vcfSource("s.vcf", []string{"S"},
		"1000 G A 1",
		"1100 C T 1",
		"3000 C A 1",
	))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "L8", rows[0].Levels[0])
}

func TestGenotypeFile_NoCrossSampleLeakage(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	lines := []string{
		"1000 G A 1 0",
		"1100 C T 1 0",
		"2000 A G 1 1",
		"2100 T C 1 0",
		"5000 A G 1 1",
	}
	together, err := g.GenotypeFile(vcfSource("both.vcf", []string{"A", "B"}, lines...))
	require.NoError(t, err)

	var onlyA []string
	for _, l := range lines {
		f := strings.Fields(l)
		onlyA = append(onlyA, strings.Join(f[:4], " "))
	}
	alone, err := g.GenotypeFile(vcfSource("both.vcf", []string{"A"}, onlyA...))
	require.NoError(t, err)
	require.Len(t, alone, 1)

	for _, r := range together {
		if r.Sample == "A" {
			assert.Equal(t, alone[0], r)
			return
		}
	}
	t.Fatal("sample A missing")
}

func TestGenotypeFile_Errors(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	tests := []struct {
		name string
		src  Source
		kind error
	}{
		{"unsupported extension", stringSource("calls.txt", "whatever"), ErrUnsupportedFileType},
		{"declared gzip", stringSource("calls.vcf.gz", vcfHeader+"\tS\n"), ErrNotCompressed},
		{"no header", stringSource("calls.vcf", "##fileformat=VCFv4.2\n"), ErrMalformed},
		{"short line", stringSource("calls.vcf", vcfHeader+"\tS\nchr\t1000\t.\tG\tA\n"), ErrMalformed},
		{"bad genotype", vcfSource("calls.vcf", []string{"S"}, "1000 G A 7"), ErrMalformed},
		{"no marker positions", vcfSource("calls.vcf", []string{"S"}, "999 G A 1"), ErrEmptyResult},
		{"missing file", FileSource(filepath.Join(t.TempDir(), "gone.vcf")), ErrNoInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := g.GenotypeFile(tt.src)
			require.Error(t, err)
			assert.Nil(t, rows)
			assert.ErrorIs(t, err, tt.kind)

			var fe *FileError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.src.Name, fe.File)
		})
	}
}

func TestGenotypeFile_ParseErrorIsPreserved(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	_, err := g.GenotypeFile(stringSource("calls.vcf", vcfHeader+"\tS\nchr\t1000\t.\tG\tA\n"))
	var pe *vcf.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Line)
}

type closeCounter struct {
	io.Reader
	closed *atomic.Int32
}

func (c closeCounter) Close() error {
	c.closed.Add(1)
	return nil
}

func TestGenotypeFile_ClosesInputOnAllPaths(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	var closed atomic.Int32
	src := func(name, content string) Source {
		return Source{Name: name, Open: func() (io.ReadCloser, error) {
			return closeCounter{strings.NewReader(content), &closed}, nil
		}}
	}

	_, _ = g.GenotypeFile(src("ok.vcf", vcfHeader+"\tS\nchr\t1000\t.\tG\tA\t.\t.\t.\tGT\t1\n"))
	_, _ = g.GenotypeFile(src("bad.vcf", "garbage\n"))
	_, _ = g.GenotypeFile(src("bad.vcf.gz", "garbage\n"))
	_, _ = g.GenotypeFile(src("short.vcf", vcfHeader+"\tS\nchr\t1000\n"))

	assert.Equal(t, int32(4), closed.Load())
}

func TestGenotype_NoInput(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	_, err := g.Genotype(nil)
	assert.ErrorIs(t, err, ErrNoInput)
	assert.Equal(t, "No data was uploaded!", Message(err))
}

func TestGenotype_EmptyResult(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	res, err := g.Genotype([]Source{FileSource(findTestFile(t, "no_markers.vcf"))})
	require.NoError(t, err)

	assert.True(t, res.Empty())
	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Failures)
	require.Len(t, res.Warnings, 1)
	assert.ErrorIs(t, res.Warnings[0], ErrEmptyResult)
	assert.Equal(t, "No genotypes were called", Message(res.Warnings[0]))
}

func TestGenotype_MultiFileBatch(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	second := vcfSource("second.vcf", []string{"X1", "X2"},
		"1000 G A 1 0",
		"1100 C T 1 0",
		"3100 G T 1 0",
		"3200 A C 1 0",
	)

	res, err := g.Genotype([]Source{
		FileSource(findTestFile(t, "lineage.vcf")),
		second,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Failures)
	assert.NotEmpty(t, res.RunID)

	want := append(withRows(fixtureRows, "lineage.vcf"),
		Row{Sample: "X1", Levels: [5]string{"L1", "L4.9"}, Source: "second.vcf"},
		Row{Sample: "X2", Levels: [5]string{"L4", "L4.9"}, Source: "second.vcf"},
	)
	assert.Equal(t, want, res.Rows)
}

func TestGenotype_DuplicateSamplesAcrossFiles(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	path := findTestFile(t, "lineage.vcf")
	res, err := g.Genotype([]Source{FileSource(path), FileSource(path)})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2*len(fixtureRows))
}

func TestGenotype_FailureDoesNotAbortBatch(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))

	res, err := g.Genotype([]Source{
		stringSource("notes.txt", "hello"),
		stringSource("broken.vcf.gz", "plain text"),
		FileSource(findTestFile(t, "lineage.vcf")),
		stringSource("short.vcf", vcfHeader+"\tS\nchr\t1000\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, withRows(fixtureRows, "lineage.vcf"), res.Rows)
	require.Len(t, res.Failures, 3)
	assert.ErrorIs(t, res.Failures[0], ErrUnsupportedFileType)
	assert.ErrorIs(t, res.Failures[1], ErrNotCompressed)
	assert.ErrorIs(t, res.Failures[2], ErrMalformed)
	assert.Equal(t, "short.vcf", res.Failures[2].File)
}

func TestGenotype_Idempotent(t *testing.T) {
	g := NewGenotyper(loadFixtureTable(t))
	g.SetWorkers(4)

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	data, err := os.ReadFile(findTestFile(t, "lineage.vcf"))
	require.NoError(t, err)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	sources := []Source{
		FileSource(findTestFile(t, "lineage.vcf")),
		stringSource("upload.vcf.gz", gz.String()),
		FileSource(findTestFile(t, "no_markers.vcf")),
	}

	first, err := g.Genotype(sources)
	require.NoError(t, err)
	second, err := g.Genotype(sources)
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)
	assert.Len(t, first.Rows, 2*len(fixtureRows))
	assert.Len(t, first.Warnings, 1)
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		kind    error
		name    string
		message string
	}{
		{ErrNoInput, "no_input", "No data was uploaded!"},
		{ErrUnsupportedFileType, "unsupported_file_type", "Wrong file type!"},
		{ErrNotCompressed, "not_compressed", "File is not gzipped!"},
		{ErrMalformed, "malformed", "VCF file is malformed!"},
		{ErrEmptyResult, "empty_result", "No genotypes were called"},
		{errors.New("boom"), "unknown", "An unknown error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &FileError{File: "f.vcf", Kind: tt.kind}
			assert.Equal(t, tt.name, KindName(err))
			assert.Equal(t, tt.message, Message(err))
		})
	}
}

func TestFileError_Message(t *testing.T) {
	err := &FileError{File: "a.vcf", Kind: ErrMalformed, Err: &vcf.ParseError{Line: 3, Message: "bad"}}
	assert.Equal(t, "a.vcf: input is structurally malformed: vcf parse error at line 3: bad", err.Error())

	err = &FileError{File: "a.txt", Kind: ErrUnsupportedFileType}
	assert.Equal(t, "a.txt: unsupported file type", err.Error())
}

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
