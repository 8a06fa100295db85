package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdataDir = "../../testdata"

func testdata(name string) string {
	return filepath.Join(testdataDir, name)
}

// runCLI runs the command line with the test marker and samples tables and
// an empty home directory.
func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("VIBE_LINEAGE_DATA_MARKERS", testdata("levels.tsv"))
	t.Setenv("VIBE_LINEAGE_DATA_SAMPLES", testdata("samples_data.tsv"))

	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestGenotype_TSV(t *testing.T) {
	code, stdout, stderr := runCLI(t, "genotype", testdata("lineage.vcf"))
	require.Equal(t, ExitSuccess, code, stderr)

	got := lines(stdout)
	require.Len(t, got, 5)
	assert.Equal(t, "Sample\tlevel_1\tlevel_2\tlevel_3\tlevel_4\tlevel_5", got[0])
	assert.Equal(t, "SRR_L2\tL2\tL2.2 (modern)\tL2.2.1\tL2.2.1.1\tL2.2.1.1.1", got[1])
	assert.True(t, strings.HasPrefix(got[2], "SRR_HET\t"))
	assert.Equal(t, "SRR_L4\tL4\tL4.2\tL4.2.1\t\t", got[3])
	assert.Equal(t, "SRR_NOCALL\tL4\tL4.9\t\t\t", got[4])
	assert.Contains(t, stderr, "Genotyped 4 samples from 1 files")
}

func TestGenotype_CSVToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "lineages.csv")
	code, stdout, stderr := runCLI(t, "genotype", "-f", "csv", "-o", out, testdata("lineage.vcf.gz"))
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	got := lines(string(data))
	require.Len(t, got, 5)
	assert.Equal(t, "Sample,level_1,level_2,level_3,level_4,level_5", got[0])
	assert.Equal(t, "SRR_L2,L2,L2.2 (modern),L2.2.1,L2.2.1.1,L2.2.1.1.1", got[1])
}

func TestGenotype_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no files", []string{"genotype"}},
		{"unknown format", []string{"genotype", "-f", "json", testdata("lineage.vcf")}},
		{"unknown flag", []string{"genotype", "--bogus", testdata("lineage.vcf")}},
		{"unknown command", []string{"bogus"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCLI(t, tt.args...)
			assert.Equal(t, ExitUsage, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "Run 'vibe-lineage --help' for usage.")
		})
	}
}

func TestGenotype_AllFilesFailed(t *testing.T) {
	code, stdout, stderr := runCLI(t, "genotype", testdata("levels.tsv"), testdata("not_gzipped.vcf.gz"))
	assert.Equal(t, ExitError, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "levels.tsv")
	assert.Contains(t, stderr, "not_gzipped.vcf.gz")
	assert.Contains(t, stderr, "no file could be genotyped")
}

func TestGenotype_SomeFilesFailed(t *testing.T) {
	code, stdout, stderr := runCLI(t, "genotype", testdata("lineage.vcf"), testdata("missing.vcf"))
	assert.Equal(t, ExitError, code)
	assert.Len(t, lines(stdout), 5, "rows of the readable file are still written")
	assert.Contains(t, stderr, "missing.vcf")
	assert.Contains(t, stderr, "1 of 2 files could not be genotyped")
}

func TestGenotype_EmptyResult(t *testing.T) {
	code, stdout, stderr := runCLI(t, "genotype", testdata("no_markers.vcf"))
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"Sample\tlevel_1\tlevel_2\tlevel_3\tlevel_4\tlevel_5"}, lines(stdout))
	assert.Contains(t, stderr, "Warning: no_markers.vcf")
}

func TestGenotype_MissingMarkerTable(t *testing.T) {
	code, _, stderr := runCLI(t, "genotype", "--markers", testdata("nope.tsv"), testdata("lineage.vcf"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "nope.tsv")
}

func TestMarkers(t *testing.T) {
	code, stdout, stderr := runCLI(t, "markers")
	require.Equal(t, ExitSuccess, code, stderr)

	got := lines(stdout)
	require.Len(t, got, 20)
	assert.Equal(t, "POS\tREF\tALT\tlineage\tlevel", got[0])
	assert.Equal(t, "1000\tG\tA\tL4\t1", got[1])
}

func TestReferenceSummary(t *testing.T) {
	code, stdout, stderr := runCLI(t, "reference", "summary")
	require.Equal(t, ExitSuccess, code, stderr)

	assert.Contains(t, stdout, "Total samples: 8\n")
	assert.Contains(t, stdout, "Main lineage\tSamples\tMean SNPs\n")
	assert.Contains(t, stdout, "L1\t1\t2200.0\n")
	assert.Contains(t, stdout, "L4\t3\t1133.3\n")
	assert.Contains(t, stdout, "M. bovis\t1\t2000.0\n")
	assert.Contains(t, stdout, "Country\tSamples\nEthiopia\t2\nRussia\t3\nUganda\t1\nVietnam\t1\n")
}

func TestReferenceSummary_PersistentStore(t *testing.T) {
	db := filepath.Join(t.TempDir(), "ref", "reference.duckdb")
	for range 2 {
		code, stdout, stderr := runCLI(t, "reference", "summary", "--db", db)
		require.Equal(t, ExitSuccess, code, stderr)
		assert.Contains(t, stdout, "Total samples: 8\n")
	}
	assert.FileExists(t, db)
}

func TestReferenceShow(t *testing.T) {
	code, stdout, stderr := runCLI(t, "reference", "show", "ERR001")
	require.Equal(t, ExitSuccess, code, stderr)

	got := lines(stdout)
	assert.Equal(t, "Sample\tERR001", got[0])
	assert.Contains(t, got, "Country of isolation\tRussia")
	assert.Contains(t, got, "level 2\tL2.2 (modern)")
	assert.Contains(t, got, "SNPs\t1800")
	assert.Contains(t, got, "Total sequences\t2500000")
	assert.Contains(t, got, "Average sequence length\t150.50")
}

func TestReferenceShow_Errors(t *testing.T) {
	code, _, stderr := runCLI(t, "reference", "show", "NOPE")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "NOPE")

	code, _, _ = runCLI(t, "reference", "show")
	assert.Equal(t, ExitUsage, code)
}

func TestReferenceList(t *testing.T) {
	code, stdout, stderr := runCLI(t, "reference", "list", "--lineage", "L4")
	require.Equal(t, ExitSuccess, code, stderr)

	assert.Equal(t, []string{
		"Sample\tCountry of isolation\tlevel 1\tlevel 2\tlevel 3\tlevel 4\tlevel 5\tno. of SNPs",
		"ERR002\tRussia\tL4\tL4.2\tL4.2.1\t\t\t1100",
		"ERR006\tUganda\tL4\tL4.6\t\t\t\t1000",
		"ERR008\tRussia\tL4\tL4.2\tL4.2.1\t\t\t1300",
	}, lines(stdout))
}

func TestReferenceList_Errors(t *testing.T) {
	code, stdout, _ := runCLI(t, "reference", "list")
	assert.Equal(t, ExitUsage, code)
	assert.Empty(t, stdout)

	code, _, _ = runCLI(t, "reference", "list", "-l", "L4", "-f", "pdf")
	assert.Equal(t, ExitUsage, code)

	code, stdout, stderr := runCLI(t, "reference", "list", "-l", "L9")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Len(t, lines(stdout), 1)
}

func TestReferenceExport(t *testing.T) {
	code, stdout, stderr := runCLI(t, "reference", "export", "-f", "csv")
	require.Equal(t, ExitSuccess, code, stderr)

	got := lines(stdout)
	require.Len(t, got, 9)
	assert.True(t, strings.HasPrefix(got[0], "Sample,Country of isolation,level 1,"))
	assert.True(t, strings.HasPrefix(got[1], "ERR001,Russia,L2,L2.2 (modern),"))
}

func TestConfigSetGet(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var out, errOut bytes.Buffer
	code := run([]string{"config", "set", "genotype.workers", "4"}, &out, &errOut)
	require.Equal(t, ExitSuccess, code, errOut.String())
	assert.Contains(t, out.String(), "Set genotype.workers = 4")
	assert.FileExists(t, filepath.Join(home, ".vibe-lineage.yaml"))

	out.Reset()
	code = run([]string{"config", "get", "genotype.workers"}, &out, &errOut)
	require.Equal(t, ExitSuccess, code, errOut.String())
	assert.Equal(t, "4\n", out.String())

	out.Reset()
	code = run([]string{"config"}, &out, &errOut)
	require.Equal(t, ExitSuccess, code, errOut.String())
	assert.Contains(t, out.String(), "workers:")
}

func TestConfigGet_Unset(t *testing.T) {
	code, _, stderr := runCLI(t, "config", "get", "no.such.key")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, `key "no.such.key" is not set`)
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, "vibe-lineage version dev (none) built unknown\n", stdout)
}

func TestInvalidLogLevel(t *testing.T) {
	code, _, stderr := runCLI(t, "--log-level", "loud", "version")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, stderr, `invalid log level "loud"`)
}
