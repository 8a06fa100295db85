package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-lineage/internal/genotype"
	"github.com/inodb/vibe-lineage/internal/output"
)

func newGenotypeCmd() *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "genotype [flags] <file.vcf[.gz]>...",
		Short: "Assign lineages to the samples of VCF files",
		Long: `Assign lineages to every sample of one or more VCF files.

Files must be named *.vcf or *.vcf.gz. A file that cannot be read is
reported and skipped; the other files are still genotyped.`,
		Example: `  vibe-lineage genotype sample.vcf
  vibe-lineage genotype -f csv -o lineages.csv run1.vcf.gz run2.vcf.gz
  vibe-lineage genotype --workers 4 -f xlsx -o lineages.xlsx calls/*.vcf.gz`,
		Args: requireArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenotype(cmd, args, outputFormat, outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", output.FormatTSV, "Output format: tsv, csv, xlsx")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().Int("workers", 0, "Number of files processed concurrently (config: genotype.workers)")
	bindFlag("genotype.workers", cmd.Flags().Lookup("workers"))

	return cmd
}

func runGenotype(cmd *cobra.Command, paths []string, format, outputFile string) error {
	stderr := cmd.ErrOrStderr()
	if err := output.CheckFormat(format); err != nil {
		return usageError{err}
	}

	table, err := loadMarkers()
	if err != nil {
		return err
	}

	g := genotype.NewGenotyper(table)
	g.SetWorkers(viper.GetInt("genotype.workers"))
	g.SetLogger(logger)

	sources := make([]genotype.Source, len(paths))
	for i, p := range paths {
		sources[i] = genotype.FileSource(p)
	}

	res, err := g.Genotype(sources)
	if err != nil {
		return err
	}

	for _, fe := range res.Warnings {
		fmt.Fprintf(stderr, "Warning: %s: %s\n", fe.File, genotype.Message(fe))
	}
	for _, fe := range res.Failures {
		fmt.Fprintf(stderr, "Error: %s: %s\n", fe.File, genotype.Message(fe))
	}
	if len(res.Failures) == len(sources) {
		return errors.New("no file could be genotyped")
	}
	if res.Empty() {
		fmt.Fprintf(stderr, "Warning: %s\n", genotype.Message(genotype.ErrEmptyResult))
	}

	w, closeOut, err := createOutput(outputFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeOut()

	tw, err := output.NewWriter(format, w)
	if err != nil {
		return err
	}
	if err := output.WriteRows(tw, res.Rows); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if err := closeOut(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	fmt.Fprintf(stderr, "Genotyped %d samples from %d files in %s (run %s)\n",
		len(res.Rows), len(sources)-len(res.Failures), genotype.FormatElapsed(res.Elapsed), res.RunID)

	if len(res.Failures) > 0 {
		return fmt.Errorf("%d of %d files could not be genotyped", len(res.Failures), len(sources))
	}
	return nil
}
