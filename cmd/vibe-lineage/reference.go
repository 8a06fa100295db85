package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lineage/internal/barcode"
	"github.com/inodb/vibe-lineage/internal/output"
	"github.com/inodb/vibe-lineage/internal/reference"
)

func newReferenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reference",
		Short: "Query the reference dataset",
		Long: `Query the reference dataset of genotyped isolates (config: data.samples).

The samples are loaded into a DuckDB database, in memory unless --db (config:
reference.db) names a file, in which case they are reloaded only when the
samples table changes.`,
		Example: `  vibe-lineage reference summary
  vibe-lineage reference show ERR2510337
  vibe-lineage reference list --lineage L4 -f csv
  vibe-lineage reference export -f csv -o dataset.csv`,
	}

	cmd.PersistentFlags().String("db", "", "DuckDB database file (config: reference.db)")
	bindFlag("reference.db", cmd.PersistentFlags().Lookup("db"))

	cmd.AddCommand(newReferenceSummaryCmd())
	cmd.AddCommand(newReferenceShowCmd())
	cmd.AddCommand(newReferenceListCmd())
	cmd.AddCommand(newReferenceExportCmd())

	return cmd
}

func newReferenceSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show sample counts and mean SNP counts per lineage and country",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openReferenceStore()
			if err != nil {
				return err
			}
			defer store.Close()

			sum, err := store.Summary()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total samples: %d\n\n", sum.TotalSamples)

			lineages := make([][]string, len(sum.Lineages))
			for i, l := range sum.Lineages {
				lineages[i] = []string{l.Lineage, strconv.Itoa(l.Samples), strconv.FormatFloat(l.MeanSNPs, 'f', 1, 64)}
			}
			if err := output.WriteTable(output.NewTabWriter(out), []string{"Main lineage", "Samples", "Mean SNPs"}, lineages); err != nil {
				return err
			}
			fmt.Fprintln(out)

			countries := make([][]string, len(sum.Countries))
			for i, c := range sum.Countries {
				countries[i] = []string{c.Country, strconv.Itoa(c.Samples)}
			}
			return output.WriteTable(output.NewTabWriter(out), []string{"Country", "Samples"}, countries)
		},
	}
}

func newReferenceShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <sample>",
		Short: "Show one sample of the reference dataset",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openReferenceStore()
			if err != nil {
				return err
			}
			defer store.Close()

			s, err := store.LookupSample(args[0])
			if err != nil {
				return err
			}

			rows := [][]string{{reference.ColCountry, s.Country}}
			for l := 1; l <= barcode.NumLevels; l++ {
				if s.Levels[l-1] != "" {
					rows = append(rows, []string{reference.LevelColumn(l), s.Levels[l-1]})
				}
			}
			rows = append(rows,
				[]string{"SNPs", strconv.Itoa(s.SNPs)},
				[]string{"GC %", strconv.FormatFloat(s.GC, 'f', -1, 64)},
				[]string{"Total sequences", strconv.FormatInt(s.TotalSequences, 10)},
				[]string{"Average sequence length", strconv.FormatFloat(s.AvgSequenceLength, 'f', 2, 64)},
				[]string{"Mapped reads %", strconv.FormatFloat(s.ReadsMapped, 'f', 2, 64)},
				[]string{"Average coverage depth", strconv.FormatFloat(s.CoverageDepth, 'f', 2, 64)},
			)
			return output.WriteTable(output.NewTabWriter(cmd.OutOrStdout()), []string{reference.ColSample, s.Name}, rows)
		},
	}
}

// listColumns is the header of a lineage listing.
var listColumns = []string{
	reference.ColSample, reference.ColCountry,
	reference.LevelColumn(1), reference.LevelColumn(2), reference.LevelColumn(3),
	reference.LevelColumn(4), reference.LevelColumn(5),
	reference.ColSNPs,
}

func newReferenceListCmd() *cobra.Command {
	var (
		lineage      string
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "list --lineage <lineage>",
		Short: "List the reference samples of one main lineage",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if lineage == "" {
				return usageError{errors.New("--lineage is required")}
			}
			if err := output.CheckFormat(outputFormat); err != nil {
				return usageError{err}
			}

			store, err := openReferenceStore()
			if err != nil {
				return err
			}
			defer store.Close()

			samples, err := store.SamplesByLineage(lineage)
			if err != nil {
				return err
			}
			rows := make([][]string, len(samples))
			for i, s := range samples {
				rows[i] = append([]string{s.Name, s.Country}, s.Levels[:]...)
				rows[i] = append(rows[i], strconv.Itoa(s.SNPs))
			}

			w, closeOut, err := createOutput(outputFile, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOut()

			tw, err := output.NewWriter(outputFormat, w)
			if err != nil {
				return err
			}
			if err := output.WriteTable(tw, listColumns, rows); err != nil {
				return fmt.Errorf("write samples: %w", err)
			}
			if err := closeOut(); err != nil {
				return fmt.Errorf("close output: %w", err)
			}
			logger.Debug("listed reference samples", zap.String("lineage", lineage), zap.Int("samples", len(samples)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&lineage, "lineage", "l", "", "Main (level 1) lineage, e.g. L4")
	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", output.FormatTSV, "Output format: tsv, csv, xlsx")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func newReferenceExportCmd() *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the reference dataset",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.CheckFormat(outputFormat); err != nil {
				return usageError{err}
			}

			d, err := reference.LoadDataset(viper.GetString("data.samples"))
			if err != nil {
				return err
			}

			w, closeOut, err := createOutput(outputFile, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOut()

			tw, err := output.NewWriter(outputFormat, w)
			if err != nil {
				return err
			}
			if err := output.WriteTable(tw, d.Header(), d.Records()); err != nil {
				return fmt.Errorf("write dataset: %w", err)
			}
			return closeOut()
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", output.FormatTSV, "Output format: tsv, csv, xlsx")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
