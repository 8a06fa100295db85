package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-lineage/internal/output"
)

func newMarkersCmd() *cobra.Command {
	var (
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "markers",
		Short: "Export the marker table",
		Long:  "Export the marker table in long format: one row per marker with POS, REF, ALT, lineage and level.",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.CheckFormat(outputFormat); err != nil {
				return usageError{err}
			}

			table, err := loadMarkers()
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
			if err := output.WriteMarkers(tw, table.Markers()); err != nil {
				return fmt.Errorf("write markers: %w", err)
			}
			return closeOut()
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", output.FormatTSV, "Output format: tsv, csv, xlsx")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}
