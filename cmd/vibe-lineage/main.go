// Package main provides the vibe-lineage command-line tool.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// logger is replaced by the root command once log.level is known.
var logger = zap.NewNop()

// usageError marks command-line misuse, reported with ExitUsage.
type usageError struct {
	err error
}

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "Warning: could not load .env: %v\n", err)
	}

	viper.Reset()
	initConfig()

	root := newRootCmd(stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	logger.Sync()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	var ue usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintf(stderr, "Run 'vibe-lineage --help' for usage.\n")
		return ExitUsage
	}
	return ExitError
}

// initConfig reads ~/.vibe-lineage.yaml and VIBE_LINEAGE_* environment
// variables.
func initConfig() {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	viper.SetConfigName(".vibe-lineage")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	viper.SetEnvPrefix("VIBE_LINEAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; defaults apply.
	_ = viper.ReadInConfig()
}

var defaults = map[string]any{
	"data.markers":     "data/levels.tsv",
	"data.samples":     "data/samples_data.tsv",
	"genotype.workers": 1,
	"reference.db":     "",
	"serve.addr":       ":8080",
	"serve.body_limit": "512M",
	"log.level":        "info",
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "vibe-lineage",
		Short: "Lineage genotyping of Mycobacterium tuberculosis complex samples",
		Long: `vibe-lineage assigns hierarchical lineages (levels 1 to 5) to the samples
of VCF files by matching their calls against a marker table.`,
		Example: `  vibe-lineage genotype sample1.vcf sample2.vcf.gz
  vibe-lineage genotype -f xlsx -o lineages.xlsx calls/*.vcf.gz
  vibe-lineage reference summary
  vibe-lineage serve --addr :8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(viper.GetString("log.level"), stderr)
			if err != nil {
				return usageError{err}
			}
			logger = l
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := root.PersistentFlags()
	pf.String("markers", "", "Marker table TSV (config: data.markers)")
	pf.String("samples", "", "Reference samples TSV (config: data.samples)")
	pf.String("log-level", "", "Log level: debug, info, warn, error (config: log.level)")
	bindFlag("data.markers", pf.Lookup("markers"))
	bindFlag("data.samples", pf.Lookup("samples"))
	bindFlag("log.level", pf.Lookup("log-level"))

	root.AddCommand(newGenotypeCmd())
	root.AddCommand(newMarkersCmd())
	root.AddCommand(newReferenceCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  noArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-lineage version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// requireArgs is cobra.MinimumNArgs reporting a usageError.
func requireArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// exactArgs is cobra.ExactArgs reporting a usageError.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.NoArgs(cmd, args); err != nil {
		return usageError{err}
	}
	return nil
}
