package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lineage/internal/genotype"
	"github.com/inodb/vibe-lineage/internal/server"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve lineage genotyping over HTTP",
		Long: `Serve lineage genotyping over HTTP.

Routes:
  GET  /health
  POST /genotype?format=json|tsv|csv|xlsx   multipart field "files"
  GET  /markers?format=tsv|csv|xlsx
  GET  /reference/summary
  GET  /reference/samples/:id`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}

	cmd.Flags().String("addr", "", "Listen address (config: serve.addr)")
	cmd.Flags().String("body-limit", "", "Maximum request size, e.g. 200M (config: serve.body_limit)")
	bindFlag("serve.addr", cmd.Flags().Lookup("addr"))
	bindFlag("serve.body_limit", cmd.Flags().Lookup("body-limit"))

	return cmd
}

func runServe(ctx context.Context) error {
	table, err := loadMarkers()
	if err != nil {
		return err
	}

	g := genotype.NewGenotyper(table)
	g.SetWorkers(viper.GetInt("genotype.workers"))
	g.SetLogger(logger)

	opts := server.Options{
		Logger:    logger,
		BodyLimit: viper.GetString("serve.body_limit"),
	}

	// The reference routes are optional: the server still genotypes without
	// a samples table.
	store, err := openReferenceStore()
	if err != nil {
		logger.Warn("reference dataset unavailable", zap.Error(err))
	} else {
		defer store.Close()
		opts.Store = store
	}

	srv := server.New(g, table, opts)

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start(viper.GetString("serve.addr"))
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}
