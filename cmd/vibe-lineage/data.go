package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lineage/internal/barcode"
	"github.com/inodb/vibe-lineage/internal/duckdb"
	"github.com/inodb/vibe-lineage/internal/reference"
)

func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", key, err))
	}
}

// loadMarkers loads the marker table named by data.markers.
func loadMarkers() (*barcode.Table, error) {
	path := viper.GetString("data.markers")
	table, err := barcode.LoadTable(path)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded marker table",
		zap.String("path", path),
		zap.Int("markers", table.MarkerCount()),
		zap.Int("positions", len(table.Positions())))
	return table, nil
}

// openReferenceStore opens the DuckDB store named by reference.db and
// (re)loads the samples table named by data.samples unless the store
// already holds that file's content.
func openReferenceStore() (*duckdb.Store, error) {
	path := viper.GetString("data.samples")
	fp, err := duckdb.StatFile(path)
	if err != nil {
		return nil, fmt.Errorf("samples table: %w", err)
	}

	store, err := duckdb.Open(viper.GetString("reference.db"))
	if err != nil {
		return nil, err
	}

	if store.Valid(fp) {
		logger.Debug("reference store is up to date", zap.String("db", store.Path()))
		return store, nil
	}

	d, err := reference.LoadDataset(path)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := store.Load(d, fp); err != nil {
		store.Close()
		return nil, fmt.Errorf("load reference store: %w", err)
	}
	logger.Debug("loaded reference samples",
		zap.String("path", path),
		zap.Int("samples", d.Len()))

	return store, nil
}

// createOutput returns stdout for an empty path, else a new file. The
// returned close closes the file once; later calls return nil, so it can be
// deferred for the error paths next to the checked close on success.
func createOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	closed := false
	return f, func() error {
		if closed {
			return nil
		}
		closed = true
		return f.Close()
	}, nil
}
