package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-lineage/internal/reference"
)

const sampleColumns = `sample, country, level_1, level_2, level_3, level_4, level_5,
		snps, gc, total_sequences, avg_sequence_length, reads_mapped, coverage_depth`

// stagingTable receives a new dataset before it replaces reference_samples.
const stagingTable = "reference_samples_staging"

// appendSample appends one sample row; seq is its position in the file.
var appendSample = func(a *goduckdb.Appender, seq int, r reference.Sample) error {
	return a.AppendRow(
		r.Name, r.Country,
		r.Levels[0], r.Levels[1], r.Levels[2], r.Levels[3], r.Levels[4],
		int32(r.SNPs), r.GC, r.TotalSequences,
		r.AvgSequenceLength, r.ReadsMapped, r.CoverageDepth,
		int32(seq),
	)
}

// Load replaces the stored samples with the dataset and records the file
// it came from. A failed load leaves the previous samples and source in
// place.
func (s *Store) Load(d *reference.Dataset, fp FileFingerprint) error {
	return s.replace(d.Samples(), fp)
}

// replace appends samples to a staging table with the Appender API, then
// swaps them into reference_samples and records fp in one transaction.
func (s *Store) replace(samples []reference.Sample, fp FileFingerprint) error {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `CREATE OR REPLACE TABLE `+stagingTable+
		` AS SELECT * FROM reference_samples LIMIT 0`); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}
	defer conn.ExecContext(ctx, `DROP TABLE IF EXISTS `+stagingTable)

	if err := appendSamples(conn, stagingTable, samples); err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reference_samples`); err != nil {
		return fmt.Errorf("clear samples: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO reference_samples SELECT * FROM `+stagingTable); err != nil {
		return fmt.Errorf("copy samples: %w", err)
	}
	if err := setSource(ctx, tx, fp); err != nil {
		return err
	}
	return tx.Commit()
}

func appendSamples(conn *sql.Conn, table string, samples []reference.Sample) error {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i, r := range samples {
		if err := appendSample(appender, i, r); err != nil {
			return fmt.Errorf("append sample %s: %w", r.Name, err)
		}
	}

	return appender.Flush()
}

// SampleCount returns the number of stored samples.
func (s *Store) SampleCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM reference_samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

// LookupSample returns the sample with the given name. When the name
// occurs more than once the first row of the file wins.
func (s *Store) LookupSample(name string) (reference.Sample, error) {
	row := s.db.QueryRow(`SELECT `+sampleColumns+`
		FROM reference_samples
		WHERE sample=?
		ORDER BY seq
		LIMIT 1`, name)

	r, err := scanSample(row)
	if errors.Is(err, sql.ErrNoRows) {
		return reference.Sample{}, fmt.Errorf("%w: %s", reference.ErrSampleNotFound, name)
	}
	if err != nil {
		return reference.Sample{}, fmt.Errorf("query sample: %w", err)
	}
	return r, nil
}

// SamplesByLineage returns the samples whose level-1 lineage is lineage,
// ordered by sample name.
func (s *Store) SamplesByLineage(lineage string) ([]reference.Sample, error) {
	rows, err := s.db.Query(`SELECT `+sampleColumns+`
		FROM reference_samples
		WHERE level_1=?
		ORDER BY sample`, lineage)
	if err != nil {
		return nil, fmt.Errorf("query by lineage: %w", err)
	}
	defer rows.Close()

	var out []reference.Sample
	for rows.Next() {
		r, err := scanSample(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return out, nil
}

// LineageSummary counts samples and averages their SNP counts per main
// lineage, in lineage display order. Samples without a level-1 call are
// left out.
func (s *Store) LineageSummary() ([]reference.LineageSummary, error) {
	rows, err := s.db.Query(`SELECT level_1, COUNT(*), AVG(snps)
		FROM reference_samples
		WHERE level_1 <> ''
		GROUP BY level_1`)
	if err != nil {
		return nil, fmt.Errorf("query lineage summary: %w", err)
	}
	defer rows.Close()

	var out []reference.LineageSummary
	for rows.Next() {
		var ls reference.LineageSummary
		if err := rows.Scan(&ls.Lineage, &ls.Samples, &ls.MeanSNPs); err != nil {
			return nil, fmt.Errorf("scan lineage summary: %w", err)
		}
		out = append(out, ls)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lineage summary: %w", err)
	}

	reference.SortLineageSummaries(out)
	return out, nil
}

// CountrySummary counts samples per country of isolation, by country name.
// Samples without a country are left out.
func (s *Store) CountrySummary() ([]reference.CountrySummary, error) {
	rows, err := s.db.Query(`SELECT country, COUNT(*)
		FROM reference_samples
		WHERE country <> ''
		GROUP BY country
		ORDER BY country`)
	if err != nil {
		return nil, fmt.Errorf("query country summary: %w", err)
	}
	defer rows.Close()

	var out []reference.CountrySummary
	for rows.Next() {
		var cs reference.CountrySummary
		if err := rows.Scan(&cs.Country, &cs.Samples); err != nil {
			return nil, fmt.Errorf("scan country summary: %w", err)
		}
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate country summary: %w", err)
	}
	return out, nil
}

// Summary combines the sample count and the lineage and country summaries.
func (s *Store) Summary() (*reference.Summary, error) {
	total, err := s.SampleCount()
	if err != nil {
		return nil, err
	}
	lineages, err := s.LineageSummary()
	if err != nil {
		return nil, err
	}
	countries, err := s.CountrySummary()
	if err != nil {
		return nil, err
	}
	return &reference.Summary{
		TotalSamples: total,
		Lineages:     lineages,
		Countries:    countries,
	}, nil
}

// scanSample scans one row selected with sampleColumns.
func scanSample(row interface{ Scan(dest ...any) error }) (reference.Sample, error) {
	var r reference.Sample
	err := row.Scan(
		&r.Name, &r.Country,
		&r.Levels[0], &r.Levels[1], &r.Levels[2], &r.Levels[3], &r.Levels[4],
		&r.SNPs, &r.GC, &r.TotalSequences,
		&r.AvgSequenceLength, &r.ReadsMapped, &r.CoverageDepth,
	)
	return r, err
}
