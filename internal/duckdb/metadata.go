package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}

// Source returns the fingerprint of the samples file the store was last
// loaded from. ok is false when nothing has been loaded.
func (s *Store) Source() (fp FileFingerprint, ok bool, err error) {
	var ns int64
	err = s.db.QueryRow(`SELECT path, size, mod_time_ns FROM dataset_source LIMIT 1`).
		Scan(&fp.Path, &fp.Size, &ns)
	if errors.Is(err, sql.ErrNoRows) {
		return FileFingerprint{}, false, nil
	}
	if err != nil {
		return FileFingerprint{}, false, fmt.Errorf("query dataset source: %w", err)
	}
	fp.ModTime = time.Unix(0, ns)
	return fp, true, nil
}

// Valid reports whether the stored samples were loaded from a file with the
// given size and modification time.
func (s *Store) Valid(fp FileFingerprint) bool {
	stored, ok, err := s.Source()
	if err != nil || !ok {
		return false
	}
	return stored.Size == fp.Size && stored.ModTime.Equal(fp.ModTime)
}

func setSource(ctx context.Context, tx *sql.Tx, fp FileFingerprint) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM dataset_source`); err != nil {
		return fmt.Errorf("clear dataset source: %w", err)
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO dataset_source VALUES (?, ?, ?)`,
		fp.Path, fp.Size, fp.ModTime.UnixNano())
	if err != nil {
		return fmt.Errorf("record dataset source: %w", err)
	}
	return nil
}
