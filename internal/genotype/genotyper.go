package genotype

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lineage/internal/barcode"
	"github.com/inodb/vibe-lineage/internal/vcf"
)

// Source is one input file. Open is called once, when the file is
// processed, and the returned reader is always closed afterwards.
type Source struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// FileSource returns a Source reading the file at path.
func FileSource(path string) Source {
	return Source{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// IsSupportedName reports whether name has a .vcf or .vcf.gz extension.
func IsSupportedName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".vcf") || strings.HasSuffix(lower, ".vcf.gz")
}

// Result is the outcome of genotyping a batch of files.
type Result struct {
	RunID    string
	Rows     []Row
	Failures []*FileError // files that could not be processed
	Warnings []*FileError // files without informative calls (ErrEmptyResult)
	Elapsed  time.Duration
}

// Empty reports whether no sample was genotyped.
func (r *Result) Empty() bool {
	return len(r.Rows) == 0
}

// Genotyper assigns lineages to the samples of VCF files.
type Genotyper struct {
	table   *barcode.Table
	workers int
	logger  *zap.Logger
}

// NewGenotyper creates a genotyper for the given marker table.
func NewGenotyper(t *barcode.Table) *Genotyper {
	return &Genotyper{
		table:   t,
		workers: 1,
		logger:  zap.NewNop(),
	}
}

// SetWorkers sets how many files are processed concurrently.
// Values below 1 select one worker.
func (g *Genotyper) SetWorkers(n int) {
	g.workers = max(n, 1)
}

// SetLogger sets the logger for warning and info messages.
func (g *Genotyper) SetLogger(l *zap.Logger) {
	g.logger = l
}

// GenotypeFile genotypes every sample of one file. Rows are sorted by
// level and tagged with the file name. Errors are *FileError.
func (g *Genotyper) GenotypeFile(src Source) ([]Row, error) {
	if !IsSupportedName(src.Name) {
		return nil, &FileError{File: src.Name, Kind: ErrUnsupportedFileType}
	}

	rc, err := src.Open()
	if err != nil {
		return nil, &FileError{File: src.Name, Kind: ErrNoInput, Err: err}
	}
	defer rc.Close()

	parser, err := vcf.NewParserFromReader(rc, vcf.IsCompressedName(src.Name))
	if err != nil {
		return nil, fileError(src.Name, err)
	}
	defer parser.Close()

	calls, err := vcf.Extract(parser, g.table.HasPosition)
	if err != nil {
		return nil, fileError(src.Name, err)
	}
	if len(calls) == 0 {
		return nil, &FileError{File: src.Name, Kind: ErrEmptyResult}
	}

	rows := Resolve(Match(calls, g.table))
	for i := range rows {
		rows[i].Source = src.Name
	}
	SortRows(rows)

	return rows, nil
}

// Genotype processes a batch of files. Rows of each file are sorted and
// appended in input order; a failing file is recorded in the result and
// does not stop the others. The only error returned is ErrNoInput, for an
// empty batch.
func (g *Genotyper) Genotype(sources []Source) (*Result, error) {
	if len(sources) == 0 {
		return nil, ErrNoInput
	}

	start := time.Now()
	res := &Result{RunID: uuid.NewString()}
	logger := g.logger.With(zap.String("run_id", res.RunID))

	items := make(chan WorkItem, len(sources))
	for i, src := range sources {
		items <- WorkItem{Seq: i, Source: src}
	}
	close(items)

	err := OrderedCollect(g.ParallelGenotype(items, g.workers), func(r WorkResult) error {
		if r.Err == nil {
			logger.Debug("genotyped file",
				zap.String("file", r.Source.Name),
				zap.Int("samples", len(r.Rows)))
			res.Rows = append(res.Rows, r.Rows...)
			return nil
		}

		var fe *FileError
		if !errors.As(r.Err, &fe) {
			return fmt.Errorf("genotype %s: %w", r.Source.Name, r.Err)
		}
		if errors.Is(fe, ErrEmptyResult) {
			logger.Info("no genotypes were called", zap.String("file", fe.File))
			res.Warnings = append(res.Warnings, fe)
			return nil
		}
		logger.Warn("failed to genotype file",
			zap.String("file", fe.File),
			zap.String("kind", KindName(fe)),
			zap.Error(fe.Err))
		res.Failures = append(res.Failures, fe)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	logger.Info("genotyping finished",
		zap.Int("files", len(sources)),
		zap.Int("rows", len(res.Rows)),
		zap.Int("failures", len(res.Failures)),
		zap.String("elapsed", FormatElapsed(res.Elapsed)))

	return res, nil
}
