package genotype

import (
	"errors"
	"fmt"

	"github.com/inodb/vibe-lineage/internal/vcf"
)

// Error kinds reported to callers. Every per-file failure wraps exactly one
// of them, so callers can tell them apart with errors.Is.
var (
	ErrNoInput             = errors.New("no input provided")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrNotCompressed       = errors.New("input is not validly compressed")
	ErrMalformed           = errors.New("input is structurally malformed")

	// ErrEmptyResult is informational: the file is valid but has no calls
	// at marker positions.
	ErrEmptyResult = errors.New("no genotypes were called")
)

// FileError attributes an error kind to one uploaded file.
type FileError struct {
	File string
	Kind error
	Err  error // underlying cause, may be nil
}

func (e *FileError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.File, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.File, e.Kind, e.Err)
}

func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// fileError classifies an extraction error into one of the error kinds.
func fileError(name string, err error) *FileError {
	kind := ErrMalformed
	if vcf.IsDecompressError(err) {
		kind = ErrNotCompressed
	}
	return &FileError{File: name, Kind: kind, Err: err}
}

// KindName returns a stable identifier for the kind wrapped by err.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrNoInput):
		return "no_input"
	case errors.Is(err, ErrUnsupportedFileType):
		return "unsupported_file_type"
	case errors.Is(err, ErrNotCompressed):
		return "not_compressed"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrEmptyResult):
		return "empty_result"
	default:
		return "unknown"
	}
}

// Message returns the user-facing message for the kind wrapped by err.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrNoInput):
		return "No data was uploaded!"
	case errors.Is(err, ErrUnsupportedFileType):
		return "Wrong file type!"
	case errors.Is(err, ErrNotCompressed):
		return "File is not gzipped!"
	case errors.Is(err, ErrMalformed):
		return "VCF file is malformed!"
	case errors.Is(err, ErrEmptyResult):
		return "No genotypes were called"
	default:
		return "An unknown error occurred"
	}
}
