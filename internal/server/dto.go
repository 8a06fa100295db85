package server

import (
	"time"

	"github.com/inodb/vibe-lineage/internal/genotype"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code      int         `json:"code"`
	Message   string      `json:"message"`
	Kind      string      `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
	Errors    []FileIssue `json:"errors"`
}

// FileIssue reports a per-file failure or warning.
type FileIssue struct {
	File    string `json:"file,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// RowDTO is one genotyped sample.
type RowDTO struct {
	Sample string `json:"sample"`
	Level1 string `json:"level_1"`
	Level2 string `json:"level_2"`
	Level3 string `json:"level_3"`
	Level4 string `json:"level_4"`
	Level5 string `json:"level_5"`
	Source string `json:"source"`
}

// GenotypeResponse is the JSON reply of POST /genotype.
type GenotypeResponse struct {
	RunID    string      `json:"run_id"`
	Elapsed  string      `json:"elapsed"`
	Rows     []RowDTO    `json:"rows"`
	Failures []FileIssue `json:"failures"`
	Warnings []FileIssue `json:"warnings"`
}

func newRowDTO(r genotype.Row) RowDTO {
	return RowDTO{
		Sample: r.Sample,
		Level1: r.Levels[0],
		Level2: r.Levels[1],
		Level3: r.Levels[2],
		Level4: r.Levels[3],
		Level5: r.Levels[4],
		Source: r.Source,
	}
}

func newFileIssues(errs []*genotype.FileError) []FileIssue {
	out := make([]FileIssue, 0, len(errs))
	for _, fe := range errs {
		out = append(out, FileIssue{
			File:    fe.File,
			Kind:    genotype.KindName(fe),
			Message: genotype.Message(fe),
		})
	}
	return out
}

func newGenotypeResponse(res *genotype.Result) GenotypeResponse {
	rows := make([]RowDTO, 0, len(res.Rows))
	for _, r := range res.Rows {
		rows = append(rows, newRowDTO(r))
	}
	return GenotypeResponse{
		RunID:    res.RunID,
		Elapsed:  genotype.FormatElapsed(res.Elapsed),
		Rows:     rows,
		Failures: newFileIssues(res.Failures),
		Warnings: newFileIssues(res.Warnings),
	}
}

func newErrorResponse(code int, message, kind string, issues []FileIssue) ErrorResponse {
	if issues == nil {
		issues = []FileIssue{}
	}
	return ErrorResponse{
		Code:      code,
		Message:   message,
		Kind:      kind,
		Timestamp: time.Now(),
		Errors:    issues,
	}
}
