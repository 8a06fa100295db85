package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lineage/internal/genotype"
	"github.com/inodb/vibe-lineage/internal/output"
	"github.com/inodb/vibe-lineage/internal/reference"
)

const (
	// filesField is the multipart field carrying uploaded VCF files.
	filesField = "files"

	formatJSON = "json"

	headerFailedFiles = "X-Failed-Files"
	headerRunID       = "X-Run-ID"
	headerWarning     = "X-Warning"
)

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleGenotype genotypes the uploaded files.
func (s *Server) handleGenotype(c echo.Context) error {
	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = formatJSON
	}
	switch format {
	case formatJSON, output.FormatTSV, output.FormatCSV, output.FormatXLSX:
	default:
		return c.JSON(http.StatusBadRequest, newErrorResponse(http.StatusBadRequest,
			"Unsupported format "+format, "bad_request", nil))
	}

	sources, cleanup, err := uploadedSources(c)
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := s.genotyper.Genotype(sources)
	if errors.Is(err, genotype.ErrNoInput) {
		return c.JSON(http.StatusBadRequest, newErrorResponse(http.StatusBadRequest,
			genotype.Message(err), genotype.KindName(err), nil))
	}
	if err != nil {
		return err
	}

	c.Response().Header().Set(headerRunID, res.RunID)

	if len(res.Failures) == len(sources) {
		kind, message := failureKind(res.Failures)
		return c.JSON(http.StatusUnprocessableEntity, newErrorResponse(http.StatusUnprocessableEntity,
			message, kind, newFileIssues(res.Failures)))
	}

	if format == formatJSON {
		return c.JSON(http.StatusOK, newGenotypeResponse(res))
	}

	var buf bytes.Buffer
	tw, err := output.NewWriter(format, &buf)
	if err != nil {
		return err
	}
	if err := output.WriteRows(tw, res.Rows); err != nil {
		return err
	}

	h := c.Response().Header()
	if len(res.Failures) > 0 {
		names := make([]string, len(res.Failures))
		for i, fe := range res.Failures {
			names[i] = fe.File
		}
		h.Set(headerFailedFiles, strings.Join(names, ","))
	}
	if res.Empty() {
		h.Set(headerWarning, genotype.Message(genotype.ErrEmptyResult))
	}
	h.Set(echo.HeaderContentDisposition, `attachment; filename="lineages.`+format+`"`)
	return c.Blob(http.StatusOK, output.ContentType(format), buf.Bytes())
}

// uploadedSources returns the files of the request's "files" field. A
// request that is not multipart yields no sources. Any other form error is
// returned as an *echo.HTTPError: the body limit keeps its 413, a broken
// body is a 400. The returned cleanup removes temporary files of the
// parsed form.
func uploadedSources(c echo.Context) ([]genotype.Source, func(), error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return nil, nil, he
		}
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "Could not read upload: "+err.Error())
	}

	files := form.File[filesField]
	sources := make([]genotype.Source, 0, len(files))
	for _, fh := range files {
		sources = append(sources, genotype.Source{
			Name: filepath.Base(fh.Filename),
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	return sources, func() { form.RemoveAll() }, nil
}

// failureKind summarises the kinds of failures: the shared kind and its
// message when all agree.
func failureKind(failures []*genotype.FileError) (kind, message string) {
	kind = genotype.KindName(failures[0])
	for _, fe := range failures[1:] {
		if genotype.KindName(fe) != kind {
			return "multiple", "No file could be processed"
		}
	}
	return kind, genotype.Message(failures[0])
}

// handleMarkers exports the marker table.
func (s *Server) handleMarkers(c echo.Context) error {
	format := strings.ToLower(c.QueryParam("format"))
	if format == "" {
		format = output.FormatTSV
	}

	var buf bytes.Buffer
	tw, err := output.NewWriter(format, &buf)
	if errors.Is(err, output.ErrUnknownFormat) {
		return c.JSON(http.StatusBadRequest, newErrorResponse(http.StatusBadRequest,
			"Unsupported format "+format, "bad_request", nil))
	}
	if err != nil {
		return err
	}
	if err := output.WriteMarkers(tw, s.table.Markers()); err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="levels.`+format+`"`)
	return c.Blob(http.StatusOK, output.ContentType(format), buf.Bytes())
}

func (s *Server) handleReferenceSummary(c echo.Context) error {
	if s.store == nil {
		return notConfigured(c)
	}

	sum, err := s.store.Summary()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sum)
}

func (s *Server) handleReferenceSample(c echo.Context) error {
	if s.store == nil {
		return notConfigured(c)
	}

	id := c.Param("id")
	sample, err := s.store.LookupSample(id)
	if errors.Is(err, reference.ErrSampleNotFound) {
		return c.JSON(http.StatusNotFound, newErrorResponse(http.StatusNotFound,
			"Sample "+id+" not found", "not_found", nil))
	}
	if err != nil {
		s.logger.Error("lookup reference sample", zap.String("sample", id), zap.Error(err))
		return err
	}
	return c.JSON(http.StatusOK, sample)
}

func notConfigured(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, newErrorResponse(http.StatusServiceUnavailable,
		"Reference dataset is not configured", "not_configured", nil))
}
