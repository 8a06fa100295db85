// Package server exposes lineage genotyping over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
	"go.uber.org/zap"

	"github.com/inodb/vibe-lineage/internal/barcode"
	"github.com/inodb/vibe-lineage/internal/genotype"
	"github.com/inodb/vibe-lineage/internal/reference"
)

// DefaultBodyLimit caps the size of an upload request.
const DefaultBodyLimit = "512M"

// slowRequest is the duration above which requests are logged as warnings.
const slowRequest = 5 * time.Second

// ReferenceStore answers reference dataset queries.
type ReferenceStore interface {
	Summary() (*reference.Summary, error)
	LookupSample(name string) (reference.Sample, error)
}

// Options configures optional parts of a Server.
type Options struct {
	Store     ReferenceStore // nil disables the /reference routes
	Logger    *zap.Logger
	BodyLimit string // e.g. "200M"; DefaultBodyLimit when empty
}

// Server is the HTTP front end of a Genotyper.
type Server struct {
	echo      *echo.Echo
	genotyper *genotype.Genotyper
	table     *barcode.Table
	store     ReferenceStore
	logger    *zap.Logger
}

// New creates a server and registers its routes.
func New(g *genotype.Genotyper, table *barcode.Table, opts Options) *Server {
	s := &Server{
		echo:      echo.New(),
		genotyper: g,
		table:     table,
		store:     opts.Store,
		logger:    opts.Logger,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	limit := opts.BodyLimit
	if limit == "" {
		limit = DefaultBodyLimit
	}

	e := s.echo
	e.HideBanner = true
	e.HTTPErrorHandler = s.handleError

	e.Use(middleware.Recover())
	e.Use(s.logRequests)
	e.Use(middleware.BodyLimit(limit))

	e.GET("/health", s.handleHealth)
	e.POST("/genotype", s.handleGenotype)
	e.GET("/markers", s.handleMarkers)
	e.GET("/reference/summary", s.handleReferenceSummary)
	e.GET("/reference/samples/:id", s.handleReferenceSample)

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr and serves until Shutdown is called.
func (s *Server) Start(addr string) error {
	s.logger.Info("server starting", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve %s: %w", addr, err)
	}
	return nil
}

// Shutdown stops the server, waiting for active requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// handleError renders every error as an ErrorResponse.
func (s *Server) handleError(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
	}

	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.Request().URL.Path),
			zap.Error(err))
	}

	if c.Response().Committed {
		return
	}
	if err := c.JSON(code, newErrorResponse(code, message, kindForStatus(code), nil)); err != nil {
		s.logger.Warn("write error response", zap.Error(err))
	}
}

func kindForStatus(code int) string {
	switch code {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusRequestEntityTooLarge:
		return "too_large"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	}
	if code >= http.StatusInternalServerError {
		return "internal"
	}
	return "bad_request"
}
