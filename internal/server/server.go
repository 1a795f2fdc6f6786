// Package server exposes the pipeline over HTTP.
//
// Routes:
//
//	POST /v1/process?filename=logo@2x.png[&includeMarkup][&format=module]
//	     Body: the source image bytes. Responds with the descriptor and the
//	     emitted variants.
//	GET  /assets/{name}
//	     Serves an emitted variant.
//	GET  /healthz
//
// Query parameters other than filename and format are loader options and go
// through pipeline.ParseConfig, so unknown options are rejected with 400.
package server

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/densify/pkg/buildinfo"
	"github.com/matzehuels/densify/pkg/descriptor"
	"github.com/matzehuels/densify/pkg/emit"
	"github.com/matzehuels/densify/pkg/errors"
	"github.com/matzehuels/densify/pkg/pipeline"
)

// DefaultMaxBodyBytes bounds uploaded source images.
const DefaultMaxBodyBytes = 32 << 20

// Options configures a Server.
type Options struct {
	Logger       *log.Logger
	MaxBodyBytes int64

	// PublicPathExpr is used for format=module responses.
	PublicPathExpr string
}

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	assets emit.Store
	opts   Options
	logger *log.Logger
	router chi.Router
}

// New creates a server. assets must be the store the runner emits into.
func New(runner *pipeline.Runner, assets emit.Store, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}

	s := &Server{
		runner: runner,
		assets: assets,
		opts:   opts,
		logger: opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/process", s.handleProcess)
	r.Get("/assets/{name}", s.handleAsset)

	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

// variantResponse describes one emitted variant.
type variantResponse struct {
	Name        string  `json:"name"`
	URL         string  `json:"url"`
	Ratio       float64 `json:"ratio"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Passthrough bool    `json:"passthrough,omitempty"`
}

// processResponse is the JSON body of POST /v1/process.
type processResponse struct {
	ContentID  string                `json:"contentId"`
	Cached     bool                  `json:"cached"`
	Descriptor descriptor.Descriptor `json:"descriptor"`
	Variants   []variantResponse     `json:"variants"`
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filename := query.Get("filename")
	if err := errors.ValidateFilename(filename); err != nil {
		s.writeError(w, r, err)
		return
	}

	format := query.Get("format")
	if format == "" {
		format = descriptor.FormatJSON
	}
	if format != descriptor.FormatJSON && format != descriptor.FormatModule {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "format must be %q or %q", descriptor.FormatJSON, descriptor.FormatModule))
		return
	}

	cfg, err := pipeline.ParseConfig(pipeline.ParseQuery(query, "filename", "format"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit),
				Code:  errors.ErrCodeInvalidInput,
			})
			return
		}
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}

	result, err := s.runner.Process(r.Context(), body, filename, cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if format == descriptor.FormatModule {
		var buf bytes.Buffer
		if err := descriptor.RenderModule(&buf, result.Descriptor, descriptor.ModuleOptions{PublicPathExpr: s.opts.PublicPathExpr}); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
		return
	}

	resp := processResponse{
		ContentID:  result.ContentID,
		Cached:     result.CacheInfo.DeriveHit,
		Descriptor: result.Descriptor,
		Variants:   make([]variantResponse, len(result.Variants)),
	}
	for i, v := range result.Variants {
		resp.Variants[i] = variantResponse{
			Name:        v.Name,
			URL:         v.URL,
			Ratio:       v.Ratio,
			Width:       v.Width,
			Height:      v.Height,
			Passthrough: v.Passthrough,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := errors.ValidateEmitName(name); err != nil {
		s.writeError(w, r, err)
		return
	}

	data, ok := s.assets.Get(name)
	if !ok {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "asset %s not found", name))
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(data).String())
	// Names are content-addressed.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(data))
}
