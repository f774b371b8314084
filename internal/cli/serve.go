package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	apperrors "github.com/spatial-tools/alignviz/pkg/errors"
	"github.com/spatial-tools/alignviz/pkg/pipeline"
)

// contentTypes maps output formats to response content types.
var contentTypes = map[string]string{
	pipeline.FormatSVG: "image/svg+xml",
	pipeline.FormatPNG: "image/png",
	pipeline.FormatPDF: "application/pdf",
	pipeline.FormatDOT: "text/vnd.graphviz",
}

// serveCommand creates the serve command: a small HTTP server that
// runs figure pipelines and keeps the rendered artifacts in memory
// for retrieval.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve figures over HTTP",
		Long: `Start an HTTP server exposing the figure pipeline.

  POST /figures              build a figure from pipeline options (JSON body),
                             returns the figure id and available formats
  GET  /figures/{id}/{format}  fetch a rendered artifact
  GET  /healthz              liveness probe

Input file paths in the request body are resolved on the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			gallery := newGallery(c.newRunner())

			srv := &http.Server{
				Addr:              addr,
				Handler:           gallery.routes(),
				ReadHeaderTimeout: 5 * time.Second,
			}
			printInfo("serving figures on %s", addr)
			logger.Info("listening", "addr", addr)
			return srv.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8400", "listen address")
	return cmd
}

// gallery holds rendered figures keyed by id.
type gallery struct {
	runner *pipeline.Runner

	mu      sync.RWMutex
	figures map[string]map[string][]byte
}

func newGallery(runner *pipeline.Runner) *gallery {
	return &gallery{
		runner:  runner,
		figures: make(map[string]map[string][]byte),
	}
}

func (g *gallery) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/figures", g.createFigure)
	r.Get("/figures/{id}/{format}", g.getArtifact)

	return r
}

type figureResponse struct {
	ID      string            `json:"id"`
	Formats []string          `json:"formats"`
	Stats   pipeline.Stats    `json:"stats"`
	URLs    map[string]string `json:"urls"`
}

func (g *gallery) createFigure(w http.ResponseWriter, r *http.Request) {
	var opts pipeline.Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	result, err := g.runner.Execute(r.Context(), opts)
	if err != nil {
		status := http.StatusInternalServerError
		switch apperrors.GetCode(err) {
		case apperrors.ErrCodeFileNotFound, apperrors.ErrCodeNotFound:
			status = http.StatusNotFound
		case "":
			// non-coded errors stay 500
		default:
			status = http.StatusBadRequest
		}
		writeError(w, status, apperrors.UserMessage(err))
		return
	}

	id := uuid.NewString()
	g.mu.Lock()
	g.figures[id] = result.Artifacts
	g.mu.Unlock()

	resp := figureResponse{ID: id, Stats: result.Stats, URLs: make(map[string]string)}
	for format := range result.Artifacts {
		resp.Formats = append(resp.Formats, format)
		resp.URLs[format] = fmt.Sprintf("/figures/%s/%s", id, format)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(resp)
}

func (g *gallery) getArtifact(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := chi.URLParam(r, "format")

	g.mu.RLock()
	artifacts, ok := g.figures[id]
	g.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "unknown figure id")
		return
	}
	data, ok := artifacts[format]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("figure has no %s artifact", format))
		return
	}

	ct := contentTypes[format]
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
