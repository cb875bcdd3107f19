package handlers

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/pbi-visual/visualcheck/internal/config"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const noReportMessage = "No report has been generated yet. Run `visualcheck run` first."

// ArtifactReader reads run-level files from the results directory
type ArtifactReader interface {
	ReadArtifact(name string) ([]byte, error)
}

// ResultsHandler serves the HTML report at / and every other file in the
// results directory (screenshots, result JSON) by path
type ResultsHandler struct {
	artifacts ArtifactReader
	files     http.Handler
	logger    *zap.Logger
}

// NewResultsHandler creates a new ResultsHandler rooted at dir on fs
func NewResultsHandler(artifacts ArtifactReader, fsys afero.Fs, dir string, logger *zap.Logger) *ResultsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultsHandler{
		artifacts: artifacts,
		files:     http.FileServer(afero.NewHttpFs(fsys).Dir(dir)),
		logger:    logger,
	}
}

// ServeHTTP handles GET requests for the report and its attachments
func (h *ResultsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" && r.URL.Path != "/"+config.HTMLReportName {
		h.files.ServeHTTP(w, r)
		return
	}

	data, err := h.artifacts.ReadArtifact(config.HTMLReportName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			http.Error(w, noReportMessage, http.StatusNotFound)
			return
		}
		h.logger.Error("report_read_failed", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		w.Write(data)
	}
}
