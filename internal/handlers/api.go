package handlers

import (
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"strings"

	"github.com/pbi-visual/visualcheck/internal/config"
	"github.com/pbi-visual/visualcheck/internal/models"
	"go.uber.org/zap"
)

// ResultReader loads stored results
type ResultReader interface {
	ArtifactReader
	Load(reportID string) (models.PersistedResult, error)
}

// SummaryHandler handles GET /api/summary
type SummaryHandler struct {
	results ResultReader
	logger  *zap.Logger
}

// NewSummaryHandler creates a new summary API handler
func NewSummaryHandler(results ResultReader, logger *zap.Logger) *SummaryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryHandler{results: results, logger: logger}
}

// ServeHTTP returns the aggregate document of the last run
func (h *SummaryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := h.results.ReadArtifact(config.AggregateFileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			sendErrorResponse(w, "no run summary found", http.StatusNotFound)
			return
		}
		h.logger.Error("summary_read_failed", zap.Error(err))
		sendErrorResponse(w, "failed to read run summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ResultHandler handles GET /api/results/{id}
type ResultHandler struct {
	results ResultReader
	logger  *zap.Logger
}

// NewResultHandler creates a new per-report result API handler
func NewResultHandler(results ResultReader, logger *zap.Logger) *ResultHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultHandler{results: results, logger: logger}
}

// ServeHTTP returns the stored result of one report
func (h *ResultHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	reportID := r.PathValue("id")
	if reportID == "" {
		sendErrorResponse(w, "report id is required", http.StatusBadRequest)
		return
	}
	if !validReportID(reportID) {
		sendErrorResponse(w, "invalid report id", http.StatusBadRequest)
		return
	}

	result, err := h.results.Load(reportID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			sendErrorResponse(w, "no result for report "+reportID, http.StatusNotFound)
			return
		}
		h.logger.Error("result_read_failed", zap.String("report_id", reportID), zap.Error(err))
		sendErrorResponse(w, "failed to read result", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.logger.Error("result_encode_failed", zap.String("report_id", reportID), zap.Error(err))
	}
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// sendErrorResponse sends a JSON error response
func sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// validReportID rejects ids that could escape the results directory.
func validReportID(id string) bool {
	return !strings.ContainsAny(id, `/\`) && !strings.Contains(id, "..")
}
