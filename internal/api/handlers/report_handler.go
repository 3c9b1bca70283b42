package handlers

import (
	"io"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/medscanlabs/mediscan/internal/core/analysis_engine"
	"github.com/medscanlabs/mediscan/internal/models"
	"github.com/medscanlabs/mediscan/internal/services"
)

const maxUploadBytes = 32 << 20 // 32 MB

type ReportHandler struct {
	reports  *services.ReportService
	analyzer *analysis_engine.AnalysisEngine
	logger   *zap.Logger
}

func NewReportHandler(reports *services.ReportService, analyzer *analysis_engine.AnalysisEngine, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reports: reports, analyzer: analyzer, logger: logger}
}

// Upload accepts a multipart form with a report_type field and a
// report_file part, creates the processing record and schedules
// ingestion. Responds 202 with the record.
func (h *ReportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	reportType := r.FormValue("report_type")
	file, header, err := r.FormFile("report_file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "report_file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read uploaded file"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	// strip any path components a client might smuggle in
	filename := filepath.Base(header.Filename)

	report, err := h.reports.Upload(r.Context(), reportType, filename, contentType, data)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, report)
}

func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reports.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.reports.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *ReportHandler) Status(w http.ResponseWriter, r *http.Request) {
	info, err := h.reports.GetStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *ReportHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	result, err := h.analyzer.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.reports.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"report_id": id,
		"message":   "report deleted",
	})
}
