package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/medscanlabs/mediscan/internal/services"
)

type DashboardHandler struct {
	dashboards *services.DashboardService
	logger     *zap.Logger
}

func NewDashboardHandler(dashboards *services.DashboardService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards, logger: logger}
}

type createDashboardRequest struct {
	ReportID string `json:"report_id"`
}

func (h *DashboardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDashboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReportID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "report_id is required"})
		return
	}

	dashboard, err := h.dashboards.Create(r.Context(), req.ReportID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dashboard)
}

func (h *DashboardHandler) GetByReport(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.dashboards.GetByReportID(r.Context(), chi.URLParam(r, "report_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
