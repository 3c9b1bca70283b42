package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medscanlabs/mediscan/internal/core"
	"github.com/medscanlabs/mediscan/internal/models"
)

// DashboardService builds one visualization artifact per analyzed
// report. The report_id uniqueness constraint makes creation idempotent:
// a second create returns the existing dashboard instead of failing.
type DashboardService struct {
	store  core.ReportStore
	logger *zap.Logger
}

func NewDashboardService(store core.ReportStore, logger *zap.Logger) *DashboardService {
	return &DashboardService{store: store, logger: logger}
}

func (s *DashboardService) Create(ctx context.Context, reportID string) (*models.Dashboard, error) {
	report, err := s.readyReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	var (
		dashboardType string
		charts        map[string]any
	)
	switch report.ReportType {
	case models.ReportTypePrescription:
		dashboardType = "prescription"
		charts = buildPrescriptionCharts(report)
	case models.ReportTypeBloodTest:
		dashboardType = "blood_test"
		charts = buildBloodTestCharts(report)
	default:
		return nil, fmt.Errorf("report type %q: %w", report.ReportType, models.ErrUnsupportedReportType)
	}

	dashboard := &models.Dashboard{
		ID:            uuid.NewString(),
		ReportID:      reportID,
		DashboardType: dashboardType,
		Metrics:       map[string]any{"type": dashboardType},
		Charts:        charts,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.CreateDashboard(ctx, dashboard); err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			return s.store.GetDashboardByReportID(ctx, reportID)
		}
		return nil, err
	}

	s.logger.Info("dashboard created",
		zap.String("report_id", reportID),
		zap.String("dashboard_type", dashboardType))
	return dashboard, nil
}

func (s *DashboardService) GetByReportID(ctx context.Context, reportID string) (*models.Dashboard, error) {
	return s.store.GetDashboardByReportID(ctx, reportID)
}

// readyReport loads the report and rejects records that have not
// finished ingestion.
func (s *DashboardService) readyReport(ctx context.Context, reportID string) (*models.Report, error) {
	report, err := s.store.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	switch report.Status {
	case models.StatusProcessing:
		return nil, fmt.Errorf("report %s: %w", reportID, models.ErrReportProcessing)
	case models.StatusFailed:
		return nil, fmt.Errorf("report %s: %w", reportID, models.ErrReportFailed)
	}
	return report, nil
}

func buildPrescriptionCharts(report *models.Report) map[string]any {
	key := report.KeyFindings
	if key == nil {
		key = map[string]string{}
	}
	return map[string]any{
		"diagnosis":          key["diagnosis"],
		"treatment_duration": key["treatment_duration"],
		"medications":        key["medications_prescribed"],
		"follow_up":          key["follow_up_required"],
		"recommendations":    recommendationsOf(report),
	}
}

func buildBloodTestCharts(report *models.Report) map[string]any {
	charts := map[string]any{
		"parameters":  report.KeyFindings,
		"health_tips": recommendationsOf(report),
	}
	if report.Summary != nil {
		charts["summary"] = report.Summary.Text
	}
	if report.Insights != nil {
		charts["insight"] = report.Insights.InsightsOneLine
	}
	return charts
}

func recommendationsOf(report *models.Report) []string {
	if report.Recommendations == nil {
		return []string{}
	}
	return report.Recommendations
}
