package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/medscanlabs/mediscan/internal/models"
)

func analyzedReport(id, reportType string) *models.Report {
	return &models.Report{
		ID:         id,
		ReportType: reportType,
		ReportName: "doc.pdf",
		Status:     models.StatusCompleted,
		Summary:    &models.Summary{Text: "Overall results are normal."},
		KeyFindings: map[string]string{
			"diagnosis":              "Bacterial infection",
			"treatment_duration":     "10 days",
			"medications_prescribed": "Amoxicillin 500mg",
			"follow_up_required":     "2 weeks",
		},
		Insights: &models.Insights{
			Namespace:       id + "_doc.pdf",
			InsightsOneLine: "Responding well to treatment.",
		},
		Recommendations: []string{"Take all medications as prescribed"},
	}
}

func TestDashboardCreatePrescription(t *testing.T) {
	store := newMemStore()
	store.reports["r1"] = analyzedReport("r1", models.ReportTypePrescription)
	svc := NewDashboardService(store, zap.NewNop())

	d, err := svc.Create(context.Background(), "r1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.DashboardType != "prescription" {
		t.Fatalf("want prescription, got %q", d.DashboardType)
	}
	if d.Charts["diagnosis"] != "Bacterial infection" {
		t.Fatalf("unexpected charts: %v", d.Charts)
	}
	recs, ok := d.Charts["recommendations"].([]string)
	if !ok || len(recs) != 1 {
		t.Fatalf("recommendations missing: %v", d.Charts["recommendations"])
	}
}

func TestDashboardCreateBloodTest(t *testing.T) {
	store := newMemStore()
	store.reports["r2"] = analyzedReport("r2", models.ReportTypeBloodTest)
	svc := NewDashboardService(store, zap.NewNop())

	d, err := svc.Create(context.Background(), "r2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.DashboardType != "blood_test" {
		t.Fatalf("want blood_test, got %q", d.DashboardType)
	}
	if d.Charts["summary"] != "Overall results are normal." {
		t.Fatalf("summary missing from charts: %v", d.Charts)
	}
	if d.Charts["insight"] != "Responding well to treatment." {
		t.Fatalf("insight missing from charts: %v", d.Charts)
	}
}

func TestDashboardCreateGuards(t *testing.T) {
	tests := []struct {
		name    string
		status  models.ReportStatus
		wantErr error
	}{
		{"processing", models.StatusProcessing, models.ErrReportProcessing},
		{"failed", models.StatusFailed, models.ErrReportFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			r := analyzedReport("r3", models.ReportTypePrescription)
			r.Status = tc.status
			store.reports["r3"] = r
			svc := NewDashboardService(store, zap.NewNop())

			if _, err := svc.Create(context.Background(), "r3"); !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestDashboardCreateIdempotent(t *testing.T) {
	store := newMemStore()
	store.reports["r4"] = analyzedReport("r4", models.ReportTypeBloodTest)
	svc := NewDashboardService(store, zap.NewNop())

	first, err := svc.Create(context.Background(), "r4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Create(context.Background(), "r4")
	if err != nil {
		t.Fatalf("second create must return the existing dashboard: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("want same dashboard, got %s and %s", first.ID, second.ID)
	}
	if len(store.dashboards) != 1 {
		t.Fatalf("want one dashboard, got %d", len(store.dashboards))
	}
}

func TestDashboardCreateUnknownReport(t *testing.T) {
	svc := NewDashboardService(newMemStore(), zap.NewNop())

	if _, err := svc.Create(context.Background(), "ghost"); !errors.Is(err, models.ErrReportNotFound) {
		t.Fatalf("want ErrReportNotFound, got %v", err)
	}
}
