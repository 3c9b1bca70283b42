package models

import (
	"time"
)

// ReportStatus is the lifecycle state of an uploaded report.
// A report is created as processing; only the ingestion pipeline moves it
// to completed or failed, and neither terminal state transitions out.
type ReportStatus string

const (
	StatusProcessing ReportStatus = "processing"
	StatusCompleted  ReportStatus = "completed"
	StatusFailed     ReportStatus = "failed"
)

// Registered report types. The type selects both the analysis prompt
// template and the dashboard builder.
const (
	ReportTypePrescription = "medical_prescription"
	ReportTypeBloodTest    = "blood_test_report"
)

// Summary is the JSONB summary column. Ingestion writes TextLength and
// Preview; analysis overwrites them with the clinical one-line Text.
type Summary struct {
	Text       string `json:"text,omitempty"`
	TextLength int    `json:"text_length,omitempty"`
	Preview    string `json:"preview,omitempty"`
}

// Insights is the JSONB insights column, split by lifecycle phase instead
// of a schemaless bag. Namespace and ExtractionMethod are written by
// ingestion and must survive the analysis merge. Error fields are written
// on a failed ingestion. The analysis fields are rewritten by every
// analysis run.
type Insights struct {
	Namespace        string `json:"namespace,omitempty"`
	ExtractionMethod string `json:"extraction_method,omitempty"`

	Error     string     `json:"error,omitempty"`
	ErrorType string     `json:"error_type,omitempty"`
	FailedAt  *time.Time `json:"failed_at,omitempty"`

	Analysis           map[string]any `json:"analysis,omitempty"`
	InsightsOneLine    string         `json:"insights_one_line,omitempty"`
	AnalyzedAt         *time.Time     `json:"analyzed_at,omitempty"`
	DocumentTextLength int            `json:"document_text_length,omitempty"`
}

// Report is the relational record for one uploaded medical document.
// Its ID doubles as the vector-store document identifier.
type Report struct {
	ID              string            `db:"report_id" json:"report_id"`
	ReportType      string            `db:"report_type" json:"report_type"`
	ReportName      string            `db:"report_name" json:"report_name"`
	FileURL         string            `db:"file_url" json:"file_url,omitempty"`
	Status          ReportStatus      `db:"status" json:"status"`
	Summary         *Summary          `db:"summary" json:"summary,omitempty"`
	KeyFindings     map[string]string `db:"key_findings" json:"key_findings,omitempty"`
	Insights        *Insights         `db:"insights" json:"insights,omitempty"`
	Recommendations []string          `db:"recommendations" json:"recommendations,omitempty"`
	UploadedAt      time.Time         `db:"uploaded_at" json:"uploaded_at"`
}

// AnalysisResult is the normalized output of one analysis run.
type AnalysisResult struct {
	Summary         string            `json:"summary"`
	KeyFindings     map[string]string `json:"key_findings"`
	Recommendations []string          `json:"recommendations"`
	InsightsOneLine string            `json:"insights_one_line,omitempty"`
}

// Dashboard is a per-report visualization artifact. report_id carries a
// uniqueness constraint: at most one dashboard per report.
type Dashboard struct {
	ID            string         `db:"dashboard_id" json:"dashboard_id"`
	ReportID      string         `db:"report_id" json:"report_id"`
	DashboardType string         `db:"dashboard_type" json:"dashboard_type"`
	Metrics       map[string]any `db:"metrics" json:"metrics"`
	Charts        map[string]any `db:"charts" json:"charts"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// VectorEntry is one document's record inside a vector-store namespace.
type VectorEntry struct {
	ID       string
	Vector   []float32
	Filename string
	Text     string
}

// StatusInfo is the shape returned by status polling.
type StatusInfo struct {
	ReportID    string       `json:"report_id"`
	Status      ReportStatus `json:"status"`
	TextLength  int          `json:"text_length,omitempty"`
	TextPreview string       `json:"text_preview,omitempty"`
	Error       string       `json:"error,omitempty"`
}
