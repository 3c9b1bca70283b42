package core

import (
	"context"
	"io"

	"github.com/medscanlabs/mediscan/internal/models"
)

// ReportStore defines all persistence operations the pipeline and the
// analysis engine need. It abstracts Postgres so higher layers never
// depend on a specific database.
type ReportStore interface {
	CreateReport(ctx context.Context, report *models.Report) error
	GetReportByID(ctx context.Context, id string) (*models.Report, error)
	ListReports(ctx context.Context) ([]models.Report, error)
	DeleteReport(ctx context.Context, id string) error

	// MarkReportIngested is the pipeline's single terminal success write:
	// status, summary placeholder, ingestion insights and a fresh
	// uploaded_at in one statement.
	MarkReportIngested(ctx context.Context, id string, summary *models.Summary, insights *models.Insights) error

	// MarkReportFailed is the pipeline's terminal failure write. Callers
	// treat its own failure as best-effort.
	MarkReportFailed(ctx context.Context, id string, insights *models.Insights) error

	// UpdateReportAnalysis overwrites the analysis fields. The insights
	// value is the already-merged struct; last writer wins.
	UpdateReportAnalysis(ctx context.Context, id string, summary *models.Summary, keyFindings map[string]string, recommendations []string, insights *models.Insights) error

	// CreateDashboard returns models.ErrAlreadyExists (wrapped) when the
	// report already has a dashboard.
	CreateDashboard(ctx context.Context, d *models.Dashboard) error
	GetDashboardByReportID(ctx context.Context, reportID string) (*models.Dashboard, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
// Abstract so AWS can be replaced with MinIO, GCS, etc.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data []byte, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// EmbeddingProvider turns text into vectors via a remote model.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// LLMProvider is a single-turn chat-style language model call.
// GenerateJSON requests the model's JSON-constrained output mode.
type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OCREngine transcribes a document image (or scanned PDF) to text.
// Implementations return "" — not an error — when nothing is recoverable
// from readable input, and an error only on engine failure.
type OCREngine interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// VectorIndex stores one vector entry per document per namespace.
type VectorIndex interface {
	// Upsert writes the entry under the namespace derived from
	// (docID, filename) and returns that namespace. Re-upserting the same
	// document overwrites the prior entry.
	Upsert(ctx context.Context, docID, filename string, vector []float32, text string) (namespace string, err error)

	// Fetch returns models.ErrVectorNotFound (wrapped) when absent.
	Fetch(ctx context.Context, docID, namespace string) (*models.VectorEntry, error)

	// DeleteNamespace removes every entry in the namespace. Callers treat
	// failures as non-fatal.
	DeleteNamespace(ctx context.Context, namespace string) error
}
