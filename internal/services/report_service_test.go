package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"go.uber.org/zap"

	ingestion "github.com/medscanlabs/mediscan/internal/core/ingestion_engine"
	"github.com/medscanlabs/mediscan/internal/models"
)

type memStore struct {
	reports    map[string]*models.Report
	dashboards map[string]*models.Dashboard
}

func newMemStore() *memStore {
	return &memStore{
		reports:    make(map[string]*models.Report),
		dashboards: make(map[string]*models.Dashboard),
	}
}

func (s *memStore) CreateReport(_ context.Context, r *models.Report) error {
	s.reports[r.ID] = r
	return nil
}

func (s *memStore) GetReportByID(_ context.Context, id string) (*models.Report, error) {
	r, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("report %s: %w", id, models.ErrReportNotFound)
	}
	return r, nil
}

func (s *memStore) ListReports(_ context.Context) ([]models.Report, error) {
	out := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		out = append(out, *r)
	}
	return out, nil
}

func (s *memStore) DeleteReport(_ context.Context, id string) error {
	if _, ok := s.reports[id]; !ok {
		return fmt.Errorf("report %s: %w", id, models.ErrReportNotFound)
	}
	delete(s.reports, id)
	delete(s.dashboards, id)
	return nil
}

func (s *memStore) MarkReportIngested(_ context.Context, id string, summary *models.Summary, insights *models.Insights) error {
	r, ok := s.reports[id]
	if !ok {
		return models.ErrReportNotFound
	}
	r.Status = models.StatusCompleted
	r.Summary = summary
	r.Insights = insights
	return nil
}

func (s *memStore) MarkReportFailed(_ context.Context, id string, insights *models.Insights) error {
	r, ok := s.reports[id]
	if !ok {
		return models.ErrReportNotFound
	}
	r.Status = models.StatusFailed
	r.Insights = insights
	return nil
}

func (s *memStore) UpdateReportAnalysis(_ context.Context, id string, summary *models.Summary, findings map[string]string, recs []string, insights *models.Insights) error {
	r, ok := s.reports[id]
	if !ok {
		return models.ErrReportNotFound
	}
	r.Summary = summary
	r.KeyFindings = findings
	r.Recommendations = recs
	r.Insights = insights
	return nil
}

func (s *memStore) CreateDashboard(_ context.Context, d *models.Dashboard) error {
	if _, ok := s.dashboards[d.ReportID]; ok {
		return fmt.Errorf("dashboard for report %s: %w", d.ReportID, models.ErrAlreadyExists)
	}
	s.dashboards[d.ReportID] = d
	return nil
}

func (s *memStore) GetDashboardByReportID(_ context.Context, reportID string) (*models.Dashboard, error) {
	d, ok := s.dashboards[reportID]
	if !ok {
		return nil, fmt.Errorf("dashboard for report %s: %w", reportID, models.ErrReportNotFound)
	}
	return d, nil
}

func (s *memStore) Close() error { return nil }

type memObject struct {
	files   map[string][]byte
	deleted []string
}

func newMemObject() *memObject {
	return &memObject{files: make(map[string][]byte)}
}

func (o *memObject) UploadFile(_ context.Context, bucket, key string, data []byte, _ string) (string, error) {
	o.files[key] = data
	return "https://" + bucket + ".s3.amazonaws.com/" + key, nil
}

func (o *memObject) DeleteFile(_ context.Context, _, key string) error {
	o.deleted = append(o.deleted, key)
	delete(o.files, key)
	return nil
}

func (o *memObject) GetFile(_ context.Context, _, key string) ([]byte, error) {
	data, ok := o.files[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (o *memObject) GetObjectReader(context.Context, string, string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

type memIndex struct {
	deleted   []string
	deleteErr error
}

func (m *memIndex) Upsert(_ context.Context, docID, filename string, _ []float32, _ string) (string, error) {
	return docID + "_" + filename, nil
}

func (m *memIndex) Fetch(context.Context, string, string) (*models.VectorEntry, error) {
	return nil, models.ErrVectorNotFound
}

func (m *memIndex) DeleteNamespace(_ context.Context, namespace string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, namespace)
	return nil
}

type stubEmbedder struct{}

func (stubEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = make([]float32, 1536)
	}
	return out, nil
}

type stubOCR struct{}

func (stubOCR) Transcribe(context.Context, []byte, string) (string, error) {
	return "transcribed document text for testing", nil
}

func newTestReportService(store *memStore, obj *memObject, index *memIndex) *ReportService {
	log := zap.NewNop()
	extractor := ingestion.NewTextExtractor(stubOCR{}, 20, log)
	embedder := ingestion.NewEmbeddingGenerator(stubEmbedder{}, 1536, 8000, 20)
	ingestor := ingestion.NewDocumentIngestor(store, obj, extractor, embedder, index, nil, log)
	return NewReportService(store, obj, index, ingestor, "test-bucket", log)
}

func TestUploadRejectsUnsupportedReportType(t *testing.T) {
	svc := newTestReportService(newMemStore(), newMemObject(), &memIndex{})

	_, err := svc.Upload(context.Background(), "x_ray", "scan.png", "image/png", []byte("data"))
	if !errors.Is(err, models.ErrUnsupportedReportType) {
		t.Fatalf("want ErrUnsupportedReportType, got %v", err)
	}
}

func TestUploadRejectsUnsupportedFileType(t *testing.T) {
	svc := newTestReportService(newMemStore(), newMemObject(), &memIndex{})

	_, err := svc.Upload(context.Background(), models.ReportTypePrescription, "notes.txt", "text/plain", []byte("data"))
	if !errors.Is(err, models.ErrUnsupportedFileType) {
		t.Fatalf("want ErrUnsupportedFileType, got %v", err)
	}
}

func TestUploadCreatesProcessingRecord(t *testing.T) {
	store := newMemStore()
	obj := newMemObject()
	svc := newTestReportService(store, obj, &memIndex{})

	report, err := svc.Upload(context.Background(), models.ReportTypeBloodTest, "labs.pdf", "application/pdf", []byte("%PDF"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Status != models.StatusProcessing {
		t.Fatalf("want processing, got %s", report.Status)
	}
	if _, ok := store.reports[report.ID]; !ok {
		t.Fatal("record not persisted")
	}
	if len(obj.files) != 1 {
		t.Fatalf("want one stored file, got %d", len(obj.files))
	}
	if report.FileURL == "" {
		t.Fatal("file URL missing")
	}
}

func TestGetStatusShapes(t *testing.T) {
	store := newMemStore()
	svc := newTestReportService(store, newMemObject(), &memIndex{})

	store.reports["done"] = &models.Report{
		ID: "done", Status: models.StatusCompleted,
		Summary: &models.Summary{TextLength: 120, Preview: "Amoxicillin"},
	}
	store.reports["broken"] = &models.Report{
		ID: "broken", Status: models.StatusFailed,
		Insights: &models.Insights{Error: "no text extracted", ErrorType: "EmptyExtraction"},
	}
	store.reports["pending"] = &models.Report{ID: "pending", Status: models.StatusProcessing}

	info, err := svc.GetStatus(context.Background(), "done")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.TextLength != 120 || info.TextPreview != "Amoxicillin" || info.Error != "" {
		t.Fatalf("unexpected completed shape: %+v", info)
	}

	info, _ = svc.GetStatus(context.Background(), "broken")
	if info.Error != "no text extracted" || info.TextLength != 0 {
		t.Fatalf("unexpected failed shape: %+v", info)
	}

	info, _ = svc.GetStatus(context.Background(), "pending")
	if info.Status != models.StatusProcessing || info.Error != "" || info.TextLength != 0 {
		t.Fatalf("unexpected processing shape: %+v", info)
	}

	if _, err := svc.GetStatus(context.Background(), "missing"); !errors.Is(err, models.ErrReportNotFound) {
		t.Fatalf("want ErrReportNotFound, got %v", err)
	}
}

func TestDeleteCleansUpNamespaceAndFile(t *testing.T) {
	store := newMemStore()
	obj := newMemObject()
	index := &memIndex{}
	svc := newTestReportService(store, obj, index)

	store.reports["r1"] = &models.Report{
		ID: "r1", ReportName: "rx.pdf", Status: models.StatusCompleted,
		Insights: &models.Insights{Namespace: "r1_rx.pdf"},
	}

	if err := svc.Delete(context.Background(), "r1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.reports["r1"]; ok {
		t.Fatal("report still present")
	}
	if len(index.deleted) != 1 || index.deleted[0] != "r1_rx.pdf" {
		t.Fatalf("namespace not deleted: %v", index.deleted)
	}
	if len(obj.deleted) != 1 {
		t.Fatalf("stored file not deleted: %v", obj.deleted)
	}
}

func TestDeleteSurvivesNamespaceFailure(t *testing.T) {
	store := newMemStore()
	index := &memIndex{deleteErr: errors.New("pinecone unreachable")}
	svc := newTestReportService(store, newMemObject(), index)

	store.reports["r2"] = &models.Report{
		ID: "r2", ReportName: "labs.pdf", Status: models.StatusCompleted,
		Insights: &models.Insights{Namespace: "r2_labs.pdf"},
	}

	if err := svc.Delete(context.Background(), "r2"); err != nil {
		t.Fatalf("namespace failure must not block delete: %v", err)
	}
	if _, ok := store.reports["r2"]; ok {
		t.Fatal("report still present")
	}
}

func TestDeleteMissingReport(t *testing.T) {
	svc := newTestReportService(newMemStore(), newMemObject(), &memIndex{})

	if err := svc.Delete(context.Background(), "ghost"); !errors.Is(err, models.ErrReportNotFound) {
		t.Fatalf("want ErrReportNotFound, got %v", err)
	}
}
