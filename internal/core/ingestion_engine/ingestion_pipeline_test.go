package ingestion_engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/medscanlabs/mediscan/internal/models"
)

type fakeStore struct {
	ingested map[string]struct {
		summary  *models.Summary
		insights *models.Insights
	}
	failed map[string]*models.Insights

	failedWriteErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		ingested: make(map[string]struct {
			summary  *models.Summary
			insights *models.Insights
		}),
		failed: make(map[string]*models.Insights),
	}
}

func (s *fakeStore) CreateReport(context.Context, *models.Report) error { return nil }
func (s *fakeStore) GetReportByID(context.Context, string) (*models.Report, error) {
	return nil, models.ErrReportNotFound
}
func (s *fakeStore) ListReports(context.Context) ([]models.Report, error) { return nil, nil }
func (s *fakeStore) DeleteReport(context.Context, string) error           { return nil }

func (s *fakeStore) MarkReportIngested(_ context.Context, id string, summary *models.Summary, insights *models.Insights) error {
	s.ingested[id] = struct {
		summary  *models.Summary
		insights *models.Insights
	}{summary, insights}
	return nil
}

func (s *fakeStore) MarkReportFailed(_ context.Context, id string, insights *models.Insights) error {
	if s.failedWriteErr != nil {
		return s.failedWriteErr
	}
	s.failed[id] = insights
	return nil
}

func (s *fakeStore) UpdateReportAnalysis(context.Context, string, *models.Summary, map[string]string, []string, *models.Insights) error {
	return nil
}
func (s *fakeStore) CreateDashboard(context.Context, *models.Dashboard) error { return nil }
func (s *fakeStore) GetDashboardByReportID(context.Context, string) (*models.Dashboard, error) {
	return nil, nil
}
func (s *fakeStore) Close() error { return nil }

type fakeIndex struct {
	entries map[string]*models.VectorEntry
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{entries: make(map[string]*models.VectorEntry)}
}

func (f *fakeIndex) Upsert(_ context.Context, docID, filename string, vector []float32, text string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	ns := fmt.Sprintf("%s_%s", docID, filename)
	f.entries[ns] = &models.VectorEntry{ID: docID, Vector: vector, Filename: filename, Text: text}
	return ns, nil
}

func (f *fakeIndex) Fetch(_ context.Context, _, namespace string) (*models.VectorEntry, error) {
	entry, ok := f.entries[namespace]
	if !ok {
		return nil, models.ErrVectorNotFound
	}
	return entry, nil
}

func (f *fakeIndex) DeleteNamespace(_ context.Context, namespace string) error {
	delete(f.entries, namespace)
	return nil
}

type fakeObject struct{ data []byte }

func (f *fakeObject) UploadFile(context.Context, string, string, []byte, string) (string, error) {
	return "https://example.test/file", nil
}
func (f *fakeObject) DeleteFile(context.Context, string, string) error { return nil }
func (f *fakeObject) GetFile(context.Context, string, string) ([]byte, error) {
	return f.data, nil
}
func (f *fakeObject) GetObjectReader(context.Context, string, string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func newTestIngestor(store *fakeStore, index *fakeIndex, ocrText string) *DocumentIngestor {
	extractor := newTestExtractor(&fakeOCR{text: ocrText}, func([]byte) (string, error) {
		return ocrText, nil
	})
	embedder := NewEmbeddingGenerator(&fakeEmbedder{vecs: [][]float32{vectorOf(1536)}}, 1536, 8000, 20)
	return NewDocumentIngestor(store, &fakeObject{}, extractor, embedder, index, nil, zap.NewNop())
}

func TestRunSuccess(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	text := "Amoxicillin 500mg TID for ten days, review in two weeks"
	ing := newTestIngestor(store, index, text)

	err := ing.Run(context.Background(), "r1", []byte("%PDF"), "rx.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, ok := store.ingested["r1"]
	if !ok {
		t.Fatal("report was not marked ingested")
	}
	if rec.summary.TextLength != len(text) {
		t.Fatalf("want text_length %d, got %d", len(text), rec.summary.TextLength)
	}
	if rec.summary.Preview != text {
		t.Fatalf("short text should be its own preview, got %q", rec.summary.Preview)
	}
	if rec.insights.Namespace != "r1_rx.pdf" {
		t.Fatalf("want namespace r1_rx.pdf, got %q", rec.insights.Namespace)
	}
	if rec.insights.ExtractionMethod != MethodTextLayer {
		t.Fatalf("want extraction method %q, got %q", MethodTextLayer, rec.insights.ExtractionMethod)
	}

	entry, err := index.Fetch(context.Background(), "r1", "r1_rx.pdf")
	if err != nil {
		t.Fatalf("vector entry missing after run: %v", err)
	}
	if entry.Text != text {
		t.Fatalf("index should hold the extracted text, got %q", entry.Text)
	}
}

func TestRunPreviewTruncated(t *testing.T) {
	store := newFakeStore()
	text := strings.Repeat("cholesterol 220 mg/dL ", 60)
	ing := newTestIngestor(store, newFakeIndex(), text)

	if err := ing.Run(context.Background(), "r2", []byte("%PDF"), "labs.pdf"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(store.ingested["r2"].summary.Preview); got != 500 {
		t.Fatalf("want 500-char preview, got %d", got)
	}
}

func TestRunExtractionFailure(t *testing.T) {
	store := newFakeStore()
	ing := newTestIngestor(store, newFakeIndex(), "")

	err := ing.Run(context.Background(), "r3", []byte("png"), "blank.png")
	if !errors.Is(err, models.ErrEmptyExtraction) {
		t.Fatalf("want ErrEmptyExtraction, got %v", err)
	}

	ins, ok := store.failed["r3"]
	if !ok {
		t.Fatal("report was not marked failed")
	}
	if ins.Error == "" {
		t.Fatal("failure diagnostic missing")
	}
	if ins.ErrorType != "EmptyExtraction" {
		t.Fatalf("want error_type EmptyExtraction, got %q", ins.ErrorType)
	}
	if ins.FailedAt == nil {
		t.Fatal("failed_at timestamp missing")
	}
	if len(store.ingested) != 0 {
		t.Fatal("failed run must not mark the report ingested")
	}
}

func TestRunIndexFailureClassifiedAsTransport(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	index.err = errors.New("upstream unavailable")
	ing := newTestIngestor(store, index, "Amoxicillin 500mg TID for ten days")

	if err := ing.Run(context.Background(), "r4", []byte("%PDF"), "rx.pdf"); err == nil {
		t.Fatal("want error, got nil")
	}
	if got := store.failed["r4"].ErrorType; got != "TransportError" {
		t.Fatalf("want error_type TransportError, got %q", got)
	}
}

func TestRunFailureWriteIsBestEffort(t *testing.T) {
	store := newFakeStore()
	store.failedWriteErr = errors.New("db down")
	ing := newTestIngestor(store, newFakeIndex(), "")

	// the original pipeline error must surface even when the status
	// write itself fails
	err := ing.Run(context.Background(), "r5", []byte("png"), "blank.png")
	if !errors.Is(err, models.ErrEmptyExtraction) {
		t.Fatalf("want ErrEmptyExtraction, got %v", err)
	}
}

func TestRunRerunOverwrites(t *testing.T) {
	store := newFakeStore()
	index := newFakeIndex()
	ing := newTestIngestor(store, index, "Amoxicillin 500mg TID for ten days")

	for range 2 {
		if err := ing.Run(context.Background(), "r6", []byte("%PDF"), "rx.pdf"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(index.entries) != 1 {
		t.Fatalf("rerun must overwrite, not duplicate: %d entries", len(index.entries))
	}
}
