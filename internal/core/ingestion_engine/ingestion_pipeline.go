package ingestion_engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/medscanlabs/mediscan/internal/core"
	"github.com/medscanlabs/mediscan/internal/models"
)

// DocumentIngestor runs the ingestion state machine for uploaded
// reports: extract text, embed it, upsert into the vector index, then
// write the terminal status. Execution is detached from the triggering
// request via a buffered job queue and a worker pool; Run stays directly
// invokable so the pipeline is testable without HTTP or a queue.
type DocumentIngestor struct {
	store     core.ReportStore
	obj       core.ObjectClient
	extractor *TextExtractor
	embedder  *EmbeddingGenerator
	index     core.VectorIndex
	cfg       *IngestConfig
	jobs      chan IngestJob
	logger    *zap.Logger

	// onIngested, when set, fires after a successful run. Used to chain
	// analysis onto ingestion when ANALYZE_ON_INGEST is enabled.
	onIngested func(ctx context.Context, reportID string)
}

func NewDocumentIngestor(store core.ReportStore, obj core.ObjectClient, extractor *TextExtractor, embedder *EmbeddingGenerator, index core.VectorIndex, cfg *IngestConfig, logger *zap.Logger) *DocumentIngestor {
	if cfg == nil {
		cfg = &IngestConfig{}
	}
	cfg.defaults()
	return &DocumentIngestor{
		store:     store,
		obj:       obj,
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		cfg:       cfg,
		jobs:      make(chan IngestJob, cfg.QueueSize),
		logger:    logger,
	}
}

// SetCompletionHook registers a callback invoked after each successful
// ingestion, before wiring workers. Not safe to call once Start has run.
func (i *DocumentIngestor) SetCompletionHook(fn func(ctx context.Context, reportID string)) {
	i.onIngested = fn
}

// Start launches the worker pool. Workers exit when ctx is cancelled.
func (i *DocumentIngestor) Start(ctx context.Context, numWorkers int) {
	g, gctx := errgroup.WithContext(ctx)
	for w := 1; w <= numWorkers; w++ {
		g.Go(func() error {
			i.worker(gctx, w)
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		i.logger.Info("ingestion workers stopped")
	}()
}

// Enqueue schedules a report for ingestion. Blocks when the queue is
// full, applying backpressure to the upload endpoint.
func (i *DocumentIngestor) Enqueue(job IngestJob) {
	i.jobs <- job
}

func (i *DocumentIngestor) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-i.jobs:
			i.processJob(ctx, id, job)
		}
	}
}

// processJob fetches the stored bytes and runs the pipeline under a
// fresh detached context, so an HTTP request that long since returned
// cannot cancel a half-done ingestion.
func (i *DocumentIngestor) processJob(_ context.Context, workerID int, job IngestJob) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(i.cfg.JobTimeoutSec)*time.Second)
	defer cancel()

	log := i.logger.With(zap.String("report_id", job.ReportID), zap.Int("worker", workerID))
	log.Info("processing report", zap.String("filename", job.Filename))

	data, err := i.obj.GetFile(ctx, job.Bucket, job.Key)
	if err != nil {
		i.persistFailure(job.ReportID, fmt.Errorf("fetch upload: %w", err))
		log.Error("could not fetch uploaded file", zap.Error(err))
		return
	}

	if err := i.Run(ctx, job.ReportID, data, job.Filename); err != nil {
		log.Error("ingestion failed", zap.Error(err))
		return
	}
	log.Info("ingestion completed")

	if i.onIngested != nil {
		i.onIngested(ctx, job.ReportID)
	}
}

// Run executes the pipeline stages strictly in order for one document.
// On any stage error the report is marked failed (best-effort) and the
// original error is returned. Running twice for the same report is a
// full redo: the second terminal write wins and the vector upsert
// overwrites rather than duplicates.
func (i *DocumentIngestor) Run(ctx context.Context, reportID string, fileBytes []byte, filename string) error {
	text, method, err := i.extractor.Extract(ctx, fileBytes, filename)
	if err != nil {
		i.persistFailure(reportID, err)
		return err
	}

	vector, err := i.embedder.Embed(ctx, text)
	if err != nil {
		i.persistFailure(reportID, err)
		return err
	}

	namespace, err := i.index.Upsert(ctx, reportID, filename, vector, text)
	if err != nil {
		i.persistFailure(reportID, err)
		return err
	}

	summary := &models.Summary{
		TextLength: len(text),
		Preview:    preview(text, i.cfg.PreviewChars),
	}
	insights := &models.Insights{
		Namespace:        namespace,
		ExtractionMethod: method,
	}
	if err := i.store.MarkReportIngested(ctx, reportID, summary, insights); err != nil {
		i.persistFailure(reportID, fmt.Errorf("persist completion: %w", err))
		return err
	}
	return nil
}

// persistFailure writes the terminal failed state. It is best-effort: a
// database outage here is logged and swallowed so it never masks the
// original pipeline error.
func (i *DocumentIngestor) persistFailure(reportID string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	insights := &models.Insights{
		Error:     cause.Error(),
		ErrorType: models.ErrorType(cause),
		FailedAt:  &now,
	}
	if err := i.store.MarkReportFailed(ctx, reportID, insights); err != nil {
		i.logger.Error("could not persist ingestion failure",
			zap.String("report_id", reportID),
			zap.NamedError("original", cause),
			zap.Error(err))
	}
}

func preview(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
