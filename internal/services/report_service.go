package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/medscanlabs/mediscan/internal/core"
	ingestion "github.com/medscanlabs/mediscan/internal/core/ingestion_engine"
	"github.com/medscanlabs/mediscan/internal/models"
)

// ReportService owns the report lifecycle around the pipeline: upload
// and enqueue, status polling, listing and deletion with vector-store
// cleanup.
type ReportService struct {
	store    core.ReportStore
	storage  core.ObjectClient
	index    core.VectorIndex
	ingestor *ingestion.DocumentIngestor
	bucket   string
	logger   *zap.Logger
}

func NewReportService(store core.ReportStore, storage core.ObjectClient, index core.VectorIndex, ingestor *ingestion.DocumentIngestor, bucket string, logger *zap.Logger) *ReportService {
	return &ReportService{
		store:    store,
		storage:  storage,
		index:    index,
		ingestor: ingestor,
		bucket:   bucket,
		logger:   logger,
	}
}

// Upload stores the raw file, creates the processing record and
// schedules ingestion. It returns as soon as the record exists; the
// pipeline catches up in the background.
func (s *ReportService) Upload(ctx context.Context, reportType, filename, contentType string, data []byte) (*models.Report, error) {
	switch reportType {
	case models.ReportTypePrescription, models.ReportTypeBloodTest:
	default:
		return nil, fmt.Errorf("report type %q: %w", reportType, models.ErrUnsupportedReportType)
	}
	if !ingestion.AllowedFile(filename) {
		return nil, fmt.Errorf("file %q: %w", filename, models.ErrUnsupportedFileType)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("file %q is empty: %w", filename, models.ErrEmptyExtraction)
	}

	reportID := uuid.NewString()
	key := s.objectKey(reportID, filename)

	url, err := s.storage.UploadFile(ctx, s.bucket, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	report := &models.Report{
		ID:         reportID,
		ReportType: reportType,
		ReportName: filename,
		FileURL:    url,
		Status:     models.StatusProcessing,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.store.CreateReport(ctx, report); err != nil {
		return nil, err
	}

	s.ingestor.Enqueue(ingestion.IngestJob{
		ReportID: reportID,
		Bucket:   s.bucket,
		Key:      key,
		Filename: filename,
	})

	s.logger.Info("report upload accepted",
		zap.String("report_id", reportID),
		zap.String("report_type", reportType),
		zap.String("filename", filename))
	return report, nil
}

func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	return s.store.GetReportByID(ctx, id)
}

func (s *ReportService) List(ctx context.Context) ([]models.Report, error) {
	return s.store.ListReports(ctx)
}

// GetStatus returns the polling shape for one report. Completed records
// expose the extracted-text length and preview; failed records expose
// the stored diagnostic.
func (s *ReportService) GetStatus(ctx context.Context, id string) (*models.StatusInfo, error) {
	report, err := s.store.GetReportByID(ctx, id)
	if err != nil {
		return nil, err
	}

	info := &models.StatusInfo{
		ReportID: report.ID,
		Status:   report.Status,
	}
	switch report.Status {
	case models.StatusCompleted:
		if report.Summary != nil {
			info.TextLength = report.Summary.TextLength
			info.TextPreview = report.Summary.Preview
		}
	case models.StatusFailed:
		if report.Insights != nil {
			info.Error = report.Insights.Error
		}
	}
	return info, nil
}

// Delete removes the report row (cascading its dashboard) after
// best-effort cleanup of the vector namespace and the stored file.
// External cleanup failures are logged, never block the delete.
func (s *ReportService) Delete(ctx context.Context, id string) error {
	report, err := s.store.GetReportByID(ctx, id)
	if err != nil {
		return err
	}

	if report.Insights != nil && report.Insights.Namespace != "" {
		if err := s.index.DeleteNamespace(ctx, report.Insights.Namespace); err != nil {
			s.logger.Warn("vector namespace deletion failed",
				zap.String("report_id", id),
				zap.String("namespace", report.Insights.Namespace),
				zap.Error(err))
		}
	}

	if err := s.storage.DeleteFile(ctx, s.bucket, s.objectKey(id, report.ReportName)); err != nil {
		s.logger.Warn("stored file deletion failed",
			zap.String("report_id", id),
			zap.Error(err))
	}

	if err := s.store.DeleteReport(ctx, id); err != nil {
		return err
	}
	s.logger.Info("report deleted", zap.String("report_id", id))
	return nil
}

// objectKey creates a consistent S3 key layout. Deterministic so delete
// can rebuild it from the record without storing the key separately.
func (s *ReportService) objectKey(reportID, filename string) string {
	filename = strings.TrimSpace(filename)
	filename = strings.ReplaceAll(filename, " ", "_")
	return path.Join("reports", reportID, filename)
}
