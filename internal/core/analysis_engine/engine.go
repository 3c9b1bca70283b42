package analysis_engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/medscanlabs/mediscan/internal/core"
	"github.com/medscanlabs/mediscan/internal/models"
)

// AnalysisEngine turns an ingested report into structured clinical
// fields: it pulls the indexed text back out of the vector store, asks
// the language model for a typed JSON result, normalizes it and writes
// it onto the report record. Reruns overwrite; last commit wins.
type AnalysisEngine struct {
	store   core.ReportStore
	index   core.VectorIndex
	llm     core.LLMProvider
	timeout time.Duration
	logger  *zap.Logger
}

func NewAnalysisEngine(store core.ReportStore, index core.VectorIndex, llm core.LLMProvider, timeout time.Duration, logger *zap.Logger) *AnalysisEngine {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnalysisEngine{
		store:   store,
		index:   index,
		llm:     llm,
		timeout: timeout,
		logger:  logger,
	}
}

// Analyze runs one analysis for the report. It never calls the language
// model unless the record has completed ingestion and carries a
// namespace pointer into the vector store.
func (e *AnalysisEngine) Analyze(ctx context.Context, reportID string) (*models.AnalysisResult, error) {
	report, err := e.store.GetReportByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	switch report.Status {
	case models.StatusCompleted:
	case models.StatusProcessing:
		return nil, fmt.Errorf("report %s: %w", reportID, models.ErrReportProcessing)
	case models.StatusFailed:
		// surface the stored ingestion diagnostic alongside the state error
		if report.Insights != nil && report.Insights.Error != "" {
			return nil, fmt.Errorf("report %s: %w: %s", reportID, models.ErrReportFailed, report.Insights.Error)
		}
		return nil, fmt.Errorf("report %s: %w", reportID, models.ErrReportFailed)
	default:
		return nil, fmt.Errorf("report %s has unknown status %q", reportID, report.Status)
	}

	if report.Insights == nil || report.Insights.Namespace == "" {
		return nil, fmt.Errorf("report %s: %w", reportID, models.ErrMissingNamespace)
	}
	namespace := report.Insights.Namespace

	entry, err := e.index.Fetch(ctx, reportID, namespace)
	if err != nil {
		return nil, fmt.Errorf("fetch indexed document: %w", err)
	}
	text := strings.TrimSpace(entry.Text)
	if text == "" {
		return nil, fmt.Errorf("namespace %s holds no document text: %w", namespace, models.ErrEmptyExtraction)
	}

	prompt, err := promptFor(report.ReportType, text)
	if err != nil {
		return nil, err
	}

	raw, err := e.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	obj, err := parseModelOutput(raw)
	if err != nil {
		e.logger.Warn("rejecting unparseable model output",
			zap.String("report_id", reportID),
			zap.Int("response_len", len(raw)))
		return nil, err
	}
	result := normalize(obj)

	now := time.Now().UTC()
	insights := &models.Insights{
		// carried over from ingestion by contract
		Namespace:        namespace,
		ExtractionMethod: report.Insights.ExtractionMethod,

		Analysis: map[string]any{
			"summary":         result.Summary,
			"key_findings":    result.KeyFindings,
			"recommendations": result.Recommendations,
			"insights":        result.InsightsOneLine,
		},
		InsightsOneLine:    result.InsightsOneLine,
		AnalyzedAt:         &now,
		DocumentTextLength: len(text),
	}
	summary := &models.Summary{Text: result.Summary}

	if err := e.store.UpdateReportAnalysis(ctx, reportID, summary, result.KeyFindings, result.Recommendations, insights); err != nil {
		return nil, fmt.Errorf("persist analysis: %w", err)
	}

	e.logger.Info("report analyzed",
		zap.String("report_id", reportID),
		zap.String("report_type", report.ReportType),
		zap.Int("document_text_length", len(text)))
	return result, nil
}

// generate runs the model call under the engine's timeout. A deadline
// hit is surfaced as ErrModelTimeout so callers can map it distinctly
// from malformed output.
func (e *AnalysisEngine) generate(ctx context.Context, prompt string) (string, error) {
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.llm.GenerateJSON(tctx, systemPrompt, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(tctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("model call exceeded %s: %w", e.timeout, models.ErrModelTimeout)
		}
		return "", fmt.Errorf("model call: %w", err)
	}
	return raw, nil
}
