package models

import "errors"

// Sentinel errors shared across the pipeline and analysis engine.
// Callers classify with errors.Is; handlers map them onto HTTP statuses.
var (
	// Input errors — the upload itself is unusable. Not retryable.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrEmptyExtraction     = errors.New("no text extracted from file")
	ErrTextTooShort        = errors.New("extracted text below minimum length")

	// ErrEmbeddingDimension means the provider returned a vector whose
	// length does not match the index dimension. The vector is never
	// padded or truncated to fit.
	ErrEmbeddingDimension = errors.New("embedding dimension mismatch")

	// State errors — client-correctable conditions.
	ErrReportNotFound   = errors.New("report not found")
	ErrReportProcessing = errors.New("report is still being processed")
	ErrReportFailed     = errors.New("report processing failed")
	ErrMissingNamespace = errors.New("report has no vector namespace")

	ErrUnsupportedReportType = errors.New("unsupported report type")

	// Model-output errors — the language model replied, but not with a
	// usable JSON object. Surfaced so the caller can retry analysis;
	// never converted into an empty success.
	ErrInvalidModelOutput = errors.New("model output is not valid JSON")
	ErrModelTimeout       = errors.New("model call timed out")

	// Storage errors.
	ErrVectorNotFound = errors.New("vector entry not found")
	ErrAlreadyExists  = errors.New("row already exists")
)

// ErrorType returns the classification tag persisted into
// insights.error_type for a failed ingestion.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFileType):
		return "UnsupportedFileType"
	case errors.Is(err, ErrEmptyExtraction), errors.Is(err, ErrTextTooShort):
		return "EmptyExtraction"
	case errors.Is(err, ErrEmbeddingDimension):
		return "EmbeddingDimensionMismatch"
	case errors.Is(err, ErrModelTimeout):
		return "ModelTimeout"
	default:
		return "TransportError"
	}
}
