package ingestion_engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/medscanlabs/mediscan/internal/core"
	"github.com/medscanlabs/mediscan/internal/models"
)

// Extraction methods recorded into insights.extraction_method.
const (
	MethodTextLayer = "text_layer"
	MethodOCR       = "ocr"
)

// TextExtractor converts an uploaded file into plain text. PDFs go
// through the text layer first and fall back to OCR when the layer is
// missing or too thin (scanned documents); images go straight to OCR.
type TextExtractor struct {
	ocr      core.OCREngine
	minChars int
	logger   *zap.Logger

	// pdfText is swappable in tests; defaults to the pdfcpu extractor.
	pdfText func(data []byte) (string, error)
}

func NewTextExtractor(ocr core.OCREngine, minChars int, logger *zap.Logger) *TextExtractor {
	return &TextExtractor{
		ocr:      ocr,
		minChars: minChars,
		logger:   logger,
		pdfText:  extractPDFText,
	}
}

// Extract returns the document text and the method that produced it.
// An empty or sub-threshold result is an error, never a silent success.
func (e *TextExtractor) Extract(ctx context.Context, fileBytes []byte, filename string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text   string
		method string
		err    error
	)
	switch ext {
	case ".pdf":
		text, method, err = e.extractPDF(ctx, fileBytes, filename)
	case ".jpg", ".jpeg", ".png":
		method = MethodOCR
		text, err = e.ocr.Transcribe(ctx, fileBytes, mimeForExt(ext))
	default:
		return "", "", fmt.Errorf("%w: %q", models.ErrUnsupportedFileType, ext)
	}
	if err != nil {
		return "", method, err
	}

	text = strings.TrimSpace(text)
	if len(text) < e.minChars {
		return "", method, fmt.Errorf("%w: got %d chars from %s", models.ErrEmptyExtraction, len(text), filename)
	}
	return text, method, nil
}

func (e *TextExtractor) extractPDF(ctx context.Context, data []byte, filename string) (string, string, error) {
	text, err := e.pdfText(data)
	if err == nil && len(strings.TrimSpace(text)) >= e.minChars {
		return text, MethodTextLayer, nil
	}
	if err != nil {
		e.logger.Warn("pdf text layer extraction failed, falling back to OCR",
			zap.String("filename", filename), zap.Error(err))
	} else {
		e.logger.Info("pdf has no usable text layer, falling back to OCR",
			zap.String("filename", filename), zap.Int("chars", len(strings.TrimSpace(text))))
	}

	ocrText, ocrErr := e.ocr.Transcribe(ctx, data, "application/pdf")
	if ocrErr != nil {
		return "", MethodOCR, ocrErr
	}
	return ocrText, MethodOCR, nil
}

func mimeForExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// AllowedFile reports whether the filename has a supported extension.
func AllowedFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}
