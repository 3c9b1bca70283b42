package llm

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"

	"github.com/medscanlabs/mediscan/internal/core"
)

// LocalOCR runs docconv (tesseract underneath) on the host. No network
// dependency, but needs the tesseract binary installed.
type LocalOCR struct{}

func NewLocalOCR() *LocalOCR {
	return &LocalOCR{}
}

func (o *LocalOCR) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	res, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		return "", fmt.Errorf("docconv ocr: %w", err)
	}
	return strings.TrimSpace(res.Body), nil
}

var _ core.OCREngine = (*LocalOCR)(nil)
