package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/medscanlabs/mediscan/internal/core"
)

const ocrPrompt = "Transcribe every piece of text in this document exactly as written, " +
	"including handwritten text. Output only the transcribed text, nothing else. " +
	"If the document contains no readable text, output nothing."

// GeminiOCR transcribes document images and scanned PDFs with a vision
// model. Handwriting-tolerant, which matters for prescriptions.
type GeminiOCR struct {
	client    *genai.Client
	modelName string
}

func NewGeminiOCR(ctx context.Context, apiKey, modelName string) (*GeminiOCR, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiOCR{client: cl, modelName: modelName}, nil
}

func (g *GeminiOCR) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Transcribe returns the transcribed text, or "" when the model finds
// nothing readable. Errors are engine failures only.
func (g *GeminiOCR) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	m := g.client.GenerativeModel(g.modelName)

	resp, err := m.GenerateContent(ctx,
		genai.Text(ocrPrompt),
		genai.Blob{MIMEType: mimeType, Data: data},
	)
	if err != nil {
		return "", fmt.Errorf("gemini ocr: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String()), nil
}

var _ core.OCREngine = (*GeminiOCR)(nil)
