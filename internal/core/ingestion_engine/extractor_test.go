package ingestion_engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/medscanlabs/mediscan/internal/models"
)

type fakeOCR struct {
	text string
	err  error

	calls     int
	lastMIME  string
	lastBytes []byte
}

func (f *fakeOCR) Transcribe(_ context.Context, data []byte, mimeType string) (string, error) {
	f.calls++
	f.lastMIME = mimeType
	f.lastBytes = data
	return f.text, f.err
}

func newTestExtractor(ocr *fakeOCR, pdfText func([]byte) (string, error)) *TextExtractor {
	e := NewTextExtractor(ocr, 20, zap.NewNop())
	if pdfText != nil {
		e.pdfText = pdfText
	}
	return e
}

func TestExtractUnsupportedExtension(t *testing.T) {
	e := newTestExtractor(&fakeOCR{}, nil)

	_, _, err := e.Extract(context.Background(), []byte("x"), "report.docx")
	if !errors.Is(err, models.ErrUnsupportedFileType) {
		t.Fatalf("want ErrUnsupportedFileType, got %v", err)
	}
}

func TestExtractImageUsesOCR(t *testing.T) {
	ocr := &fakeOCR{text: "Amoxicillin 500mg three times daily"}
	e := newTestExtractor(ocr, nil)

	text, method, err := e.Extract(context.Background(), []byte("jpegbytes"), "scan.JPG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != MethodOCR {
		t.Fatalf("want method %q, got %q", MethodOCR, method)
	}
	if text != ocr.text {
		t.Fatalf("want %q, got %q", ocr.text, text)
	}
	if ocr.lastMIME != "image/jpeg" {
		t.Fatalf("want image/jpeg, got %q", ocr.lastMIME)
	}
}

func TestExtractPDFTextLayer(t *testing.T) {
	ocr := &fakeOCR{}
	e := newTestExtractor(ocr, func([]byte) (string, error) {
		return "Hemoglobin 14.5 g/dL within normal range", nil
	})

	text, method, err := e.Extract(context.Background(), []byte("%PDF"), "labs.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if method != MethodTextLayer {
		t.Fatalf("want method %q, got %q", MethodTextLayer, method)
	}
	if !strings.Contains(text, "Hemoglobin") {
		t.Fatalf("unexpected text %q", text)
	}
	if ocr.calls != 0 {
		t.Fatalf("OCR should not run when the text layer suffices")
	}
}

func TestExtractPDFFallsBackToOCR(t *testing.T) {
	tests := []struct {
		name    string
		pdfText func([]byte) (string, error)
	}{
		{"thin text layer", func([]byte) (string, error) { return "p1", nil }},
		{"extraction error", func([]byte) (string, error) { return "", errors.New("corrupt xref") }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ocr := &fakeOCR{text: "Patient shows elevated cholesterol levels"}
			e := newTestExtractor(ocr, tc.pdfText)

			text, method, err := e.Extract(context.Background(), []byte("%PDF"), "scan.pdf")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if method != MethodOCR {
				t.Fatalf("want method %q, got %q", MethodOCR, method)
			}
			if text != ocr.text {
				t.Fatalf("want OCR text, got %q", text)
			}
			if ocr.lastMIME != "application/pdf" {
				t.Fatalf("want application/pdf, got %q", ocr.lastMIME)
			}
		})
	}
}

func TestExtractEmptyOCRIsError(t *testing.T) {
	ocr := &fakeOCR{text: ""}
	e := newTestExtractor(ocr, nil)

	_, _, err := e.Extract(context.Background(), []byte("png"), "blank.png")
	if !errors.Is(err, models.ErrEmptyExtraction) {
		t.Fatalf("want ErrEmptyExtraction, got %v", err)
	}
}

func TestExtractOCREngineFailure(t *testing.T) {
	ocr := &fakeOCR{err: errors.New("ocr backend unavailable")}
	e := newTestExtractor(ocr, nil)

	_, _, err := e.Extract(context.Background(), []byte("png"), "scan.png")
	if err == nil || errors.Is(err, models.ErrEmptyExtraction) {
		t.Fatalf("engine failure must propagate as its own error, got %v", err)
	}
}

func TestAllowedFile(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"rx.pdf", true},
		{"scan.JPEG", true},
		{"img.png", true},
		{"notes.txt", false},
		{"noext", false},
	}
	for _, tc := range tests {
		if got := AllowedFile(tc.filename); got != tc.want {
			t.Errorf("AllowedFile(%q) = %t, want %t", tc.filename, got, tc.want)
		}
	}
}
