package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrUnsupportedFileType, "UnsupportedFileType"},
		{ErrEmptyExtraction, "EmptyExtraction"},
		{ErrTextTooShort, "EmptyExtraction"},
		{ErrEmbeddingDimension, "EmbeddingDimensionMismatch"},
		{ErrModelTimeout, "ModelTimeout"},
		{errors.New("connection reset"), "TransportError"},
		{fmt.Errorf("extract: %w", ErrEmptyExtraction), "EmptyExtraction"},
	}
	for _, tc := range tests {
		if got := ErrorType(tc.err); got != tc.want {
			t.Errorf("ErrorType(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
