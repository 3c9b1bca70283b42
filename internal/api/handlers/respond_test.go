package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/medscanlabs/mediscan/internal/models"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.ErrReportNotFound, http.StatusNotFound},
		{models.ErrVectorNotFound, http.StatusNotFound},
		{models.ErrUnsupportedFileType, http.StatusBadRequest},
		{models.ErrUnsupportedReportType, http.StatusBadRequest},
		{models.ErrReportProcessing, http.StatusBadRequest},
		{models.ErrReportFailed, http.StatusBadRequest},
		{models.ErrMissingNamespace, http.StatusBadRequest},
		{models.ErrEmptyExtraction, http.StatusBadRequest},
		{models.ErrInvalidModelOutput, http.StatusBadGateway},
		{models.ErrModelTimeout, http.StatusBadGateway},
		{errors.New("something else"), http.StatusInternalServerError},
		// wrapped sentinels must map the same as bare ones
		{fmt.Errorf("report abc: %w", models.ErrReportNotFound), http.StatusNotFound},
	}
	for _, tc := range tests {
		if got := statusFor(tc.err); got != tc.want {
			t.Errorf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
