package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/medscanlabs/mediscan/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps the domain error taxonomy onto HTTP codes: caller
// input and state errors are 400, lookups 404, upstream model and
// transport failures 502, everything else 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrReportNotFound),
		errors.Is(err, models.ErrVectorNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUnsupportedFileType),
		errors.Is(err, models.ErrUnsupportedReportType),
		errors.Is(err, models.ErrEmptyExtraction),
		errors.Is(err, models.ErrTextTooShort),
		errors.Is(err, models.ErrReportProcessing),
		errors.Is(err, models.ErrReportFailed),
		errors.Is(err, models.ErrMissingNamespace):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidModelOutput),
		errors.Is(err, models.ErrModelTimeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
