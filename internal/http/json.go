package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/routewatch/routewatch/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// errorStatus maps a pipeline error to an HTTP status and an error code. Store failures
// are 503; a route the model cannot be built for is 422.
func errorStatus(err error) (int, string) {
	code := string(apperrors.GetCode(err))
	switch {
	case apperrors.IsDataSource(err), apperrors.IsTimeout(err), apperrors.IsCanceled(err):
		return http.StatusServiceUnavailable, code
	case apperrors.IsInsufficientData(err), apperrors.IsModelFit(err):
		return http.StatusUnprocessableEntity, code
	case apperrors.IsValidation(err):
		return http.StatusBadRequest, code
	case apperrors.IsNotFound(err):
		return http.StatusNotFound, code
	default:
		return http.StatusInternalServerError, string(apperrors.ErrCodeInternal)
	}
}

// userMessage is the text shown on the page for err. Causes are only shown for
// insufficient data, where they say how many samples are missing.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return "The report could not be generated."
	}
	if appErr.Code == apperrors.ErrCodeInsufficientData {
		return appErr.Error()
	}
	return appErr.Message
}
