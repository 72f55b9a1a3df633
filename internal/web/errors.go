package web

// errors.go maps conversion errors to HTTP responses.
//
// Every error body has the shape {"detail": "..."}. The technical error is
// logged with the request ID for correlation; what the client sees is:
//
//	ErrInvalidFileType      400  the error message
//	*http.MaxBytesError     413  file too large
//	ErrTooManyConversions   503  the error message
//	anything else           500  "error processing file: " + message

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/csvdml/internal/core"
	"github.com/JonMunkholm/csvdml/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// processingErrorPrefix starts the detail of every 500 response.
const processingErrorPrefix = "error processing file: "

// respondError logs err and writes the matching status and detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := classifyError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
	}
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request rejected", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeDetail(w, r, status, detail)
}

// classifyError picks the status code and client-facing detail for err.
func classifyError(err error) (int, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrInvalidFileType):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, fmt.Sprintf("file too large: limit is %d bytes", maxErr.Limit)
	case errors.Is(err, core.ErrTooManyConversions):
		return http.StatusServiceUnavailable, err.Error()
	default:
		return http.StatusInternalServerError, processingErrorPrefix + err.Error()
	}
}

// writeDetail writes a {"detail": ...} JSON response.
// Logs encoding errors since headers are already sent.
func writeDetail(w http.ResponseWriter, r *http.Request, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Detail: detail}); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "status", status, "error", err)
	}
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}
