package handler

// Response helpers. Every endpoint speaks the same two envelopes:
//
//	success: {"message": "...", "data": {...}}   (either part optional)
//	failure: {"error": "..."}
//
// A fresh response value is built per request — nothing here is shared
// or mutated between requests.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/chatconnect/internal/apperror"
)

// successResponse is the success envelope. Message and Data are both
// omitted when empty so endpoints that return only one of them don't
// emit null fields.
type successResponse struct {
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// errorResponse carries the single client-facing error string.
type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON sends any value as a JSON response with the given status.
// Headers must be set before the first Write; encoding failures can only
// be logged since the status line is already gone.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeSuccess sends the success envelope.
func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, successResponse{Message: message, Data: data})
}

// writeError maps a domain error to its HTTP status and sends the error
// envelope. The service layer returns apperror kinds; this is the only
// place they turn into status codes.
//
// Unknown errors become a generic 500 — the raw message might contain
// SQL or file paths and never reaches the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, errorResponse{Error: appErr.Message})
		return
	}

	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Operation was not successful"})
}

// decodeJSON reads a JSON request body into v, rejecting unknown-shaped
// payloads with a 400. Returns false if it already wrote a response.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}
