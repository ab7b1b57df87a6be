// Package httpx contains small helpers for writing JSON API responses and
// mapping errors to HTTP status codes.
package httpx

import (
	"encoding/json"
	"net/http"
)

// HTTPError represents an HTTP error with a status code and a short
// machine-readable key. The key doubles as the response error message for
// cases where no human-readable message is set.
type HTTPError struct {
	Code int    // HTTP status code
	Key  string // short error key (e.g. "method_not_allowed")
}

// Error implements the error interface.
func (e HTTPError) Error() string {
	return e.Key
}

// NewHTTPError creates a custom HTTP error with the given status code and key.
func NewHTTPError(code int, key string) HTTPError {
	return HTTPError{Code: code, Key: key}
}

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Key: "bad_request"}
	ErrMethodNotAllowed    = HTTPError{Code: http.StatusMethodNotAllowed, Key: "method_not_allowed"}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Key: "internal_server_error"}
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	// Encoding failures at this point cannot be reported to the client;
	// the status line is already written.
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the uniform error response shape: {"error": "..."}.
type errorBody struct {
	Error string `json:"error"`
}

// Error writes a JSON error response with the given status code and message.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, errorBody{Error: message})
}
