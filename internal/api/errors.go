package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/p-arndt/driverpool/internal/capabilities"
	"github.com/p-arndt/driverpool/internal/docker"
	"github.com/p-arndt/driverpool/internal/session"
	"github.com/p-arndt/driverpool/internal/store"
)

// Error codes returned in API responses
const (
	ErrCodeDriverNotFound    = "DRIVER_NOT_FOUND"
	ErrCodeBrowserNotAllowed = "BROWSER_NOT_ALLOWED"
	ErrCodeUnknownBrowser    = "UNKNOWN_BROWSER"
	ErrCodeQuitFailed        = "QUIT_FAILED"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeCreateTimeout     = "CREATE_TIMEOUT"
)

// APIError represents a structured API error response
type APIError struct {
	Code    string         `json:"error_code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// errorStatus maps an error to its HTTP status and API code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, ErrCodeDriverNotFound
	case errors.Is(err, session.ErrBrowserNotAllowed):
		return http.StatusForbidden, ErrCodeBrowserNotAllowed
	case errors.Is(err, docker.ErrUnknownBrowser):
		return http.StatusBadRequest, ErrCodeUnknownBrowser
	case errors.Is(err, capabilities.ErrUnencodable):
		return http.StatusBadRequest, ErrCodeInvalidRequest
	case errors.Is(err, session.ErrQuitFailed):
		return http.StatusBadGateway, ErrCodeQuitFailed
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrCodeCreateTimeout
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// writeAPIError writes a structured error response with appropriate HTTP status
func writeAPIError(w http.ResponseWriter, err error) {
	writeAPIErrorDetails(w, err, nil)
}

func writeAPIErrorDetails(w http.ResponseWriter, err error, details map[string]any) {
	status, code := errorStatus(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(APIError{
		Code:    code,
		Message: err.Error(),
		Details: details,
	})
}

// writeValidationError writes a 400 Bad Request with validation details
func writeValidationError(w http.ResponseWriter, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(APIError{
		Code:    ErrCodeInvalidRequest,
		Message: message,
		Details: details,
	})
}

// writeUnauthorizedError writes a 401 Unauthorized error
func writeUnauthorizedError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	})
}
