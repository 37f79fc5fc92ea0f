package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/Ai-Whisperers/LangAi-sub012/contracts"
)

// API-specific errors.
var (
	// ErrBatchExists is returned when trying to create a batch with an existing ID.
	ErrBatchExists = errors.New("batch already exists")

	// ErrBatchNotFound is returned when the requested batch ID is unknown.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrBatchCompleted is returned when aborting a batch that already finished.
	ErrBatchCompleted = errors.New("batch already completed")
)

// ErrorCode represents an API error code.
type ErrorCode string

// Error codes for API responses.
const (
	CodeInvalidInput   ErrorCode = "invalid_input"
	CodeNoEntities     ErrorCode = "no_entities"
	CodeBatchNotFound  ErrorCode = "batch_not_found"
	CodeBatchExists    ErrorCode = "batch_exists"
	CodeBatchCompleted ErrorCode = "batch_completed"
	CodeBudgetExceeded ErrorCode = "budget_exceeded"
	CodeCancelled      ErrorCode = "cancelled"
	CodeTimeout        ErrorCode = "timeout"
	CodeInternalError  ErrorCode = "internal_error"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	StatusCode int
	Code       ErrorCode
	Err        error
}

func (e *HTTPError) Error() string {
	return e.Err.Error()
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// MapError maps a domain error to an HTTPError.
func MapError(err error) *HTTPError {
	if err == nil {
		return nil
	}

	// Check for specific error types
	switch {
	case errors.Is(err, contracts.ErrInvalidInput):
		return &HTTPError{http.StatusBadRequest, CodeInvalidInput, err}

	case errors.Is(err, contracts.ErrNoEntities):
		return &HTTPError{http.StatusBadRequest, CodeNoEntities, err}

	case errors.Is(err, ErrBatchNotFound):
		return &HTTPError{http.StatusNotFound, CodeBatchNotFound, err}

	case errors.Is(err, ErrBatchExists):
		return &HTTPError{http.StatusConflict, CodeBatchExists, err}

	case errors.Is(err, ErrBatchCompleted):
		return &HTTPError{http.StatusConflict, CodeBatchCompleted, err}

	case errors.Is(err, contracts.ErrBudgetExceeded):
		return &HTTPError{http.StatusUnprocessableEntity, CodeBudgetExceeded, err}

	case errors.Is(err, context.Canceled):
		// 499: nginx convention for "client closed request"
		return &HTTPError{499, CodeCancelled, err}

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, contracts.ErrEntityTimeout):
		return &HTTPError{http.StatusGatewayTimeout, CodeTimeout, err}

	default:
		return &HTTPError{http.StatusInternalServerError, CodeInternalError, err}
	}
}

// WriteError writes an error response to the HTTP response writer.
func WriteError(w http.ResponseWriter, err error) {
	httpErr := MapError(err)
	if httpErr == nil {
		return
	}

	resp := ErrorDTO{
		Code:    string(httpErr.Code),
		Message: httpErr.Error(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.StatusCode)
	writeJSON(w, resp)
}
