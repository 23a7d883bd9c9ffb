package domain

import (
	"errors"
	"fmt"
	"time"
)

// Classified failure kinds. Every code path through the analysis pipeline
// ends in either a fully-normalized result or exactly one of these.
var (
	// ErrInvalidInput is client-caused and never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable is an upstream transient failure; the client may
	// safely retry because the model call has no external side effect.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrModelResponseInvalid means the model returned structurally unusable
	// content. The raw text is logged for inspection but never surfaced.
	ErrModelResponseInvalid = errors.New("model response invalid")

	// ErrPersistenceUnavailable means the durability step failed after the
	// analysis itself succeeded; the computed result is still returned.
	ErrPersistenceUnavailable = errors.New("persistence unavailable")

	// ErrNotFound is only relevant to delete, where it is treated as
	// success because delete is idempotent.
	ErrNotFound = errors.New("not found")
)

// Error codes exposed in API error envelopes.
const (
	CodeInvalidInput           = "INVALID_INPUT"
	CodeModelUnavailable       = "MODEL_UNAVAILABLE"
	CodeModelResponseInvalid   = "MODEL_RESPONSE_INVALID"
	CodePersistenceUnavailable = "PERSISTENCE_UNAVAILABLE"
	CodeNotFound               = "NOT_FOUND"
	CodeInternalServer         = "INTERNAL_SERVER_ERROR"
)

// APIError is the standardized error response envelope.
type APIError struct {
	Code          string    `json:"code"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates a new APIError with timestamp.
func NewAPIError(code, message, correlationID string) *APIError {
	return &APIError{
		Code:          code,
		Message:       message,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
	}
}

// ErrorCode classifies an error from the pipeline into an API error code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrModelUnavailable):
		return CodeModelUnavailable
	case errors.Is(err, ErrModelResponseInvalid):
		return CodeModelResponseInvalid
	case errors.Is(err, ErrPersistenceUnavailable):
		return CodePersistenceUnavailable
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternalServer
	}
}
