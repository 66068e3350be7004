package mcp

import (
	"fmt"

	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/pkg/errors"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
}

var errIdentityRequired = &APIError{
	Code:         "IDENTITY_REQUIRED",
	Message:      "a verified caller is required",
	RecoveryHint: "Send an Authorization: Bearer header",
}

// MapError maps domain errors to MCP error codes. Unknown errors pass through.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, work.ErrWorkNotFound):
		return &APIError{Code: "WORK_NOT_FOUND", Message: "work not found", RecoveryHint: "Call list_works for valid ids"}
	case errors.Is(err, work.ErrInvalidState):
		return &APIError{Code: "INVALID_STATE", Message: err.Error(), RecoveryHint: "Use completed, doing or not_started"}
	case errors.Is(err, work.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, work.ErrConflict):
		return &APIError{Code: "CONFLICT", Message: "work is being updated concurrently", RecoveryHint: "Retry the call"}
	case errors.Is(err, portion.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, portion.ErrPortionNotFound):
		return &APIError{Code: "PORTION_NOT_FOUND", Message: "portion was removed", RecoveryHint: "Retry the call"}
	default:
		return err
	}
}
