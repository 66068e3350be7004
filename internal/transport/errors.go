package transport

import (
	"encoding/json"
	"net/http"

	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/csbs/studyportal/internal/domain/material"
	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	// ErrUnauthorized indicates invalid or missing credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates a valid caller without the required role.
	ErrForbidden = errors.New("admin privileges required")
	errBadBody   = errors.New("invalid request body")
)

type errorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeValidation(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Message: "validation failed",
		Errors:  fields,
	})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadBody),
		errors.Is(err, work.ErrInvalidInput),
		errors.Is(err, work.ErrInvalidState),
		errors.Is(err, portion.ErrInvalidInput),
		errors.Is(err, material.ErrInvalidInput),
		errors.Is(err, activity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, work.ErrWorkNotFound),
		errors.Is(err, portion.ErrPortionNotFound):
		return http.StatusNotFound
	case errors.Is(err, work.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Message: err.Error()})
}
