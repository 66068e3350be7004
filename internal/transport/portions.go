package transport

import (
	"net/http"
	"strings"

	"github.com/csbs/studyportal/internal/domain/portion"
)

const topicExistsMessage = "Topic already exists for this staff."

type addTopicRequest struct {
	Subject string `json:"subject" validate:"notblank"`
	Topic   string `json:"topic" validate:"notblank"`
	Staff   string `json:"staff" validate:"notblank"`
}

type dataResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleListPortions(w http.ResponseWriter, r *http.Request) {
	portions, err := s.services.Portions.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: portions})
}

func (s *Server) handleAddTopic(w http.ResponseWriter, r *http.Request) {
	var req addTopicRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	p, existed, err := s.services.Portions.AddTopic(r.Context(), portion.AddTopicRequest{
		Subject: req.Subject,
		Staff:   req.Staff,
		Topic:   req.Topic,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if existed {
		writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: p, Message: topicExistsMessage})
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Success: true, Data: p})
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
