package transport

import (
	"net/http"

	"github.com/csbs/studyportal/internal/auth"
	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/go-chi/chi/v5"
)

type addWorkRequest struct {
	Subject  string `json:"subject" validate:"notblank"`
	Work     string `json:"work" validate:"notblank"`
	Deadline string `json:"deadline" validate:"notblank,datetime=2006-01-02"`
	FileURL  string `json:"fileUrl"`
	AddedBy  string `json:"addedBy"`
}

type setStatusRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	State    string `json:"state" validate:"notblank"`
}

type worksResponse struct {
	Success bool        `json:"success"`
	Works   []work.Work `json:"works"`
	Totals  work.Totals `json:"totals"`
}

type workResponse struct {
	Success bool         `json:"success"`
	Work    *work.Work   `json:"work"`
	Totals  *work.Totals `json:"totals,omitempty"`
}

type totalsResponse struct {
	Success bool        `json:"success"`
	Totals  work.Totals `json:"totals"`
}

func (s *Server) handleListWorks(w http.ResponseWriter, r *http.Request) {
	works, totals, err := s.services.Works.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.ObserveTotals(totals)
	writeJSON(w, http.StatusOK, worksResponse{Success: true, Works: works, Totals: totals})
}

func (s *Server) handleGetWork(w http.ResponseWriter, r *http.Request) {
	wk, err := s.services.Works.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, workResponse{Success: true, Work: wk})
}

func (s *Server) handleAddWork(w http.ResponseWriter, r *http.Request) {
	var req addWorkRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	addedBy := req.AddedBy
	if id, ok := auth.FromContext(r.Context()); ok && addedBy == "" {
		addedBy = id.Username
	}

	wk, err := s.services.Works.Create(r.Context(), work.CreateRequest{
		Subject:     req.Subject,
		Description: req.Work,
		Deadline:    req.Deadline,
		AddedBy:     addedBy,
		FileURL:     req.FileURL,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	totals, err := s.services.Works.Summary(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.ObserveTotals(totals)
	writeJSON(w, http.StatusCreated, workResponse{Success: true, Work: wk, Totals: &totals})
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	var req setStatusRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	userID, username := req.UserID, req.Username
	if s.authOn {
		// the token, not the body, says who is asking
		id, _ := auth.FromContext(r.Context())
		userID, username = id.UserID, id.Username
		if username == "" {
			username = id.Email
		}
	} else if fields := missingIdentity(req); fields != nil {
		writeValidation(w, fields)
		return
	}

	wk, totals, err := s.services.Works.SetStatus(r.Context(), work.SetStatusRequest{
		WorkID:   chi.URLParam(r, "id"),
		UserID:   userID,
		Username: username,
		State:    req.State,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.ObserveTotals(totals)
	writeJSON(w, http.StatusOK, workResponse{Success: true, Work: wk, Totals: &totals})
}

func (s *Server) handleDeleteWork(w http.ResponseWriter, r *http.Request) {
	actor := ""
	if id, ok := auth.FromContext(r.Context()); ok {
		actor = id.Username
	}

	totals, err := s.services.Works.Delete(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.metrics.ObserveTotals(totals)
	writeJSON(w, http.StatusOK, totalsResponse{Success: true, Totals: totals})
}

func missingIdentity(req setStatusRequest) map[string]string {
	fields := map[string]string{}
	if isBlank(req.UserID) {
		fields["userId"] = "userId is required"
	}
	if isBlank(req.Username) {
		fields["username"] = "username is required"
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
