package transport

import (
	"net/http"

	"github.com/csbs/studyportal/internal/auth"
	"github.com/csbs/studyportal/internal/domain/material"
)

type addMaterialRequest struct {
	Link        string `json:"link" validate:"notblank,url"`
	DisplayName string `json:"displayName"`
	Subject     string `json:"subject"`
	Format      string `json:"format"`
	UploadedBy  string `json:"uploadedBy"`
}

func (s *Server) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := s.services.Materials.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: materials})
}

func (s *Server) handleAddMaterial(w http.ResponseWriter, r *http.Request) {
	var req addMaterialRequest
	if !s.decodeAndValidate(w, r, &req) {
		return
	}

	uploadedBy := req.UploadedBy
	if id, ok := auth.FromContext(r.Context()); ok {
		uploadedBy = id.Username
	}

	m, err := s.services.Materials.Create(r.Context(), material.CreateRequest{
		Link:        req.Link,
		DisplayName: req.DisplayName,
		Subject:     req.Subject,
		Format:      req.Format,
		UploadedBy:  uploadedBy,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dataResponse{Success: true, Data: m})
}
