package server

import (
	"encoding/json"
	"net/http"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r.Context()).Is(domain.RoleAdmin) {
		respondError(w, http.StatusForbidden, "Admin only")
		return
	}

	m, err := s.Dashboard.Metrics(r.Context())
	if err != nil {
		s.respondDomainError(w, "dashboard", err)
		return
	}
	respondJSON(w, http.StatusOK, m)
}

func (s *Server) handleRecordScfi(w http.ResponseWriter, r *http.Request) {
	var scfiRequest struct {
		RecordDate string  `json:"recordDate"`
		Value      float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&scfiRequest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date, err := time.Parse("2006-01-02", scfiRequest.RecordDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	if err := s.Dashboard.RecordScfi(r.Context(), actorFrom(r.Context()), date, scfiRequest.Value); err != nil {
		s.respondDomainError(w, "record_scfi", err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"message": "SCFI point recorded",
	})
}
