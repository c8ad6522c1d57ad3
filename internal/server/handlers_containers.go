package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/ledger"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

func (s *Server) handleRegisterContainer(w http.ResponseWriter, r *http.Request) {
	var spec ledger.RegisterSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	c, err := s.Containers.Register(r.Context(), actorFrom(r.Context()), spec)
	if err != nil {
		s.respondDomainError(w, "register_container", err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListContainers(w http.ResponseWriter, r *http.Request) {
	containers, err := s.Containers.List(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.respondDomainError(w, "list_containers", err)
		return
	}
	respondJSON(w, http.StatusOK, containers)
}

func (s *Server) handleDeleteContainer(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.Containers.Delete(r.Context(), actorFrom(r.Context()), id); err != nil {
		s.respondDomainError(w, "delete_container", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Container deleted",
	})
}

func (s *Server) handleContainerDetails(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	details, err := s.Containers.Details(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.respondDomainError(w, "container_details", err)
		return
	}
	respondJSON(w, http.StatusOK, details)
}

func (s *Server) handleExternalCargo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var spec ledger.ExternalCargoSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cargo, err := s.Containers.AddExternalCargo(r.Context(), actorFrom(r.Context()), id, spec)
	if err != nil {
		s.respondDomainError(w, "external_cargo", err)
		return
	}
	respondJSON(w, http.StatusCreated, cargo)
}

func (s *Server) handleRemoveExternalCargo(w http.ResponseWriter, r *http.Request) {
	cargoID, ok := pathID(r, "cargoId")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid cargo ID")
		return
	}

	if err := s.Containers.RemoveExternalCargo(r.Context(), actorFrom(r.Context()), mux.Vars(r)["id"], cargoID); err != nil {
		s.respondDomainError(w, "remove_external_cargo", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Cargo unloaded",
	})
}

func (s *Server) handleContainerStep(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, step := vars["id"], vars["step"]
	actor := actorFrom(r.Context())

	var (
		c   *repository.Container
		err error
	)
	switch step {
	case "confirm":
		var confirmRequest struct {
			VesselID string `json:"vesselId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&confirmRequest); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		c, err = s.Containers.Confirm(r.Context(), actor, id, confirmRequest.VesselID)
	case "ship":
		c, err = s.Containers.Ship(r.Context(), actor, id)
	case "complete":
		c, err = s.Containers.Complete(r.Context(), actor, id)
	case "settle":
		c, err = s.Containers.Settle(r.Context(), actor, id)
	default:
		respondError(w, http.StatusNotFound, "Unknown container step")
		return
	}
	if err != nil {
		s.respondDomainError(w, "container_"+step, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}
