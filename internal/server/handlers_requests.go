package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/bidding"
)

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.Board.List(s.clock()))
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var spec bidding.RequestSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req, err := s.Bidding.CreateRequest(r.Context(), actorFrom(r.Context()), spec)
	if err != nil {
		s.respondDomainError(w, "create_request", err)
		return
	}
	respondJSON(w, http.StatusCreated, req)
}

func (s *Server) handleMyRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.Bidding.ListMyRequests(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.respondDomainError(w, "list_my_requests", err)
		return
	}
	respondJSON(w, http.StatusOK, requests)
}

// handleHistory serves the settled deals of the caller. from and to are
// YYYY-MM-DD days, q filters by item name or partner.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := bidding.HistoryFilter{Keyword: query.Get("q")}
	for name, dst := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := query.Get(name)
		if raw == "" {
			continue
		}
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
			return
		}
		*dst = &day
	}

	entries, err := s.Bidding.TransactionHistory(r.Context(), actorFrom(r.Context()), filter)
	if err != nil {
		s.respondDomainError(w, "transaction_history", err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	req, err := s.Bidding.GetRequest(r.Context(), id)
	if err != nil {
		s.respondDomainError(w, "get_request", err)
		return
	}
	respondJSON(w, http.StatusOK, req)
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	offers, err := s.Bidding.ListOffers(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.respondDomainError(w, "list_offers", err)
		return
	}
	respondJSON(w, http.StatusOK, offers)
}

func (s *Server) handleSubmitOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	var spec bidding.OfferSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	offer, err := s.Bidding.SubmitOffer(r.Context(), actorFrom(r.Context()), id, spec)
	if err != nil {
		s.respondDomainError(w, "submit_offer", err)
		return
	}
	respondJSON(w, http.StatusCreated, offer)
}

func (s *Server) handleAvailableContainers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	containers, err := s.Bidding.ListAvailableContainers(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.respondDomainError(w, "available_containers", err)
		return
	}
	respondJSON(w, http.StatusOK, containers)
}

func (s *Server) handleConfirmOffer(w http.ResponseWriter, r *http.Request) {
	requestID, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}
	offerID, ok := pathID(r, "offerId")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid offer ID")
		return
	}

	offer, err := s.Bidding.ConfirmOffer(r.Context(), actorFrom(r.Context()), requestID, offerID)
	if err != nil {
		s.respondDomainError(w, "confirm_offer", err)
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

func (s *Server) handleCancelResale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid request ID")
		return
	}

	if err := s.Bidding.CancelResale(r.Context(), actorFrom(r.Context()), id); err != nil {
		s.respondDomainError(w, "cancel_resale", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Resale cancelled",
	})
}

func (s *Server) handleMyOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := s.Bidding.ListMyOffers(r.Context(), actorFrom(r.Context()))
	if err != nil {
		s.respondDomainError(w, "list_my_offers", err)
		return
	}
	respondJSON(w, http.StatusOK, offers)
}

func (s *Server) handleWithdrawOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid offer ID")
		return
	}

	if err := s.Bidding.WithdrawOffer(r.Context(), actorFrom(r.Context()), id); err != nil {
		s.respondDomainError(w, "withdraw_offer", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Offer withdrawn",
	})
}

func (s *Server) handleUpdateOfferPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid offer ID")
		return
	}

	var priceRequest struct {
		Price    float64 `json:"price"`
		Currency string  `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&priceRequest); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	offer, err := s.Bidding.UpdateOfferPrice(r.Context(), actorFrom(r.Context()), id, priceRequest.Price, priceRequest.Currency)
	if err != nil {
		s.respondDomainError(w, "update_offer_price", err)
		return
	}
	respondJSON(w, http.StatusOK, offer)
}

func (s *Server) handleResale(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid offer ID")
		return
	}

	child, err := s.Bidding.ResaleFromAcceptedOffer(r.Context(), actorFrom(r.Context()), id)
	if err != nil {
		s.respondDomainError(w, "resale", err)
		return
	}
	respondJSON(w, http.StatusCreated, child)
}
