package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/live"
)

type connectedPayload struct {
	SessionID string `json:"sessionId"`
	Unread    int64  `json:"unread"`
}

type surfaceRequest struct {
	SessionID string `json:"sessionId"`
	Surface   string `json:"surface"`
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	views, err := s.Notifier.ListUnread(r.Context(), actorFrom(r.Context()).ID)
	if err != nil {
		s.respondDomainError(w, "list_notifications", err)
		return
	}
	respondJSON(w, http.StatusOK, views)
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid notification ID")
		return
	}

	if err := s.Notifier.MarkRead(r.Context(), actorFrom(r.Context()).ID, id); err != nil {
		s.respondDomainError(w, "mark_read", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Notification marked as read",
	})
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	updated, err := s.Notifier.MarkAllRead(r.Context(), actorFrom(r.Context()).ID)
	if err != nil {
		s.respondDomainError(w, "mark_all_read", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{
		"updated": updated,
	})
}

// handleSubscribe holds the live channel open until the client goes away.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r.Context())

	unread, err := s.Notifier.UnreadCount(r.Context(), actor.ID)
	if err != nil {
		s.respondDomainError(w, "subscribe", err)
		return
	}

	session := s.Hub.ConnectWithGreeting(actor.ID, actor.Role, func(sessionID string) live.Event {
		ev, _ := live.NewEvent(live.EventConnected, connectedPayload{SessionID: sessionID, Unread: unread})
		return ev
	})
	defer func() {
		s.Hub.Disconnect(session)
		s.Presence.CloseSession(session.ID)
	}()

	err = live.Stream(r.Context(), w, session, s.Heartbeat)
	if errors.Is(err, live.ErrStreamingUnsupported) {
		respondError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}
	if err != nil {
		s.logger.Debug("live stream ended", zap.String("user_id", actor.ID), zap.String("session_id", session.ID), zap.Error(err))
	}
}

func (s *Server) decodeSurface(w http.ResponseWriter, r *http.Request) (surfaceRequest, bool) {
	var req surfaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	if req.SessionID == "" || req.Surface == "" {
		respondError(w, http.StatusBadRequest, "Missing sessionId or surface")
		return req, false
	}
	if _, ok := s.Hub.Session(actorFrom(r.Context()).ID, req.SessionID); !ok {
		respondError(w, http.StatusNotFound, "Unknown live session")
		return req, false
	}
	return req, true
}

func (s *Server) handlePresenceOpen(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSurface(w, r)
	if !ok {
		return
	}
	s.Presence.Open(actorFrom(r.Context()).ID, req.SessionID, req.Surface)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePresenceClose(w http.ResponseWriter, r *http.Request) {
	var req surfaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// Closing is allowed after the session dropped.
	s.Presence.Close(req.SessionID, req.Surface)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChatEvent(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r.Context()).Is(domain.RoleService) {
		respondError(w, http.StatusForbidden, "Only the chat service may post chat events")
		return
	}

	var chatEvent struct {
		RecipientID string `json:"recipientId"`
		RoomID      string `json:"roomId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&chatEvent); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if chatEvent.RecipientID == "" || chatEvent.RoomID == "" {
		respondError(w, http.StatusBadRequest, "Missing recipientId or roomId")
		return
	}

	read := s.Notifier.OnChatMessage(r.Context(), chatEvent.RecipientID, chatEvent.RoomID)
	respondJSON(w, http.StatusOK, map[string]bool{
		"markRead": read,
	})
}
