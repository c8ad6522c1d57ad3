package live

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/metrics"
)

const DefaultBuffer = 64

// Envelope addresses an event either to one user or to every user of a role.
type Envelope struct {
	UserID string      `json:"userId,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
	Event  Event       `json:"event"`
}

// Broker carries envelopes to every API instance, this one included.
type Broker interface {
	Publish(ctx context.Context, env Envelope) error
}

// Hub is the registry of live sessions of this process.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[string]*Session
	buffer   int
	broker   Broker
	logger   *zap.Logger
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		sessions: make(map[string]map[string]*Session),
		buffer:   buffer,
		logger:   logger,
	}
}

// SetBroker routes every send through b. Without a broker events are
// delivered to local sessions only.
func (h *Hub) SetBroker(b Broker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broker = b
}

func (h *Hub) Connect(userID string, role domain.Role) *Session {
	return h.ConnectWithGreeting(userID, role, nil)
}

// ConnectWithGreeting queues greet's event on the new session before the
// session becomes reachable, so it is always the first event the client reads.
func (h *Hub) ConnectWithGreeting(userID string, role domain.Role, greet func(sessionID string) Event) *Session {
	s := newSession(userID, role, h.buffer)
	if greet != nil {
		s.Send(greet(s.ID))
	}

	h.mu.Lock()
	byID, ok := h.sessions[userID]
	if !ok {
		byID = make(map[string]*Session)
		h.sessions[userID] = byID
	}
	byID[s.ID] = s
	h.mu.Unlock()

	metrics.LiveSessions.Inc()
	h.logger.Debug("live session connected", zap.String("user_id", userID), zap.String("session_id", s.ID))
	return s
}

// Disconnect removes the session. Repeated calls are no-ops.
func (h *Hub) Disconnect(s *Session) {
	if !s.close() {
		return
	}

	h.mu.Lock()
	if byID, ok := h.sessions[s.UserID]; ok {
		delete(byID, s.ID)
		if len(byID) == 0 {
			delete(h.sessions, s.UserID)
		}
	}
	h.mu.Unlock()

	metrics.LiveSessions.Dec()
	h.logger.Debug("live session closed", zap.String("user_id", s.UserID), zap.String("session_id", s.ID))
}

func (h *Hub) IsConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[userID]) > 0
}

func (h *Hub) SendToUser(ctx context.Context, userID string, ev Event) {
	h.send(ctx, Envelope{UserID: userID, Event: ev})
}

func (h *Hub) SendToRole(ctx context.Context, role domain.Role, ev Event) {
	h.send(ctx, Envelope{Role: role, Event: ev})
}

func (h *Hub) send(ctx context.Context, env Envelope) {
	h.mu.RLock()
	broker := h.broker
	h.mu.RUnlock()

	if broker != nil {
		err := broker.Publish(ctx, env)
		if err == nil {
			return
		}
		h.logger.Warn("live broker publish failed, delivering locally",
			zap.String("event", env.Event.Name),
			zap.Error(err),
		)
	}
	h.Deliver(env)
}

// Deliver hands env to the matching local sessions. A session whose buffer is
// full misses the event; it resynchronizes on reconnect.
func (h *Hub) Deliver(env Envelope) int {
	h.mu.RLock()
	var targets []*Session
	if env.UserID != "" {
		for _, s := range h.sessions[env.UserID] {
			targets = append(targets, s)
		}
	} else {
		for _, byID := range h.sessions {
			for _, s := range byID {
				if s.Role == env.Role {
					targets = append(targets, s)
				}
			}
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		if s.Send(env.Event) {
			delivered++
			metrics.LiveEventsTotal.WithLabelValues(env.Event.Name, "sent").Inc()
			continue
		}
		metrics.LiveEventsTotal.WithLabelValues(env.Event.Name, "dropped").Inc()
		h.logger.Warn("live event dropped",
			zap.String("event", env.Event.Name),
			zap.String("user_id", s.UserID),
			zap.String("session_id", s.ID),
		)
	}
	return delivered
}

// Session looks up a connected session of the user.
func (h *Hub) Session(userID, sessionID string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[userID][sessionID]
	return s, ok
}
