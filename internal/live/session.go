package live

import (
	"sync"

	"github.com/google/uuid"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
)

// Session is one live channel of a user, typically one browser tab.
type Session struct {
	ID     string
	UserID string
	Role   domain.Role

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

func newSession(userID string, role domain.Role, buffer int) *Session {
	return &Session{
		ID:     uuid.NewString(),
		UserID: userID,
		Role:   role,
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

// Events is drained by the stream writer.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Send queues ev without blocking. It reports false when the session is
// closed or its buffer is full.
func (s *Session) Send(ev Event) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

// close is safe to call more than once.
func (s *Session) close() bool {
	closedNow := false
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)
		closedNow = true
	})
	return closedNow
}
