package presence

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const mirrorTimeout = time.Second

// Mirror shares presence with the other API instances. A user connected to
// one instance can be notified by another.
type Mirror interface {
	Add(ctx context.Context, userID, sessionID, surface string) error
	Remove(ctx context.Context, userID, sessionID, surface string) error
	Observing(ctx context.Context, userID, surface string) (bool, error)
}

// Tracker records which UI surfaces each live session is looking at. A
// surface is a page path such as /fwd/my-offers or a chat room key chat:42.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]*observer
	mirror   Mirror
	logger   *zap.Logger
}

type observer struct {
	userID   string
	surfaces map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*observer), logger: zap.NewNop()}
}

// SetMirror copies every change to m and consults it when this instance has
// no session of the user on the surface.
func (t *Tracker) SetMirror(m Mirror, logger *zap.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mirror = m
	t.logger = logger
}

// Normalize reduces a notification url or page path to its surface key.
func Normalize(surface string) string {
	surface = strings.TrimSpace(surface)
	if strings.HasPrefix(surface, "/") {
		if u, err := url.Parse(surface); err == nil {
			surface = u.Path
		}
		if len(surface) > 1 {
			surface = strings.TrimRight(surface, "/")
		}
	}
	return surface
}

func (t *Tracker) Open(userID, sessionID, surface string) {
	surface = Normalize(surface)
	if surface == "" {
		return
	}

	t.mu.Lock()
	o, ok := t.sessions[sessionID]
	var replaced *observer
	if !ok || o.userID != userID {
		if ok {
			replaced = o
		}
		o = &observer{userID: userID, surfaces: make(map[string]struct{})}
		t.sessions[sessionID] = o
	}
	o.surfaces[surface] = struct{}{}
	mirror := t.mirror
	t.mu.Unlock()

	if mirror == nil {
		return
	}
	if replaced != nil {
		t.forget(mirror, sessionID, replaced)
	}
	t.sync("add", func(ctx context.Context) error { return mirror.Add(ctx, userID, sessionID, surface) })
}

func (t *Tracker) Close(sessionID, surface string) {
	surface = Normalize(surface)

	t.mu.Lock()
	o, ok := t.sessions[sessionID]
	if ok {
		delete(o.surfaces, surface)
	}
	mirror := t.mirror
	t.mu.Unlock()

	if ok && mirror != nil {
		t.sync("remove", func(ctx context.Context) error { return mirror.Remove(ctx, o.userID, sessionID, surface) })
	}
}

// CloseSession forgets everything the session observed.
func (t *Tracker) CloseSession(sessionID string) {
	t.mu.Lock()
	o, ok := t.sessions[sessionID]
	delete(t.sessions, sessionID)
	mirror := t.mirror
	t.mu.Unlock()

	if ok && mirror != nil {
		t.forget(mirror, sessionID, o)
	}
}

// forget removes from the mirror every surface o had open. o must no longer
// be reachable from t.sessions.
func (t *Tracker) forget(mirror Mirror, sessionID string, o *observer) {
	for surface := range o.surfaces {
		surface := surface
		t.sync("remove", func(ctx context.Context) error { return mirror.Remove(ctx, o.userID, sessionID, surface) })
	}
}

func (t *Tracker) sync(op string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		t.logger.Warn("presence mirror failed", zap.String("op", op), zap.Error(err))
	}
}

// IsObserving reports whether any session of the user has the surface open.
func (t *Tracker) IsObserving(userID, surface string) bool {
	surface = Normalize(surface)
	if surface == "" {
		return false
	}

	t.mu.RLock()
	for _, o := range t.sessions {
		if o.userID != userID {
			continue
		}
		if _, ok := o.surfaces[surface]; ok {
			t.mu.RUnlock()
			return true
		}
	}
	mirror := t.mirror
	t.mu.RUnlock()

	if mirror == nil {
		return false
	}
	var observing bool
	t.sync("observing", func(ctx context.Context) error {
		var err error
		observing, err = mirror.Observing(ctx, userID, surface)
		return err
	})
	return observing
}
