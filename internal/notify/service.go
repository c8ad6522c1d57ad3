package notify

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/live"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

const createdAtLayout = "2006-01-02 15:04"

// Pusher delivers live events; delivery is best effort.
type Pusher interface {
	SendToUser(ctx context.Context, userID string, ev live.Event)
	SendToRole(ctx context.Context, role domain.Role, ev live.Event)
}

// Presence tells whether a user currently looks at a surface.
type Presence interface {
	IsObserving(userID, surface string) bool
}

// View is the wire shape of a notification.
type View struct {
	ID        int64  `json:"id"`
	Message   string `json:"message"`
	URL       string `json:"url"`
	CreatedAt string `json:"createdAt"`
}

func NewView(n *repository.Notification) View {
	return View{
		ID:        n.ID,
		Message:   n.Message,
		URL:       n.URL,
		CreatedAt: n.CreatedAt.Format(createdAtLayout),
	}
}

// Service keeps the durable notification inbox and mirrors it on live channels.
type Service struct {
	store    storage.Storage
	pusher   Pusher
	presence Presence
	clock    func() time.Time
	logger   *zap.Logger
}

func NewService(store storage.Storage, pusher Pusher, presence Presence, clock func() time.Time, logger *zap.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		store:    store,
		pusher:   pusher,
		presence: presence,
		clock:    clock,
		logger:   logger,
	}
}

// Notify records a notification inside tx and pushes it once tx commits. A
// notification pointing at a surface the recipient is looking at is stored as
// read and is not pushed.
func (s *Service) Notify(ctx context.Context, tx storage.Tx, recipientID, message, url string) error {
	n := &repository.Notification{
		RecipientID: recipientID,
		Message:     message,
		URL:         url,
		IsRead:      s.presence.IsObserving(recipientID, url),
		CreatedAt:   s.clock().UTC(),
	}
	if err := tx.CreateNotification(ctx, n); err != nil {
		return err
	}
	metrics.NotificationsCreatedTotal.Inc()

	if n.IsRead {
		return nil
	}
	tx.AfterCommit(func(ctx context.Context) {
		s.push(ctx, recipientID, live.EventNotification, NewView(n))
		s.pushUnread(ctx, recipientID)
	})
	return nil
}

// Send records and pushes a notification in its own transaction.
func (s *Service) Send(ctx context.Context, recipientID, message, url string) error {
	return s.store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return s.Notify(ctx, tx, recipientID, message, url)
	})
}

func (s *Service) ListUnread(ctx context.Context, userID string) ([]View, error) {
	ns, err := s.store.ListUnreadNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(ns))
	for _, n := range ns {
		views = append(views, NewView(n))
	}
	return views, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.store.CountUnreadNotifications(ctx, userID)
}

// MarkRead marks one of the user's notifications read. Repeating it is harmless.
func (s *Service) MarkRead(ctx context.Context, userID string, id int64) error {
	if err := s.store.MarkNotificationRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrObjectNotFound) {
			return domain.Errorf(domain.ErrNotFound, "notification %d", id)
		}
		return err
	}
	s.pushUnread(ctx, userID)
	return nil
}

// MarkAllRead returns how many notifications changed.
func (s *Service) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	changed, err := s.store.MarkAllNotificationsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.pushUnread(ctx, userID)
	return changed, nil
}

// OnChatMessage handles a message event from the chat service. It reports
// whether the recipient is looking at the room, in which case the chat
// service marks the message read instead of counting it.
func (s *Service) OnChatMessage(ctx context.Context, recipientID, roomID string) bool {
	if s.presence.IsObserving(recipientID, ChatSurface(roomID)) {
		return true
	}
	s.push(ctx, recipientID, live.EventChatUnread, map[string]string{"roomId": roomID})
	return false
}

func ChatSurface(roomID string) string {
	return "chat:" + roomID
}

// pushUnread sends the durable unread count, never a locally computed one.
func (s *Service) pushUnread(ctx context.Context, userID string) {
	count, err := s.store.CountUnreadNotifications(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count unread notifications", zap.String("user_id", userID), zap.Error(err))
		return
	}
	s.push(ctx, userID, live.EventUnreadCount, count)
}

func (s *Service) push(ctx context.Context, userID, name string, payload interface{}) {
	ev, err := live.NewEvent(name, payload)
	if err != nil {
		s.logger.Error("failed to encode live event", zap.String("event", name), zap.Error(err))
		return
	}
	s.pusher.SendToUser(ctx, userID, ev)
}
