package live

import (
	"encoding/json"
	"fmt"
)

const (
	EventConnected         = "connected"
	EventHeartbeat         = "heartbeat"
	EventNotification      = "notification"
	EventUnreadCount       = "unreadCount"
	EventNewRequest        = "new_request"
	EventShipmentUpdate    = "shipment_update"
	EventOfferStatusUpdate = "offer_status_update"
	EventBidCountUpdate    = "bid_count_update"
	EventDashboardUpdate   = "dashboard_update"
	EventChatUnread        = "chat_unread"
	heartbeatPayload       = "ping"
)

// Event is one named message on a live channel. Data is already JSON encoded.
type Event struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

func NewEvent(name string, payload interface{}) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s event: %w", name, err)
	}
	return Event{Name: name, Data: data}, nil
}
