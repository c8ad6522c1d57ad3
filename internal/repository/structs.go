package repository

import (
	"errors"
	"time"
)

var (
	ErrObjectNotFound = errors.New("object not found")
	// ErrConflict is returned when a conditional update matched no row.
	ErrConflict = errors.New("conditional update conflict")
)

type RequestStatus string

const (
	RequestOpen           RequestStatus = "OPEN"
	RequestAccepted       RequestStatus = "ACCEPTED"
	RequestResold         RequestStatus = "RESOLD"
	RequestClosedNoWinner RequestStatus = "CLOSED_NO_WINNER"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "PENDING"
	OfferAccepted OfferStatus = "ACCEPTED"
	OfferRejected OfferStatus = "REJECTED"
)

type ContainerStatus string

const (
	ContainerRegistered ContainerStatus = "REGISTERED"
	ContainerConfirmed  ContainerStatus = "CONFIRMED"
	ContainerShipped    ContainerStatus = "SHIPPED"
	ContainerCompleted  ContainerStatus = "COMPLETED"
	ContainerSettled    ContainerStatus = "SETTLED"
)

type CargoRequest struct {
	ID                 int64         `db:"id" json:"id"`
	ItemName           string        `db:"item_name" json:"itemName"`
	Incoterms          string        `db:"incoterms" json:"incoterms"`
	TradeType          string        `db:"trade_type" json:"tradeType"`
	TransportType      string        `db:"transport_type" json:"transportType"`
	DeparturePort      string        `db:"departure_port" json:"departurePort"`
	ArrivalPort        string        `db:"arrival_port" json:"arrivalPort"`
	Cbm                float64       `db:"cbm" json:"cbm"`
	Deadline           time.Time     `db:"deadline" json:"deadline"`
	DesiredArrivalDate *time.Time    `db:"desired_arrival_date" json:"desiredArrivalDate,omitempty"`
	RequesterID        string        `db:"requester_id" json:"requesterId"`
	RequesterRole      string        `db:"requester_role" json:"requesterRole"`
	SourceOfferID      *int64        `db:"source_offer_id" json:"sourceOfferId,omitempty"`
	Status             RequestStatus `db:"status" json:"status"`
	CreatedAt          time.Time     `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updatedAt"`
}

// IsResale reports whether the request relists capacity won through another offer.
func (r *CargoRequest) IsResale() bool {
	return r.SourceOfferID != nil
}

type Offer struct {
	ID          int64       `db:"id" json:"id"`
	RequestID   int64       `db:"request_id" json:"requestId"`
	ForwarderID string      `db:"forwarder_id" json:"forwarderId"`
	ContainerID string      `db:"container_id" json:"containerId"`
	Cbm         float64     `db:"cbm" json:"cbm"`
	Price       float64     `db:"price" json:"price"`
	Currency    string      `db:"currency" json:"currency"`
	Etd         time.Time   `db:"etd" json:"etd"`
	Eta         time.Time   `db:"eta" json:"eta"`
	Status      OfferStatus `db:"status" json:"status"`
	CreatedAt   time.Time   `db:"created_at" json:"createdAt"`
	DecidedAt   *time.Time  `db:"decided_at" json:"decidedAt,omitempty"`
}

type Container struct {
	ID             string          `db:"id" json:"id"`
	OwnerID        string          `db:"owner_id" json:"ownerId"`
	Size           string          `db:"size" json:"size"`
	DeparturePort  string          `db:"departure_port" json:"departurePort"`
	ArrivalPort    string          `db:"arrival_port" json:"arrivalPort"`
	TotalCapacity  float64         `db:"total_capacity" json:"totalCapacity"`
	ConfirmedCbm   float64         `db:"confirmed_cbm" json:"confirmedCbm"`
	RegisteringCbm float64         `db:"registering_cbm" json:"registeringCbm"`
	BiddingCbm     float64         `db:"bidding_cbm" json:"biddingCbm"`
	Etd            time.Time       `db:"etd" json:"etd"`
	Eta            time.Time       `db:"eta" json:"eta"`
	VesselID       *string         `db:"vessel_id" json:"vesselId,omitempty"`
	Status         ContainerStatus `db:"status" json:"status"`
	CreatedAt      time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updatedAt"`
}

// ExternalCargo is cargo a forwarder sold outside the marketplace and loaded
// into one of its own containers.
type ExternalCargo struct {
	ID          int64     `db:"id" json:"id"`
	ContainerID string    `db:"container_id" json:"containerId"`
	Name        string    `db:"name" json:"name"`
	Cbm         float64   `db:"cbm" json:"cbm"`
	Price       float64   `db:"price" json:"price"`
	Currency    string    `db:"currency" json:"currency"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// CapacityDelta is a signed change applied atomically to a container's capacity fields.
type CapacityDelta struct {
	Confirmed   float64
	Registering float64
	Bidding     float64
}

type Notification struct {
	ID          int64     `db:"id"`
	RecipientID string    `db:"recipient_id"`
	Message     string    `db:"message"`
	URL         string    `db:"url"`
	IsRead      bool      `db:"is_read"`
	CreatedAt   time.Time `db:"created_at"`
}

type ScfiPoint struct {
	RecordDate time.Time `db:"record_date" json:"recordDate"`
	IndexValue float64   `db:"index_value" json:"indexValue"`
}

// DashboardCounts is the aggregate row read for the admin dashboard.
type DashboardCounts struct {
	TodayRequests  int64 `db:"today_requests"`
	TodayDeals     int64 `db:"today_deals"`
	NoBidRequests  int64 `db:"no_bid_requests"`
	Accepted       int64 `db:"accepted"`
	Resold         int64 `db:"resold"`
	ClosedNoWinner int64 `db:"closed_no_winner"`
}

// DashboardWindow bounds the time-dependent dashboard counts.
type DashboardWindow struct {
	DayStart         time.Time
	DayEnd           time.Time
	Now              time.Time
	NoBidDeadlineCut time.Time
}
