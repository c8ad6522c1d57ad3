//go:generate mockgen -source ./server.go -destination=./mocks/server.go -package=mock_server
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/bidding"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/ledger"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/live"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/notify"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/presence"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

type Bidding interface {
	CreateRequest(ctx context.Context, actor domain.Actor, spec bidding.RequestSpec) (*repository.CargoRequest, error)
	GetRequest(ctx context.Context, id int64) (*repository.CargoRequest, error)
	ListMyRequests(ctx context.Context, actor domain.Actor) ([]*repository.CargoRequest, error)
	ListOffers(ctx context.Context, actor domain.Actor, requestID int64) ([]*repository.Offer, error)
	ListMyOffers(ctx context.Context, actor domain.Actor) ([]*repository.Offer, error)
	ListAvailableContainers(ctx context.Context, actor domain.Actor, requestID int64) ([]*repository.Container, error)
	SubmitOffer(ctx context.Context, actor domain.Actor, requestID int64, spec bidding.OfferSpec) (*repository.Offer, error)
	WithdrawOffer(ctx context.Context, actor domain.Actor, offerID int64) error
	UpdateOfferPrice(ctx context.Context, actor domain.Actor, offerID int64, price float64, currency string) (*repository.Offer, error)
	ConfirmOffer(ctx context.Context, actor domain.Actor, requestID, offerID int64) (*repository.Offer, error)
	ResaleFromAcceptedOffer(ctx context.Context, actor domain.Actor, offerID int64) (*repository.CargoRequest, error)
	CancelResale(ctx context.Context, actor domain.Actor, requestID int64) error
	TransactionHistory(ctx context.Context, actor domain.Actor, filter bidding.HistoryFilter) ([]bidding.HistoryEntry, error)
}

type Containers interface {
	Register(ctx context.Context, actor domain.Actor, spec ledger.RegisterSpec) (*repository.Container, error)
	List(ctx context.Context, actor domain.Actor) ([]*repository.Container, error)
	Confirm(ctx context.Context, actor domain.Actor, containerID, vesselID string) (*repository.Container, error)
	Ship(ctx context.Context, actor domain.Actor, containerID string) (*repository.Container, error)
	Complete(ctx context.Context, actor domain.Actor, containerID string) (*repository.Container, error)
	Settle(ctx context.Context, actor domain.Actor, containerID string) (*repository.Container, error)
	Delete(ctx context.Context, actor domain.Actor, containerID string) error
	AddExternalCargo(ctx context.Context, actor domain.Actor, containerID string, spec ledger.ExternalCargoSpec) (*repository.ExternalCargo, error)
	RemoveExternalCargo(ctx context.Context, actor domain.Actor, containerID string, cargoID int64) error
	Details(ctx context.Context, actor domain.Actor, containerID string) (*ledger.ContainerDetails, error)
}

type Notifier interface {
	ListUnread(ctx context.Context, userID string) ([]notify.View, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID string, id int64) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	OnChatMessage(ctx context.Context, recipientID, roomID string) bool
}

type Dashboard interface {
	Metrics(ctx context.Context) (*notify.DashboardMetrics, error)
	RecordScfi(ctx context.Context, actor domain.Actor, recordDate time.Time, value float64) error
}

type Board interface {
	List(now time.Time) []*repository.CargoRequest
}

// Users records every authenticated caller so the dashboard can count them.
type Users interface {
	UpsertUser(ctx context.Context, id, role string) error
}

// Deps are the collaborators the HTTP API is served from.
type Deps struct {
	Bidding     Bidding
	Containers  Containers
	Notifier    Notifier
	Dashboard   Dashboard
	Board       Board
	Users       Users
	Hub         *live.Hub
	Presence    *presence.Tracker
	Auth        *Authenticator
	Idempotency IdempotencyStore
	Heartbeat   time.Duration
}

type Server struct {
	Deps
	logger       *zap.Logger
	clock        func() time.Time
	server       *http.Server
	AuditManager *AuditManager

	// known caches the role each user was last registered with.
	known sync.Map
}

func New(deps Deps, logger *zap.Logger) *Server {
	return &Server{
		Deps:         deps,
		logger:       logger,
		clock:        time.Now,
		AuditManager: NewAuditManager(2, 5, 500*time.Millisecond, logger),
	}
}

func (s *Server) Run(ctx context.Context, port string) error {
	s.server = &http.Server{
		Addr:              ":" + port,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Live streams stay open, so responses have no write deadline.
		WriteTimeout: 0,
	}

	s.AuditManager.Start(ctx)

	s.logger.Info("http server starting", zap.String("port", port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	s.logger.Info("http server shutdown completed")

	s.AuditManager.Shutdown(ctx)
	return nil
}

func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.authMiddleware, s.auditLogMiddleware, s.idempotencyMiddleware)

	api.HandleFunc("/board", s.handleBoard).Methods(http.MethodGet).Name("board")

	api.HandleFunc("/requests", s.handleCreateRequest).Methods(http.MethodPost).Name("createRequest")
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet).Name("history")
	api.HandleFunc("/requests/mine", s.handleMyRequests).Methods(http.MethodGet).Name("myRequests")
	api.HandleFunc("/requests/{id:[0-9]+}", s.handleGetRequest).Methods(http.MethodGet).Name("getRequest")
	api.HandleFunc("/requests/{id:[0-9]+}/offers", s.handleListOffers).Methods(http.MethodGet).Name("listOffers")
	api.HandleFunc("/requests/{id:[0-9]+}/offers", s.handleSubmitOffer).Methods(http.MethodPost).Name("submitOffer")
	api.HandleFunc("/requests/{id:[0-9]+}/available-containers", s.handleAvailableContainers).Methods(http.MethodGet).Name("availableContainers")
	api.HandleFunc("/requests/{id:[0-9]+}/offers/{offerId:[0-9]+}/confirm", s.handleConfirmOffer).Methods(http.MethodPost).Name("confirmOffer")
	api.HandleFunc("/requests/{id:[0-9]+}/resale", s.handleCancelResale).Methods(http.MethodDelete).Name("cancelResale")

	api.HandleFunc("/offers/mine", s.handleMyOffers).Methods(http.MethodGet).Name("myOffers")
	api.HandleFunc("/offers/{id:[0-9]+}", s.handleWithdrawOffer).Methods(http.MethodDelete).Name("withdrawOffer")
	api.HandleFunc("/offers/{id:[0-9]+}/price", s.handleUpdateOfferPrice).Methods(http.MethodPut).Name("updateOfferPrice")
	api.HandleFunc("/offers/{id:[0-9]+}/resale", s.handleResale).Methods(http.MethodPost).Name("resale")

	api.HandleFunc("/containers", s.handleRegisterContainer).Methods(http.MethodPost).Name("registerContainer")
	api.HandleFunc("/containers", s.handleListContainers).Methods(http.MethodGet).Name("listContainers")
	api.HandleFunc("/containers/{id}", s.handleContainerDetails).Methods(http.MethodGet).Name("containerDetails")
	api.HandleFunc("/containers/{id}", s.handleDeleteContainer).Methods(http.MethodDelete).Name("deleteContainer")
	api.HandleFunc("/containers/{id}/cargo", s.handleExternalCargo).Methods(http.MethodPost).Name("externalCargo")
	api.HandleFunc("/containers/{id}/cargo/{cargoId:[0-9]+}", s.handleRemoveExternalCargo).Methods(http.MethodDelete).Name("removeExternalCargo")
	api.HandleFunc("/containers/{id}/{step:confirm|ship|complete|settle}", s.handleContainerStep).Methods(http.MethodPost).Name("containerStep")

	api.HandleFunc("/notifications", s.handleListNotifications).Methods(http.MethodGet).Name("listNotifications")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", s.handleMarkRead).Methods(http.MethodPost).Name("markRead")
	api.HandleFunc("/notifications/read/all", s.handleMarkAllRead).Methods(http.MethodPost).Name("markAllRead")
	api.HandleFunc("/notifications/subscribe", s.handleSubscribe).Methods(http.MethodGet).Name("subscribe")

	api.HandleFunc("/presence/open", s.handlePresenceOpen).Methods(http.MethodPost).Name("presenceOpen")
	api.HandleFunc("/presence/close", s.handlePresenceClose).Methods(http.MethodPost).Name("presenceClose")
	api.HandleFunc("/chat/events", s.handleChatEvent).Methods(http.MethodPost).Name("chatEvent")

	api.HandleFunc("/admin/dashboard", s.handleDashboard).Methods(http.MethodGet).Name("dashboard")
	api.HandleFunc("/admin/scfi", s.handleRecordScfi).Methods(http.MethodPost).Name("recordScfi")

	return router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
