package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
)

// MemoryStorage keeps everything in process. Transactions are serialized by a
// single writer lock and roll back by replaying the undo log of their writes.
type MemoryStorage struct {
	mu    sync.RWMutex
	data  *memoryData
	clock func() time.Time
}

type memoryData struct {
	requests      map[int64]repository.CargoRequest
	offers        map[int64]repository.Offer
	containers    map[string]repository.Container
	cargo         map[int64]repository.ExternalCargo
	notifications map[int64]repository.Notification
	outbox        []repository.OutboxTask
	scfi          map[string]repository.ScfiPoint
	users         map[string]string

	nextRequestID      int64
	nextOfferID        int64
	nextCargoID        int64
	nextNotificationID int64
}

func NewMemoryStorage(clock func() time.Time) *MemoryStorage {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryStorage{
		clock: clock,
		data: &memoryData{
			requests:      make(map[int64]repository.CargoRequest),
			offers:        make(map[int64]repository.Offer),
			containers:    make(map[string]repository.Container),
			cargo:         make(map[int64]repository.ExternalCargo),
			notifications: make(map[int64]repository.Notification),
			scfi:          make(map[string]repository.ScfiPoint),
			users:         make(map[string]string),
		},
	}
}

func (s *MemoryStorage) InTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx := &memoryTx{s: s}
	if err := s.apply(ctx, tx, fn); err != nil {
		return err
	}
	tx.run(ctx)
	return nil
}

func (s *MemoryStorage) apply(ctx context.Context, tx *memoryTx, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	committed := false
	defer func() {
		if !committed {
			tx.rollback()
		}
	}()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *MemoryStorage) Ping(context.Context) error {
	return nil
}

func (s *MemoryStorage) UpsertUser(_ context.Context, id, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.users[id] = role
	return nil
}

// OutboxTasks returns a copy of the recorded outbox tasks.
func (s *MemoryStorage) OutboxTasks() []repository.OutboxTask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]repository.OutboxTask(nil), s.data.outbox...)
}

// Container returns the current state of a container without locking it for update.
func (s *MemoryStorage) Container(id string) (*repository.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.data.containers[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &c, nil
}

func (s *MemoryStorage) GetRequest(_ context.Context, id int64) (*repository.CargoRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.data.requests[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &req, nil
}

func (s *MemoryStorage) ListOpenRequests(_ context.Context, now time.Time) ([]*repository.CargoRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reqs := s.data.filterRequests(func(r *repository.CargoRequest) bool {
		return r.Status == repository.RequestOpen && r.Deadline.After(now)
	})
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].Deadline.Before(reqs[j].Deadline) })
	return reqs, nil
}

func (s *MemoryStorage) ListRequestsByRequester(_ context.Context, requesterID string) ([]*repository.CargoRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reqs := s.data.filterRequests(func(r *repository.CargoRequest) bool {
		return r.RequesterID == requesterID
	})
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].ID > reqs[j].ID })
	return reqs, nil
}

func (s *MemoryStorage) ListOffersByRequest(_ context.Context, requestID int64) ([]*repository.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.filterOffers(func(o *repository.Offer) bool { return o.RequestID == requestID }), nil
}

func (s *MemoryStorage) GetOffer(_ context.Context, id int64) (*repository.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.data.offers[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &o, nil
}

func (s *MemoryStorage) ListOffersByContainer(_ context.Context, containerID string) ([]*repository.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.filterOffers(func(o *repository.Offer) bool { return o.ContainerID == containerID }), nil
}

func (s *MemoryStorage) ListResales(_ context.Context, sourceOfferID int64) ([]*repository.CargoRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.resalesOf(sourceOfferID), nil
}

func (s *MemoryStorage) ListOffersByForwarder(_ context.Context, forwarderID string) ([]*repository.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offers := s.data.filterOffers(func(o *repository.Offer) bool { return o.ForwarderID == forwarderID })
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID > offers[j].ID })
	return offers, nil
}

func (s *MemoryStorage) GetContainer(_ context.Context, id string) (*repository.Container, error) {
	return s.Container(id)
}

func (s *MemoryStorage) ListExternalCargo(_ context.Context, containerID string) ([]*repository.ExternalCargo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var cargo []*repository.ExternalCargo
	for _, c := range s.data.cargo {
		if c.ContainerID == containerID {
			c := c
			cargo = append(cargo, &c)
		}
	}
	sort.Slice(cargo, func(i, j int) bool { return cargo[i].ID < cargo[j].ID })
	return cargo, nil
}

func (s *MemoryStorage) ListContainersByOwner(_ context.Context, ownerID string) ([]*repository.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var cs []*repository.Container
	for _, c := range s.data.containers {
		if c.OwnerID == ownerID {
			c := c
			cs = append(cs, &c)
		}
	}
	sort.Slice(cs, func(i, j int) bool { return cs[i].Etd.Before(cs[j].Etd) })
	return cs, nil
}

func (s *MemoryStorage) ListUnreadNotifications(_ context.Context, userID string) ([]*repository.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ns []*repository.Notification
	for _, n := range s.data.notifications {
		if n.RecipientID == userID && !n.IsRead {
			n := n
			ns = append(ns, &n)
		}
	}
	sort.Slice(ns, func(i, j int) bool { return ns[i].ID > ns[j].ID })
	return ns, nil
}

func (s *MemoryStorage) CountUnreadNotifications(_ context.Context, userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, n := range s.data.notifications {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) MarkNotificationRead(_ context.Context, id int64, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.data.notifications[id]
	if !ok || n.RecipientID != userID {
		return repository.ErrObjectNotFound
	}
	n.IsRead = true
	s.data.notifications[id] = n
	return nil
}

func (s *MemoryStorage) MarkAllNotificationsRead(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var changed int64
	for id, n := range s.data.notifications {
		if n.RecipientID == userID && !n.IsRead {
			n.IsRead = true
			s.data.notifications[id] = n
			changed++
		}
	}
	return changed, nil
}

func (s *MemoryStorage) DashboardCounts(_ context.Context, w repository.DashboardWindow) (*repository.DashboardCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	within := func(t time.Time) bool { return !t.Before(w.DayStart) && !t.After(w.DayEnd) }
	bids := make(map[int64]int)
	var counts repository.DashboardCounts
	for _, o := range s.data.offers {
		bids[o.RequestID]++
		if o.Status == repository.OfferAccepted && o.DecidedAt != nil && within(*o.DecidedAt) {
			counts.TodayDeals++
		}
	}
	for _, r := range s.data.requests {
		if within(r.CreatedAt) {
			counts.TodayRequests++
		}
		switch r.Status {
		case repository.RequestOpen:
			if bids[r.ID] == 0 && r.Deadline.After(w.Now) && !r.Deadline.After(w.NoBidDeadlineCut) {
				counts.NoBidRequests++
			}
		case repository.RequestAccepted:
			counts.Accepted++
		case repository.RequestResold:
			counts.Resold++
		case repository.RequestClosedNoWinner:
			counts.ClosedNoWinner++
		}
	}
	return &counts, nil
}

func (s *MemoryStorage) LatestScfi(_ context.Context, limit int) ([]*repository.ScfiPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	points := make([]*repository.ScfiPoint, 0, len(s.data.scfi))
	for _, p := range s.data.scfi {
		p := p
		points = append(points, &p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].RecordDate.After(points[j].RecordDate) })
	if len(points) > limit {
		points = points[:limit]
	}
	return points, nil
}

func (s *MemoryStorage) AddScfi(_ context.Context, p *repository.ScfiPoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.scfi[p.RecordDate.Format(time.DateOnly)] = *p
	return nil
}

func (s *MemoryStorage) CountUsersByRole(_ context.Context, role string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, r := range s.data.users {
		if r == role {
			count++
		}
	}
	return count, nil
}

func (d *memoryData) filterRequests(keep func(*repository.CargoRequest) bool) []*repository.CargoRequest {
	var reqs []*repository.CargoRequest
	for _, r := range d.requests {
		r := r
		if keep(&r) {
			reqs = append(reqs, &r)
		}
	}
	return reqs
}

func (d *memoryData) filterOffers(keep func(*repository.Offer) bool) []*repository.Offer {
	var offers []*repository.Offer
	for _, o := range d.offers {
		o := o
		if keep(&o) {
			offers = append(offers, &o)
		}
	}
	sort.Slice(offers, func(i, j int) bool { return offers[i].ID < offers[j].ID })
	return offers
}

func (d *memoryData) resalesOf(sourceOfferID int64) []*repository.CargoRequest {
	reqs := d.filterRequests(func(r *repository.CargoRequest) bool {
		return r.SourceOfferID != nil && *r.SourceOfferID == sourceOfferID
	})
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].ID > reqs[j].ID })
	return reqs
}

// memoryTx runs with the storage writer lock held. Every write first records
// how to undo itself.
type memoryTx struct {
	afterCommitHooks
	s    *MemoryStorage
	undo []func()
}

func (t *memoryTx) data() *memoryData {
	return t.s.data
}

// remember records the current value of m[k], or its absence, on the undo log.
func remember[K comparable, V any](t *memoryTx, m map[K]V, k K) {
	prev, existed := m[k]
	t.undo = append(t.undo, func() {
		if existed {
			m[k] = prev
			return
		}
		delete(m, k)
	})
}

func (t *memoryTx) rememberCounter(counter *int64) {
	prev := *counter
	t.undo = append(t.undo, func() { *counter = prev })
}

func (t *memoryTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memoryTx) CreateRequest(_ context.Context, req *repository.CargoRequest) error {
	d := t.data()
	t.rememberCounter(&d.nextRequestID)
	d.nextRequestID++
	req.ID = d.nextRequestID
	remember(t, d.requests, req.ID)
	d.requests[req.ID] = *req
	return nil
}

func (t *memoryTx) GetRequest(_ context.Context, id int64) (*repository.CargoRequest, error) {
	req, ok := t.data().requests[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &req, nil
}

func (t *memoryTx) UpdateRequestStatus(_ context.Context, id int64, from, to repository.RequestStatus) error {
	d := t.data()
	req, ok := d.requests[id]
	if !ok || req.Status != from {
		return repository.ErrConflict
	}
	req.Status = to
	req.UpdatedAt = t.s.clock().UTC()
	remember(t, d.requests, id)
	d.requests[id] = req
	return nil
}

func (t *memoryTx) ListOverdueRequests(_ context.Context, now time.Time, limit int) ([]*repository.CargoRequest, error) {
	reqs := t.data().filterRequests(func(r *repository.CargoRequest) bool {
		return r.Status == repository.RequestOpen && !r.Deadline.After(now)
	})
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].Deadline.Before(reqs[j].Deadline) })
	if len(reqs) > limit {
		reqs = reqs[:limit]
	}
	return reqs, nil
}

func (t *memoryTx) ListResales(_ context.Context, sourceOfferID int64) ([]*repository.CargoRequest, error) {
	return t.data().resalesOf(sourceOfferID), nil
}

func (t *memoryTx) CreateOffer(_ context.Context, offer *repository.Offer) error {
	d := t.data()
	t.rememberCounter(&d.nextOfferID)
	d.nextOfferID++
	offer.ID = d.nextOfferID
	remember(t, d.offers, offer.ID)
	d.offers[offer.ID] = *offer
	return nil
}

func (t *memoryTx) GetOffer(_ context.Context, id int64) (*repository.Offer, error) {
	o, ok := t.data().offers[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &o, nil
}

func (t *memoryTx) ListOffersByRequest(_ context.Context, requestID int64) ([]*repository.Offer, error) {
	return t.data().filterOffers(func(o *repository.Offer) bool { return o.RequestID == requestID }), nil
}

func (t *memoryTx) ListOffersByContainer(_ context.Context, containerID string) ([]*repository.Offer, error) {
	return t.data().filterOffers(func(o *repository.Offer) bool { return o.ContainerID == containerID }), nil
}

func (t *memoryTx) HasOffer(_ context.Context, requestID int64, forwarderID string) (bool, error) {
	for _, o := range t.data().offers {
		if o.RequestID == requestID && o.ForwarderID == forwarderID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) CountOffers(_ context.Context, requestID int64) (int, error) {
	count := 0
	for _, o := range t.data().offers {
		if o.RequestID == requestID {
			count++
		}
	}
	return count, nil
}

func (t *memoryTx) UpdateOfferStatus(_ context.Context, id int64, from, to repository.OfferStatus) error {
	d := t.data()
	o, ok := d.offers[id]
	if !ok || o.Status != from {
		return repository.ErrConflict
	}
	decidedAt := t.s.clock().UTC()
	o.Status = to
	o.DecidedAt = &decidedAt
	remember(t, d.offers, id)
	d.offers[id] = o
	return nil
}

func (t *memoryTx) UpdateOfferPrice(_ context.Context, id int64, price float64, currency string) error {
	d := t.data()
	o, ok := d.offers[id]
	if !ok || o.Status != repository.OfferPending {
		return repository.ErrConflict
	}
	o.Price = price
	o.Currency = currency
	remember(t, d.offers, id)
	d.offers[id] = o
	return nil
}

func (t *memoryTx) DeleteOffer(_ context.Context, id int64) error {
	d := t.data()
	o, ok := d.offers[id]
	if !ok || o.Status != repository.OfferPending {
		return repository.ErrConflict
	}
	remember(t, d.offers, id)
	delete(d.offers, id)
	return nil
}

func (t *memoryTx) CreateContainer(_ context.Context, c *repository.Container) error {
	d := t.data()
	if _, exists := d.containers[c.ID]; exists {
		return repository.ErrConflict
	}
	remember(t, d.containers, c.ID)
	d.containers[c.ID] = *c
	return nil
}

func (t *memoryTx) GetContainer(_ context.Context, id string) (*repository.Container, error) {
	c, ok := t.data().containers[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &c, nil
}

// AdjustCapacity evaluates the guard on whole litres, the precision the
// database stores, so a sequence of moves that nets to zero lands on zero.
func (t *memoryTx) AdjustCapacity(_ context.Context, id string, delta repository.CapacityDelta) error {
	d := t.data()
	c, ok := d.containers[id]
	if !ok {
		return repository.ErrConflict
	}
	confirmed := repository.Milli(c.ConfirmedCbm) + repository.Milli(delta.Confirmed)
	registering := repository.Milli(c.RegisteringCbm) + repository.Milli(delta.Registering)
	bidding := repository.Milli(c.BiddingCbm) + repository.Milli(delta.Bidding)
	if confirmed < 0 || registering < 0 || bidding < 0 {
		return repository.ErrConflict
	}
	if confirmed+registering+bidding > repository.Milli(c.TotalCapacity) {
		return repository.ErrConflict
	}
	c.ConfirmedCbm = repository.FromMilli(confirmed)
	c.RegisteringCbm = repository.FromMilli(registering)
	c.BiddingCbm = repository.FromMilli(bidding)
	c.UpdatedAt = t.s.clock().UTC()
	remember(t, d.containers, id)
	d.containers[id] = c
	return nil
}

func (t *memoryTx) UpdateContainerStatus(_ context.Context, id string, from, to repository.ContainerStatus, vesselID *string) error {
	d := t.data()
	c, ok := d.containers[id]
	if !ok || c.Status != from {
		return repository.ErrConflict
	}
	c.Status = to
	if vesselID != nil {
		v := *vesselID
		c.VesselID = &v
	}
	c.UpdatedAt = t.s.clock().UTC()
	remember(t, d.containers, id)
	d.containers[id] = c
	return nil
}

func (t *memoryTx) DeleteContainer(_ context.Context, id string) error {
	d := t.data()
	c, ok := d.containers[id]
	if !ok || c.Status != repository.ContainerRegistered || c.ConfirmedCbm != 0 || c.RegisteringCbm != 0 || c.BiddingCbm != 0 {
		return repository.ErrConflict
	}
	remember(t, d.containers, id)
	delete(d.containers, id)
	return nil
}

func (t *memoryTx) CreateExternalCargo(_ context.Context, cargo *repository.ExternalCargo) error {
	d := t.data()
	t.rememberCounter(&d.nextCargoID)
	d.nextCargoID++
	cargo.ID = d.nextCargoID
	cargo.Cbm = repository.RoundCbm(cargo.Cbm)
	remember(t, d.cargo, cargo.ID)
	d.cargo[cargo.ID] = *cargo
	return nil
}

func (t *memoryTx) GetExternalCargo(_ context.Context, id int64) (*repository.ExternalCargo, error) {
	c, ok := t.data().cargo[id]
	if !ok {
		return nil, repository.ErrObjectNotFound
	}
	return &c, nil
}

func (t *memoryTx) DeleteExternalCargo(_ context.Context, id int64) error {
	d := t.data()
	if _, ok := d.cargo[id]; !ok {
		return repository.ErrConflict
	}
	remember(t, d.cargo, id)
	delete(d.cargo, id)
	return nil
}

func (t *memoryTx) CreateNotification(_ context.Context, n *repository.Notification) error {
	d := t.data()
	t.rememberCounter(&d.nextNotificationID)
	d.nextNotificationID++
	n.ID = d.nextNotificationID
	remember(t, d.notifications, n.ID)
	d.notifications[n.ID] = *n
	return nil
}

func (t *memoryTx) CreateOutboxTask(_ context.Context, task *repository.OutboxTask) error {
	d := t.data()
	task.Status = repository.TaskStatusCreated
	task.CreatedAt = t.s.clock().UTC()
	task.UpdatedAt = task.CreatedAt
	n := len(d.outbox)
	t.undo = append(t.undo, func() { d.outbox = d.outbox[:n] })
	d.outbox = append(d.outbox, *task)
	return nil
}
