package cache

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/metrics"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

type RequestRepository interface {
	ListOpenRequests(ctx context.Context, now time.Time) ([]*repository.CargoRequest, error)
	GetRequest(ctx context.Context, id int64) (*repository.CargoRequest, error)
}

// Invalidator tells the other API instances that a request changed.
type Invalidator interface {
	Invalidate(ctx context.Context, requestID int64) error
}

// BoardCache holds the OPEN requests shown on the forwarders' board. It is
// warmed at startup and kept current by domain events after each commit.
// Changes committed by other instances arrive through Refresh.
type BoardCache struct {
	mu          sync.RWMutex
	cache       map[int64]*repository.CargoRequest
	repo        RequestRepository
	invalidator Invalidator
	logger      *zap.Logger
}

func NewBoardCache(repo RequestRepository, logger *zap.Logger) *BoardCache {
	return &BoardCache{
		cache:  make(map[int64]*repository.CargoRequest),
		repo:   repo,
		logger: logger,
	}
}

// SetInvalidator publishes every committed change through inv.
func (c *BoardCache) SetInvalidator(inv Invalidator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidator = inv
}

func (c *BoardCache) LoadInitialData(ctx context.Context) error {
	c.logger.Info("loading open requests into board cache")
	return c.Reload(ctx)
}

// Reload replaces the whole cache with the open requests in storage.
func (c *BoardCache) Reload(ctx context.Context) error {
	reqs, err := c.repo.ListOpenRequests(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	fresh := make(map[int64]*repository.CargoRequest, len(reqs))
	for _, req := range reqs {
		reqCopy := *req
		fresh[req.ID] = &reqCopy
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = fresh
	metrics.BoardCacheItems.Set(float64(len(c.cache)))
	c.logger.Info("board cache loaded", zap.Int("requests", len(c.cache)))
	return nil
}

// Refresh re-reads one request from storage after another instance changed it.
func (c *BoardCache) Refresh(ctx context.Context, requestID int64) error {
	req, err := c.repo.GetRequest(ctx, requestID)
	if errors.Is(err, repository.ErrObjectNotFound) {
		c.Delete(requestID)
		return nil
	}
	if err != nil {
		return err
	}
	c.Set(req)
	return nil
}

func (c *BoardCache) Get(requestID int64) (*repository.CargoRequest, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	req, found := c.cache[requestID]
	if !found {
		return nil, false
	}
	reqCopy := *req
	return &reqCopy, true
}

// List returns the cached requests still open for bids at now, nearest deadline first.
func (c *BoardCache) List(now time.Time) []*repository.CargoRequest {
	c.mu.RLock()
	reqs := make([]*repository.CargoRequest, 0, len(c.cache))
	for _, req := range c.cache {
		if !now.Before(req.Deadline) {
			continue
		}
		reqCopy := *req
		reqs = append(reqs, &reqCopy)
	}
	c.mu.RUnlock()

	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].Deadline.Equal(reqs[j].Deadline) {
			return reqs[i].ID < reqs[j].ID
		}
		return reqs[i].Deadline.Before(reqs[j].Deadline)
	})
	return reqs
}

func (c *BoardCache) Set(req *repository.CargoRequest) {
	if req.Status != repository.RequestOpen {
		c.Delete(req.ID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	reqCopy := *req
	c.cache[req.ID] = &reqCopy
	metrics.BoardCacheItems.Set(float64(len(c.cache)))
	c.logger.Debug("board cache set", zap.Int64("request_id", req.ID))
}

func (c *BoardCache) Delete(requestID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, found := c.cache[requestID]; found {
		delete(c.cache, requestID)
		metrics.BoardCacheItems.Set(float64(len(c.cache)))
		c.logger.Debug("board cache delete", zap.Int64("request_id", requestID))
	}
}

// Dispatch applies request status changes to the cache once the transaction commits.
func (c *BoardCache) Dispatch(_ context.Context, tx storage.Tx, events ...domain.Event) error {
	for _, ev := range events {
		var req repository.CargoRequest
		switch e := ev.(type) {
		case domain.RequestCreated:
			req = e.Request
		case domain.RequestFulfilled:
			req = e.Request
		case domain.RequestExpired:
			req = e.Request
		case domain.ResaleCancelled:
			req = e.Request
		default:
			continue
		}
		tx.AfterCommit(func(ctx context.Context) {
			c.Set(&req)
			c.invalidate(ctx, req.ID)
		})
	}
	return nil
}

func (c *BoardCache) invalidate(ctx context.Context, requestID int64) {
	c.mu.RLock()
	inv := c.invalidator
	c.mu.RUnlock()
	if inv == nil {
		return
	}
	if err := inv.Invalidate(ctx, requestID); err != nil {
		c.logger.Warn("board invalidation failed", zap.Int64("request_id", requestID), zap.Error(err))
	}
}
