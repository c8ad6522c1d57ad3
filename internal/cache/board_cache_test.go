package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/domain"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/repository"
	"gitlab.ozon.dev/pupkingeorgij/freightbid/internal/storage"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type stubRepo struct {
	reqs []*repository.CargoRequest
	err  error
}

func (r stubRepo) ListOpenRequests(context.Context, time.Time) ([]*repository.CargoRequest, error) {
	return r.reqs, r.err
}

func (r stubRepo) GetRequest(_ context.Context, id int64) (*repository.CargoRequest, error) {
	if r.err != nil {
		return nil, r.err
	}
	for _, req := range r.reqs {
		if req.ID == id {
			return req, nil
		}
	}
	return nil, repository.ErrObjectNotFound
}

type recordingInvalidator struct {
	ids []int64
	err error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, requestID int64) error {
	r.ids = append(r.ids, requestID)
	return r.err
}

func openRequest(id int64, deadline time.Duration) *repository.CargoRequest {
	return &repository.CargoRequest{ID: id, Status: repository.RequestOpen, Deadline: testNow.Add(deadline)}
}

func TestBoardCache_LoadAndList(t *testing.T) {
	c := NewBoardCache(stubRepo{reqs: []*repository.CargoRequest{
		openRequest(1, 48*time.Hour),
		openRequest(2, 2*time.Hour),
		openRequest(3, -time.Hour),
		openRequest(4, 2*time.Hour),
	}}, zap.NewNop())

	require.NoError(t, c.LoadInitialData(context.Background()))

	var ids []int64
	for _, req := range c.List(testNow) {
		ids = append(ids, req.ID)
	}
	assert.Equal(t, []int64{2, 4, 1}, ids)
}

func TestBoardCache_LoadError(t *testing.T) {
	c := NewBoardCache(stubRepo{err: errors.New("connection reset")}, zap.NewNop())

	assert.Error(t, c.LoadInitialData(context.Background()))
	assert.Empty(t, c.List(testNow))
}

func TestBoardCache_ReturnsCopies(t *testing.T) {
	c := NewBoardCache(stubRepo{}, zap.NewNop())
	c.Set(openRequest(1, time.Hour))

	got, ok := c.Get(1)
	require.True(t, ok)
	got.Cbm = 99

	again, ok := c.Get(1)
	require.True(t, ok)
	assert.Zero(t, again.Cbm)
}

func TestBoardCache_Dispatch(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage(func() time.Time { return testNow })
	c := NewBoardCache(store, zap.NewNop())
	req := *openRequest(1, time.Hour)

	dispatch := func(events ...domain.Event) error {
		return store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
			return c.Dispatch(ctx, tx, events...)
		})
	}

	require.NoError(t, dispatch(domain.RequestCreated{Request: req}))
	_, ok := c.Get(1)
	assert.True(t, ok)

	accepted := req
	accepted.Status = repository.RequestAccepted
	require.NoError(t, dispatch(domain.OfferSubmitted{Request: req}, domain.RequestFulfilled{Request: accepted}))
	_, ok = c.Get(1)
	assert.False(t, ok)

	err := store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		require.NoError(t, c.Dispatch(ctx, tx, domain.RequestCreated{Request: *openRequest(2, time.Hour)}))
		return errors.New("rolled back")
	})
	assert.Error(t, err)
	_, ok = c.Get(2)
	assert.False(t, ok)
}

func TestBoardCache_InvalidatesAfterCommit(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStorage(func() time.Time { return testNow })
	c := NewBoardCache(store, zap.NewNop())
	inv := &recordingInvalidator{}
	c.SetInvalidator(inv)

	require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return c.Dispatch(ctx, tx, domain.RequestCreated{Request: *openRequest(1, time.Hour)}, domain.OfferSubmitted{})
	}))
	assert.Equal(t, []int64{1}, inv.ids)

	err := store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		require.NoError(t, c.Dispatch(ctx, tx, domain.RequestCreated{Request: *openRequest(2, time.Hour)}))
		return errors.New("rolled back")
	})
	assert.Error(t, err)
	assert.Equal(t, []int64{1}, inv.ids)

	// A failing broadcast leaves the local cache current.
	inv.err = errors.New("redis down")
	require.NoError(t, store.InTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		return c.Dispatch(ctx, tx, domain.RequestCreated{Request: *openRequest(3, time.Hour)})
	}))
	_, ok := c.Get(3)
	assert.True(t, ok)
}

func TestBoardCache_Refresh(t *testing.T) {
	ctx := context.Background()
	accepted := openRequest(2, time.Hour)
	accepted.Status = repository.RequestAccepted
	repo := stubRepo{reqs: []*repository.CargoRequest{openRequest(1, time.Hour), accepted}}
	c := NewBoardCache(repo, zap.NewNop())
	c.Set(openRequest(2, time.Hour))
	c.Set(openRequest(9, time.Hour))

	tests := []struct {
		name       string
		requestID  int64
		wantCached bool
	}{
		{name: "opened elsewhere", requestID: 1, wantCached: true},
		{name: "accepted elsewhere", requestID: 2, wantCached: false},
		{name: "deleted elsewhere", requestID: 9, wantCached: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, c.Refresh(ctx, tc.requestID))
			_, ok := c.Get(tc.requestID)
			assert.Equal(t, tc.wantCached, ok)
		})
	}
}

func TestBoardCache_ReloadReplacesContents(t *testing.T) {
	c := NewBoardCache(stubRepo{reqs: []*repository.CargoRequest{openRequest(1, time.Hour)}}, zap.NewNop())
	c.Set(openRequest(5, time.Hour))

	require.NoError(t, c.Reload(context.Background()))

	_, ok := c.Get(5)
	assert.False(t, ok)
	_, ok = c.Get(1)
	assert.True(t, ok)
}
