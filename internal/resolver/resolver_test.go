package resolver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/NHadi/PawSmartMobile-sub001/internal/commerce"
	"github.com/NHadi/PawSmartMobile-sub001/internal/config"
	"github.com/NHadi/PawSmartMobile-sub001/internal/entity"
	"github.com/NHadi/PawSmartMobile-sub001/internal/kvstore"
	"github.com/NHadi/PawSmartMobile-sub001/internal/refcache"
	"github.com/NHadi/PawSmartMobile-sub001/pkg/errorbank"
)

type fakeClient struct {
	mu        sync.Mutex
	getCalls  int
	listCalls int
	getFn     func(id int64) (*entity.Order, error)
	listFn    func(q commerce.Query) ([]entity.Order, error)
}

func (f *fakeClient) GetOrder(_ context.Context, id int64) (*entity.Order, error) {
	f.mu.Lock()
	f.getCalls++
	f.mu.Unlock()
	if f.getFn == nil {
		return nil, commerce.ErrNotFound
	}
	return f.getFn(id)
}

func (f *fakeClient) ListOrders(_ context.Context, q commerce.Query) ([]entity.Order, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.listFn == nil {
		return nil, commerce.ErrUnavailable
	}
	return f.listFn(q)
}

func (f *fakeClient) UpdateOrder(context.Context, int64, commerce.OrderUpdate) error {
	return nil
}

func (f *fakeClient) Regions(context.Context, int64) ([]entity.Region, error) {
	return nil, nil
}

func (f *fakeClient) PostalCodes(context.Context, int64) ([]entity.PostalCode, error) {
	return nil, nil
}

func (f *fakeClient) gets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

func newTestResolver(t *testing.T, client commerce.Client) *Resolver {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	cache := refcache.New(kvstore.NewRedis(redisClient), config.Cache{
		KeyPrefix: "pawsmart:cache",
		TTL:       config.CacheTTL{OrderLists: 15 * time.Minute},
	}, zap.NewNop())

	return New(cache, client, time.Millisecond, zap.NewNop())
}

func listOrder(id, partnerID int64, ref, image string) entity.Order {
	return entity.Order{
		ID:        id,
		PartnerID: partnerID,
		Reference: ref,
		State:     entity.StateConfirmed,
		Lines: []entity.LineItem{
			{ProductID: 1, Name: "kibble", Quantity: 2, Image: image},
		},
	}
}

func TestGetOrderServedFromCachedList(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	r := newTestResolver(t, client)

	q := commerce.Query{PartnerID: 7, PageSize: 10}
	r.StoreList(ctx, q, []entity.Order{
		listOrder(41, 7, "SO041", "img-41"),
		listOrder(42, 7, "SO042", "img-42"),
	})

	got, err := r.GetOrder(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.True(t, got.HasImages(), "cached list reads carry images")
	assert.Equal(t, 0, client.gets(), "cache hit must not reach the network")
}

func TestGetOrderProbesMostRecentListFirst(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	r := newTestResolver(t, client)

	older := commerce.Query{PartnerID: 7, PageSize: 10}
	newer := commerce.Query{PartnerID: 7, PageSize: 20}
	r.StoreList(ctx, older, []entity.Order{listOrder(42, 7, "stale", "")})
	r.StoreList(ctx, newer, []entity.Order{listOrder(42, 7, "fresh", "img")})

	got, err := r.GetOrder(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Reference)
}

func TestGetOrderFallsBackToNetwork(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		getFn: func(id int64) (*entity.Order, error) {
			order := listOrder(id, 7, "SO042", "")
			return &order, nil
		},
	}
	r := newTestResolver(t, client)

	got, err := r.GetOrder(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.False(t, got.HasImages())
	assert.Equal(t, 1, client.gets())
}

func TestGetOrderRetriesNetworkOnce(t *testing.T) {
	ctx := context.Background()
	var calls int
	client := &fakeClient{}
	client.getFn = func(id int64) (*entity.Order, error) {
		calls++
		if calls == 1 {
			return nil, commerce.ErrUnavailable
		}
		order := listOrder(id, 7, "SO042", "")
		return &order, nil
	}
	r := newTestResolver(t, client)

	got, err := r.GetOrder(ctx, 42)

	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)
	assert.Equal(t, 2, client.gets())
}

func TestGetOrderTerminalAfterRetryExhausted(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		getFn: func(int64) (*entity.Order, error) {
			return nil, commerce.ErrUnavailable
		},
	}
	r := newTestResolver(t, client)

	_, err := r.GetOrder(ctx, 42)

	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindUnavailable, appErr.Kind())
	assert.Equal(t, 2, client.gets(), "exactly one retry")
}

func TestGetOrderNotFoundIsNotRetried(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		getFn: func(int64) (*entity.Order, error) {
			return nil, commerce.ErrNotFound
		},
	}
	r := newTestResolver(t, client)

	_, err := r.GetOrder(ctx, 42)

	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindNotFound, appErr.Kind())
	assert.Equal(t, 1, client.gets())
}

func TestNetworkResultNotWrittenBackToListCaches(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		getFn: func(id int64) (*entity.Order, error) {
			order := listOrder(id, 7, "SO042", "")
			return &order, nil
		},
	}
	r := newTestResolver(t, client)

	_, err := r.GetOrder(ctx, 42)
	require.NoError(t, err)
	_, err = r.GetOrder(ctx, 42)
	require.NoError(t, err)

	assert.Equal(t, 2, client.gets(), "fallback results must stay out of the cache")
}

func TestListOrdersReadThrough(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{
		listFn: func(q commerce.Query) ([]entity.Order, error) {
			return []entity.Order{listOrder(42, q.PartnerID, "SO042", "img")}, nil
		},
	}
	r := newTestResolver(t, client)
	q := commerce.Query{PartnerID: 7, PageSize: 10}

	first, err := r.ListOrders(ctx, q)
	require.NoError(t, err)
	second, err := r.ListOrders(ctx, q)
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Reference, second[0].Reference)
	assert.Equal(t, 1, client.listCalls)
}

func TestListOrdersFailureIsTerminal(t *testing.T) {
	ctx := context.Background()
	r := newTestResolver(t, &fakeClient{})

	_, err := r.ListOrders(ctx, commerce.Query{PartnerID: 7, PageSize: 10})

	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindUnavailable, appErr.Kind())
}

func TestInvalidateDropsOnlyThePartner(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	r := newTestResolver(t, client)

	r.StoreList(ctx, commerce.Query{PartnerID: 7, PageSize: 10}, []entity.Order{listOrder(42, 7, "SO042", "img")})
	r.StoreList(ctx, commerce.Query{PartnerID: 9, PageSize: 10}, []entity.Order{listOrder(99, 9, "SO099", "img")})

	r.Invalidate(ctx, 7)

	_, err := r.GetOrder(ctx, 42)
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindNotFound, appErr.Kind())

	got, err := r.GetOrder(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, int64(99), got.ID)
	assert.Equal(t, 1, client.gets(), "the surviving partner stays cached")
}
