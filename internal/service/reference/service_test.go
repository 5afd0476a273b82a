package reference

import (
	"context"
	"sync"
	"testing"
	"time"

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

type mapStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapStore() *mapStore {
	return &mapStore{data: make(map[string][]byte)}
}

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.data[key]
	if !ok {
		return nil, kvstore.ErrNotFound
	}
	return raw, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *mapStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *mapStore) RemoveMany(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *mapStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.data {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

type fakeCommerce struct {
	mu          sync.Mutex
	regionCalls int
	regionErr   error
}

func (f *fakeCommerce) Regions(_ context.Context, countryID int64) ([]entity.Region, error) {
	f.mu.Lock()
	f.regionCalls++
	f.mu.Unlock()
	if f.regionErr != nil {
		return nil, f.regionErr
	}
	return []entity.Region{{ID: 1, CountryID: countryID, Name: "West Java", Code: "JB"}}, nil
}

func (f *fakeCommerce) PostalCodes(_ context.Context, regionID int64) ([]entity.PostalCode, error) {
	return []entity.PostalCode{{ID: 10, RegionID: regionID, Code: "40111", City: "Bandung"}}, nil
}

func (f *fakeCommerce) ListOrders(context.Context, commerce.Query) ([]entity.Order, error) {
	return nil, commerce.ErrUnavailable
}

func (f *fakeCommerce) GetOrder(context.Context, int64) (*entity.Order, error) {
	return nil, commerce.ErrNotFound
}

func (f *fakeCommerce) UpdateOrder(context.Context, int64, commerce.OrderUpdate) error {
	return nil
}

func newTestService(client commerce.Client) *Service {
	cache := refcache.New(newMapStore(), config.Cache{
		KeyPrefix: "pawsmart:cache",
		TTL: config.CacheTTL{
			Regions:        7 * 24 * time.Hour,
			PostalCodes:    24 * time.Hour,
			DefaultAddress: 30 * 24 * time.Hour,
		},
	}, zap.NewNop())
	return NewService(cache, client, zap.NewNop())
}

func TestRegionsReadThrough(t *testing.T) {
	ctx := context.Background()
	client := &fakeCommerce{}
	svc := newTestService(client)

	first, err := svc.Regions(ctx, 100)
	require.NoError(t, err)
	second, err := svc.Regions(ctx, 100)
	require.NoError(t, err)

	require.Len(t, first, 1)
	assert.Equal(t, first[0].Name, second[0].Name)
	assert.Equal(t, 1, client.regionCalls, "the second read must come from cache")
}

func TestRegionsBackendFailure(t *testing.T) {
	ctx := context.Background()
	client := &fakeCommerce{regionErr: commerce.ErrUnavailable}
	svc := newTestService(client)

	_, err := svc.Regions(ctx, 100)

	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errorbank.KindUnavailable, appErr.Kind())
}

func TestPostalCodesReadThrough(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeCommerce{})

	postals, err := svc.PostalCodes(ctx, 1)

	require.NoError(t, err)
	require.Len(t, postals, 1)
	assert.Equal(t, "40111", postals[0].Code)
}

func TestDefaultAddressPreference(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&fakeCommerce{})

	_, ok := svc.DefaultAddressID(ctx)
	assert.False(t, ok, "absent until the user picks one")

	require.NoError(t, svc.SetDefaultAddressID(ctx, 99))

	id, ok := svc.DefaultAddressID(ctx)
	require.True(t, ok)
	assert.Equal(t, int64(99), id)

	var appErr *errorbank.AppError
	require.ErrorAs(t, svc.SetDefaultAddressID(ctx, 0), &appErr)
	assert.Equal(t, errorbank.KindBadRequest, appErr.Kind())
}
