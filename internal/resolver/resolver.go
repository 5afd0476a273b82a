// Package resolver decides, per order read, which data source is
// authoritative. List reads are the only path that reliably carries line-item
// images, so a single-order read first probes previously cached list result
// sets (most recently used first) and only falls back to the network when
// no cached list contains the order. The network result is deliberately never
// written back into the list caches: it is lower fidelity.
package resolver

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/NHadi/PawSmartMobile-sub001/internal/commerce"
	"github.com/NHadi/PawSmartMobile-sub001/internal/config"
	"github.com/NHadi/PawSmartMobile-sub001/internal/entity"
	"github.com/NHadi/PawSmartMobile-sub001/internal/refcache"
	"github.com/NHadi/PawSmartMobile-sub001/pkg/errorbank"
)

var tracer = otel.Tracer("github.com/NHadi/PawSmartMobile-sub001/resolver")

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_resolver_cache_hits_total",
		Help: "Order reads answered from a cached list result set.",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_resolver_cache_misses_total",
		Help: "Order reads that exhausted every cached candidate.",
	})
	networkFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_resolver_network_fallbacks_total",
		Help: "Order reads served by the single-order network path.",
	})
)

// Module provides the resolver to the Fx graph.
var Module = fx.Provide(func(cache *refcache.Cache, client commerce.Client, cfg config.Config, logger *zap.Logger) *Resolver {
	return New(cache, client, cfg.Commerce.RetryBackoff, logger)
})

// Resolver produces the most complete known view of an order.
type Resolver struct {
	cache        *refcache.Cache
	client       commerce.Client
	logger       *zap.Logger
	retryBackoff time.Duration
	flight       singleflight.Group

	mu         sync.Mutex
	candidates []commerce.Query
}

// New builds a Resolver. retryBackoff is the pause before the one network
// retry the fallback path is allowed.
func New(cache *refcache.Cache, client commerce.Client, retryBackoff time.Duration, logger *zap.Logger) *Resolver {
	if retryBackoff <= 0 {
		retryBackoff = 500 * time.Millisecond
	}
	return &Resolver{
		cache:        cache,
		client:       client,
		logger:       logger,
		retryBackoff: retryBackoff,
	}
}

// ListOrders returns the result set for q, from cache when present and
// unexpired, otherwise from the backend. A fresh fetch is stored and q
// becomes the top priority candidate for subsequent single-order reads.
func (r *Resolver) ListOrders(ctx context.Context, q commerce.Query) ([]entity.Order, error) {
	ctx, span := tracer.Start(ctx, "Resolver.ListOrders", trace.WithAttributes(
		attribute.Int64("query.partner_id", q.PartnerID),
		attribute.Int("query.page_size", q.PageSize),
	))
	defer span.End()

	var cached []entity.Order
	if r.cache.Get(ctx, refcache.NamespaceOrderLists, q.Key(), &cached) {
		r.promote(q)
		return cached, nil
	}

	orders, err := r.client.ListOrders(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Unavailable("failed to list orders", errorbank.WithCause(err))
	}

	r.StoreList(ctx, q, orders)
	return orders, nil
}

// StoreList caches a list result set under its canonical query descriptor
// and moves the descriptor to the front of the candidate priority list.
func (r *Resolver) StoreList(ctx context.Context, q commerce.Query, orders []entity.Order) {
	if err := r.cache.Set(ctx, refcache.NamespaceOrderLists, orders, refcache.SetOptions{Identifier: q.Key()}); err != nil {
		if r.logger != nil {
			r.logger.Warn("store order list failed", zap.String("query", q.Key()), zap.Error(err))
		}
		return
	}
	r.promote(q)
}

// GetOrder resolves a single order. Cached candidates are probed strictly in
// priority order and the first match is authoritative; only when every probe
// misses does the resolver read the single order over the network, accepting
// that the result may lack images. Concurrent calls for the same id coalesce
// onto one lookup. When both the probes and the network fail, the caller gets
// a single terminal error.
func (r *Resolver) GetOrder(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := tracer.Start(ctx, "Resolver.GetOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	v, err, _ := r.flight.Do(strconv.FormatInt(id, 10), func() (any, error) {
		return r.resolve(ctx, id)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return v.(*entity.Order), nil
}

func (r *Resolver) resolve(ctx context.Context, id int64) (*entity.Order, error) {
	if order, ok := r.probe(ctx, id); ok {
		cacheHits.Inc()
		return order, nil
	}
	cacheMisses.Inc()

	networkFallbacks.Inc()
	order, err := r.fetchWithRetry(ctx, id)
	if err != nil {
		if errors.Is(err, commerce.ErrNotFound) {
			return nil, errorbank.NotFound("order not found", errorbank.WithDetail("order_id", id))
		}
		return nil, errorbank.Unavailable("order could not be resolved",
			errorbank.WithCause(err),
			errorbank.WithDetail("order_id", id),
		)
	}
	// Intentionally not written back into the list caches: the single-order
	// read is lower fidelity than any list read.
	return order, nil
}

// probe scans the candidate result sets in priority order. A miss is
// definitive for this call; probes are never retried.
func (r *Resolver) probe(ctx context.Context, id int64) (*entity.Order, bool) {
	for _, q := range r.snapshot() {
		var orders []entity.Order
		if !r.cache.Get(ctx, refcache.NamespaceOrderLists, q.Key(), &orders) {
			continue
		}
		for i := range orders {
			if orders[i].ID == id {
				order := orders[i]
				return &order, true
			}
		}
	}
	return nil, false
}

func (r *Resolver) fetchWithRetry(ctx context.Context, id int64) (*entity.Order, error) {
	var order *entity.Order
	backoff := retry.WithMaxRetries(1, retry.NewConstant(r.retryBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		fetched, err := r.client.GetOrder(ctx, id)
		if err != nil {
			if errors.Is(err, commerce.ErrNotFound) {
				return err
			}
			return retry.RetryableError(err)
		}
		order = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Invalidate drops every cached result set belonging to the partner, forcing
// the next read to refetch. Called after successful writes.
func (r *Resolver) Invalidate(ctx context.Context, partnerID int64) {
	r.mu.Lock()
	kept := r.candidates[:0]
	var dropped []commerce.Query
	for _, q := range r.candidates {
		if q.PartnerID == partnerID {
			dropped = append(dropped, q)
			continue
		}
		kept = append(kept, q)
	}
	r.candidates = kept
	r.mu.Unlock()

	for _, q := range dropped {
		r.cache.Remove(ctx, refcache.NamespaceOrderLists, q.Key())
	}
}

// promote moves q to the front of the candidate list, inserting it if new.
func (r *Resolver) promote(q commerce.Query) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ordered := make([]commerce.Query, 0, len(r.candidates)+1)
	ordered = append(ordered, q)
	for _, c := range r.candidates {
		if c != q {
			ordered = append(ordered, c)
		}
	}
	r.candidates = ordered
}

func (r *Resolver) snapshot() []commerce.Query {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]commerce.Query(nil), r.candidates...)
}
