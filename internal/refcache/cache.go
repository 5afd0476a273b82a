// Package refcache implements the tiered reference cache: a volatile
// in-process tier over the durable kvstore tier, with namespaced keys and
// per-entry expiry. Reads go volatile first, then durable with promotion;
// expired durable entries are deleted on read. Used for slowly-changing
// reference data (regions, postal codes), the default-address preference,
// and the order result sets the read resolver probes.
package refcache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/NHadi/PawSmartMobile-sub001/internal/config"
	"github.com/NHadi/PawSmartMobile-sub001/internal/kvstore"
)

// Namespace partitions cache keys by the kind of data they hold. Each
// namespace carries its own default TTL.
type Namespace string

const (
	NamespaceRegions        Namespace = "regions"
	NamespacePostalCodes    Namespace = "postal_codes"
	NamespaceDefaultAddress Namespace = "default_address"
	NamespaceOrderLists     Namespace = "order_lists"
)

const fallbackTTL = time.Hour

// durableSlack keeps the durable entry alive slightly past its envelope
// expiry, so the read path can observe the expiry and clean both tiers before
// the driver garbage-collects it.
const durableSlack = time.Minute

// entry is the stored envelope: payload plus fetch and expiry timestamps.
// The same envelope lives in both tiers so expiry travels with the value.
type entry struct {
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Cache is the tiered reference cache.
type Cache struct {
	store  kvstore.Store
	logger *zap.Logger
	prefix string
	ttls   map[Namespace]time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	volatile map[string]entry
}

// Option customizes a Cache.
type Option func(*Cache)

// WithClock overrides the time source. Tests use it to drive expiry.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// Module provides the cache to the Fx graph.
var Module = fx.Provide(func(store kvstore.Store, cfg config.Config, logger *zap.Logger) *Cache {
	return New(store, cfg.Cache, logger)
})

// New builds a Cache over the given durable store.
func New(store kvstore.Store, cfg config.Cache, logger *zap.Logger, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		logger: logger,
		prefix: cfg.KeyPrefix,
		ttls: map[Namespace]time.Duration{
			NamespaceRegions:        cfg.TTL.Regions,
			NamespacePostalCodes:    cfg.TTL.PostalCodes,
			NamespaceDefaultAddress: cfg.TTL.DefaultAddress,
			NamespaceOrderLists:     cfg.TTL.OrderLists,
		},
		now:      time.Now,
		volatile: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetOptions tunes a single Set call.
type SetOptions struct {
	// Identifier distinguishes entries within a namespace, e.g. a region id.
	Identifier string
	// TTL overrides the namespace default when positive.
	TTL time.Duration
}

// Set stores value in both tiers. The volatile write is synchronous; the
// durable write is best-effort, with failures logged rather than returned.
// An error is returned only when the value itself cannot be serialized.
func (c *Cache) Set(ctx context.Context, ns Namespace, value any, opts SetOptions) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = c.ttl(ns)
	}
	now := c.now()
	e := entry{Payload: payload, FetchedAt: now, ExpiresAt: now.Add(ttl)}
	key := c.key(ns, opts.Identifier)

	c.mu.Lock()
	c.volatile[key] = e
	c.mu.Unlock()

	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, key, raw, ttl+durableSlack); err != nil {
		if c.logger != nil {
			c.logger.Warn("durable cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return nil
}

// Get loads the entry for (ns, identifier) into out. It returns false on any
// miss, expiry, or durable-tier failure; callers always get a definitive
// hit/miss, never an error. A durable hit is promoted into the volatile tier.
func (c *Cache) Get(ctx context.Context, ns Namespace, identifier string, out any) bool {
	key := c.key(ns, identifier)
	now := c.now()

	c.mu.RLock()
	e, ok := c.volatile[key]
	c.mu.RUnlock()
	if ok {
		if now.Before(e.ExpiresAt) {
			return c.decode(key, e.Payload, out)
		}
		// Expired in both tiers by construction; drop both.
		c.mu.Lock()
		delete(c.volatile, key)
		c.mu.Unlock()
		c.removeDurable(ctx, key)
		return false
	}

	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if err != kvstore.ErrNotFound && c.logger != nil {
			c.logger.Warn("durable cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(raw, &e); err != nil {
		if c.logger != nil {
			c.logger.Warn("durable cache entry corrupt", zap.String("key", key), zap.Error(err))
		}
		c.removeDurable(ctx, key)
		return false
	}

	if !now.Before(e.ExpiresAt) {
		c.removeDurable(ctx, key)
		return false
	}

	// Promote so the next read stays in-process.
	c.mu.Lock()
	c.volatile[key] = e
	c.mu.Unlock()

	return c.decode(key, e.Payload, out)
}

// Remove drops the entry from both tiers.
func (c *Cache) Remove(ctx context.Context, ns Namespace, identifier string) {
	key := c.key(ns, identifier)
	c.mu.Lock()
	delete(c.volatile, key)
	c.mu.Unlock()
	c.removeDurable(ctx, key)
}

// RemoveNamespace drops every entry under the namespace from both tiers.
func (c *Cache) RemoveNamespace(ctx context.Context, ns Namespace) {
	prefix := c.key(ns, "")
	c.mu.Lock()
	for key := range c.volatile {
		if strings.HasPrefix(key, prefix) {
			delete(c.volatile, key)
		}
	}
	c.mu.Unlock()

	keys, err := c.store.Keys(ctx, prefix)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("durable cache key scan failed", zap.String("prefix", prefix), zap.Error(err))
		}
		return
	}
	if err := c.store.RemoveMany(ctx, keys); err != nil && c.logger != nil {
		c.logger.Warn("durable cache purge failed", zap.String("prefix", prefix), zap.Error(err))
	}
}

// Purge clears both tiers, touching only keys under this layer's prefix so
// unrelated data sharing the store survives.
func (c *Cache) Purge(ctx context.Context) error {
	c.mu.Lock()
	c.volatile = make(map[string]entry)
	c.mu.Unlock()

	keys, err := c.store.Keys(ctx, c.prefix+":")
	if err != nil {
		return err
	}
	return c.store.RemoveMany(ctx, keys)
}

func (c *Cache) removeDurable(ctx context.Context, key string) {
	if err := c.store.Remove(ctx, key); err != nil && err != kvstore.ErrNotFound && c.logger != nil {
		c.logger.Warn("durable cache remove failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) ttl(ns Namespace) time.Duration {
	if ttl, ok := c.ttls[ns]; ok && ttl > 0 {
		return ttl
	}
	return fallbackTTL
}

func (c *Cache) key(ns Namespace, identifier string) string {
	key := c.prefix + ":" + string(ns)
	if identifier != "" {
		key += ":" + identifier
	}
	return key
}

func (c *Cache) decode(key string, payload json.RawMessage, out any) bool {
	if out == nil {
		return true
	}
	if err := json.Unmarshal(payload, out); err != nil {
		if c.logger != nil {
			c.logger.Warn("cache payload decode failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}
