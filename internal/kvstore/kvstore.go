// Package kvstore provides the durable key/value tier backing the reference
// cache: an asynchronous, string-keyed persistent store with get/set/remove/
// removeMany/keys semantics and no transactions. Expiry semantics live in the
// caller's payload; the Set ttl is a garbage-collection hint for drivers with
// native expiry, so stale entries do not pile up when they are never re-read.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/NHadi/PawSmartMobile-sub001/internal/config"
)

// Store is the pluggable durable storage backend.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A positive ttl lets the driver expire the
	// entry on its own; zero means the entry lives until removed.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
	RemoveMany(ctx context.Context, keys []string) error
	// Keys returns every stored key under the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// ErrNotFound indicates the key is absent from the store.
var ErrNotFound = errors.New("kvstore: key not found")

// Module provides the durable store to the Fx graph.
var Module = fx.Provide(NewStore)

// NewStore initialises the configured store driver.
func NewStore(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Store.Driver {
	case "noop":
		if logger != nil {
			logger.Info("durable store disabled; using noop store")
		}
		return noopStore{}, nil
	case "redis":
		return newRedisStore(lc, cfg.Store.Redis, logger)
	case "sql":
		return newSQLStore(lc, cfg.Store.Database, logger)
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

type noopStore struct{}

func (noopStore) Get(context.Context, string) ([]byte, error) {
	return nil, ErrNotFound
}

func (noopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (noopStore) Remove(context.Context, string) error { return nil }

func (noopStore) RemoveMany(context.Context, []string) error { return nil }

func (noopStore) Keys(context.Context, string) ([]string, error) { return nil, nil }
