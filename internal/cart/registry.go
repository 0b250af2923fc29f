package cart

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/angelmondragon/storefront-backend/internal/storage"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	DefaultRegistrySize = 10_000
	DefaultRegistryTTL  = 15 * time.Minute
)

// Registry hands out one Store per active cart session so concurrent requests for a session share
// its lock. Stores hold no state of their own beyond a request, so idle ones are evicted freely.
type Registry struct {
	mu      sync.Mutex
	stores  *expirable.LRU[string, *Store]
	slots   storage.Store
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

// RegistryOption tunes a Registry.
type RegistryOption func(*registryOptions)

type registryOptions struct {
	size int
	ttl  time.Duration
}

// WithCacheLimits caps how many sessions are kept and for how long after their last use.
func WithCacheLimits(size int, ttl time.Duration) RegistryOption {
	return func(o *registryOptions) {
		if size > 0 {
			o.size = size
		}
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

func NewRegistry(slots storage.Store, logg *logger.Logger, m *metrics.CartMetrics, opts ...RegistryOption) *Registry {
	o := registryOptions{size: DefaultRegistrySize, ttl: DefaultRegistryTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return &Registry{
		stores:  expirable.NewLRU[string, *Store](o.size, nil, o.ttl),
		slots:   slots,
		logg:    logg,
		metrics: m,
	}
}

// Store returns the session's store. Its operations read through to storage, so a cached store is
// never stale.
func (r *Registry) Store(_ context.Context, session string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores.Get(session)
	if !ok {
		store = NewStore(session, r.slots, r.logg, r.metrics)
	}
	// re-adding slides the expiry forward
	r.stores.Add(session, store)
	return store
}

// Len reports how many sessions currently have a cached store.
func (r *Registry) Len() int {
	return r.stores.Len()
}
