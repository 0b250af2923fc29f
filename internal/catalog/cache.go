package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

const maxCacheJitter = 2 * time.Minute

type cacheClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedLookup is a redis read-through in front of another Lookup. Cache failures are logged and
// bypassed; not-found answers are never cached.
type CachedLookup struct {
	next    Lookup
	client  cacheClient
	baseTTL time.Duration
	jitter  func() time.Duration
	logg    *logger.Logger
}

func NewCachedLookup(next Lookup, client *pkgredis.Client, ttl time.Duration, logg *logger.Logger) *CachedLookup {
	if logg == nil {
		logg = logger.Nop()
	}
	return &CachedLookup{
		next:    next,
		client:  client,
		baseTTL: ttl,
		jitter: func() time.Duration {
			return time.Duration(rand.Int63n(int64(maxCacheJitter)))
		},
		logg: logg,
	}
}

func (c *CachedLookup) GetByID(ctx context.Context, id string) (*Product, error) {
	key := productCacheKey(id)
	logCtx := c.logg.WithProductID(ctx, id)

	raw, err := c.client.Get(ctx, key)
	switch {
	case err == nil:
		var product Product
		if err := json.Unmarshal([]byte(raw), &product); err == nil {
			return &product, nil
		}
		c.logg.Warn(logCtx, "catalog.cache_decode_failed")
	case !errors.Is(err, pkgredis.ErrNil):
		c.logg.Error(logCtx, "catalog.cache_get_failed", err)
	}

	product, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(product)
	if err != nil {
		c.logg.Error(logCtx, "catalog.cache_encode_failed", err)
		return product, nil
	}
	if err := c.client.Set(ctx, key, string(payload), c.baseTTL+c.jitter()); err != nil {
		c.logg.Error(logCtx, "catalog.cache_set_failed", err)
	}
	return product, nil
}

func productCacheKey(id string) string {
	return pkgredis.BuildKey("catalog", "product", id)
}
