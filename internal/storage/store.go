package storage

import (
	"context"
	"errors"
	"time"

	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// ErrNotFound is returned by Get when a slot is empty or expired.
var ErrNotFound = errors.New("storage: key not found")

const (
	cartNamespace       = "cart"
	pendingAddNamespace = "pending_add"
)

// Store is a plain string key/value slot store. A zero TTL keeps the value until it is deleted.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CartKey is the long-lived slot holding a session's serialized cart.
func CartKey(session string) string {
	return pkgredis.BuildKey(cartNamespace, session)
}

// PendingAddKey is the short-lived slot bridging a login redirect.
func PendingAddKey(session string) string {
	return pkgredis.BuildKey(pendingAddNamespace, session)
}
