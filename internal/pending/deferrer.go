package pending

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/storage"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Deferrer writes pending-add records before the shopper is sent to log in.
type Deferrer struct {
	slots storage.Store
	guard *Guard
	ttl   time.Duration
	logg  *logger.Logger
}

// NewDeferrer shares guard with the Reconciler so a fresh deferral is never mistaken for a replay.
func NewDeferrer(slots storage.Store, guard *Guard, ttl time.Duration, logg *logger.Logger) *Deferrer {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Deferrer{slots: slots, guard: guard, ttl: ttl, logg: logg}
}

// Defer stores the record in the session's pending-add slot, replacing any earlier one.
func (d *Deferrer) Defer(ctx context.Context, session string, record Record) error {
	raw, err := Encode(record)
	if err != nil {
		return err
	}
	if err := d.slots.Set(ctx, storage.PendingAddKey(session), raw, d.ttl); err != nil {
		return err
	}
	d.guard.Forget(session)
	d.logg.Info(d.logg.WithSessionID(ctx, session), "pending_add.deferred")
	return nil
}
