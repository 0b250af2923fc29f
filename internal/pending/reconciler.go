package pending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/display"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/storage"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

// CartProvider returns the shared cart store for a session.
type CartProvider interface {
	Store(ctx context.Context, session string) *cart.Store
}

// ReconcilerDeps wires the collaborators a Reconciler needs.
type ReconcilerDeps struct {
	Slots       storage.Store
	Carts       CartProvider
	Auth        auth.Authenticator
	Products    catalog.Lookup
	Notifier    notifications.Notifier
	Metrics     *metrics.CartMetrics
	Logger      *logger.Logger
	SettleDelay time.Duration
	// Guard must be the one handed to the Deferrer; nil gets a private default.
	Guard *Guard
}

// Reconciler replays a deferred add once the shopper is signed in.
type Reconciler struct {
	slots    storage.Store
	carts    CartProvider
	auth     auth.Authenticator
	products catalog.Lookup
	notifier notifications.Notifier
	metrics  *metrics.CartMetrics
	logg     *logger.Logger
	settle   time.Duration
	guard    *Guard
}

func NewReconciler(deps ReconcilerDeps) (*Reconciler, error) {
	if deps.Slots == nil {
		return nil, fmt.Errorf("storage required")
	}
	if deps.Carts == nil {
		return nil, fmt.Errorf("cart provider required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("authenticator required")
	}
	if deps.Products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	if deps.Notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	if deps.SettleDelay < 0 {
		return nil, fmt.Errorf("settle delay cannot be negative")
	}
	logg := deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	guard := deps.Guard
	if guard == nil {
		guard = NewGuard(0, 0)
	}
	return &Reconciler{
		slots:    deps.Slots,
		carts:    deps.Carts,
		auth:     deps.Auth,
		products: deps.Products,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logg:     logg,
		settle:   deps.SettleDelay,
		guard:    guard,
	}, nil
}

// Run waits for the settle delay, then replays the session's pending add at most once.
// It never returns an error; the outcome says what happened.
func (r *Reconciler) Run(ctx context.Context, session, lang string) enums.ReconcileOutcome {
	ctx = r.logg.WithSessionID(ctx, session)
	outcome := r.run(ctx, session, lang)
	r.metrics.IncReconciliation(string(outcome))
	r.logg.Info(r.logg.WithField(ctx, "outcome", string(outcome)), "pending_add.reconciled")
	return outcome
}

func (r *Reconciler) run(ctx context.Context, session, lang string) enums.ReconcileOutcome {
	timer := time.NewTimer(r.settle)
	select {
	case <-ctx.Done():
		timer.Stop()
		return enums.ReconcileOutcomeCancelled
	case <-timer.C:
	}

	user, err := r.auth.CurrentUser(ctx)
	if err != nil {
		r.logg.Error(ctx, "pending_add.auth_check_failed", err)
		return enums.ReconcileOutcomeUnauthenticated
	}
	if user == nil {
		return enums.ReconcileOutcomeUnauthenticated
	}
	ctx = r.logg.WithUserID(ctx, user.ID)

	key := storage.PendingAddKey(session)
	raw, err := r.slots.Get(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return enums.ReconcileOutcomeNoPending
	}
	if err != nil {
		r.logg.Error(ctx, "pending_add.read_failed", err)
		return enums.ReconcileOutcomeNoPending
	}

	if !r.guard.claim(session, raw) {
		return enums.ReconcileOutcomeDuplicate
	}

	record, err := Decode(raw)
	if err != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "pending_add.malformed")
		r.discard(ctx, key)
		return enums.ReconcileOutcomeDiscardedMalformed
	}

	var item cart.LineItem
	switch rec := record.(type) {
	case Reference:
		product, err := r.products.GetByID(ctx, rec.ProductID.String())
		if err != nil || product == nil {
			r.logg.Warn(r.logg.WithProductID(ctx, rec.ProductID.String()), "pending_add.unresolved")
			r.discard(ctx, key)
			return enums.ReconcileOutcomeDiscardedMissing
		}
		item = display.LineItem(*product, lang)
	case Snapshot:
		item = rec.Item
	}

	r.carts.Store(ctx, session).AddItem(ctx, item, Quantity(record))

	msg := display.Message(display.MsgCartAdded, lang, item.Name)
	if err := r.notifier.Notify(ctx, session, enums.NotificationSeveritySuccess, msg); err != nil {
		r.logg.Error(ctx, "pending_add.notify_failed", err)
	}

	r.discard(ctx, key)
	return enums.ReconcileOutcomeAdded
}

func (r *Reconciler) discard(ctx context.Context, key string) {
	if err := r.slots.Delete(ctx, key); err != nil {
		r.metrics.IncPersistFailure("pending_add")
		r.logg.Error(ctx, "pending_add.delete_failed", err)
	}
}
