package cart

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/angelmondragon/storefront-backend/internal/storage"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

const (
	opAdd    = "add"
	opRemove = "remove"
	opUpdate = "update_quantity"
	opClear  = "clear"

	persistSlot = "cart"
)

// Store owns one session's cart. Every operation starts from the persisted slot and every
// mutation writes it back. Mutations never return errors; persistence failures are logged and counted.
type Store struct {
	mu      sync.Mutex
	session string
	items   Cart

	slots   storage.Store
	logg    *logger.Logger
	metrics *metrics.CartMetrics
}

// NewStore builds a store for the session; its first operation restores the persisted cart.
func NewStore(session string, slots storage.Store, logg *logger.Logger, m *metrics.CartMetrics) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		session: session,
		items:   Cart{},
		slots:   slots,
		logg:    logg,
		metrics: m,
	}
}

// Session returns the cart session the store belongs to.
func (s *Store) Session() string {
	return s.session
}

// Load replaces the in-memory cart with the persisted one. A missing or corrupt slot yields an
// empty cart; a failed read keeps what the store already holds.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)
}

// refreshLocked re-reads the slot so another replica's or tab's last write is the starting point.
func (s *Store) refreshLocked(ctx context.Context) {
	if s.slots == nil {
		return
	}
	raw, err := s.slots.Get(ctx, storage.CartKey(s.session))
	if errors.Is(err, storage.ErrNotFound) {
		s.items = Cart{}
		return
	}
	if err != nil {
		s.logg.Error(s.logCtx(ctx), "cart.load_failed", err)
		return
	}
	var restored Cart
	if err := json.Unmarshal([]byte(raw), &restored); err != nil {
		s.logg.Error(s.logCtx(ctx), "cart.decode_failed", err)
		s.items = Cart{}
		return
	}
	s.items = dedupe(restored)
}

// AddItem increments the quantity of an existing entry with the same id or appends a new one.
// The quantity field of item is ignored; quantity is applied as given, including values <= 0.
func (s *Store) AddItem(ctx context.Context, item LineItem, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)

	if i := s.items.index(item.ID); i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		item.Quantity = quantity
		s.items = append(s.items, item)
	}
	s.persist(ctx, opAdd)
}

// RemoveItem drops the entry with the given id; absent ids are ignored.
func (s *Store) RemoveItem(ctx context.Context, id ProductID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)
	s.removeLocked(ctx, id)
}

// UpdateQuantity sets the quantity of an entry, removing it when quantity <= 0.
func (s *Store) UpdateQuantity(ctx context.Context, id ProductID, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)

	if quantity <= 0 {
		s.removeLocked(ctx, id)
		return
	}
	i := s.items.index(id)
	if i < 0 {
		s.logg.Warn(s.logg.WithProductID(s.logCtx(ctx), id.String()), "cart.update_unknown_item")
		return
	}
	s.items[i].Quantity = quantity
	s.persist(ctx, opUpdate)
}

// Clear empties the cart unconditionally.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = Cart{}
	s.persist(ctx, opClear)
}

// Items returns a copy of the persisted line items in insertion order.
func (s *Store) Items(ctx context.Context) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshLocked(ctx)
	return s.items.clone()
}

func (s *Store) Total(ctx context.Context) float64 {
	return s.Items(ctx).Total()
}

func (s *Store) ItemCount(ctx context.Context) int {
	return s.Items(ctx).ItemCount()
}

func (s *Store) removeLocked(ctx context.Context, id ProductID) {
	i := s.items.index(id)
	if i < 0 {
		return
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	s.persist(ctx, opRemove)
}

// persist must be called with mu held.
func (s *Store) persist(ctx context.Context, op string) {
	s.metrics.IncMutation(op)
	if s.slots == nil {
		return
	}
	raw, err := json.Marshal(s.items)
	if err == nil {
		err = s.slots.Set(ctx, storage.CartKey(s.session), string(raw), 0)
	}
	if err != nil {
		s.metrics.IncPersistFailure(persistSlot)
		s.logg.Error(s.logg.WithField(s.logCtx(ctx), "op", op), "cart.persist_failed", err)
	}
}

func (s *Store) logCtx(ctx context.Context) context.Context {
	return s.logg.WithSessionID(ctx, s.session)
}

// dedupe folds entries sharing an id, keeping the first position.
func dedupe(items Cart) Cart {
	out := make(Cart, 0, len(items))
	for _, item := range items {
		if i := out.index(item.ID); i >= 0 {
			out[i].Quantity += item.Quantity
			continue
		}
		out = append(out, item)
	}
	return out
}
