package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/internal/storage"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingSlots struct{}

func (failingSlots) Get(context.Context, string) (string, error) {
	return "", errors.New("quota exceeded")
}

func (failingSlots) Set(context.Context, string, string, time.Duration) error {
	return errors.New("quota exceeded")
}

func (failingSlots) Delete(context.Context, string) error { return nil }

func item(id string, price float64) LineItem {
	return LineItem{ID: ProductID(id), Name: "Item " + id, Description: "desc", Price: price}
}

func TestProductIDDecodesNumbersAndStrings(t *testing.T) {
	var fromNumber, fromString, fromFloat LineItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":7,"price":1}`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"7","price":1}`), &fromString))
	require.NoError(t, json.Unmarshal([]byte(`{"id":7.0,"price":1}`), &fromFloat))

	assert.Equal(t, ProductID("7"), fromNumber.ID)
	assert.Equal(t, fromNumber.ID, fromString.ID)
	assert.Equal(t, fromNumber.ID, fromFloat.ID)

	var bad LineItem
	assert.Error(t, json.Unmarshal([]byte(`{"id":true}`), &bad))
}

func TestAddItemMatchesIDsAcrossRepresentations(t *testing.T) {
	ctx := context.Background()
	store := NewStore("s-1", storage.NewMemory(), logger.Nop(), nil)

	var numeric, textual LineItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"name":"Soap","price":3}`), &numeric))
	require.NoError(t, json.Unmarshal([]byte(`{"id":"42","name":"Soap","price":3}`), &textual))

	store.AddItem(ctx, numeric, 1)
	store.AddItem(ctx, textual, 2)

	items := store.Items(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestAddItemAccumulatesQuantity(t *testing.T) {
	ctx := context.Background()
	store := NewStore("s-1", storage.NewMemory(), logger.Nop(), nil)

	store.AddItem(ctx, item("p1", 4), 2)
	store.AddItem(ctx, item("p1", 4), 3)

	items := store.Items(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, ProductID("p1"), items[0].ID)
	assert.Equal(t, 5, items[0].Quantity)
}

func TestAddItemKeepsAddTimeSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewStore("s-1", storage.NewMemory(), logger.Nop(), nil)

	store.AddItem(ctx, item("p1", 4), 1)
	repriced := item("p1", 99)
	repriced.Name = "Renamed"
	store.AddItem(ctx, repriced, 1)

	got, ok := store.Items(ctx).Find("p1")
	require.True(t, ok)
	assert.Equal(t, 4.0, got.Price)
	assert.Equal(t, "Item p1", got.Name)
}

func TestAddItemAcceptsNonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	store := NewStore("s-1", storage.NewMemory(), logger.Nop(), nil)

	store.AddItem(ctx, item("p1", 1), 2)
	store.AddItem(ctx, item("p1", 1), -1)
	store.AddItem(ctx, item("p2", 1), 0)

	items := store.Items(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 0, items[1].Quantity)
}

func TestUpdateQuantityRemovesAtOrBelowZero(t *testing.T) {
	ctx := context.Background()
	for _, q := range []int{0, -1, -50} {
		store := NewStore("s-1", storage.NewMemory(), logger.Nop(), nil)
		store.AddItem(ctx, item("p1", 1), 3)
		store.AddItem(ctx, item("p2", 1), 1)

		store.UpdateQuantity(ctx, "p1", q)

		items := store.Items(ctx)
		require.Len(t, items, 1, "quantity %d", q)
		assert.Equal(t, ProductID("p2"), items[0].ID)
	}
}

func TestUpdateQuantityReplacesValue(t *testing.T) {
	ctx := context.Background()
	store := NewStore("s-1", storage.NewMemory(), logger.Nop(), nil)
	store.AddItem(ctx, item("p1", 1), 3)

	store.UpdateQuantity(ctx, "p1", 7)

	assert.Equal(t, 7, store.ItemCount(ctx))
}

func TestUpdateQuantityUnknownIDWarns(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.WarnLevel, Output: &buf})
	store := NewStore("s-1", storage.NewMemory(), logg, nil)
	store.AddItem(ctx, item("p1", 1), 1)

	store.UpdateQuantity(ctx, "missing", 4)

	assert.Equal(t, 1, store.ItemCount(ctx))
	assert.Contains(t, buf.String(), "cart.update_unknown_item")
	assert.Contains(t, buf.String(), `"product_id":"missing"`)
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewStore("s-1", storage.NewMemory(), logger.Nop(), nil)
	store.AddItem(ctx, item("p1", 1), 1)

	store.RemoveItem(ctx, "nope")
	store.RemoveItem(ctx, "p1")
	store.RemoveItem(ctx, "p1")

	assert.Empty(t, store.Items(ctx))
}

func TestTotalsAndCount(t *testing.T) {
	ctx := context.Background()
	store := NewStore("s-1", storage.NewMemory(), logger.Nop(), nil)
	store.AddItem(ctx, item("a", 10), 2)
	store.AddItem(ctx, item("b", 5.5), 1)

	assert.Equal(t, 25.5, store.Total(ctx))
	assert.Equal(t, 3, store.ItemCount(ctx))
	assert.Equal(t, "25.50", store.Items(ctx).FormattedTotal())
}

func TestClearEmptiesCartAndStorage(t *testing.T) {
	ctx := context.Background()
	slots := storage.NewMemory()
	store := NewStore("s-1", slots, logger.Nop(), nil)
	store.AddItem(ctx, item("a", 10), 2)

	store.Clear(ctx)

	assert.Empty(t, store.Items(ctx))
	raw, err := slots.Get(ctx, storage.CartKey("s-1"))
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestPersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	slots := storage.NewMemory()
	stock := 4
	image := "https://cdn.example.com/p1.png"

	original := NewStore("s-1", slots, logger.Nop(), nil)
	withExtras := item("p1", 12.75)
	withExtras.Stock = &stock
	withExtras.ImageURL = &image
	original.AddItem(ctx, withExtras, 2)
	original.AddItem(ctx, item("p2", 3), 1)

	restored := NewStore("s-1", slots, logger.Nop(), nil)
	restored.Load(ctx)

	assert.Equal(t, original.Items(ctx), restored.Items(ctx))
}

func TestLoadIgnoresCorruptState(t *testing.T) {
	ctx := context.Background()
	slots := storage.NewMemory()
	require.NoError(t, slots.Set(ctx, storage.CartKey("s-1"), "{not json", 0))

	store := NewStore("s-1", slots, logger.Nop(), nil)
	store.Load(ctx)

	assert.Empty(t, store.Items(ctx))
}

func TestLoadFoldsDuplicateEntries(t *testing.T) {
	ctx := context.Background()
	slots := storage.NewMemory()
	require.NoError(t, slots.Set(ctx, storage.CartKey("s-1"), `[{"id":1,"price":2,"quantity":1},{"id":"1","price":2,"quantity":2}]`, 0))

	store := NewStore("s-1", slots, logger.Nop(), nil)
	store.Load(ctx)

	items := store.Items(ctx)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestPersistFailureDoesNotBlockMutation(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	m := metrics.NewCartMetrics(reg)
	store := NewStore("s-1", failingSlots{}, logger.Nop(), m)

	store.AddItem(ctx, item("p1", 2), 1)

	assert.Equal(t, 1, store.ItemCount(ctx))
	series, err := testutil.GatherAndCount(reg, "cart_persist_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestRegistrySharesStorePerSession(t *testing.T) {
	ctx := context.Background()
	slots := storage.NewMemory()
	seed := NewStore("s-1", slots, logger.Nop(), nil)
	seed.AddItem(ctx, item("p1", 1), 2)

	reg := NewRegistry(slots, logger.Nop(), nil)
	first := reg.Store(ctx, "s-1")
	second := reg.Store(ctx, "s-1")
	other := reg.Store(ctx, "s-2")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 2, first.ItemCount(ctx))
	assert.Zero(t, other.ItemCount(ctx))
}

func TestRegistryIsBounded(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(storage.NewMemory(), logger.Nop(), nil, WithCacheLimits(16, time.Hour))

	for i := 0; i < 1000; i++ {
		reg.Store(ctx, fmt.Sprintf("anon-%d", i))
	}
	assert.Equal(t, 16, reg.Len())
}

func TestRegistriesSharingStorageDoNotLoseWrites(t *testing.T) {
	ctx := context.Background()
	slots := storage.NewMemory()
	replicaA := NewRegistry(slots, logger.Nop(), nil)
	replicaB := NewRegistry(slots, logger.Nop(), nil)

	// Both replicas have served the session before.
	replicaA.Store(ctx, "s-1")
	replicaB.Store(ctx, "s-1")

	replicaA.Store(ctx, "s-1").AddItem(ctx, item("p1", 1), 1)
	replicaB.Store(ctx, "s-1").AddItem(ctx, item("p2", 1), 1)

	restored := NewStore("s-1", slots, logger.Nop(), nil)
	items := restored.Items(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, ProductID("p1"), items[0].ID)
	assert.Equal(t, ProductID("p2"), items[1].ID)
}

func TestStoreSeesWritesFromOtherInstances(t *testing.T) {
	ctx := context.Background()
	slots := storage.NewMemory()
	tabA := NewStore("s-1", slots, logger.Nop(), nil)
	tabB := NewStore("s-1", slots, logger.Nop(), nil)

	tabA.AddItem(ctx, item("p1", 2), 1)
	assert.Equal(t, 1, tabB.ItemCount(ctx))

	tabB.Clear(ctx)
	assert.Zero(t, tabA.ItemCount(ctx))
}
