package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/internal/pending"
	"github.com/angelmondragon/storefront-backend/internal/storage"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
	"github.com/angelmondragon/storefront-backend/pkg/types"
)

const testSession = "router-session"

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *types.APIError `json:"error"`
}

type testServer struct {
	handler http.Handler
	cfg     *config.Config
}

func newTestServer(t *testing.T, pingers map[string]controllers.Pinger) *testServer {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrate.RunEmbedded(context.Background(), sqlDB, config.DBDriverSQLite, "up"))

	stock := 4
	require.NoError(t, conn.Create(&catalog.Product{
		ID:          "p7",
		Name:        types.LocalizedText{En: "Soap", No: "Såpe"},
		Description: types.LocalizedText{En: "Lavender bar"},
		Price:       decimal.RequireFromString("12.50"),
		Stock:       &stock,
		IsActive:    true,
	}).Error)

	cfg := &config.Config{
		App:  config.AppConfig{Env: "test"},
		JWT:  config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 10},
		Auth: config.AuthConfig{LoginURL: "/login"},
		CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}

	logg := logger.Nop()
	reg := prometheus.NewRegistry()
	m := metrics.NewCartMetrics(reg)
	slots := storage.NewMemory()
	carts := cart.NewRegistry(slots, logg, m)
	repo := catalog.NewRepository(conn)
	inbox := notifications.NewInbox(10)
	guard := pending.NewGuard(100, time.Hour)

	reconciler, err := pending.NewReconciler(pending.ReconcilerDeps{
		Slots:       slots,
		Carts:       carts,
		Auth:        auth.ContextAuthenticator{},
		Products:    repo,
		Notifier:    inbox,
		Metrics:     m,
		Logger:      logg,
		SettleDelay: time.Millisecond,
		Guard:       guard,
	})
	require.NoError(t, err)

	return &testServer{
		cfg: cfg,
		handler: NewRouter(Deps{
			Config:     cfg,
			Logger:     logg,
			Pingers:    pingers,
			Gatherer:   reg,
			Slots:      slots,
			Carts:      carts,
			Catalog:    repo,
			Products:   repo,
			Deferrer:   pending.NewDeferrer(slots, guard, 30*time.Minute, logg),
			Reconciler: reconciler,
			Inbox:      inbox,
		}),
	}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(middleware.SessionHeader, testSession)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	token, err := auth.MintAccessToken(s.cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID: uuid.New(),
		Email:  "shopper@example.com",
	})
	require.NoError(t, err)
	return token
}

type cartBody struct {
	Items          []cart.LineItem `json:"items"`
	Total          float64         `json:"total"`
	FormattedTotal string          `json:"formatted_total"`
	ItemCount      int             `json:"item_count"`
}

func TestHealthRoutes(t *testing.T) {
	srv := newTestServer(t, map[string]controllers.Pinger{"db": stubPinger{}, "redis": nil})

	rec, _ := srv.do(t, http.MethodGet, "/health/live", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = srv.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthReadyReportsFailingDependency(t *testing.T) {
	srv := newTestServer(t, map[string]controllers.Pinger{"redis": stubPinger{err: errors.New("down")}})

	rec, env := srv.do(t, http.MethodGet, "/health/ready", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DEPENDENCY_ERROR", env.Error.Code)
}

func TestProductRoutesLocalize(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, env := srv.do(t, http.MethodGet, "/api/v1/products/p7?lang=nb", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var product map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &product))
	assert.Equal(t, "Såpe", product["name"])
	assert.Equal(t, "Lavender bar", product["description"])

	rec, _ = srv.do(t, http.MethodGet, "/api/v1/products/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = srv.do(t, http.MethodGet, "/api/v1/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Items []map[string]any `json:"items"`
		Lang  string           `json:"lang"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.Items, 1)
	assert.Equal(t, "en", list.Lang)
}

func TestAnonymousAddIsDeferredAndReplayedAfterLogin(t *testing.T) {
	srv := newTestServer(t, nil)

	rec, env := srv.do(t, http.MethodPost, "/api/v1/cart/items?lang=no", `{"product_id":"p7","quantity":2}`, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	details, ok := env.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/login", details["login_url"])
	assert.Equal(t, true, details["deferred"])

	rec, env = srv.do(t, http.MethodGet, "/api/v1/cart", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var empty cartBody
	require.NoError(t, json.Unmarshal(env.Data, &empty))
	assert.Empty(t, empty.Items)

	token := srv.token(t)
	rec, env = srv.do(t, http.MethodPost, "/api/v1/cart/reconcile?lang=no", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var result struct {
		Outcome  string   `json:"outcome"`
		Replayed bool     `json:"replayed"`
		Cart     cartBody `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "added", result.Outcome)
	assert.True(t, result.Replayed)
	require.Len(t, result.Cart.Items, 1)
	assert.Equal(t, 2, result.Cart.Items[0].Quantity)
	assert.Equal(t, "25.00", result.Cart.FormattedTotal)

	rec, env = srv.do(t, http.MethodPost, "/api/v1/cart/reconcile", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "no_pending", result.Outcome)
	assert.Equal(t, 2, result.Cart.ItemCount)

	rec, env = srv.do(t, http.MethodGet, "/api/v1/notifications", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	var inbox struct {
		Items []notifications.Notification `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &inbox))
	require.Len(t, inbox.Items, 1)
	assert.Contains(t, inbox.Items[0].Message, "Såpe")
}

func TestSignedInCartLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.token(t)

	rec, env := srv.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":"p7"}`, token)
	require.Equal(t, http.StatusCreated, rec.Code)
	var body cartBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, 1, body.Items[0].Quantity)

	rec, env = srv.do(t, http.MethodPatch, "/api/v1/cart/items/p7", `{"quantity":3}`, token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 3, body.ItemCount)
	assert.InDelta(t, 37.5, body.Total, 0.0001)

	rec, env = srv.do(t, http.MethodDelete, "/api/v1/cart/items/p7", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Empty(t, body.Items)
	assert.Equal(t, "0.00", body.FormattedTotal)

	_, _ = srv.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":"p7","quantity":2}`, token)
	rec, env = srv.do(t, http.MethodDelete, "/api/v1/cart", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 0, body.ItemCount)
}

func TestAddItemRejectsInvalidBodies(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.token(t)

	for _, payload := range []string{`{}`, `{"product_id":"p7","quantity":0}`, `not json`} {
		rec, env := srv.do(t, http.MethodPost, "/api/v1/cart/items", payload, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code, payload)
		require.NotNil(t, env.Error, payload)
	}

	rec, _ := srv.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":"missing"}`, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddItemIdempotencyKeyReplays(t *testing.T) {
	srv := newTestServer(t, nil)
	token := srv.token(t)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":"p7"}`))
		req.Header.Set(middleware.SessionHeader, testSession)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(middleware.IdempotencyHeader, "retry-1")
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	_, env := srv.do(t, http.MethodGet, "/api/v1/cart", "", token)
	var body cartBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 1, body.ItemCount)
}

func TestIdempotencyKeyDoesNotReplayAnonymousResponseAfterLogin(t *testing.T) {
	srv := newTestServer(t, nil)

	send := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(`{"product_id":"p7"}`))
		req.Header.Set(middleware.SessionHeader, testSession)
		req.Header.Set(middleware.IdempotencyHeader, "k1")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		srv.handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusUnauthorized, send("").Code)
	token := srv.token(t)
	require.Equal(t, http.StatusCreated, send(token).Code)

	_, env := srv.do(t, http.MethodGet, "/api/v1/cart", "", token)
	var body cartBody
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.Equal(t, 1, body.ItemCount)
}

func TestMetricsEndpointExposesCartCounters(t *testing.T) {
	srv := newTestServer(t, nil)
	_, _ = srv.do(t, http.MethodPost, "/api/v1/cart/items", `{"product_id":"p7"}`, srv.token(t))

	rec, _ := srv.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cart_mutations_total")
}
