package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

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
)

// Deps carries everything the HTTP surface is wired to.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Pingers    map[string]controllers.Pinger
	Gatherer   prometheus.Gatherer
	Slots      storage.Store
	Carts      *cart.Registry
	Catalog    *catalog.Repository
	Products   catalog.Lookup
	Deferrer   *pending.Deferrer
	Reconciler *pending.Reconciler
	Inbox      *notifications.Inbox
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(logg))
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Slots, logg))

		r.Get("/products", controllers.ProductList(deps.Catalog, logg))
		r.Get("/products/{id}", controllers.ProductDetail(deps.Products, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Carts, logg))
			r.Delete("/", controllers.CartClear(deps.Carts, logg))
			r.Post("/items", controllers.CartAddItem(controllers.AddItemDeps{
				Carts:    deps.Carts,
				Products: deps.Products,
				Auth:     auth.ContextAuthenticator{},
				Deferrer: deps.Deferrer,
				LoginURL: cfg.Auth.LoginURL,
				Logger:   logg,
			}))
			r.Patch("/items/{id}", controllers.CartUpdateItem(deps.Carts, logg))
			r.Delete("/items/{id}", controllers.CartRemoveItem(deps.Carts, logg))
			r.Post("/reconcile", controllers.CartReconcile(deps.Reconciler, deps.Carts, logg))
		})

		r.Get("/notifications", controllers.NotificationsDrain(deps.Inbox, logg))
	})

	return r
}
