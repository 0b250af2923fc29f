package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/display"
	"github.com/angelmondragon/storefront-backend/internal/pending"
	"github.com/angelmondragon/storefront-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type cartProvider interface {
	Store(ctx context.Context, session string) *cart.Store
}

type pendingDeferrer interface {
	Defer(ctx context.Context, session string, record pending.Record) error
}

// AddItemDeps wires the add-to-cart handler.
type AddItemDeps struct {
	Carts    cartProvider
	Products catalog.Lookup
	Auth     auth.Authenticator
	Deferrer pendingDeferrer
	LoginURL string
	Logger   *logger.Logger
}

type cartResponse struct {
	Items          []cart.LineItem `json:"items"`
	Total          float64         `json:"total"`
	FormattedTotal string          `json:"formatted_total"`
	ItemCount      int             `json:"item_count"`
}

func newCartResponse(ctx context.Context, store *cart.Store) cartResponse {
	items := store.Items(ctx)
	if items == nil {
		items = cart.Cart{}
	}
	return cartResponse{
		Items:          items,
		Total:          items.Total(),
		FormattedTotal: items.FormattedTotal(),
		ItemCount:      items.ItemCount(),
	}
}

type addItemRequest struct {
	ProductID cart.ProductID `json:"product_id" validate:"required"`
	Quantity  *int           `json:"quantity" validate:"omitempty,gte=1,lte=999"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func sessionFrom(r *http.Request) (string, error) {
	session := middleware.CartSessionFromContext(r.Context())
	if session == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "cart session missing")
	}
	return session, nil
}

// CartGet returns the session's cart with totals.
func CartGet(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(r.Context(), carts.Store(r.Context(), session)))
	}
}

// CartAddItem adds a catalog product for signed-in shoppers. Anonymous shoppers get the add
// deferred and a 401 pointing at the login page.
func CartAddItem(deps AddItemDeps) http.HandlerFunc {
	logg := deps.Logger
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity := cart.DefaultQuantity
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}
		lang := validators.ParseLang(r)

		product, err := deps.Products.GetByID(r.Context(), payload.ProductID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		item := display.LineItem(*product, lang)

		user, err := deps.Auth.CurrentUser(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check authentication"))
			return
		}
		if user == nil {
			item.Quantity = quantity
			deferErr := deps.Deferrer.Defer(r.Context(), session, pending.Snapshot{Item: item})
			if deferErr != nil && logg != nil {
				logg.Error(logg.WithProductID(r.Context(), item.ID.String()), "pending_add.defer_failed", deferErr)
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, display.Message(display.MsgLoginRequired, lang)).
				WithDetails(map[string]any{
					"login_url": deps.LoginURL,
					"deferred":  deferErr == nil,
				}))
			return
		}

		store := deps.Carts.Store(r.Context(), session)
		store.AddItem(r.Context(), item, quantity)
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(r.Context(), store))
	}
}

// CartUpdateItem sets a line item's quantity; zero or below removes it.
func CartUpdateItem(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store := carts.Store(r.Context(), session)
		store.UpdateQuantity(r.Context(), itemIDParam(r), *payload.Quantity)
		responses.WriteSuccess(w, newCartResponse(r.Context(), store))
	}
}

// CartRemoveItem drops a line item; unknown ids are ignored.
func CartRemoveItem(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store := carts.Store(r.Context(), session)
		store.RemoveItem(r.Context(), itemIDParam(r))
		responses.WriteSuccess(w, newCartResponse(r.Context(), store))
	}
}

func CartClear(carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store := carts.Store(r.Context(), session)
		store.Clear(r.Context())
		responses.WriteSuccess(w, newCartResponse(r.Context(), store))
	}
}

func itemIDParam(r *http.Request) cart.ProductID {
	return cart.ProductID(validators.SanitizeString(chi.URLParam(r, "id"), 128))
}
