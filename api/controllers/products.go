package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/display"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type productLister interface {
	List(ctx context.Context) ([]catalog.Product, error)
}

// ProductList renders active products in the requested language.
func ProductList(repo productLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lang := validators.ParseLang(r)

		products, err := repo.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(products) > limit {
			products = products[:limit]
		}

		views := make([]display.ProductView, 0, len(products))
		for _, p := range products {
			views = append(views, display.Product(p, lang))
		}
		responses.WriteSuccess(w, map[string]any{
			"items": views,
			"lang":  display.Normalize(lang),
		})
	}
}

// ProductDetail renders one product in the requested language.
func ProductDetail(lookup catalog.Lookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := validators.SanitizeString(chi.URLParam(r, "id"), 128)
		product, err := lookup.GetByID(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, display.Product(*product, validators.ParseLang(r)))
	}
}
