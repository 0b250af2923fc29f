package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/api/validators"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type reconcileRunner interface {
	Run(ctx context.Context, session, lang string) enums.ReconcileOutcome
}

type reconcileResponse struct {
	Outcome  enums.ReconcileOutcome `json:"outcome"`
	Replayed bool                   `json:"replayed"`
	Cart     cartResponse           `json:"cart"`
}

// CartReconcile replays a deferred add after login. It always answers 200; the outcome explains
// what happened.
func CartReconcile(runner reconcileRunner, carts cartProvider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		outcome := runner.Run(r.Context(), session, validators.ParseLang(r))
		responses.WriteSuccess(w, reconcileResponse{
			Outcome:  outcome,
			Replayed: outcome.Replayed(),
			Cart:     newCartResponse(r.Context(), carts.Store(r.Context(), session)),
		})
	}
}
