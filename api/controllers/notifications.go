package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/notifications"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type notificationDrainer interface {
	Drain(ctx context.Context, session string) []notifications.Notification
}

// NotificationsDrain hands the session its queued messages and forgets them.
func NotificationsDrain(inbox notificationDrainer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items": inbox.Drain(r.Context(), session),
		})
	}
}
