package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	SessionHeader = "X-Cart-Session"
	SessionCookie = "cart_session"

	sessionCookieMaxAge = 90 * 24 * time.Hour
	maxSessionLen       = 64
)

// Session resolves the cart session from the header or cookie, minting one when absent, and
// echoes it back on both.
func Session(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := strings.TrimSpace(r.Header.Get(SessionHeader))
			if session == "" {
				if cookie, err := r.Cookie(SessionCookie); err == nil {
					session = strings.TrimSpace(cookie.Value)
				}
			}
			if !validSession(session) {
				session = uuid.NewString()
			}

			w.Header().Set(SessionHeader, session)
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    session,
				Path:     "/",
				MaxAge:   int(sessionCookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := WithCartSession(r.Context(), session)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, session)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validSession(session string) bool {
	if session == "" || len(session) > maxSessionLen {
		return false
	}
	for _, c := range session {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
