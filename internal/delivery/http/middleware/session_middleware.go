package middleware

import (
	"context"
	"net/http"
	"time"

	"momo-storefront/internal/domain"

	"github.com/google/uuid"
)

// SessionHeader lets non-browser clients carry the session without cookies.
const SessionHeader = "X-Session-ID"

const sessionMaxAge = 30 * 24 * time.Hour

// NewSessionMiddleware attaches an anonymous cart session id to every request.
// The id is independent of login state, so signing in or out keeps the cart.
func NewSessionMiddleware(cookieName string, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if c, err := r.Cookie(cookieName); err == nil && validSessionID(c.Value) {
				sessionID = c.Value
			} else if h := r.Header.Get(SessionHeader); validSessionID(h) {
				sessionID = h
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     cookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(sessionMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(SessionHeader, sessionID)

			ctx := context.WithValue(r.Context(), domain.SessionContextKey, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validSessionID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// SessionID returns the session id set by the session middleware, or "".
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(domain.SessionContextKey).(string)
	return id
}
