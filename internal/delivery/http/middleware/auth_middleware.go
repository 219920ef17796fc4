package middleware

import (
	"context"
	"net/http"

	"momo-storefront/internal/domain"
	"momo-storefront/pkg/logger"
	"momo-storefront/pkg/utils"
)

// OptionalAuth identifies the buyer when a valid token is present. Browsing
// and cart routes work without one; an invalid token is ignored.
func OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := utils.BearerToken(r)
		if tokenString == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := utils.ParseClaims(tokenString)
		if err != nil {
			logger.WithContext(r.Context()).Debug().Err(err).Msg("Auth: ignoring invalid token")
			next.ServeHTTP(w, r)
			return
		}

		// Partial user from token claims; the storefront has no user store.
		user := &domain.User{
			ID:    claims.UserID,
			Email: claims.Email,
			Phone: claims.Phone,
			Role:  claims.Role,
		}

		ctx := context.WithValue(r.Context(), domain.UserContextKey, user)
		ctx = context.WithValue(ctx, domain.TokenContextKey, tokenString)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests without an authenticated user.
// MUST be used AFTER OptionalAuth.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := CurrentUser(r.Context()); user == nil || user.ID == "" {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized: sign in to continue")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the authenticated buyer, or nil.
func CurrentUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(domain.UserContextKey).(*domain.User)
	return user
}
