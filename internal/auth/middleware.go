package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/pawfam/internal/http/respond"
	"github.com/hongminglow/pawfam/internal/models"
	"github.com/hongminglow/pawfam/internal/storage"
)

type contextKey string

const userContextKey contextKey = "pawfam_user"

// WithUser attaches the authenticated user to ctx.
func WithUser(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the user attached by Middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userContextKey).(models.User)
	return u, ok
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	return token, token != ""
}

// Middleware rejects requests without a valid session and resolves the user it names.
// A token for a deleted user is treated as unauthenticated, not forbidden.
func Middleware(tokens *TokenManager, store storage.UserStore, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "No token, authorization denied")
				return
			}
			claims, err := tokens.Parse(token)
			if err != nil {
				respond.Error(w, http.StatusUnauthorized, "Token is not valid")
				return
			}
			user, err := store.FindByID(r.Context(), claims.UserID)
			if err != nil {
				if !errors.Is(err, storage.ErrNotFound) {
					logger.ErrorContext(r.Context(), "resolve session user", "user_id", claims.UserID, "error", err)
				}
				respond.Error(w, http.StatusUnauthorized, "Token is not valid")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
