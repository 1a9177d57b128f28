package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/murmur-hq/murmur/internal/core"
)

type contextKey string

const userContextKey contextKey = "murmur.user"

// bearerToken extracts the API token from the Authorization header
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// authenticateToken resolves an API token of the form "<user_id>.<secret>"
// to the user it belongs to.
func (s *Server) authenticateToken(ctx context.Context, token string) (*core.User, error) {
	userID, secret, ok := strings.Cut(token, ".")
	if !ok || userID == "" || secret == "" {
		return nil, core.ErrUnauthorized
	}
	return s.users.VerifyToken(ctx, core.UserID(userID), secret)
}

// requireAuth rejects requests without a valid API token and stashes the
// authenticated user in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := s.authenticateToken(r.Context(), bearerToken(r))
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "invalid or missing API token")
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// currentUser returns the user requireAuth stored in the request context
func currentUser(r *http.Request) *core.User {
	user, _ := r.Context().Value(userContextKey).(*core.User)
	return user
}
