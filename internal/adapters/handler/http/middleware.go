package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/taskboard/api/internal/core/domain"
	"github.com/taskboard/api/internal/core/ports"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext returns the authenticated user attached by one of the
// guards.
func UserFromContext(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	return user, ok
}

// AuthMiddleware carries the two guards: the access guard for bearer-token
// protected routes and the refresh guard for the token-rotation route.
type AuthMiddleware struct {
	tokens ports.TokenService
	users  ports.UserRepository
}

func NewAuthMiddleware(tokens ports.TokenService, users ports.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// RequireAccessToken validates the Authorization bearer token and resolves
// the user it names before handing the request on.
func (m *AuthMiddleware) RequireAccessToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeError(w, http.StatusUnauthorized, "Access token is required")
			return
		}

		userID, err := m.tokens.VerifyAccess(token)
		if err != nil {
			if errors.Is(err, domain.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "Access token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			writeInternalError(w, err)
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "User not found")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRefreshToken validates the refresh cookie against both the token
// signature and the user's stored single-slot value, so a superseded token
// is rejected even inside its expiry window.
func (m *AuthMiddleware) RequireRefreshToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(refreshTokenCookie)
		if err != nil || cookie.Value == "" {
			writeError(w, http.StatusUnauthorized, "Refresh token is required")
			return
		}

		userID, err := m.tokens.VerifyRefresh(cookie.Value)
		if err != nil {
			if errors.Is(err, domain.ErrTokenExpired) {
				writeError(w, http.StatusUnauthorized, "Refresh token expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		user, err := m.users.GetByIDAndRefreshToken(r.Context(), userID, cookie.Value)
		if err != nil {
			writeInternalError(w, err)
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "Invalid refresh token")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
