package auth

import (
	"context"
	"net/http"
	"strings"

	"marketplace-api/internal/httputil"
)

// Identity is the typed caller identity extracted from a verified token.
// It is the single source of "who is calling" for every protected route.
type Identity struct {
	UserID int64
	Name   string
	Email  string
}

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const identityContextKey ContextKey = "identity"

// Middleware handles bearer-token authentication for protected routes
type Middleware struct {
	tokenService TokenService
}

func NewMiddleware(tokenService TokenService) *Middleware {
	return &Middleware{tokenService: tokenService}
}

// RequireAuth rejects requests without a valid bearer token and places
// the caller Identity into the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, errCode, errMsg := m.identityFromRequest(r)
		if identity == nil {
			httputil.RespondErrorWithCode(w, errMsg, errCode, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), identityContextKey, *identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuth places the caller Identity into the context when a valid
// bearer token is present and passes the request through otherwise.
// Used by listing search so mine=true can bind to the caller.
func (m *Middleware) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if identity, _, _ := m.identityFromRequest(r); identity != nil {
			ctx := context.WithValue(r.Context(), identityContextKey, *identity)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) identityFromRequest(r *http.Request) (*Identity, string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, httputil.CodeMissingAuth, "missing authentication"
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, httputil.CodeInvalidAuthHeader, "invalid authorization header format"
	}

	claims, err := m.tokenService.VerifyToken(parts[1])
	if err != nil {
		if err == ErrExpiredToken {
			return nil, httputil.CodeTokenExpired, "token has expired"
		}
		return nil, httputil.CodeInvalidToken, "invalid token"
	}

	return &Identity{
		UserID: claims.UserID,
		Name:   claims.Name,
		Email:  claims.Email,
	}, "", ""
}

// IdentityFromContext extracts the caller identity from the request context
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	return identity, ok
}

// ContextWithIdentity attaches a caller identity to a context.
// Exposed for tests that exercise handlers without the middleware.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
