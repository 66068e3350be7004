package transport

import (
	"net/http"

	"github.com/csbs/studyportal/internal/auth"
)

// TokenVerifier resolves a bearer token to a caller identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// AuthMiddleware verifies a bearer token when one is sent and stores the
// identity in the request context. Requests without a token pass through;
// routes that need a caller wrap themselves in RequireIdentity or RequireAdmin.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := auth.BearerToken(header)
			if token == "" {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "missing bearer token"})
				return
			}

			id, err := verifier.Verify(token)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "invalid bearer token"})
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireIdentity rejects requests that carry no verified identity.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.FromContext(r.Context()); !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: ErrUnauthorized.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose identity lacks the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Message: ErrUnauthorized.Error()})
			return
		}
		if !id.IsAdmin() {
			writeJSON(w, http.StatusForbidden, errorResponse{Message: ErrForbidden.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}
