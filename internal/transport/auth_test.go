package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/csbs/studyportal/internal/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type staticVerifier struct {
	tokens map[string]auth.Identity
}

func (v *staticVerifier) Verify(token string) (auth.Identity, error) {
	id, ok := v.tokens[token]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return id, nil
}

func signToken(t *testing.T, userID, username, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID:   userID,
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestAuthMiddleware(t *testing.T) {
	verifier := &staticVerifier{tokens: map[string]auth.Identity{
		"token": {UserID: "u1", Username: "asha", Role: "student"},
	}}

	handler := AuthMiddleware(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, "u1", id.UserID)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_NoHeaderPassesThrough(t *testing.T) {
	handler := AuthMiddleware(&staticVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := auth.FromContext(r.Context())
		require.False(t, ok)
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthMiddleware_Invalid(t *testing.T) {
	handler := AuthMiddleware(&staticVerifier{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, header := range []string{"Bearer unknown", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestRequireAdmin(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name string
		id   *auth.Identity
		want int
	}{
		{name: "anonymous", want: http.StatusUnauthorized},
		{name: "student", id: &auth.Identity{UserID: "u1", Role: "student"}, want: http.StatusForbidden},
		{name: "admin", id: &auth.Identity{UserID: "a1", Role: "Admin"}, want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			if tt.id != nil {
				req = req.WithContext(auth.WithIdentity(req.Context(), *tt.id))
			}
			rec := httptest.NewRecorder()
			RequireAdmin(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestServer_AuthEnabled(t *testing.T) {
	h := newHarness(t, auth.NewVerifier(testSecret))
	admin := signToken(t, "a1", "hod", auth.RoleAdmin)
	student := signToken(t, "u7", "meena", "student")
	addReq := map[string]string{"subject": "OS", "work": "Lab 4", "deadline": "2026-11-02"}

	code, _ := h.do(http.MethodPost, "/work/add", addReq, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = h.do(http.MethodPost, "/work/add", addReq, student)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = h.do(http.MethodPost, "/work/add", addReq, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := h.do(http.MethodPost, "/work/add", addReq, admin)
	require.Equal(t, http.StatusCreated, code)
	wk := body["work"].(map[string]any)
	assert.Equal(t, "hod", wk["addedBy"])
	id := wk["id"].(string)

	// reads stay public
	code, _ = h.do(http.MethodGet, "/works", nil, "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = h.do(http.MethodPost, "/work/status/"+id, map[string]string{"state": "doing"}, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = h.do(http.MethodPost, "/work/status/"+id, map[string]string{
		"userId": "spoofed", "username": "someone-else", "state": "doing",
	}, student)
	require.Equal(t, http.StatusOK, code)
	status := body["work"].(map[string]any)["status"].([]any)
	require.Len(t, status, 1)
	entry := status[0].(map[string]any)
	assert.Equal(t, "u7", entry["userId"])
	assert.Equal(t, "meena", entry["username"])

	code, _ = h.do(http.MethodDelete, "/work/"+id, nil, student)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = h.do(http.MethodDelete, "/work/"+id, nil, admin)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, totalsOf(t, body)["totalWorks"])
}

func TestServer_MaterialUploaderFromToken(t *testing.T) {
	h := newHarness(t, auth.NewVerifier(testSecret))
	student := signToken(t, "u7", "meena", "student")

	code, body := h.do(http.MethodPost, "/materials", map[string]string{
		"link":       "https://cdn.example.com/os/unit2.pdf",
		"uploadedBy": "someone-else",
	}, student)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "meena", body["data"].(map[string]any)["uploadedBy"])
}
