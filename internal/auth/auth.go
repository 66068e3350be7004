// Package auth verifies bearer tokens issued by the portal's login service
// and carries the resulting identity through request contexts.
package auth

import (
	"context"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// RoleAdmin may create and delete works.
const RoleAdmin = "admin"

// ErrInvalidToken indicates a missing, malformed, expired or forged token.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified caller.
type Identity struct {
	UserID   string
	Username string
	Email    string
	Role     string
}

// IsAdmin reports whether the caller holds the admin role.
func (i Identity) IsAdmin() bool {
	return strings.EqualFold(i.Role, RoleAdmin)
}

// Claims is the token payload. Older tokens carry the display name as
// "name", newer ones as "username".
type Claims struct {
	UserID   string `json:"userId"`
	Name     string `json:"name,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Role     string `json:"role"`

	jwt.RegisteredClaims
}

// Verifier checks HS256-signed tokens against a shared secret.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses token and returns the identity it asserts.
func (v *Verifier) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Identity{}, errors.Wrap(ErrInvalidToken, err.Error())
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return Identity{}, ErrInvalidToken
	}

	username := claims.Username
	if username == "" {
		username = claims.Name
	}
	return Identity{
		UserID:   claims.UserID,
		Username: username,
		Email:    claims.Email,
		Role:     claims.Role,
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the identity stored in ctx, if any.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
