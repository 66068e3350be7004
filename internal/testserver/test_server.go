// Package testserver starts a fully wired portal over httptest for
// end-to-end tests.
package testserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/csbs/studyportal/internal/auth"
	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/csbs/studyportal/internal/domain/material"
	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/domain/work"
	"github.com/csbs/studyportal/internal/mcp"
	"github.com/csbs/studyportal/internal/metrics"
	"github.com/csbs/studyportal/internal/sqlite"
	"github.com/csbs/studyportal/internal/store"
	"github.com/csbs/studyportal/internal/transport"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

// Options tunes the server under test.
type Options struct {
	// JWTSecret turns on bearer-token auth when set.
	JWTSecret string
}

type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Works  *work.Service
	secret string
}

func New(t *testing.T, opts Options) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	st := store.NewSQLite(db)
	services := transport.Services{
		Works:     work.NewService(st.Works, st.Activity, nil),
		Portions:  portion.NewService(st.Portions, st.Activity, nil),
		Materials: material.NewService(st.Materials, st.Activity, nil),
		Activity:  activity.NewService(st.Activity, nil),
	}

	var verifier *auth.Verifier
	if opts.JWTSecret != "" {
		verifier = auth.NewVerifier(opts.JWTSecret)
	}

	mcpCfg := mcp.Config{Services: mcp.Services{
		Works:     services.Works,
		Portions:  services.Portions,
		Materials: services.Materials,
		Activity:  services.Activity,
	}}
	cfg := transport.Config{Services: services, Metrics: metrics.New()}
	if verifier != nil {
		mcpCfg.Verifier = verifier
		cfg.Verifier = verifier
	}
	cfg.MCPHandler = mcp.NewHTTPHandler(mcp.NewServer(mcpCfg))

	server := httptest.NewServer(transport.NewServer(cfg))

	ts := &TestServer{
		Server: server,
		DB:     db,
		Works:  services.Works,
		secret: opts.JWTSecret,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// Token signs a one-hour token for id with the server's secret.
func (ts *TestServer) Token(t *testing.T, id auth.Identity) string {
	t.Helper()
	require.NotEmpty(t, ts.secret, "server was started without a JWT secret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID:   id.UserID,
		Username: id.Username,
		Email:    id.Email,
		Role:     id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(ts.secret))
	require.NoError(t, err)
	return token
}

// Do sends a JSON request and decodes the JSON response into out when out
// is non-nil. It returns the status code.
func (ts *TestServer) Do(t *testing.T, method, path string, body any, token string, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}
