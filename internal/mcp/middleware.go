package mcp

import (
	"context"

	"github.com/csbs/studyportal/internal/auth"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/pkg/errors"
)

var errUnauthorized = errors.New("unauthorized")

// authMiddleware verifies the Authorization header when the transport carries
// one and stores the caller identity in the context. Requests without a token
// proceed anonymously; tools that need a caller check for one themselves.
func authMiddleware(verifier TokenVerifier) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			// Skip auth for protocol methods
			if method == "initialize" || method == "ping" {
				return next(ctx, method, req)
			}

			extra := req.GetExtra()
			if extra == nil || extra.Header == nil {
				return next(ctx, method, req)
			}
			header := extra.Header.Get("Authorization")
			if header == "" {
				return next(ctx, method, req)
			}

			token := auth.BearerToken(header)
			if token == "" {
				return nil, errors.Wrap(errUnauthorized, "missing bearer token")
			}
			id, err := verifier.Verify(token)
			if err != nil {
				return nil, errors.Wrap(errUnauthorized, err.Error())
			}

			return next(auth.WithIdentity(ctx, id), method, req)
		}
	}
}
