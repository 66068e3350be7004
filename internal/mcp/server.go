// Package mcp exposes the portal to Model Context Protocol clients.
package mcp

import (
	"context"

	"github.com/csbs/studyportal/internal/auth"
	"github.com/csbs/studyportal/internal/domain/activity"
	"github.com/csbs/studyportal/internal/domain/material"
	"github.com/csbs/studyportal/internal/domain/portion"
	"github.com/csbs/studyportal/internal/domain/work"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// WorkService defines work operations needed by MCP.
type WorkService interface {
	List(ctx context.Context) ([]work.Work, work.Totals, error)
	Get(ctx context.Context, id string) (*work.Work, error)
	SetStatus(ctx context.Context, req work.SetStatusRequest) (*work.Work, work.Totals, error)
}

// PortionService defines portion ledger operations needed by MCP.
type PortionService interface {
	List(ctx context.Context) ([]portion.Portion, error)
	AddTopic(ctx context.Context, req portion.AddTopicRequest) (*portion.Portion, bool, error)
}

// MaterialService defines material operations needed by MCP.
type MaterialService interface {
	List(ctx context.Context) ([]material.Material, error)
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Works     WorkService
	Portions  PortionService
	Materials MaterialService
	Activity  ActivityService
}

// TokenVerifier resolves a bearer token to a caller identity.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Config contains server configuration.
type Config struct {
	Services Services
	// Verifier enables bearer-token auth when non-nil.
	Verifier TokenVerifier
	Logger   *zap.Logger
	Version  string
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "studyportal",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
	})

	registerDocResources(server)

	if cfg.Verifier != nil {
		server.AddReceivingMiddleware(authMiddleware(cfg.Verifier))
	}
	server.AddReceivingMiddleware(trafficLoggingMiddleware(logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(logger, "outbound"))

	registerTools(server, cfg.Services, cfg.Verifier != nil)

	return server
}
