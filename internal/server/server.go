package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AbdelilahOu/simplesql/internal/config"
	"github.com/AbdelilahOu/simplesql/internal/logger"
	"github.com/AbdelilahOu/simplesql/internal/state"
	"github.com/AbdelilahOu/simplesql/internal/tools"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type MCPServerConfig struct {
	Version  string
	Config   *config.Config
	Sessions *state.Registry
	ReadOnly bool
	// InitialProfile, when set, is connected at startup so clients can
	// use it without calling connect.
	InitialProfile string
	ServerOptions  []simplesql.Option
}

// NewMCPServer builds the server and, when requested, the initial session.
// The returned id is empty without an initial profile.
func NewMCPServer(ctx context.Context, cfg MCPServerConfig) (*mcp.Server, string, error) {
	impl := &mcp.Implementation{Name: "simplesql", Version: cfg.Version}
	server := mcp.NewServer(impl, nil)

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = state.NewRegistry()
	}
	deps := &tools.Deps{
		Config:        cfg.Config,
		Sessions:      sessions,
		ReadOnly:      cfg.ReadOnly,
		ServerOptions: cfg.ServerOptions,
	}

	var sessionID string
	if cfg.InitialProfile != "" {
		out, err := tools.Connect(ctx, deps, tools.ConnectInput{Profile: cfg.InitialProfile})
		if err != nil {
			return nil, "", fmt.Errorf("failed to initialize profile '%s': %w", cfg.InitialProfile, err)
		}
		sessionID = out.SessionID
		logger.Info("initial session ready", "profile", cfg.InitialProfile, "session", sessionID)
	}

	tools.RegisterTools(server, deps)
	return server, sessionID, nil
}

type StdioServerConfig struct {
	Version        string
	Config         *config.Config
	Sessions       *state.Registry
	ReadOnly       bool
	InitialProfile string
	ServerOptions  []simplesql.Option
}

// RunStdioServer serves MCP over stdin/stdout until the client goes away or
// the process is interrupted. Every session is closed on the way out.
func RunStdioServer(ctx context.Context, cfg StdioServerConfig) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions := cfg.Sessions
	if sessions == nil {
		sessions = state.NewRegistry()
	}
	defer func() {
		if err := sessions.CloseAll(); err != nil {
			logger.Error("closing sessions", err)
		}
	}()

	server, _, err := NewMCPServer(ctx, MCPServerConfig{
		Version:        cfg.Version,
		Config:         cfg.Config,
		Sessions:       sessions,
		ReadOnly:       cfg.ReadOnly,
		InitialProfile: cfg.InitialProfile,
		ServerOptions:  cfg.ServerOptions,
	})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	logger.Info("MCP server running", "transport", "stdio", "read_only", cfg.ReadOnly)
	return server.Run(ctx, &mcp.StdioTransport{})
}
