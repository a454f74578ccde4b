package tools

import (
	"context"
	"fmt"

	"github.com/AbdelilahOu/simplesql/internal/client"
	"github.com/AbdelilahOu/simplesql/internal/logger"
	"github.com/AbdelilahOu/simplesql/internal/state"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ConnectInput struct {
	Profile  string `json:"profile,omitempty" jsonschema:"Server profile from the config file; the default profile when empty"`
	Driver   string `json:"driver,omitempty" jsonschema:"Overrides the profile driver: mysql, postgres, sqlite or oracle"`
	Host     string `json:"host,omitempty" jsonschema:"Overrides the profile host; the file path for sqlite"`
	Port     int    `json:"port,omitempty" jsonschema:"Overrides the profile port"`
	Database string `json:"database,omitempty" jsonschema:"Database to select on the new connection"`
}

type ConnectOutput struct {
	SessionID string `json:"session_id" jsonschema:"Id to pass to every other tool"`
	Server    string `json:"server" jsonschema:"Server the session is connected to"`
	Database  string `json:"database,omitempty" jsonschema:"Selected database"`
}

type DisconnectInput struct {
	SessionID string `json:"session_id" jsonschema:"Session to close"`
}

type DisconnectOutput struct {
	Message string `json:"message" jsonschema:"Result message"`
}

type ListSessionsInput struct{}

type ProfileInfo struct {
	Name        string `json:"name" jsonschema:"Profile name"`
	Driver      string `json:"driver" jsonschema:"Database driver"`
	Host        string `json:"host" jsonschema:"Host or sqlite file"`
	Description string `json:"description,omitempty" jsonschema:"Profile description"`
}

type ListSessionsOutput struct {
	Sessions      []state.Info  `json:"sessions" jsonschema:"Open sessions"`
	Profiles      []ProfileInfo `json:"profiles" jsonschema:"Configured server profiles"`
	DefaultServer string        `json:"default_server,omitempty" jsonschema:"Default profile name"`
}

func GetConnectTool(deps *Deps) *ToolDefinition[ConnectInput, ConnectOutput] {
	return NewToolDefinition[ConnectInput, ConnectOutput](
		"connect",
		"Open a database session from a configured server profile and return its session id.",
		func(ctx context.Context, req *mcp.CallToolRequest, input ConnectInput) (*mcp.CallToolResult, ConnectOutput, error) {
			return connectHandler(ctx, req, input, deps)
		},
	)
}

func connectHandler(ctx context.Context, _ *mcp.CallToolRequest, input ConnectInput, deps *Deps) (*mcp.CallToolResult, ConnectOutput, error) {
	output, err := Connect(ctx, deps, input)
	if err != nil {
		return nil, ConnectOutput{}, err
	}
	return textResult(output)
}

// Connect opens a session and adds it to deps.Sessions.
func Connect(ctx context.Context, deps *Deps, input ConnectInput) (ConnectOutput, error) {
	target, err := client.Resolve(deps.Config, client.Options{
		Profile:  input.Profile,
		Driver:   input.Driver,
		Host:     input.Host,
		Port:     input.Port,
		Database: input.Database,
	}, deps.ServerOptions...)
	if err != nil {
		return ConnectOutput{}, err
	}

	conn, err := target.Connect(ctx)
	logger.LogConnectionEvent("connect", target.Name, target.Server.Dialect().Name(), err)
	if err != nil {
		return ConnectOutput{}, err
	}
	db, err := target.DatabaseHelper()
	if err != nil {
		conn.Close()
		return ConnectOutput{}, err
	}

	id := deps.Sessions.Add(&state.Session{
		Profile:  target.Name,
		Server:   target.Server,
		Database: db,
		Conn:     conn,
		User:     target.User.Name,
	})

	return ConnectOutput{
		SessionID: id,
		Server:    target.Server.String(),
		Database:  target.Database,
	}, nil
}

func GetDisconnectTool(deps *Deps) *ToolDefinition[DisconnectInput, DisconnectOutput] {
	return NewToolDefinition[DisconnectInput, DisconnectOutput](
		"disconnect",
		"Close a database session.",
		func(ctx context.Context, req *mcp.CallToolRequest, input DisconnectInput) (*mcp.CallToolResult, DisconnectOutput, error) {
			return disconnectHandler(ctx, req, input, deps)
		},
	)
}

func disconnectHandler(_ context.Context, _ *mcp.CallToolRequest, input DisconnectInput, deps *Deps) (*mcp.CallToolResult, DisconnectOutput, error) {
	if err := deps.Sessions.Close(input.SessionID); err != nil {
		return nil, DisconnectOutput{}, err
	}
	return textResult(DisconnectOutput{
		Message: fmt.Sprintf("Session '%s' closed", input.SessionID),
	})
}

func GetListSessionsTool(deps *Deps) *ToolDefinition[ListSessionsInput, ListSessionsOutput] {
	return NewToolDefinition[ListSessionsInput, ListSessionsOutput](
		"list_sessions",
		"List open sessions and the configured server profiles.",
		func(ctx context.Context, req *mcp.CallToolRequest, input ListSessionsInput) (*mcp.CallToolResult, ListSessionsOutput, error) {
			return listSessionsHandler(ctx, req, input, deps)
		},
	)
}

func listSessionsHandler(_ context.Context, _ *mcp.CallToolRequest, _ ListSessionsInput, deps *Deps) (*mcp.CallToolResult, ListSessionsOutput, error) {
	output := ListSessionsOutput{
		Sessions: deps.Sessions.List(),
		Profiles: []ProfileInfo{},
	}
	if cfg := deps.Config; cfg != nil {
		output.DefaultServer = cfg.DefaultServer
		for _, name := range cfg.ServerNames() {
			srv := cfg.Servers[name]
			output.Profiles = append(output.Profiles, ProfileInfo{
				Name:        name,
				Driver:      srv.Driver,
				Host:        srv.Host,
				Description: srv.Description,
			})
		}
	}
	return textResult(output)
}
