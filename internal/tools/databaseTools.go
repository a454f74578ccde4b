package tools

import (
	"context"
	"fmt"

	"github.com/AbdelilahOu/simplesql/internal/logger"
	"github.com/AbdelilahOu/simplesql/internal/state"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DatabaseInput struct {
	SessionID string `json:"session_id" jsonschema:"Session returned by connect"`
	Name      string `json:"name" jsonschema:"Database name"`
}

type DropDatabaseInput struct {
	SessionID string `json:"session_id" jsonschema:"Session returned by connect"`
	Name      string `json:"name" jsonschema:"Database name"`
	IfExists  bool   `json:"if_exists,omitempty" jsonschema:"Do not fail when the database is missing"`
}

type ExistsOutput struct {
	Name   string `json:"name" jsonschema:"Name that was checked"`
	Exists bool   `json:"exists" jsonschema:"Whether it exists"`
}

type StatementOutput struct {
	Message      string `json:"message" jsonschema:"Result message"`
	RowsAffected int64  `json:"rows_affected" jsonschema:"Rows affected when the driver reports it"`
}

func GetExistsDatabaseTool(deps *Deps) *ToolDefinition[DatabaseInput, ExistsOutput] {
	return NewToolDefinition[DatabaseInput, ExistsOutput](
		"exists_database",
		"Check whether a database exists on the session's server.",
		func(ctx context.Context, req *mcp.CallToolRequest, input DatabaseInput) (*mcp.CallToolResult, ExistsOutput, error) {
			return existsDatabaseHandler(ctx, req, input, deps)
		},
	)
}

func existsDatabaseHandler(ctx context.Context, _ *mcp.CallToolRequest, input DatabaseInput, deps *Deps) (*mcp.CallToolResult, ExistsOutput, error) {
	s, err := deps.session(input.SessionID)
	if err != nil {
		return nil, ExistsOutput{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	var exists bool
	err = s.Use(func(conn *simplesql.Conn) error {
		exists, err = s.Server.ExistsDatabase(ctx, conn, input.Name)
		return err
	})
	if err != nil {
		return nil, ExistsOutput{}, err
	}
	return textResult(ExistsOutput{Name: input.Name, Exists: exists})
}

func GetCreateDatabaseTool(deps *Deps) *ToolDefinition[DatabaseInput, StatementOutput] {
	return NewToolDefinition[DatabaseInput, StatementOutput](
		"create_database",
		"Create a database on the session's server.",
		func(ctx context.Context, req *mcp.CallToolRequest, input DatabaseInput) (*mcp.CallToolResult, StatementOutput, error) {
			return databaseDDLHandler(ctx, input.SessionID, input.Name, deps, func(ctx context.Context, s *state.Session, conn *simplesql.Conn) (*simplesql.Result, error) {
				return s.Server.CreateDatabase(ctx, conn, input.Name, simplesql.WithCleanup(simplesql.CleanupCursor))
			})
		},
	)
}

func GetDropDatabaseTool(deps *Deps) *ToolDefinition[DropDatabaseInput, StatementOutput] {
	return NewToolDefinition[DropDatabaseInput, StatementOutput](
		"drop_database",
		"Drop a database on the session's server.",
		func(ctx context.Context, req *mcp.CallToolRequest, input DropDatabaseInput) (*mcp.CallToolResult, StatementOutput, error) {
			return databaseDDLHandler(ctx, input.SessionID, input.Name, deps, func(ctx context.Context, s *state.Session, conn *simplesql.Conn) (*simplesql.Result, error) {
				return s.Server.DropDatabase(ctx, conn, input.Name, input.IfExists, simplesql.WithCleanup(simplesql.CleanupCursor))
			})
		},
	)
}

// databaseDDLHandler runs a database level statement. The session's
// connection stays open; the helpers' default of closing it is overridden.
func databaseDDLHandler(
	ctx context.Context,
	sessionID, name string,
	deps *Deps,
	run func(context.Context, *state.Session, *simplesql.Conn) (*simplesql.Result, error),
) (*mcp.CallToolResult, StatementOutput, error) {
	if err := deps.writable(); err != nil {
		return nil, StatementOutput{}, err
	}
	s, err := deps.session(sessionID)
	if err != nil {
		return nil, StatementOutput{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	var res *simplesql.Result
	err = s.Use(func(conn *simplesql.Conn) error {
		res, err = run(ctx, s, conn)
		return err
	})
	if err != nil {
		logger.LogDatabaseOperation("DATABASE", name, 0, err)
		return nil, StatementOutput{}, err
	}
	logger.LogDatabaseOperation("DATABASE", name, res.RowsAffected, nil)

	return textResult(StatementOutput{
		Message:      fmt.Sprintf("Database '%s' statement completed", name),
		RowsAffected: res.RowsAffected,
	})
}
