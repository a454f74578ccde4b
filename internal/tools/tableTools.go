package tools

import (
	"context"
	"fmt"

	"github.com/AbdelilahOu/simplesql/internal/logger"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type TableInput struct {
	SessionID string `json:"session_id" jsonschema:"Session returned by connect"`
	Database  string `json:"database,omitempty" jsonschema:"Database holding the table; the session's database when empty"`
	Table     string `json:"table" jsonschema:"Table name"`
}

type CreateTableInput struct {
	SessionID string   `json:"session_id" jsonschema:"Session returned by connect"`
	Database  string   `json:"database,omitempty" jsonschema:"Database holding the table; the session's database when empty"`
	Table     string   `json:"table" jsonschema:"Table name"`
	Fields    []string `json:"fields" jsonschema:"Column definitions such as 'name VARCHAR(100) NOT NULL'"`
}

type DropTableInput struct {
	SessionID string `json:"session_id" jsonschema:"Session returned by connect"`
	Database  string `json:"database,omitempty" jsonschema:"Database holding the table; the session's database when empty"`
	Table     string `json:"table" jsonschema:"Table name"`
	IfExists  bool   `json:"if_exists,omitempty" jsonschema:"Do not fail when the table is missing"`
}

func GetExistsTableTool(deps *Deps) *ToolDefinition[TableInput, ExistsOutput] {
	return NewToolDefinition[TableInput, ExistsOutput](
		"exists_table",
		"Check whether a table exists in a database.",
		func(ctx context.Context, req *mcp.CallToolRequest, input TableInput) (*mcp.CallToolResult, ExistsOutput, error) {
			return existsTableHandler(ctx, req, input, deps)
		},
	)
}

func existsTableHandler(ctx context.Context, _ *mcp.CallToolRequest, input TableInput, deps *Deps) (*mcp.CallToolResult, ExistsOutput, error) {
	s, err := deps.session(input.SessionID)
	if err != nil {
		return nil, ExistsOutput{}, err
	}
	db, err := database(s, input.Database)
	if err != nil {
		return nil, ExistsOutput{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	var exists bool
	err = s.Use(func(conn *simplesql.Conn) error {
		exists, err = db.ExistsTable(ctx, conn, input.Table)
		return err
	})
	if err != nil {
		return nil, ExistsOutput{}, err
	}
	return textResult(ExistsOutput{Name: input.Table, Exists: exists})
}

func GetCreateTableTool(deps *Deps) *ToolDefinition[CreateTableInput, StatementOutput] {
	return NewToolDefinition[CreateTableInput, StatementOutput](
		"create_table",
		"Create a table from a list of column definitions.",
		func(ctx context.Context, req *mcp.CallToolRequest, input CreateTableInput) (*mcp.CallToolResult, StatementOutput, error) {
			return createTableHandler(ctx, req, input, deps)
		},
	)
}

func createTableHandler(ctx context.Context, _ *mcp.CallToolRequest, input CreateTableInput, deps *Deps) (*mcp.CallToolResult, StatementOutput, error) {
	if err := deps.writable(); err != nil {
		return nil, StatementOutput{}, err
	}
	s, err := deps.session(input.SessionID)
	if err != nil {
		return nil, StatementOutput{}, err
	}
	db, err := database(s, input.Database)
	if err != nil {
		return nil, StatementOutput{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	err = s.Use(func(conn *simplesql.Conn) error {
		_, err := db.CreateTable(ctx, conn, input.Table, input.Fields)
		return err
	})
	logger.LogDatabaseOperation("CREATE", input.Table, 0, err)
	if err != nil {
		return nil, StatementOutput{}, err
	}
	return textResult(StatementOutput{Message: fmt.Sprintf("Table '%s' created", input.Table)})
}

func GetDropTableTool(deps *Deps) *ToolDefinition[DropTableInput, StatementOutput] {
	return NewToolDefinition[DropTableInput, StatementOutput](
		"drop_table",
		"Drop a table.",
		func(ctx context.Context, req *mcp.CallToolRequest, input DropTableInput) (*mcp.CallToolResult, StatementOutput, error) {
			return dropTableHandler(ctx, req, input, deps)
		},
	)
}

func dropTableHandler(ctx context.Context, _ *mcp.CallToolRequest, input DropTableInput, deps *Deps) (*mcp.CallToolResult, StatementOutput, error) {
	if err := deps.writable(); err != nil {
		return nil, StatementOutput{}, err
	}
	s, err := deps.session(input.SessionID)
	if err != nil {
		return nil, StatementOutput{}, err
	}
	db, err := database(s, input.Database)
	if err != nil {
		return nil, StatementOutput{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	err = s.Use(func(conn *simplesql.Conn) error {
		_, err := db.DropTable(ctx, conn, input.Table, input.IfExists)
		return err
	})
	logger.LogDatabaseOperation("DROP", input.Table, 0, err)
	if err != nil {
		return nil, StatementOutput{}, err
	}
	return textResult(StatementOutput{Message: fmt.Sprintf("Table '%s' dropped", input.Table)})
}
