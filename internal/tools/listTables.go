package tools

import (
	"context"

	"github.com/AbdelilahOu/simplesql/internal/logger"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ListTablesInput struct {
	SessionID string `json:"session_id" jsonschema:"Session returned by connect"`
	Database  string `json:"database,omitempty" jsonschema:"Database to list; the session's database when empty"`
}

type TableInfo struct {
	Name string `json:"name" jsonschema:"Table name"`
	Type string `json:"type" jsonschema:"Table type (table, view, etc.)"`
}

type ListTablesOutput struct {
	Database string      `json:"database" jsonschema:"Database that was listed"`
	Tables   []TableInfo `json:"tables" jsonschema:"Array of table information"`
}

func GetListTablesTool(deps *Deps) *ToolDefinition[ListTablesInput, ListTablesOutput] {
	return NewToolDefinition[ListTablesInput, ListTablesOutput](
		"list_tables",
		"List all tables and views in a database.",
		func(ctx context.Context, req *mcp.CallToolRequest, input ListTablesInput) (*mcp.CallToolResult, ListTablesOutput, error) {
			return listTablesHandler(ctx, req, input, deps)
		},
	)
}

func listTablesHandler(ctx context.Context, _ *mcp.CallToolRequest, input ListTablesInput, deps *Deps) (*mcp.CallToolResult, ListTablesOutput, error) {
	s, err := deps.session(input.SessionID)
	if err != nil {
		return nil, ListTablesOutput{}, err
	}
	db, err := database(s, input.Database)
	if err != nil {
		return nil, ListTablesOutput{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	var found []simplesql.TableInfo
	err = s.Use(func(conn *simplesql.Conn) error {
		found, err = db.ListTables(ctx, conn)
		return err
	})
	if err != nil {
		logger.LogDatabaseOperation("LIST TABLES", db.Name(), 0, err)
		return nil, ListTablesOutput{}, err
	}
	logger.LogDatabaseOperation("LIST TABLES", db.Name(), int64(len(found)), nil)

	tables := make([]TableInfo, len(found))
	for i, t := range found {
		tables[i] = TableInfo{Name: t.Name, Type: t.Type}
	}
	return textResult(ListTablesOutput{Database: db.Name(), Tables: tables})
}
