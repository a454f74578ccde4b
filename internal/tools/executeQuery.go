package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/AbdelilahOu/simplesql/internal/logger"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ExecuteSQLInput struct {
	SessionID string `json:"session_id" jsonschema:"Session returned by connect"`
	Query     string `json:"query" jsonschema:"SQL statement; use the driver's placeholders for params"`
	Params    []any  `json:"params,omitempty" jsonschema:"Values bound to the statement placeholders"`
	Fetch     string `json:"fetch,omitempty" jsonschema:"none, one or all; all for SELECT when empty, none otherwise"`
}

type ExecuteSQLOutput struct {
	Columns      []string         `json:"columns" jsonschema:"Column names in result order"`
	Rows         []map[string]any `json:"rows" jsonschema:"Result rows keyed by column"`
	Count        int              `json:"count" jsonschema:"Number of rows returned"`
	RowsAffected int64            `json:"rows_affected" jsonschema:"Rows affected when the driver reports it"`
	LastInsertID int64            `json:"last_insert_id,omitempty" jsonschema:"Last generated id when the driver reports it"`
	Message      string           `json:"message" jsonschema:"Result message"`
}

// readOnlyKinds may run while the server is read-only. The statement must
// also pass the dialect's ValidateReadOnly.
var readOnlyKinds = map[string]bool{"SELECT": true, "SHOW": true}

func GetExecuteSQLTool(deps *Deps) *ToolDefinition[ExecuteSQLInput, ExecuteSQLOutput] {
	return NewToolDefinition[ExecuteSQLInput, ExecuteSQLOutput](
		"execute_sql",
		"Execute one SQL statement with bound parameters. Only SELECT and SHOW are allowed in read-only mode.",
		func(ctx context.Context, req *mcp.CallToolRequest, input ExecuteSQLInput) (*mcp.CallToolResult, ExecuteSQLOutput, error) {
			return executeSQLHandler(ctx, req, input, deps)
		},
	)
}

func executeSQLHandler(ctx context.Context, _ *mcp.CallToolRequest, input ExecuteSQLInput, deps *Deps) (*mcp.CallToolResult, ExecuteSQLOutput, error) {
	query := strings.TrimRight(strings.TrimSpace(input.Query), "; \t\r\n")
	if query == "" {
		return nil, ExecuteSQLOutput{}, fmt.Errorf("query is required")
	}
	kind := simplesql.StatementKind(query)
	if deps.ReadOnly && !readOnlyKinds[kind] {
		return nil, ExecuteSQLOutput{}, fmt.Errorf("%w: %s", errReadOnly, kind)
	}

	fetch, err := executeFetch(input.Fetch, kind)
	if err != nil {
		return nil, ExecuteSQLOutput{}, err
	}
	s, err := deps.session(input.SessionID)
	if err != nil {
		return nil, ExecuteSQLOutput{}, err
	}
	if deps.ReadOnly {
		if err := s.Server.Dialect().ValidateReadOnly(query); err != nil {
			return nil, ExecuteSQLOutput{}, fmt.Errorf("%w: %v", errReadOnly, err)
		}
	}

	params := make([]any, len(input.Params))
	for i, p := range input.Params {
		params[i] = jsonValue(p)
	}

	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	var res *simplesql.Result
	err = s.Use(func(conn *simplesql.Conn) error {
		res, err = s.Server.Execute(ctx, conn, query, params, fetch, simplesql.CleanupCursor)
		return err
	})
	if err != nil {
		logger.LogDatabaseOperation(kind, query, 0, err)
		return nil, ExecuteSQLOutput{}, err
	}
	logger.LogDatabaseOperation(kind, query, res.RowsAffected, nil)

	var rows []simplesql.Row
	switch {
	case fetch == simplesql.FetchAll:
		rows = res.Rows
	case fetch == simplesql.FetchOne && res.Row != nil:
		rows = []simplesql.Row{*res.Row}
	}
	ro := rowsOutput(rows)
	output := ExecuteSQLOutput{
		Columns:      ro.Columns,
		Rows:         ro.Rows,
		Count:        ro.Count,
		RowsAffected: res.RowsAffected,
		LastInsertID: res.LastInsertID,
	}

	output.Message = fmt.Sprintf("%s operation completed successfully", kind)
	if res.RowsAffected > 0 {
		output.Message = fmt.Sprintf("%s operation completed successfully (%d rows affected)", kind, res.RowsAffected)
	}
	return textResult(output)
}

// executeFetch maps the tool's fetch argument. Cursors cannot cross the
// tool boundary, so only none, one and all are accepted.
func executeFetch(s, kind string) (simplesql.Fetch, error) {
	if strings.TrimSpace(s) == "" {
		if readOnlyKinds[kind] || kind == "WITH" {
			return simplesql.FetchAll, nil
		}
		return simplesql.FetchNone, nil
	}
	fetch, err := simplesql.ParseFetch(s)
	if err != nil {
		return 0, err
	}
	if fetch == simplesql.FetchCursor {
		return 0, fmt.Errorf("%w: cursor is not available over MCP", simplesql.ErrInvalidFetch)
	}
	return fetch, nil
}
