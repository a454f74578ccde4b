package tools

import (
	"context"

	"github.com/AbdelilahOu/simplesql/pkg/simplesql"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SelectRowsInput struct {
	SessionID string `json:"session_id" jsonschema:"Session returned by connect"`
	Database  string `json:"database,omitempty" jsonschema:"Database holding the table; the session's database when empty"`
	Table     string `json:"table" jsonschema:"Table to read"`
	Where     string `json:"where,omitempty" jsonschema:"SQL predicate such as 'age < 40'"`
	Limit     int    `json:"limit,omitempty" jsonschema:"Maximum number of rows"`
	Offset    int    `json:"offset,omitempty" jsonschema:"Rows to skip; requires limit"`
}

type RowsOutput struct {
	Columns []string         `json:"columns" jsonschema:"Column names in result order"`
	Rows    []map[string]any `json:"rows" jsonschema:"Result rows keyed by column"`
	Count   int              `json:"count" jsonschema:"Number of rows returned"`
}

func GetSelectRowsTool(deps *Deps) *ToolDefinition[SelectRowsInput, RowsOutput] {
	return NewToolDefinition[SelectRowsInput, RowsOutput](
		"select_rows",
		"Read rows from a table with an optional predicate, limit and offset.",
		func(ctx context.Context, req *mcp.CallToolRequest, input SelectRowsInput) (*mcp.CallToolResult, RowsOutput, error) {
			return selectRowsHandler(ctx, req, input, deps)
		},
	)
}

func selectRowsHandler(ctx context.Context, _ *mcp.CallToolRequest, input SelectRowsInput, deps *Deps) (*mcp.CallToolResult, RowsOutput, error) {
	s, err := deps.session(input.SessionID)
	if err != nil {
		return nil, RowsOutput{}, err
	}
	db, err := database(s, input.Database)
	if err != nil {
		return nil, RowsOutput{}, err
	}
	table, err := db.Table(input.Table)
	if err != nil {
		return nil, RowsOutput{}, err
	}

	var opts []simplesql.SelectOption
	if input.Where != "" {
		opts = append(opts, simplesql.Where(input.Where))
	}
	if input.Limit != 0 {
		opts = append(opts, simplesql.Limit(input.Limit))
	}
	if input.Offset != 0 {
		opts = append(opts, simplesql.Offset(input.Offset))
	}

	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	var rows []simplesql.Row
	err = s.Use(func(conn *simplesql.Conn) error {
		rows, err = table.Select(ctx, conn, opts...)
		return err
	})
	if err != nil {
		return nil, RowsOutput{}, err
	}
	return textResult(rowsOutput(rows))
}

func rowsOutput(rows []simplesql.Row) RowsOutput {
	out := RowsOutput{Columns: []string{}, Rows: rowMaps(rows), Count: len(rows)}
	if len(rows) > 0 {
		out.Columns = rows[0].Columns
	}
	return out
}
