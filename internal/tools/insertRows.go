package tools

import (
	"context"
	"fmt"

	"github.com/AbdelilahOu/simplesql/internal/logger"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type InsertRowsInput struct {
	SessionID string   `json:"session_id" jsonschema:"Session returned by connect"`
	Database  string   `json:"database,omitempty" jsonschema:"Database holding the table; the session's database when empty"`
	Table     string   `json:"table" jsonschema:"Table to insert into"`
	Columns   []string `json:"columns" jsonschema:"Column names, in the order of each row's values"`
	Rows      [][]any  `json:"rows" jsonschema:"One array of values per row"`
}

func GetInsertRowsTool(deps *Deps) *ToolDefinition[InsertRowsInput, StatementOutput] {
	return NewToolDefinition[InsertRowsInput, StatementOutput](
		"insert_rows",
		"Insert one or more rows into a table in a single statement.",
		func(ctx context.Context, req *mcp.CallToolRequest, input InsertRowsInput) (*mcp.CallToolResult, StatementOutput, error) {
			return insertRowsHandler(ctx, req, input, deps)
		},
	)
}

func insertRowsHandler(ctx context.Context, _ *mcp.CallToolRequest, input InsertRowsInput, deps *Deps) (*mcp.CallToolResult, StatementOutput, error) {
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
	table, err := db.Table(input.Table)
	if err != nil {
		return nil, StatementOutput{}, err
	}

	records := make([]simplesql.Record, len(input.Rows))
	for i, row := range input.Rows {
		if len(input.Columns) > 0 && len(row) != len(input.Columns) {
			return nil, StatementOutput{}, fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(input.Columns))
		}
		rec := make(simplesql.Record, len(row))
		for j, v := range row {
			rec[j] = jsonValue(v)
		}
		records[i] = rec
	}

	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	var res *simplesql.Result
	err = s.Use(func(conn *simplesql.Conn) error {
		res, err = table.Insert(ctx, conn, input.Columns, records...)
		return err
	})
	if err != nil {
		logger.LogDatabaseOperation("INSERT", input.Table, 0, err)
		return nil, StatementOutput{}, err
	}
	logger.LogDatabaseOperation("INSERT", input.Table, res.RowsAffected, nil)

	return textResult(StatementOutput{
		Message:      fmt.Sprintf("Inserted %d rows into '%s'", len(records), input.Table),
		RowsAffected: res.RowsAffected,
	})
}
