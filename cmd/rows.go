package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/AbdelilahOu/simplesql/internal/logger"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
	"github.com/spf13/cobra"
)

var (
	rowsDatabase string

	insertColumns string
	insertRows    []string

	selectWhere  string
	selectLimit  int
	selectOffset int
	selectFormat string

	execParams []string
	execFetch  string
	execFormat string
)

var insertCmd = &cobra.Command{
	Use:   `insert TABLE --columns "(name, age)" --row '["Dani", 32]' [--row ...]`,
	Short: "Insert rows given as JSON arrays in one statement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var columns []string
		if insertColumns != "" {
			cols, err := simplesql.ParseFields(insertColumns)
			if err != nil {
				return err
			}
			columns = cols
		}
		records := make([]simplesql.Record, len(insertRows))
		for i, raw := range insertRows {
			rec, err := parseRecord(raw)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			records[i] = rec
		}

		target, db, err := resolveDatabase(rowsDatabase)
		if err != nil {
			return err
		}
		table, err := db.Table(args[0])
		if err != nil {
			return err
		}

		var res *simplesql.Result
		err = db.WithConn(cmd.Context(), target.User, func(conn *simplesql.Conn) error {
			res, err = table.Insert(cmd.Context(), conn, columns, records...)
			return err
		})
		if err != nil {
			logger.LogDatabaseOperation("INSERT", args[0], 0, err)
			return err
		}
		logger.LogDatabaseOperation("INSERT", args[0], res.RowsAffected, nil)
		fmt.Fprintf(cmd.OutOrStdout(), "Inserted %d rows into '%s'\n", len(records), args[0])
		return nil
	},
}

// parseRecord decodes a JSON array. Integral numbers become int64 and the
// rest float64.
func parseRecord(raw string) (simplesql.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var values []any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("expected a JSON array: %w", err)
	}
	rec := make(simplesql.Record, len(values))
	for i, v := range values {
		rec[i] = fromJSON(v)
	}
	return rec, nil
}

func fromJSON(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

var selectCmd = &cobra.Command{
	Use:   "select TABLE",
	Short: "Select rows with an optional filter and pagination",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, db, err := resolveDatabase(rowsDatabase)
		if err != nil {
			return err
		}
		table, err := db.Table(args[0])
		if err != nil {
			return err
		}

		var opts []simplesql.SelectOption
		if selectWhere != "" {
			opts = append(opts, simplesql.Where(selectWhere))
		}
		if cmd.Flags().Changed("limit") {
			opts = append(opts, simplesql.Limit(selectLimit))
		}
		if cmd.Flags().Changed("offset") {
			opts = append(opts, simplesql.Offset(selectOffset))
		}

		var rows []simplesql.Row
		err = db.WithConn(cmd.Context(), target.User, func(conn *simplesql.Conn) error {
			rows, err = table.Select(cmd.Context(), conn, opts...)
			return err
		})
		if err != nil {
			return err
		}
		logger.LogDatabaseOperation("SELECT", args[0], int64(len(rows)), nil)
		return renderRows(cmd.OutOrStdout(), selectFormat, nil, rows)
	},
}

var execCmd = &cobra.Command{
	Use:   "exec SQL",
	Short: "Run one raw statement with bound parameters",
	Long: `Run one raw statement. Parameters are bound in order with the driver's
placeholder syntax (? for MySQL and SQLite, $1 for Postgres, :1 for Oracle).
--fetch selects what is printed: none, one or all. The default is all for
SELECT, SHOW and WITH statements and none otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]
		fetch := simplesql.FetchNone
		switch simplesql.StatementKind(query) {
		case "SELECT", "SHOW", "WITH":
			fetch = simplesql.FetchAll
		}
		if execFetch != "" {
			f, err := simplesql.ParseFetch(execFetch)
			if err != nil {
				return err
			}
			if f == simplesql.FetchCursor {
				return fmt.Errorf("%w: cursor results cannot be printed", simplesql.ErrInvalidFetch)
			}
			fetch = f
		}
		params := make([]any, len(execParams))
		for i, p := range execParams {
			params[i] = p
		}

		target, err := resolve(rowsDatabase)
		if err != nil {
			return err
		}
		conn, err := target.Connect(cmd.Context())
		logger.LogConnectionEvent("connect", target.Name, target.Server.Dialect().Name(), err)
		if err != nil {
			return err
		}
		res, err := target.Server.Execute(cmd.Context(), conn, query, params, fetch, simplesql.CleanupAll)
		if err != nil {
			logger.LogDatabaseOperation(simplesql.StatementKind(query), query, 0, err)
			return err
		}

		out := cmd.OutOrStdout()
		switch fetch {
		case simplesql.FetchAll:
			logger.LogDatabaseOperation(simplesql.StatementKind(query), query, int64(len(res.Rows)), nil)
			return renderRows(out, execFormat, nil, res.Rows)
		case simplesql.FetchOne:
			var rows []simplesql.Row
			if res.Row != nil {
				rows = append(rows, *res.Row)
			}
			return renderRows(out, execFormat, nil, rows)
		}
		logger.LogDatabaseOperation(simplesql.StatementKind(query), query, res.RowsAffected, nil)
		fmt.Fprintf(out, "OK, %d rows affected", res.RowsAffected)
		if res.LastInsertID != 0 {
			fmt.Fprintf(out, ", last insert id %d", res.LastInsertID)
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{insertCmd, selectCmd, execCmd} {
		c.Flags().StringVarP(&rowsDatabase, "database", "d", "", "database to use (default: the profile database)")
	}

	insertCmd.Flags().StringVar(&insertColumns, "columns", "", `column list such as "(name, age)"; omit to insert every column`)
	insertCmd.Flags().StringArrayVar(&insertRows, "row", nil, "JSON array of values, repeatable")
	_ = insertCmd.MarkFlagRequired("row")

	selectCmd.Flags().StringVarP(&selectWhere, "where", "w", "", `raw predicate such as "age<40"`)
	selectCmd.Flags().IntVarP(&selectLimit, "limit", "l", 0, "maximum number of rows")
	selectCmd.Flags().IntVarP(&selectOffset, "offset", "o", 0, "rows to skip; requires --limit")
	selectCmd.Flags().StringVar(&selectFormat, "format", "table", "output format: table or json")

	execCmd.Flags().StringArrayVarP(&execParams, "param", "p", nil, "bound parameter, repeatable")
	execCmd.Flags().StringVar(&execFetch, "fetch", "", "none, one or all")
	execCmd.Flags().StringVar(&execFormat, "format", "table", "output format: table or json")

	rootCmd.AddCommand(insertCmd, selectCmd, execCmd)
}
