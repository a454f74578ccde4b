package main

import (
	"context"
	"fmt"
	"io"

	"github.com/AbdelilahOu/simplesql/internal/client"
	"github.com/AbdelilahOu/simplesql/internal/logger"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
	"github.com/spf13/cobra"
)

var demoDatabase string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Recreate the test1 database and run the reference insert/select walkthrough",
	Long: `demo drops and recreates the demo database, creates table "test", inserts
Dani, then Luli, Oscar and Mama in one statement, and prints five selects:
every row, age<40, limit 2, limit 2 offset 1, and limit 2 offset 1 where id>1.

Servers that cannot create databases (SQLite, Oracle) run the walkthrough in
the selected database instead; the table is dropped first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		target, err := resolve("")
		if err != nil {
			return err
		}
		return runDemo(cmd.Context(), target, demoDatabase, cmd.OutOrStdout())
	},
}

func init() {
	demoCmd.Flags().StringVarP(&demoDatabase, "database", "d", "test1", "database to recreate")
	rootCmd.AddCommand(demoCmd)
}

// idColumns holds the auto-increment key definition per dialect.
var idColumns = map[string]string{
	"mysql":    "id INT AUTO_INCREMENT PRIMARY KEY",
	"postgres": "id SERIAL PRIMARY KEY",
	"sqlite":   "id INTEGER PRIMARY KEY AUTOINCREMENT",
	"oracle":   "id NUMBER GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY",
}

type demoQuery struct {
	title string
	opts  []simplesql.SelectOption
}

var demoQueries = []demoQuery{
	{"all rows", nil},
	{"age<40", []simplesql.SelectOption{simplesql.Where("age<40")}},
	{"limit 2", []simplesql.SelectOption{simplesql.Limit(2)}},
	{"limit 2 offset 1", []simplesql.SelectOption{simplesql.Limit(2), simplesql.Offset(1)}},
	{"limit 2 offset 1 where id>1", []simplesql.SelectOption{simplesql.Limit(2), simplesql.Offset(1), simplesql.Where("id>1")}},
}

func runDemo(ctx context.Context, target *client.Target, name string, w io.Writer) error {
	server := target.Server
	dialect := server.Dialect()

	if dialect.SupportsCreateDatabase() {
		conn, err := server.Connect(ctx, target.User)
		logger.LogConnectionEvent("connect", target.Name, dialect.Name(), err)
		if err != nil {
			return err
		}
		if _, err := server.DropDatabase(ctx, conn, name, true, simplesql.WithCleanup(simplesql.CleanupCursor)); err != nil {
			conn.Close()
			return err
		}
		if _, err := server.CreateDatabase(ctx, conn, name); err != nil {
			return err
		}
	} else {
		name = target.Database
		if name == "" && dialect == simplesql.SQLite {
			name = "main"
		}
		if name == "" {
			return fmt.Errorf("%s cannot create databases: select one with the profile database", dialect.Name())
		}
		logger.Info("using existing database", "database", name)
	}

	db, err := simplesql.NewDatabase(server, name)
	if err != nil {
		return err
	}

	return db.WithConn(ctx, target.User, func(conn *simplesql.Conn) error {
		exists, err := db.ExistsTable(ctx, conn, "test1")
		if err != nil {
			return err
		}
		logger.Debug("table test1 exists", "exists", exists)

		if _, err := db.DropTable(ctx, conn, "test", true); err != nil {
			return err
		}
		fields := []string{
			idColumns[dialect.Name()],
			"name VARCHAR(100) NOT NULL",
			"age DECIMAL(4,1)",
		}
		if _, err := db.CreateTable(ctx, conn, "test", fields); err != nil {
			return err
		}

		table, err := db.Table("test")
		if err != nil {
			return err
		}
		columns, err := simplesql.ParseFields("(name, age)")
		if err != nil {
			return err
		}
		if _, err := table.Insert(ctx, conn, columns, simplesql.Record{"Dani", 32}); err != nil {
			return err
		}
		_, err = table.Insert(ctx, conn, columns,
			simplesql.Record{"Luli", 31},
			simplesql.Record{"Oscar", 61},
			simplesql.Record{"Mama", 65.5555},
		)
		if err != nil {
			return err
		}

		for _, q := range demoQueries {
			rows, err := table.Select(ctx, conn, q.opts...)
			if err != nil {
				return fmt.Errorf("select %s: %w", q.title, err)
			}
			logger.Debug("selected records", "query", q.title, "rows", len(rows))
			fmt.Fprintln(w, headerStyle.Render(q.title))
			renderTable(w, nil, rows)
		}
		return nil
	})
}
