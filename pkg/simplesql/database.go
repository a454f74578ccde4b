package simplesql

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Database binds a Server to a database name. It holds no live resource.
type Database struct {
	server *Server
	name   string
}

// NewDatabase validates name against the identifier allow-list.
func NewDatabase(server *Server, name string) (*Database, error) {
	if server == nil {
		return nil, &ConfigurationError{Field: "server", Err: errors.New("server is required")}
	}
	if err := ValidIdentifier(name); err != nil {
		return nil, err
	}
	return &Database{server: server, name: name}, nil
}

func (d *Database) Name() string    { return d.name }
func (d *Database) Server() *Server { return d.server }
func (d *Database) String() string  { return d.server.String() + "/" + d.name }

// Connect opens a connection with this database selected.
func (d *Database) Connect(ctx context.Context, user User) (*Conn, error) {
	return d.server.ConnectDatabase(ctx, user, d.name)
}

func (d *Database) WithConn(ctx context.Context, user User, fn func(*Conn) error) error {
	return withConn(func() (*Conn, error) { return d.Connect(ctx, user) }, fn)
}

// Table returns the helper for table name in this database.
func (d *Database) Table(name string) (*Table, error) {
	return NewTable(d, name)
}

// ExistsTable reports whether table exists in this database.
func (d *Database) ExistsTable(ctx context.Context, conn *Conn, table string) (bool, error) {
	d.server.logger.Info("checking table", "database", d.name, "table", table)
	query, args := d.server.dialect.ExistsTable(d.name, table)
	exists, err := d.server.count(ctx, conn, query, args)
	if err != nil {
		return false, err
	}
	d.server.logger.Debug("table exists", "table", table, "exists", exists)
	return exists, nil
}

// TableInfo describes one entry of ListTables. Type is "table" or "view";
// other catalog types are passed through lowercased.
type TableInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ListTables returns the tables and views of this database, ordered by name.
func (d *Database) ListTables(ctx context.Context, conn *Conn) ([]TableInfo, error) {
	d.server.logger.Info("listing tables", "database", d.name)
	query, args := d.server.dialect.ListTables(d.name)
	res, err := d.server.Execute(ctx, conn, query, args, FetchAll, CleanupCursor)
	if err != nil {
		return nil, err
	}
	tables := make([]TableInfo, 0, len(res.Rows))
	for _, row := range res.Rows {
		if len(row.Values) < 2 {
			continue
		}
		tables = append(tables, TableInfo{
			Name: fmt.Sprint(row.Values[0]),
			Type: tableType(fmt.Sprint(row.Values[1])),
		})
	}
	return tables, nil
}

func tableType(t string) string {
	t = strings.ToLower(t)
	switch {
	case strings.Contains(t, "view"):
		return "view"
	case strings.Contains(t, "table"):
		return "table"
	}
	return t
}

// CreateTable runs CREATE TABLE with fields joined by commas. Each field is
// a full column or constraint definition. Defaults: FetchNone,
// CleanupCursor.
func (d *Database) CreateTable(ctx context.Context, conn *Conn, table string, fields []string, opts ...ExecOption) (*Result, error) {
	d.server.logger.Info("creating table", "database", d.name, "table", table, "fields", len(fields))
	quoted, err := quoteValidated(d.server.dialect, table)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, ErrInvalidField
	}
	for _, f := range fields {
		if err := validateField(d.server.dialect, f); err != nil {
			return nil, err
		}
	}

	query := "CREATE TABLE " + quoted + " (" + strings.Join(fields, ", ") + ")"
	o := applyExecOptions(FetchNone, CleanupCursor, opts)
	return d.server.Execute(ctx, conn, query, nil, o.fetch, o.cleanup)
}

// DropTable runs DROP TABLE [IF EXISTS]. Defaults: FetchNone,
// CleanupCursor.
func (d *Database) DropTable(ctx context.Context, conn *Conn, table string, ifExists bool, opts ...ExecOption) (*Result, error) {
	d.server.logger.Info("dropping table", "database", d.name, "table", table, "if_exists", ifExists)
	quoted, err := quoteValidated(d.server.dialect, table)
	if err != nil {
		return nil, err
	}
	query := "DROP TABLE " + quoted
	if ifExists {
		query = "DROP TABLE IF EXISTS " + quoted
	}
	o := applyExecOptions(FetchNone, CleanupCursor, opts)
	return d.server.Execute(ctx, conn, query, nil, o.fetch, o.cleanup)
}
