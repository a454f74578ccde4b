package simplesql

import (
	"fmt"
	"strings"
)

// Endpoint is the host/port pair a Server connects to. For SQLite Host is
// the database file path.
type Endpoint struct {
	Host string
	Port int
}

// Dialect captures the SQL and driver differences between backends. The
// helpers validate identifiers before calling QuoteIdent.
type Dialect interface {
	Name() string
	DriverName() string
	DefaultPort() int
	DSN(ep Endpoint, user User, database string) string

	QuoteIdent(name string) string
	// Placeholder returns the bind marker for the n-th parameter, 1-based.
	Placeholder(n int) string

	// ExistsDatabase returns a count query over the catalog. ok is false
	// when the backend has no notion of databases reachable from a session.
	ExistsDatabase(name string) (query string, args []any, ok bool)
	// SupportsCreateDatabase reports whether CREATE/DROP DATABASE exist.
	SupportsCreateDatabase() bool
	// ExistsTable returns a count query for table within database. An empty
	// database means the session's current one.
	ExistsTable(database, table string) (query string, args []any)
	// ListTables returns a query yielding (name, type) for every table and
	// view of database, ordered by name.
	ListTables(database string) (query string, args []any)

	// Paginate renders the paging suffix for SELECT.
	Paginate(limit, offset int, withOffset bool) string

	// ValidateFragment rejects statement terminators and comments outside
	// the dialect's literals and quoted identifiers.
	ValidateFragment(fragment string) error
	ValidatePredicate(where string) error
	// ValidateReadOnly accepts a single SELECT or SHOW statement; errors
	// wrap ErrNotReadOnly.
	ValidateReadOnly(query string) error
	// ErrorCode extracts the driver error code from err, or "".
	ErrorCode(err error) string
}

var dialects = map[string]Dialect{
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"postgres":   Postgres,
	"postgresql": Postgres,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"oracle":     Oracle,
	"godror":     Oracle,
}

// DialectFor returns the dialect registered under name (case-insensitive).
func DialectFor(name string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, &ConfigurationError{
			Field: "driver",
			Err:   fmt.Errorf("driver not implemented for %q", name),
		}
	}
	return d, nil
}

// placeholders returns count bind markers starting at parameter from.
func placeholders(d Dialect, from, count int) []string {
	out := make([]string, count)
	for i := range out {
		out[i] = d.Placeholder(from + i)
	}
	return out
}

func quoteValidated(d Dialect, name string) (string, error) {
	if err := ValidIdentifier(name); err != nil {
		return "", err
	}
	return d.QuoteIdent(name), nil
}
