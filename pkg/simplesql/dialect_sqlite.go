package simplesql

import (
	"fmt"
	"strings"
)

// SQLite connects to the file named by the endpoint host. Databases map to
// attached schemas ("main" for the file itself); they cannot be created or
// dropped through SQL.
var SQLite Dialect = sqliteDialect{}

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite3" }
func (sqliteDialect) DefaultPort() int   { return 0 }

func (sqliteDialect) DSN(ep Endpoint, _ User, _ string) string { return ep.Host }

func (sqliteDialect) QuoteIdent(name string) string { return `"` + strings.ReplaceAll(name, `"`, `""`) + `"` }
func (sqliteDialect) Placeholder(int) string        { return "?" }

func (sqliteDialect) ExistsDatabase(name string) (string, []any, bool) {
	return "SELECT count(*) FROM pragma_database_list WHERE name = ?", []any{name}, true
}

func (sqliteDialect) SupportsCreateDatabase() bool { return false }

func (sqliteDialect) ExistsTable(_, table string) (string, []any) {
	return "SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", []any{table}
}

func (sqliteDialect) ListTables(string) (string, []any) {
	return "SELECT name, type FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name", nil
}

func (sqliteDialect) Paginate(limit, offset int, withOffset bool) string {
	if withOffset {
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}

func (sqliteDialect) ValidateFragment(fragment string) error {
	return sqliteLexer.checkFragment(fragment)
}

func (d sqliteDialect) ValidatePredicate(where string) error {
	if err := d.ValidateFragment(where); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPredicate, err)
	}
	return nil
}

func (d sqliteDialect) ValidateReadOnly(query string) error { return validateReadOnly(d, query) }

func (sqliteDialect) ErrorCode(error) string { return "" }
