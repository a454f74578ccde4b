package simplesql

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/lib/pq"
)

var Postgres Dialect = postgresDialect{}

type postgresDialect struct{}

func (postgresDialect) Name() string       { return "postgres" }
func (postgresDialect) DriverName() string { return "postgres" }
func (postgresDialect) DefaultPort() int   { return 5432 }

func (postgresDialect) DSN(ep Endpoint, user User, database string) string {
	if database == "" {
		database = "postgres"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(user.Name, user.Password),
		Host:   net.JoinHostPort(ep.Host, strconv.Itoa(ep.Port)),
		Path:   "/" + database,
	}
	return u.String()
}

func (postgresDialect) QuoteIdent(name string) string { return pq.QuoteIdentifier(name) }
func (postgresDialect) Placeholder(n int) string      { return "$" + strconv.Itoa(n) }

func (postgresDialect) ExistsDatabase(name string) (string, []any, bool) {
	return "SELECT count(*) FROM pg_database WHERE datname = $1", []any{name}, true
}

func (postgresDialect) SupportsCreateDatabase() bool { return true }

func (postgresDialect) ExistsTable(database, table string) (string, []any) {
	if database == "" {
		return "SELECT count(*) FROM information_schema.tables WHERE table_catalog = current_database() AND table_schema = current_schema() AND table_name = $1", []any{table}
	}
	return "SELECT count(*) FROM information_schema.tables WHERE table_catalog = $1 AND table_schema = current_schema() AND table_name = $2", []any{database, table}
}

func (postgresDialect) ListTables(database string) (string, []any) {
	if database == "" {
		return "SELECT table_name, table_type FROM information_schema.tables WHERE table_catalog = current_database() AND table_schema = current_schema() ORDER BY table_name", nil
	}
	return "SELECT table_name, table_type FROM information_schema.tables WHERE table_catalog = $1 AND table_schema = current_schema() ORDER BY table_name", []any{database}
}

func (postgresDialect) Paginate(limit, offset int, withOffset bool) string {
	if withOffset {
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}

func (postgresDialect) ValidateFragment(fragment string) error {
	return postgresLexer.checkFragment(fragment)
}

func (d postgresDialect) ValidatePredicate(where string) error {
	if err := d.ValidateFragment(where); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPredicate, err)
	}
	return nil
}

func (d postgresDialect) ValidateReadOnly(query string) error { return validateReadOnly(d, query) }

func (postgresDialect) ErrorCode(err error) string {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return string(pe.Code)
	}
	return ""
}
