package simplesql

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/xwb1989/sqlparser"
)

// MySQL is the default dialect, also used for MariaDB.
var MySQL Dialect = mysqlDialect{}

type mysqlDialect struct{}

func (mysqlDialect) Name() string       { return "mysql" }
func (mysqlDialect) DriverName() string { return "mysql" }
func (mysqlDialect) DefaultPort() int   { return 3306 }

func (mysqlDialect) DSN(ep Endpoint, user User, database string) string {
	cfg := mysql.NewConfig()
	cfg.User = user.Name
	cfg.Passwd = user.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(ep.Host, strconv.Itoa(ep.Port))
	cfg.DBName = database
	cfg.ParseTime = true
	return cfg.FormatDSN()
}

func (mysqlDialect) QuoteIdent(name string) string { return "`" + name + "`" }
func (mysqlDialect) Placeholder(int) string        { return "?" }

func (mysqlDialect) ExistsDatabase(name string) (string, []any, bool) {
	return "SELECT count(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?", []any{name}, true
}

func (mysqlDialect) SupportsCreateDatabase() bool { return true }

func (mysqlDialect) ExistsTable(database, table string) (string, []any) {
	if database == "" {
		return "SELECT count(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?", []any{table}
	}
	return "SELECT count(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?", []any{database, table}
}

func (mysqlDialect) ListTables(database string) (string, []any) {
	if database == "" {
		return "SELECT TABLE_NAME, TABLE_TYPE FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = DATABASE() ORDER BY TABLE_NAME", nil
	}
	return "SELECT TABLE_NAME, TABLE_TYPE FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME", []any{database}
}

func (mysqlDialect) Paginate(limit, offset int, withOffset bool) string {
	if withOffset {
		return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	return fmt.Sprintf(" LIMIT %d", limit)
}

// ValidateFragment also rejects '#' comments. The fragment must pass with
// and without NO_BACKSLASH_ESCAPES, so quotes inside literals are doubled.
func (mysqlDialect) ValidateFragment(fragment string) error {
	if err := mysqlLexer.checkFragment(fragment); err != nil {
		return err
	}
	return mysqlNBELexer.checkFragment(fragment)
}

// ValidatePredicate runs the predicate through the MySQL grammar as the
// WHERE clause of a dummy SELECT.
func (d mysqlDialect) ValidatePredicate(where string) error {
	if err := d.ValidateFragment(where); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPredicate, err)
	}
	stmt, err := sqlparser.Parse("SELECT 1 FROM t WHERE " + where)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPredicate, err)
	}
	sel, ok := stmt.(*sqlparser.Select)
	if !ok || sel.Where == nil {
		return fmt.Errorf("%w: %q is not a boolean expression", ErrInvalidPredicate, where)
	}
	return nil
}

// ValidateReadOnly also requires the statement to parse as SELECT, UNION or
// SHOW.
func (d mysqlDialect) ValidateReadOnly(query string) error {
	if err := validateReadOnly(d, query); err != nil {
		return err
	}
	stmt, err := sqlparser.Parse(query)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotReadOnly, err)
	}
	switch stmt.(type) {
	case *sqlparser.Select, *sqlparser.Union, *sqlparser.Show:
		return nil
	}
	return fmt.Errorf("%w: %s", ErrNotReadOnly, sqlparser.String(stmt))
}

func (mysqlDialect) ErrorCode(err error) string {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return strconv.Itoa(int(me.Number))
	}
	return ""
}
