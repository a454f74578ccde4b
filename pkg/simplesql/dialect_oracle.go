package simplesql

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

// Oracle treats the database name as the service name in the connect
// string and as the owning schema for table lookups. Identifiers are folded
// to upper case and left unquoted.
var Oracle Dialect = oracleDialect{}

type oracleDialect struct{}

func (oracleDialect) Name() string       { return "oracle" }
func (oracleDialect) DriverName() string { return "godror" }
func (oracleDialect) DefaultPort() int   { return 1521 }

func (oracleDialect) DSN(ep Endpoint, user User, database string) string {
	connect := net.JoinHostPort(ep.Host, strconv.Itoa(ep.Port))
	if database != "" {
		connect += "/" + database
	}
	return fmt.Sprintf("user=%s password=%s connectString=%s",
		strconv.Quote(user.Name), strconv.Quote(user.Password), strconv.Quote(connect))
}

func (oracleDialect) QuoteIdent(name string) string { return strings.ToUpper(name) }
func (oracleDialect) Placeholder(n int) string      { return ":" + strconv.Itoa(n) }

func (oracleDialect) ExistsDatabase(string) (string, []any, bool) { return "", nil, false }
func (oracleDialect) SupportsCreateDatabase() bool                { return false }

func (oracleDialect) ExistsTable(database, table string) (string, []any) {
	if database == "" {
		return "SELECT count(*) FROM user_tables WHERE table_name = UPPER(:1)", []any{table}
	}
	return "SELECT count(*) FROM all_tables WHERE owner = UPPER(:1) AND table_name = UPPER(:2)", []any{database, table}
}

func (oracleDialect) ListTables(database string) (string, []any) {
	if database == "" {
		return "SELECT object_name, object_type FROM user_objects WHERE object_type IN ('TABLE', 'VIEW') ORDER BY object_name", nil
	}
	return "SELECT object_name, object_type FROM all_objects WHERE owner = UPPER(:1) AND object_type IN ('TABLE', 'VIEW') ORDER BY object_name", []any{database}
}

func (oracleDialect) Paginate(limit, offset int, withOffset bool) string {
	if withOffset {
		return fmt.Sprintf(" OFFSET %d ROWS FETCH NEXT %d ROWS ONLY", offset, limit)
	}
	return fmt.Sprintf(" FETCH FIRST %d ROWS ONLY", limit)
}

func (oracleDialect) ValidateFragment(fragment string) error {
	return oracleLexer.checkFragment(fragment)
}

func (d oracleDialect) ValidatePredicate(where string) error {
	if err := d.ValidateFragment(where); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPredicate, err)
	}
	return nil
}

func (d oracleDialect) ValidateReadOnly(query string) error { return validateReadOnly(d, query) }

// ErrorCode returns the ORA-nnnnn code, from godror's *OraErr when the
// driver is built in and from the message otherwise.
func (oracleDialect) ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	return oraErrorCode(err)
}

var oraCode = regexp.MustCompile(`ORA-\d{5}`)

func oraCodeFromMessage(err error) string { return oraCode.FindString(err.Error()) }
