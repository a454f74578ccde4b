package simplesql

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentifier is returned for database, table or column names
	// outside the identifier allow-list.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidPredicate is returned for WHERE predicates that contain
	// statement terminators, comments or do not parse.
	ErrInvalidPredicate = errors.New("invalid predicate")

	// ErrInvalidField is returned for empty or unsafe column definitions.
	ErrInvalidField = errors.New("invalid field definition")

	ErrInvalidFetch   = errors.New("invalid fetch mode")
	ErrInvalidCleanup = errors.New("invalid cleanup scope")
	ErrInvalidLimit   = errors.New("invalid limit or offset")

	// ErrNotReadOnly is returned by ValidateReadOnly for anything but a
	// single SELECT or SHOW statement.
	ErrNotReadOnly = errors.New("not a read-only statement")

	// ErrNoRecords is returned by Insert when called without records.
	ErrNoRecords = errors.New("no records to insert")

	// ErrUnsupported is returned when the dialect has no equivalent for an
	// operation, e.g. CREATE DATABASE on SQLite.
	ErrUnsupported = errors.New("operation not supported by dialect")
)

// ConnectionError reports a transport or authentication failure while
// opening a connection.
type ConnectionError struct {
	Host string
	Port int
	User string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s@%s:%d: %v", e.User, e.Host, e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError reports a driver failure while executing a statement. Code is
// the driver error code when the dialect can extract one.
type QueryError struct {
	Query string
	Code  string
	Err   error
}

func (e *QueryError) Error() string {
	q := e.Query
	if len(q) > 100 {
		q = q[:100] + "..."
	}
	if e.Code != "" {
		return fmt.Sprintf("query %q failed [%s]: %v", q, e.Code, e.Err)
	}
	return fmt.Sprintf("query %q failed: %v", q, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// ConfigurationError reports a missing or invalid credential or option.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration %s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }
