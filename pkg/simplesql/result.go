package simplesql

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Fetch selects what Execute hands back.
type Fetch int

const (
	FetchNone Fetch = iota
	FetchCursor
	FetchOne
	FetchAll
)

var fetchNames = map[Fetch]string{
	FetchNone:   "none",
	FetchCursor: "cursor",
	FetchOne:    "one",
	FetchAll:    "all",
}

func (f Fetch) String() string {
	if name, ok := fetchNames[f]; ok {
		return name
	}
	return "Fetch(" + strconv.Itoa(int(f)) + ")"
}

// ParseFetch accepts none, cursor, one and all, plus the aliases
// get_cursor, fetchone and fetchall.
func ParseFetch(s string) (Fetch, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return FetchNone, nil
	case "cursor", "get_cursor":
		return FetchCursor, nil
	case "one", "fetchone":
		return FetchOne, nil
	case "all", "fetchall":
		return FetchAll, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidFetch, s)
}

// Cleanup selects what Execute releases once the statement has run.
type Cleanup int

const (
	CleanupNone Cleanup = iota
	CleanupCursor
	CleanupAll
)

var cleanupNames = map[Cleanup]string{
	CleanupNone:   "none",
	CleanupCursor: "cursor",
	CleanupAll:    "all",
}

func (c Cleanup) String() string {
	if name, ok := cleanupNames[c]; ok {
		return name
	}
	return "Cleanup(" + strconv.Itoa(int(c)) + ")"
}

func ParseCleanup(s string) (Cleanup, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CleanupNone, nil
	case "cursor":
		return CleanupCursor, nil
	case "all":
		return CleanupAll, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCleanup, s)
}

// Conn is a single driver session. It is not safe for concurrent use and
// nothing in this package closes it unless asked to by a Cleanup scope.
type Conn struct {
	id       uuid.UUID
	database string
	db       *sqlx.DB
	conn     *sqlx.Conn
}

func (c *Conn) ID() uuid.UUID { return c.id }

// Database is the database the connection was opened against, or "".
func (c *Conn) Database() string { return c.database }

// Close releases the session and its driver handle.
func (c *Conn) Close() error {
	return errors.Join(c.conn.Close(), c.db.Close())
}

// Row is one result row. Driver byte slices are converted to strings.
type Row struct {
	Columns []string
	Values  []any
}

func newRow(columns []string, values []any) Row {
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return Row{Columns: columns, Values: values}
}

// Get returns the value of column, matched case-insensitively.
func (r Row) Get(column string) (any, bool) {
	for i, c := range r.Columns {
		if strings.EqualFold(c, column) {
			return r.Values[i], true
		}
	}
	return nil, false
}

func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		m[c] = r.Values[i]
	}
	return m
}

// Cursor streams rows of a FetchCursor result. Close must be called; when
// the statement ran with CleanupAll it also closes the connection.
type Cursor struct {
	rows      *sqlx.Rows
	columns   []string
	conn      *Conn
	closeConn bool
}

func newCursor(rows *sqlx.Rows, conn *Conn, closeConn bool) (*Cursor, error) {
	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, err
	}
	return &Cursor{rows: rows, columns: columns, conn: conn, closeConn: closeConn}, nil
}

func (c *Cursor) Columns() []string { return c.columns }

// FetchOne returns the next row, or nil once the cursor is exhausted.
func (c *Cursor) FetchOne() (*Row, error) {
	if !c.rows.Next() {
		return nil, c.rows.Err()
	}
	values, err := c.rows.SliceScan()
	if err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}
	row := newRow(c.columns, values)
	return &row, nil
}

// FetchAll drains the remaining rows.
func (c *Cursor) FetchAll() ([]Row, error) {
	rows := []Row{}
	for {
		row, err := c.FetchOne()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return rows, nil
		}
		rows = append(rows, *row)
	}
}

func (c *Cursor) Close() error {
	err := c.rows.Close()
	if c.closeConn {
		err = errors.Join(err, c.conn.Close())
	}
	return err
}

// Result is tagged by Fetch: Cursor is set for FetchCursor, Row for
// FetchOne (nil when the statement returned no rows), Rows for FetchAll.
// RowsAffected and LastInsertID are only filled for FetchNone and stay zero
// when the driver does not report them.
type Result struct {
	Fetch        Fetch
	Cursor       *Cursor
	Row          *Row
	Rows         []Row
	RowsAffected int64
	LastInsertID int64
}

// ToInt64 converts a scanned or decoded number to int64. Floats and numeric
// strings are accepted only when they hold a whole value.
func ToInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	case float64:
		return wholeFloat(n)
	case float32:
		return wholeFloat(float64(n))
	case json.Number:
		return parseInt(n.String())
	case string:
		return parseInt(n)
	case []byte:
		return parseInt(string(n))
	case fmt.Stringer:
		return parseInt(n.String())
	}
	return 0, fmt.Errorf("unexpected integer type %T", v)
}

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i, nil
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil {
		return 0, err
	}
	return wholeFloat(f)
}

func wholeFloat(f float64) (int64, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%v is not a whole number", f)
	}
	return int64(f), nil
}
