package simplesql

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Record is one tuple of values for Insert, in column order.
type Record []any

// Table binds a Database to a table name. It holds no live resource.
type Table struct {
	db   *Database
	name string
}

func NewTable(db *Database, name string) (*Table, error) {
	if db == nil {
		return nil, &ConfigurationError{Field: "database", Err: errors.New("database is required")}
	}
	if err := ValidIdentifier(name); err != nil {
		return nil, err
	}
	return &Table{db: db, name: name}, nil
}

func (t *Table) Name() string        { return t.name }
func (t *Table) Database() *Database { return t.db }

// Insert writes records in one statement: a single-row INSERT for one
// record, a multi-row INSERT for several. Values are bound parameters; a
// record whose arity does not match columns is rejected by the driver. An
// empty columns list omits the column clause.
func (t *Table) Insert(ctx context.Context, conn *Conn, columns []string, records ...Record) (*Result, error) {
	server := t.db.server
	server.logger.Info("inserting", "table", t.name, "records", len(records))
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	query, args, err := t.insertSQL(columns, records)
	if err != nil {
		return nil, err
	}
	return server.Execute(ctx, conn, query, args, FetchNone, CleanupCursor)
}

func (t *Table) insertSQL(columns []string, records []Record) (string, []any, error) {
	d := t.db.server.dialect
	table, err := quoteValidated(d, t.name)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	if len(columns) > 0 {
		quoted := make([]string, len(columns))
		for i, c := range columns {
			if quoted[i], err = quoteValidated(d, c); err != nil {
				return "", nil, err
			}
		}
		b.WriteString(" (" + strings.Join(quoted, ", ") + ")")
	}
	b.WriteString(" VALUES ")

	var args []any
	for i, rec := range records {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(" + strings.Join(placeholders(d, len(args)+1, len(rec)), ", ") + ")")
		args = append(args, rec...)
	}
	return b.String(), args, nil
}

// SelectOption narrows a Select.
type SelectOption func(*selectOptions)

type selectOptions struct {
	where     string
	limit     int
	offset    int
	hasLimit  bool
	hasOffset bool
}

// Where filters rows with a raw SQL predicate such as "age<40".
func Where(predicate string) SelectOption {
	return func(o *selectOptions) { o.where = predicate }
}

// Limit caps the number of rows; n must be positive.
func Limit(n int) SelectOption {
	return func(o *selectOptions) { o.limit, o.hasLimit = n, true }
}

// Offset skips n rows; it requires Limit and n must not be negative.
func Offset(n int) SelectOption {
	return func(o *selectOptions) { o.offset, o.hasOffset = n, true }
}

// Select returns every matching row, fetched eagerly, in the database's
// default order.
func (t *Table) Select(ctx context.Context, conn *Conn, opts ...SelectOption) ([]Row, error) {
	var o selectOptions
	for _, opt := range opts {
		opt(&o)
	}
	server := t.db.server
	server.logger.Info("selecting", "table", t.name, "where", o.where, "limit", o.limit, "offset", o.offset)

	query, err := t.selectSQL(o)
	if err != nil {
		return nil, err
	}
	res, err := server.Execute(ctx, conn, query, nil, FetchAll, CleanupCursor)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

func (t *Table) selectSQL(o selectOptions) (string, error) {
	d := t.db.server.dialect
	table, err := quoteValidated(d, t.name)
	if err != nil {
		return "", err
	}

	query := "SELECT * FROM " + table
	if strings.TrimSpace(o.where) != "" {
		if err := d.ValidatePredicate(o.where); err != nil {
			return "", err
		}
		query += " WHERE " + o.where
	}

	switch {
	case o.hasLimit && o.limit <= 0:
		return "", fmt.Errorf("%w: limit %d must be positive", ErrInvalidLimit, o.limit)
	case o.hasOffset && o.offset < 0:
		return "", fmt.Errorf("%w: offset %d must not be negative", ErrInvalidLimit, o.offset)
	case o.hasOffset && !o.hasLimit:
		return "", fmt.Errorf("%w: offset requires a limit", ErrInvalidLimit)
	case o.hasLimit:
		query += d.Paginate(o.limit, o.offset, o.hasOffset)
	}
	return query, nil
}
