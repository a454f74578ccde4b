package simplesql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func newMockTable(t *testing.T, opts ...Option) (*Table, *Conn, sqlmock.Sqlmock) {
	t.Helper()
	s, mock := newMockServer(t, opts...)
	db, err := NewDatabase(s, "test1")
	require.NoError(t, err)
	table, err := db.Table("test")
	require.NoError(t, err)
	conn, err := db.Connect(context.Background(), testUser)
	require.NoError(t, err)
	return table, conn, mock
}

func TestTable_InsertSingleAndBatch(t *testing.T) {
	ctx := context.Background()
	table, conn, mock := newMockTable(t)

	mock.ExpectExec("INSERT INTO `test` (`name`, `age`) VALUES (?, ?)").
		WithArgs("Dani", int64(32)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `test` (`name`, `age`) VALUES (?, ?), (?, ?), (?, ?)").
		WithArgs("Luli", int64(31), "Oscar", int64(61), "Mama", 65.5555).
		WillReturnResult(sqlmock.NewResult(2, 3))

	columns, err := ParseFields("(name, age)")
	require.NoError(t, err)

	res, err := table.Insert(ctx, conn, columns, Record{"Dani", int64(32)})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.LastInsertID)

	res, err = table.Insert(ctx, conn, columns,
		Record{"Luli", int64(31)},
		Record{"Oscar", int64(61)},
		Record{"Mama", 65.5555},
	)
	require.NoError(t, err)
	require.EqualValues(t, 3, res.RowsAffected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_InsertPostgresPlaceholders(t *testing.T) {
	table, conn, mock := newMockTable(t, WithDialect(Postgres))

	mock.ExpectExec(`INSERT INTO "test" ("name", "age") VALUES ($1, $2), ($3, $4)`).
		WithArgs("Luli", int64(31), "Oscar", int64(61)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	_, err := table.Insert(context.Background(), conn, []string{"name", "age"},
		Record{"Luli", int64(31)}, Record{"Oscar", int64(61)})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_InsertRejects(t *testing.T) {
	table, conn, _ := newMockTable(t)

	_, err := table.Insert(context.Background(), conn, []string{"name"})
	require.ErrorIs(t, err, ErrNoRecords)

	_, err = table.Insert(context.Background(), conn, []string{"name`, `x"}, Record{"a"})
	require.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestTable_Select(t *testing.T) {
	ctx := context.Background()
	table, conn, mock := newMockTable(t)

	cols := []string{"id", "name", "age"}
	mock.ExpectQuery("SELECT * FROM `test`").WillReturnRows(sqlmock.NewRows(cols).
		AddRow(int64(1), []byte("Dani"), []byte("32.0")).
		AddRow(int64(2), []byte("Luli"), []byte("31.0")).
		AddRow(int64(3), []byte("Oscar"), []byte("61.0")).
		AddRow(int64(4), []byte("Mama"), []byte("65.6")))
	mock.ExpectQuery("SELECT * FROM `test` WHERE age<40").WillReturnRows(sqlmock.NewRows(cols).
		AddRow(int64(1), []byte("Dani"), []byte("32.0")).
		AddRow(int64(2), []byte("Luli"), []byte("31.0")))
	mock.ExpectQuery("SELECT * FROM `test` LIMIT 2 OFFSET 1").WillReturnRows(sqlmock.NewRows(cols).
		AddRow(int64(2), []byte("Luli"), []byte("31.0")).
		AddRow(int64(3), []byte("Oscar"), []byte("61.0")))
	mock.ExpectQuery("SELECT * FROM `test` WHERE id>1 LIMIT 2").WillReturnRows(sqlmock.NewRows(cols))

	rows, err := table.Select(ctx, conn)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	rows, err = table.Select(ctx, conn, Where("age<40"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	name, _ := rows[1].Get("name")
	require.Equal(t, "Luli", name)

	rows, err = table.Select(ctx, conn, Limit(2), Offset(1))
	require.NoError(t, err)
	require.Equal(t, []any{int64(2), "Luli", "31.0"}, rows[0].Values)

	rows, err = table.Select(ctx, conn, Where("id>1"), Limit(2))
	require.NoError(t, err)
	require.Empty(t, rows)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTable_SelectSQL(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		opts    []SelectOption
		want    string
		wantErr error
	}{
		{name: "plain", dialect: MySQL, want: "SELECT * FROM `test`"},
		{name: "where limit offset", dialect: MySQL, opts: []SelectOption{Where("id>1"), Limit(2), Offset(1)}, want: "SELECT * FROM `test` WHERE id>1 LIMIT 2 OFFSET 1"},
		{name: "quoted semicolon", dialect: MySQL, opts: []SelectOption{Where("name = 'a;b'")}, want: "SELECT * FROM `test` WHERE name = 'a;b'"},
		{name: "postgres", dialect: Postgres, opts: []SelectOption{Limit(5)}, want: `SELECT * FROM "test" LIMIT 5`},
		{name: "oracle paging", dialect: Oracle, opts: []SelectOption{Limit(2), Offset(1)}, want: "SELECT * FROM TEST OFFSET 1 ROWS FETCH NEXT 2 ROWS ONLY"},
		{name: "oracle limit", dialect: Oracle, opts: []SelectOption{Limit(3)}, want: "SELECT * FROM TEST FETCH FIRST 3 ROWS ONLY"},
		{name: "stacked statement", dialect: MySQL, opts: []SelectOption{Where("1=1; DROP TABLE test")}, wantErr: ErrInvalidPredicate},
		{name: "comment", dialect: Postgres, opts: []SelectOption{Where("1=1 -- ")}, wantErr: ErrInvalidPredicate},
		{name: "mysql hash comment", dialect: MySQL, opts: []SelectOption{Where("1=1 # x")}, wantErr: ErrInvalidPredicate},
		{name: "unparseable", dialect: MySQL, opts: []SelectOption{Where("age <")}, wantErr: ErrInvalidPredicate},
		{name: "zero limit", dialect: MySQL, opts: []SelectOption{Limit(0)}, wantErr: ErrInvalidLimit},
		{name: "negative offset", dialect: MySQL, opts: []SelectOption{Limit(1), Offset(-1)}, wantErr: ErrInvalidLimit},
		{name: "offset without limit", dialect: MySQL, opts: []SelectOption{Offset(1)}, wantErr: ErrInvalidLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewServer("localhost", 0, WithDialect(tt.dialect), WithLogger(discardLogger()))
			require.NoError(t, err)
			db, err := NewDatabase(s, "test1")
			require.NoError(t, err)
			table, err := NewTable(db, "test")
			require.NoError(t, err)

			var o selectOptions
			for _, opt := range tt.opts {
				opt(&o)
			}
			got, err := table.selectSQL(o)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
