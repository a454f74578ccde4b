package simplesql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var testFields = []string{
	"id INT AUTO_INCREMENT PRIMARY KEY",
	"name VARCHAR(100) NOT NULL",
	"age DECIMAL(4,1)",
}

func TestNewDatabase(t *testing.T) {
	s, _ := newMockServer(t)

	_, err := NewDatabase(nil, "test1")
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)

	_, err = NewDatabase(s, "test-1")
	require.ErrorIs(t, err, ErrInvalidIdentifier)

	db, err := NewDatabase(s, "test1")
	require.NoError(t, err)
	require.Equal(t, "mysql://localhost:3306/test1", db.String())
}

func TestDatabase_TableLifecycle(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockServer(t)
	db, err := NewDatabase(s, "test1")
	require.NoError(t, err)
	conn, err := db.Connect(ctx, testUser)
	require.NoError(t, err)

	exists := "SELECT count(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?"
	mock.ExpectQuery(exists).WithArgs("test1", "test").WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(0)))
	mock.ExpectExec("DROP TABLE IF EXISTS `test`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE `test` (id INT AUTO_INCREMENT PRIMARY KEY, name VARCHAR(100) NOT NULL, age DECIMAL(4,1))").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(exists).WithArgs("test1", "test").WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(1)))
	mock.ExpectExec("DROP TABLE `test`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectClose()

	ok, err := db.ExistsTable(ctx, conn, "test")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = db.DropTable(ctx, conn, "test", true)
	require.NoError(t, err)

	_, err = db.CreateTable(ctx, conn, "test", testFields)
	require.NoError(t, err)

	ok, err = db.ExistsTable(ctx, conn, "test")
	require.NoError(t, err)
	require.True(t, ok)

	_, err = db.DropTable(ctx, conn, "test", false, WithCleanup(CleanupAll))
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_ListTables(t *testing.T) {
	ctx := context.Background()
	s, mock := newMockServer(t)
	db, err := NewDatabase(s, "test1")
	require.NoError(t, err)
	conn := mustConnect(t, s)

	mock.ExpectQuery("SELECT TABLE_NAME, TABLE_TYPE FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME").
		WithArgs("test1").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "TABLE_TYPE"}).
			AddRow([]byte("adults"), []byte("VIEW")).
			AddRow([]byte("test"), []byte("BASE TABLE")))

	tables, err := db.ListTables(ctx, conn)
	require.NoError(t, err)
	require.Equal(t, []TableInfo{{Name: "adults", Type: "view"}, {Name: "test", Type: "table"}}, tables)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_CreateTableRejectsUnsafeFields(t *testing.T) {
	s, _ := newMockServer(t)
	db, err := NewDatabase(s, "test1")
	require.NoError(t, err)
	conn := mustConnect(t, s)

	tests := map[string][]string{
		"no fields":   nil,
		"empty field": {"id INT", " "},
		"terminator":  {"id INT); DROP TABLE users; --"},
		"comment":     {"id INT /* x */"},
	}
	for name, fields := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := db.CreateTable(context.Background(), conn, "test", fields)
			require.ErrorIs(t, err, ErrInvalidField)
		})
	}

	_, err = db.CreateTable(context.Background(), conn, "te st", testFields)
	require.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestDatabase_WithConn(t *testing.T) {
	s, mock := newMockServer(t)
	db, err := NewDatabase(s, "test1")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(int64(1)))
	mock.ExpectClose()

	err = db.WithConn(context.Background(), testUser, func(conn *Conn) error {
		require.Equal(t, "test1", conn.Database())
		_, err := s.Execute(context.Background(), conn, "SELECT 1", nil, FetchOne, CleanupCursor)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
