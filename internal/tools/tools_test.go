package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/AbdelilahOu/simplesql/internal/config"
	"github.com/AbdelilahOu/simplesql/internal/state"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func newDeps(t *testing.T, readOnly bool) (*Deps, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("user=root\npassword=secret\n"), 0o600))

	cfg := config.Default()
	cfg.DefaultServer = "local"
	cfg.Servers["local"] = config.Server{
		Name: "local", Driver: "mysql", Host: "localhost", Database: "test1", EnvFile: env, Description: "dev",
	}

	opener := func(context.Context, string, string) (*sql.DB, error) { return db, nil }
	return &Deps{
		Config:   cfg,
		Sessions: state.NewRegistry(),
		ReadOnly: readOnly,
		ServerOptions: []simplesql.Option{
			simplesql.WithOpener(opener),
			simplesql.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		},
	}, mock
}

func connect(t *testing.T, deps *Deps) string {
	t.Helper()
	res, out, err := connectHandler(context.Background(), nil, ConnectInput{}, deps)
	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	require.Equal(t, "mysql://localhost:3306", out.Server)
	require.Equal(t, "test1", out.Database)
	return out.SessionID
}

func TestRegisterTools(t *testing.T) {
	for _, readOnly := range []bool{false, true} {
		deps, _ := newDeps(t, readOnly)
		s := mcp.NewServer(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
		require.NotPanics(t, func() { RegisterTools(s, deps) })
	}
}

func TestSessionTools(t *testing.T) {
	ctx := context.Background()
	deps, mock := newDeps(t, false)
	id := connect(t, deps)

	_, list, err := listSessionsHandler(ctx, nil, ListSessionsInput{}, deps)
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	require.Equal(t, id, list.Sessions[0].ID)
	require.Equal(t, "test1", list.Sessions[0].Database)
	require.Equal(t, "local", list.DefaultServer)
	require.Equal(t, []ProfileInfo{{Name: "local", Driver: "mysql", Host: "localhost", Description: "dev"}}, list.Profiles)

	mock.ExpectClose()
	_, _, err = disconnectHandler(ctx, nil, DisconnectInput{SessionID: id}, deps)
	require.NoError(t, err)
	require.Zero(t, deps.Sessions.Len())
	require.NoError(t, mock.ExpectationsWereMet())

	_, _, err = disconnectHandler(ctx, nil, DisconnectInput{SessionID: id}, deps)
	require.ErrorIs(t, err, state.ErrSessionNotFound)
}

func TestTableAndRowTools(t *testing.T) {
	ctx := context.Background()
	deps, mock := newDeps(t, false)
	id := connect(t, deps)

	mock.ExpectExec("CREATE TABLE `test` (id INT AUTO_INCREMENT PRIMARY KEY, name VARCHAR(100) NOT NULL, age DECIMAL(4,1))").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT count(*) FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?").
		WithArgs("test1", "test").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(1)))
	mock.ExpectExec("INSERT INTO `test` (`name`, `age`) VALUES (?, ?), (?, ?)").
		WithArgs("Dani", int64(32), "Mama", 65.5555).
		WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectQuery("SELECT * FROM `test` WHERE age<40 LIMIT 1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).AddRow(int64(1), []byte("Dani"), []byte("32.0")))
	mock.ExpectExec("DROP TABLE IF EXISTS `test`").WillReturnResult(sqlmock.NewResult(0, 0))

	_, _, err := createTableHandler(ctx, nil, CreateTableInput{
		SessionID: id,
		Table:     "test",
		Fields:    []string{"id INT AUTO_INCREMENT PRIMARY KEY", "name VARCHAR(100) NOT NULL", "age DECIMAL(4,1)"},
	}, deps)
	require.NoError(t, err)

	_, exists, err := existsTableHandler(ctx, nil, TableInput{SessionID: id, Table: "test"}, deps)
	require.NoError(t, err)
	require.True(t, exists.Exists)

	var rows [][]any
	require.NoError(t, json.Unmarshal([]byte(`[["Dani", 32], ["Mama", 65.5555]]`), &rows))
	_, inserted, err := insertRowsHandler(ctx, nil, InsertRowsInput{
		SessionID: id,
		Table:     "test",
		Columns:   []string{"name", "age"},
		Rows:      rows,
	}, deps)
	require.NoError(t, err)
	require.EqualValues(t, 2, inserted.RowsAffected)

	res, selected, err := selectRowsHandler(ctx, nil, SelectRowsInput{SessionID: id, Table: "test", Where: "age<40", Limit: 1}, deps)
	require.NoError(t, err)
	require.Equal(t, 1, selected.Count)
	require.Equal(t, []string{"id", "name", "age"}, selected.Columns)
	require.Equal(t, "Dani", selected.Rows[0]["name"])
	require.Contains(t, res.Content[0].(*mcp.TextContent).Text, `"name":"Dani"`)

	_, _, err = dropTableHandler(ctx, nil, DropTableInput{SessionID: id, Table: "test", IfExists: true}, deps)
	require.NoError(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListTables(t *testing.T) {
	deps, mock := newDeps(t, false)
	id := connect(t, deps)

	mock.ExpectQuery("SELECT TABLE_NAME, TABLE_TYPE FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = ? ORDER BY TABLE_NAME").
		WithArgs("test1").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME", "TABLE_TYPE"}).AddRow("test", "BASE TABLE"))

	_, out, err := listTablesHandler(context.Background(), nil, ListTablesInput{SessionID: id}, deps)
	require.NoError(t, err)
	require.Equal(t, "test1", out.Database)
	require.Equal(t, []TableInfo{{Name: "test", Type: "table"}}, out.Tables)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRowsRejectsRaggedRows(t *testing.T) {
	deps, _ := newDeps(t, false)
	id := connect(t, deps)

	_, _, err := insertRowsHandler(context.Background(), nil, InsertRowsInput{
		SessionID: id,
		Table:     "test",
		Columns:   []string{"name", "age"},
		Rows:      [][]any{{"Dani"}},
	}, deps)
	require.ErrorContains(t, err, "row 0 has 1 values for 2 columns")
}

func TestSelectRowsRejectsUnsafePredicate(t *testing.T) {
	deps, _ := newDeps(t, false)
	id := connect(t, deps)

	_, _, err := selectRowsHandler(context.Background(), nil, SelectRowsInput{
		SessionID: id, Table: "test", Where: "1=1; DROP TABLE test",
	}, deps)
	require.ErrorIs(t, err, simplesql.ErrInvalidPredicate)
}

func TestDatabaseTools(t *testing.T) {
	ctx := context.Background()
	deps, mock := newDeps(t, false)
	id := connect(t, deps)

	mock.ExpectQuery("SELECT count(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?").
		WithArgs("test2").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(int64(0)))
	mock.ExpectExec("CREATE DATABASE `test2`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DROP DATABASE IF EXISTS `test2`").WillReturnResult(sqlmock.NewResult(0, 0))

	_, exists, err := existsDatabaseHandler(ctx, nil, DatabaseInput{SessionID: id, Name: "test2"}, deps)
	require.NoError(t, err)
	require.False(t, exists.Exists)

	create := GetCreateDatabaseTool(deps)
	_, out, err := create.Handler(ctx, nil, DatabaseInput{SessionID: id, Name: "test2"})
	require.NoError(t, err)
	require.EqualValues(t, 1, out.RowsAffected)

	drop := GetDropDatabaseTool(deps)
	_, _, err = drop.Handler(ctx, nil, DropDatabaseInput{SessionID: id, Name: "test2", IfExists: true})
	require.NoError(t, err)

	// The session survives database statements.
	_, err = deps.Sessions.Get(id)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteSQL(t *testing.T) {
	ctx := context.Background()
	deps, mock := newDeps(t, false)
	id := connect(t, deps)

	mock.ExpectExec("UPDATE test SET age = ? WHERE id = ?").
		WithArgs(int64(33), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT name FROM test WHERE id = ?").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow([]byte("Dani")))

	_, out, err := executeSQLHandler(ctx, nil, ExecuteSQLInput{
		SessionID: id,
		Query:     "UPDATE test SET age = ? WHERE id = ?",
		Params:    []any{float64(33), float64(1)},
	}, deps)
	require.NoError(t, err)
	require.EqualValues(t, 1, out.RowsAffected)
	require.Equal(t, "UPDATE operation completed successfully (1 rows affected)", out.Message)

	_, out, err = executeSQLHandler(ctx, nil, ExecuteSQLInput{
		SessionID: id,
		Query:     "SELECT name FROM test WHERE id = ?",
		Params:    []any{float64(1)},
		Fetch:     "one",
	}, deps)
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	require.Equal(t, "Dani", out.Rows[0]["name"])

	_, _, err = executeSQLHandler(ctx, nil, ExecuteSQLInput{SessionID: id, Query: "SELECT 1", Fetch: "cursor"}, deps)
	require.ErrorIs(t, err, simplesql.ErrInvalidFetch)

	_, _, err = executeSQLHandler(ctx, nil, ExecuteSQLInput{SessionID: id, Query: " "}, deps)
	require.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReadOnlyRejectsWrites(t *testing.T) {
	ctx := context.Background()
	deps, _ := newDeps(t, true)
	id := connect(t, deps)

	_, _, err := executeSQLHandler(ctx, nil, ExecuteSQLInput{SessionID: id, Query: "DELETE FROM test"}, deps)
	require.ErrorIs(t, err, errReadOnly)

	_, _, err = insertRowsHandler(ctx, nil, InsertRowsInput{SessionID: id, Table: "test", Rows: [][]any{{1}}}, deps)
	require.ErrorIs(t, err, errReadOnly)

	_, _, err = createTableHandler(ctx, nil, CreateTableInput{SessionID: id, Table: "t", Fields: []string{"id INT"}}, deps)
	require.ErrorIs(t, err, errReadOnly)

	_, _, err = dropTableHandler(ctx, nil, DropTableInput{SessionID: id, Table: "t"}, deps)
	require.ErrorIs(t, err, errReadOnly)
}

func TestReadOnlyRejectsStackedStatements(t *testing.T) {
	ctx := context.Background()
	deps, mock := newDeps(t, true)
	id := connect(t, deps)

	for _, q := range []string{
		"SELECT 1; DROP TABLE test",
		"SELECT 1 # trailing",
		"SELECT 1 -- trailing",
	} {
		_, _, err := executeSQLHandler(ctx, nil, ExecuteSQLInput{SessionID: id, Query: q}, deps)
		require.ErrorIs(t, err, errReadOnly, q)
	}

	_, _, err := selectRowsHandler(ctx, nil, SelectRowsInput{
		SessionID: id,
		Table:     "test",
		Where:     "name = 'x' ; DROP TABLE test",
	}, deps)
	require.ErrorIs(t, err, simplesql.ErrInvalidPredicate)

	// A trailing terminator alone is dropped.
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(int64(1)))
	_, out, err := executeSQLHandler(ctx, nil, ExecuteSQLInput{SessionID: id, Query: "SELECT 1;"}, deps)
	require.NoError(t, err)
	require.Equal(t, 1, out.Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToolsRequireSession(t *testing.T) {
	deps, _ := newDeps(t, false)

	_, _, err := selectRowsHandler(context.Background(), nil, SelectRowsInput{Table: "test"}, deps)
	require.ErrorContains(t, err, "session_id is required")

	_, _, err = existsTableHandler(context.Background(), nil, TableInput{SessionID: "nope", Table: "test"}, deps)
	require.ErrorIs(t, err, state.ErrSessionNotFound)
}

func TestJSONValue(t *testing.T) {
	require.Equal(t, int64(32), jsonValue(float64(32)))
	require.Equal(t, 65.5, jsonValue(65.5))
	require.Equal(t, "x", jsonValue("x"))
	require.Nil(t, jsonValue(nil))
}
