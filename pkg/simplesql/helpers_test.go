package simplesql

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var testUser = User{Name: "root", Password: "secret"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMockServer returns a Server whose connections all go to one sqlmock
// handle. Queries are matched exactly.
func newMockServer(t *testing.T, opts ...Option) (*Server, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	opener := func(context.Context, string, string) (*sql.DB, error) { return db, nil }
	all := append([]Option{WithOpener(opener), WithLogger(discardLogger())}, opts...)
	s, err := NewServer("localhost", 0, all...)
	require.NoError(t, err)
	return s, mock
}

func mustConnect(t *testing.T, s *Server) *Conn {
	t.Helper()
	conn, err := s.Connect(context.Background(), testUser)
	require.NoError(t, err)
	return conn
}

type recordingObserver struct {
	kinds []string
	errs  []error
}

func (r *recordingObserver) ObserveStatement(kind string, _ time.Duration, err error) {
	r.kinds = append(r.kinds, kind)
	r.errs = append(r.errs, err)
}
