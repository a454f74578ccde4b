package simplesql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Opener opens the driver handle for a DSN. The default is sql.Open.
type Opener func(ctx context.Context, driverName, dsn string) (*sql.DB, error)

// Observer receives one call per executed statement.
type Observer interface {
	ObserveStatement(kind string, elapsed time.Duration, err error)
}

type Option func(*Server)

func WithDialect(d Dialect) Option { return func(s *Server) { s.dialect = d } }

func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.logger = l } }

func WithObserver(o Observer) Option { return func(s *Server) { s.observer = o } }

func WithOpener(o Opener) Option { return func(s *Server) { s.opener = o } }

func WithConnMaxLifetime(d time.Duration) Option {
	return func(s *Server) { s.connMaxLifetime = d }
}

// Server is the connection factory for one endpoint. It is immutable and
// safe to share; the connections it opens are not.
type Server struct {
	endpoint        Endpoint
	dialect         Dialect
	logger          *slog.Logger
	observer        Observer
	opener          Opener
	connMaxLifetime time.Duration
}

// NewServer binds host and port. A zero port selects the dialect default.
func NewServer(host string, port int, opts ...Option) (*Server, error) {
	s := &Server{
		dialect:         MySQL,
		logger:          slog.Default(),
		opener:          openDB,
		connMaxLifetime: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}

	if strings.TrimSpace(host) == "" {
		return nil, &ConfigurationError{Field: "host", Err: errors.New("host is required")}
	}
	if port < 0 || port > 65535 {
		return nil, &ConfigurationError{Field: "port", Err: fmt.Errorf("port %d out of range", port)}
	}
	if port == 0 {
		port = s.dialect.DefaultPort()
	}
	s.endpoint = Endpoint{Host: host, Port: port}

	s.logger.Info("new server", "host", host, "port", port, "dialect", s.dialect.Name())
	return s, nil
}

func openDB(_ context.Context, driverName, dsn string) (*sql.DB, error) {
	return sql.Open(driverName, dsn)
}

func (s *Server) Endpoint() Endpoint { return s.endpoint }
func (s *Server) Dialect() Dialect   { return s.dialect }

func (s *Server) String() string {
	return fmt.Sprintf("%s://%s:%d", s.dialect.Name(), s.endpoint.Host, s.endpoint.Port)
}

// Connect opens a connection with no database selected.
func (s *Server) Connect(ctx context.Context, user User) (*Conn, error) {
	return s.ConnectDatabase(ctx, user, "")
}

// ConnectDatabase opens a connection bound to database. Open, session
// acquisition and ping failures are reported as *ConnectionError.
func (s *Server) ConnectDatabase(ctx context.Context, user User, database string) (*Conn, error) {
	s.logger.Info("connecting", "server", s.String(), "user", user.Name, "database", database)

	connErr := func(err error) error {
		return &ConnectionError{Host: s.endpoint.Host, Port: s.endpoint.Port, User: user.Name, Err: err}
	}

	dsn := s.dialect.DSN(s.endpoint, user, database)
	db, err := s.opener(ctx, s.dialect.DriverName(), dsn)
	if err != nil {
		return nil, connErr(fmt.Errorf("open %s: %w", s.dialect.DriverName(), err))
	}

	// One pinned session per Conn; this is not a pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(s.connMaxLifetime)

	xdb := sqlx.NewDb(db, s.dialect.DriverName())
	xconn, err := xdb.Connx(ctx)
	if err != nil {
		xdb.Close()
		return nil, connErr(err)
	}
	if err := xconn.PingContext(ctx); err != nil {
		xconn.Close()
		xdb.Close()
		return nil, connErr(fmt.Errorf("ping %s: %w", s.dialect.DriverName(), err))
	}

	conn := &Conn{id: uuid.New(), database: database, db: xdb, conn: xconn}
	s.logger.Debug("connected", "conn", conn.id.String(), "server", s.String())
	return conn, nil
}

// WithConn opens a connection, runs fn and closes the connection on every
// exit path.
func (s *Server) WithConn(ctx context.Context, user User, fn func(*Conn) error) error {
	return withConn(func() (*Conn, error) { return s.Connect(ctx, user) }, fn)
}

func withConn(open func() (*Conn, error), fn func(*Conn) error) (err error) {
	conn, err := open()
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, conn.Close())
	}()
	return fn(conn)
}

// Execute runs query with params on conn. fetch selects the result shape
// and cleanup what gets released afterwards. With FetchCursor the cleanup is
// deferred to Cursor.Close. Otherwise the driver cursor is always released
// and CleanupAll also closes conn, whether or not the statement failed.
func (s *Server) Execute(ctx context.Context, conn *Conn, query string, params []any, fetch Fetch, cleanup Cleanup) (res *Result, err error) {
	if _, ok := fetchNames[fetch]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFetch, int(fetch))
	}
	if _, ok := cleanupNames[cleanup]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCleanup, int(cleanup))
	}

	kind := StatementKind(query)
	start := time.Now()
	s.logger.Debug("executing", "conn", conn.id.String(), "kind", kind, "fetch", fetch.String(), "cleanup", cleanup.String())

	defer func() {
		elapsed := time.Since(start)
		if s.observer != nil {
			s.observer.ObserveStatement(kind, elapsed, err)
		}
		if err != nil {
			s.logger.Error("statement failed", "conn", conn.id.String(), "kind", kind, "error", err)
		} else {
			s.logger.Debug("statement done", "conn", conn.id.String(), "kind", kind, "elapsed", elapsed)
		}
	}()

	if fetch == FetchCursor {
		rows, qerr := conn.conn.QueryxContext(ctx, query, params...)
		if qerr != nil {
			return nil, s.finish(conn, cleanup, s.queryError(query, qerr))
		}
		cur, cerr := newCursor(rows, conn, cleanup == CleanupAll)
		if cerr != nil {
			return nil, s.finish(conn, cleanup, s.queryError(query, cerr))
		}
		return &Result{Fetch: fetch, Cursor: cur}, nil
	}

	res, err = s.run(ctx, conn, query, params, fetch)
	return res, s.finish(conn, cleanup, err)
}

func (s *Server) run(ctx context.Context, conn *Conn, query string, params []any, fetch Fetch) (*Result, error) {
	res := &Result{Fetch: fetch}

	if fetch == FetchNone {
		r, err := conn.conn.ExecContext(ctx, query, params...)
		if err != nil {
			return nil, s.queryError(query, err)
		}
		// Not every driver reports these; zero is fine.
		res.RowsAffected, _ = r.RowsAffected()
		res.LastInsertID, _ = r.LastInsertId()
		return res, nil
	}

	rows, err := conn.conn.QueryxContext(ctx, query, params...)
	if err != nil {
		return nil, s.queryError(query, err)
	}
	cur, err := newCursor(rows, conn, false)
	if err != nil {
		return nil, s.queryError(query, err)
	}
	defer cur.Close()

	switch fetch {
	case FetchOne:
		res.Row, err = cur.FetchOne()
	case FetchAll:
		res.Rows, err = cur.FetchAll()
	}
	if err != nil {
		return nil, s.queryError(query, err)
	}
	return res, nil
}

// finish applies the connection part of cleanup and folds its error into err.
func (s *Server) finish(conn *Conn, cleanup Cleanup, err error) error {
	if cleanup != CleanupAll {
		return err
	}
	s.logger.Debug("closing connection", "conn", conn.id.String())
	if cerr := conn.Close(); cerr != nil {
		return errors.Join(err, fmt.Errorf("close connection: %w", cerr))
	}
	return err
}

func (s *Server) queryError(query string, err error) error {
	return &QueryError{Query: query, Code: s.dialect.ErrorCode(err), Err: err}
}

// count runs a single-value count query and reports whether it is positive.
func (s *Server) count(ctx context.Context, conn *Conn, query string, args []any) (bool, error) {
	res, err := s.Execute(ctx, conn, query, args, FetchOne, CleanupCursor)
	if err != nil {
		return false, err
	}
	if res.Row == nil || len(res.Row.Values) == 0 {
		return false, nil
	}
	n, err := ToInt64(res.Row.Values[0])
	if err != nil {
		return false, s.queryError(query, err)
	}
	return n > 0, nil
}

// ExistsDatabase reports whether the catalog lists a database called name.
func (s *Server) ExistsDatabase(ctx context.Context, conn *Conn, name string) (bool, error) {
	s.logger.Info("checking database", "database", name)
	query, args, ok := s.dialect.ExistsDatabase(name)
	if !ok {
		return false, fmt.Errorf("exists database on %s: %w", s.dialect.Name(), ErrUnsupported)
	}
	exists, err := s.count(ctx, conn, query, args)
	if err != nil {
		return false, err
	}
	s.logger.Debug("database exists", "database", name, "exists", exists)
	return exists, nil
}

// CreateDatabase runs CREATE DATABASE. Defaults: FetchNone, CleanupAll.
func (s *Server) CreateDatabase(ctx context.Context, conn *Conn, name string, opts ...ExecOption) (*Result, error) {
	s.logger.Info("creating database", "database", name)
	if !s.dialect.SupportsCreateDatabase() {
		return nil, fmt.Errorf("create database on %s: %w", s.dialect.Name(), ErrUnsupported)
	}
	quoted, err := quoteValidated(s.dialect, name)
	if err != nil {
		return nil, err
	}
	o := applyExecOptions(FetchNone, CleanupAll, opts)
	return s.Execute(ctx, conn, "CREATE DATABASE "+quoted, nil, o.fetch, o.cleanup)
}

// DropDatabase runs DROP DATABASE [IF EXISTS]. Defaults: FetchNone,
// CleanupAll.
func (s *Server) DropDatabase(ctx context.Context, conn *Conn, name string, ifExists bool, opts ...ExecOption) (*Result, error) {
	s.logger.Info("dropping database", "database", name, "if_exists", ifExists)
	if !s.dialect.SupportsCreateDatabase() {
		return nil, fmt.Errorf("drop database on %s: %w", s.dialect.Name(), ErrUnsupported)
	}
	quoted, err := quoteValidated(s.dialect, name)
	if err != nil {
		return nil, err
	}
	query := "DROP DATABASE " + quoted
	if ifExists {
		query = "DROP DATABASE IF EXISTS " + quoted
	}
	o := applyExecOptions(FetchNone, CleanupAll, opts)
	return s.Execute(ctx, conn, query, nil, o.fetch, o.cleanup)
}

// ExecOption overrides the fetch mode or cleanup scope of a helper.
type ExecOption func(*execOptions)

type execOptions struct {
	fetch   Fetch
	cleanup Cleanup
}

func WithFetch(f Fetch) ExecOption { return func(o *execOptions) { o.fetch = f } }

func WithCleanup(c Cleanup) ExecOption { return func(o *execOptions) { o.cleanup = c } }

func applyExecOptions(fetch Fetch, cleanup Cleanup, opts []ExecOption) execOptions {
	o := execOptions{fetch: fetch, cleanup: cleanup}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

var statementKinds = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP", "SHOW", "WITH"}

// StatementKind classifies a statement by its first keyword: SELECT, INSERT,
// UPDATE, DELETE, CREATE, ALTER, DROP, SHOW, WITH, or QUERY for anything
// else.
func StatementKind(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "QUERY"
	}
	first := strings.ToUpper(fields[0])
	for _, k := range statementKinds {
		if first == k {
			return k
		}
	}
	return "QUERY"
}
