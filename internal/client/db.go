package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/AbdelilahOu/simplesql/internal/config"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
)

// EnvPrefix is used for credentials when a profile has no env_file.
const EnvPrefix = "SIMPLESQL_"

// Options override or replace a config profile. Zero values leave the
// profile value in place.
type Options struct {
	Profile  string
	Driver   string
	Host     string
	Port     int
	Database string
	EnvFile  string
}

// Target is a resolved endpoint: the Server to connect through, the
// credential to connect with and the database to select.
type Target struct {
	Name     string
	Server   *simplesql.Server
	User     simplesql.User
	Database string
}

// Resolve merges the named profile (or the default one) with opts and
// builds the Server. serverOpts are passed to simplesql.NewServer after the
// dialect.
func Resolve(cfg *config.Config, opts Options, serverOpts ...simplesql.Option) (*Target, error) {
	var srv config.Server
	if cfg != nil {
		p, ok := cfg.GetServer(opts.Profile)
		if !ok && opts.Profile != "" {
			return nil, fmt.Errorf("server profile '%s' not found in config", opts.Profile)
		}
		srv = p
	}

	name := srv.Name
	if name == "" {
		name = "flags"
	}
	override(&srv.Driver, opts.Driver)
	override(&srv.Host, opts.Host)
	override(&srv.Database, opts.Database)
	override(&srv.EnvFile, opts.EnvFile)
	if opts.Port != 0 {
		srv.Port = opts.Port
	}
	if srv.Driver == "" {
		srv.Driver = "mysql"
	}
	if srv.Host == "" {
		srv.Host = "localhost"
	}

	dialect, err := simplesql.DialectFor(srv.Driver)
	if err != nil {
		return nil, err
	}
	user, err := loadUser(srv.EnvFile, dialect)
	if err != nil {
		return nil, err
	}

	all := append([]simplesql.Option{simplesql.WithDialect(dialect)}, serverOpts...)
	server, err := simplesql.NewServer(srv.Host, srv.Port, all...)
	if err != nil {
		return nil, err
	}
	return &Target{Name: name, Server: server, User: user, Database: srv.Database}, nil
}

func override(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

// loadUser reads credentials from envFile, or from SIMPLESQL_USER and
// SIMPLESQL_PASSWORD. SQLite needs none.
func loadUser(envFile string, dialect simplesql.Dialect) (simplesql.User, error) {
	var (
		user simplesql.User
		err  error
	)
	if envFile != "" {
		user, err = simplesql.UserFromDotenv(envFile)
	} else {
		user, err = simplesql.UserFromEnv(EnvPrefix)
	}
	if err != nil && dialect == simplesql.SQLite {
		return simplesql.User{}, nil
	}
	return user, err
}

// Connect opens a connection, with the target database selected when one
// is configured.
func (t *Target) Connect(ctx context.Context) (*simplesql.Conn, error) {
	if t.Database == "" {
		return t.Server.Connect(ctx, t.User)
	}
	return t.Server.ConnectDatabase(ctx, t.User, t.Database)
}

// DatabaseHelper returns the Database for the target, or nil when none is
// configured.
func (t *Target) DatabaseHelper() (*simplesql.Database, error) {
	if t.Database == "" {
		return nil, nil
	}
	return simplesql.NewDatabase(t.Server, t.Database)
}
