package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AbdelilahOu/simplesql/internal/client"
	"github.com/AbdelilahOu/simplesql/internal/config"
	"github.com/AbdelilahOu/simplesql/internal/logger"
	"github.com/AbdelilahOu/simplesql/internal/metrics"
	"github.com/AbdelilahOu/simplesql/internal/state"
	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
	"github.com/spf13/cobra"
)

const version = "v0.1.0"

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "simplesql",
	Short: "Create, fill and query SQL databases",
	Long: `simplesql wraps MySQL, Postgres, SQLite and Oracle servers behind a small
set of helpers: databases, tables, inserts and filtered selects. The same
helpers are exposed to AI clients through an MCP stdio server.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

type globalFlags struct {
	configPath  string
	server      string
	driver      string
	host        string
	port        int
	envFile     string
	logLevel    string
	metricsAddr string
}

var flags globalFlags

// app holds what setup builds for the subcommands.
var app struct {
	cfg         *config.Config
	sessions    *state.Registry
	recorder    *metrics.Recorder
	stopMetrics context.CancelFunc
	metricsDone chan error
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", err)
		fmt.Fprintln(os.Stderr, "Error:", err)
		logger.Shutdown()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default: $SIMPLESQL_CONFIG, ~/.config/simplesql/config.yaml, ./simplesql.yaml)")
	pf.StringVarP(&flags.server, "server", "s", "", "server profile from the config file")
	pf.StringVar(&flags.driver, "driver", "", "overrides the profile driver: mysql, postgres, sqlite or oracle")
	pf.StringVar(&flags.host, "host", "", "overrides the profile host (the file path for sqlite)")
	pf.IntVar(&flags.port, "port", 0, "overrides the profile port")
	pf.StringVar(&flags.envFile, "env-file", "", "dotenv file holding USER and PASSWORD")
	pf.StringVar(&flags.logLevel, "log-level", "", "DEBUG, INFO, WARN or ERROR")
	pf.StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
}

func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if err := logger.Initialize(logger.ConfigFromLoggingConfig(cfg.Logging)); err != nil {
		return err
	}
	if cfg.Path != "" {
		logger.Debug("config loaded", "path", cfg.Path, "servers", len(cfg.Servers))
	}

	app.cfg = cfg
	app.sessions = state.NewRegistry()
	app.recorder = metrics.New(app.sessions)

	addr := flags.metricsAddr
	if addr == "" {
		addr = cfg.Metrics.Listen
	}
	if addr != "" {
		ctx, cancel := context.WithCancel(cmd.Context())
		app.stopMetrics = cancel
		app.metricsDone = make(chan error, 1)
		go func() { app.metricsDone <- app.recorder.Serve(ctx, addr) }()
		logger.Info("metrics listening", "addr", addr)
	}
	return nil
}

func teardown(*cobra.Command, []string) error {
	if app.stopMetrics != nil {
		app.stopMetrics()
		if err := <-app.metricsDone; err != nil {
			logger.Error("metrics server", err)
		}
	}
	return logger.Shutdown()
}

func loadConfig() (*config.Config, error) {
	if flags.configPath != "" {
		return config.LoadFile(flags.configPath)
	}
	return config.LoadConfig()
}

func serverOptions() []simplesql.Option {
	return []simplesql.Option{
		simplesql.WithLogger(logger.Slog()),
		simplesql.WithObserver(app.recorder),
	}
}

// resolve builds the target from the selected profile and the global
// flags. database, when set, replaces the profile database.
func resolve(database string) (*client.Target, error) {
	return client.Resolve(app.cfg, client.Options{
		Profile:  flags.server,
		Driver:   flags.driver,
		Host:     flags.host,
		Port:     flags.port,
		Database: database,
		EnvFile:  flags.envFile,
	}, serverOptions()...)
}

// resolveDatabase is resolve for commands that need a database.
func resolveDatabase(database string) (*client.Target, *simplesql.Database, error) {
	target, err := resolve(database)
	if err != nil {
		return nil, nil, err
	}
	db, err := target.DatabaseHelper()
	if err != nil {
		return nil, nil, err
	}
	if db == nil {
		return nil, nil, fmt.Errorf("no database selected: pass --database or set one on profile '%s'", target.Name)
	}
	return target, db, nil
}
