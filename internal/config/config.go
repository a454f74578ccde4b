package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/AbdelilahOu/simplesql/pkg/simplesql"
)

// EnvConfigPath names an explicit config file and wins over the search path.
const EnvConfigPath = "SIMPLESQL_CONFIG"

// Server is one named database endpoint. Credentials never live here; they
// come from EnvFile or the environment.
type Server struct {
	Name        string `yaml:"-"`
	Driver      string `yaml:"driver"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Database    string `yaml:"database"`
	EnvFile     string `yaml:"env_file"`
	Description string `yaml:"description"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	OutputFile string `yaml:"output_file"`
	MaxSizeMB  int64  `yaml:"max_size_mb"`
	Console    bool   `yaml:"console"`
}

type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

type Config struct {
	Servers       map[string]Server `yaml:"servers"`
	DefaultServer string            `yaml:"default_server"`
	Logging       LoggingConfig     `yaml:"logging"`
	Metrics       MetricsConfig     `yaml:"metrics"`

	// Path is the file the config was read from, empty for defaults.
	Path string `yaml:"-"`
}

func Default() *Config {
	return &Config{
		Servers: make(map[string]Server),
		Logging: LoggingConfig{Level: "info", MaxSizeMB: 10, Console: true},
	}
}

// LoadConfig reads the first config file found on the search path. Missing
// files yield the defaults; a file that exists but does not parse or
// validate is an error.
func LoadConfig() (*Config, error) {
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return Default(), nil
}

// LoadFile reads one config file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.Path = path
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.MaxSizeMB <= 0 {
		cfg.Logging.MaxSizeMB = 10
	}
	if cfg.Servers == nil {
		cfg.Servers = make(map[string]Server)
	}

	for name, srv := range cfg.Servers {
		srv.Name = name
		if srv.EnvFile != "" && !filepath.IsAbs(srv.EnvFile) {
			srv.EnvFile = filepath.Join(filepath.Dir(path), srv.EnvFile)
		}
		if err := ValidateServer(srv); err != nil {
			return nil, fmt.Errorf("invalid server %s: %w", name, err)
		}
		cfg.Servers[name] = srv
	}
	if cfg.DefaultServer != "" {
		if _, ok := cfg.Servers[cfg.DefaultServer]; !ok {
			return nil, fmt.Errorf("default_server %q is not defined", cfg.DefaultServer)
		}
	}

	return cfg, nil
}

func (c *Config) GetServer(name string) (Server, bool) {
	if name == "" {
		name = c.DefaultServer
	}
	srv, exists := c.Servers[name]
	return srv, exists
}

// ServerNames returns the profile names in sorted order.
func (c *Config) ServerNames() []string {
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ValidateServer(srv Server) error {
	if srv.Name == "" {
		return fmt.Errorf("server name is required")
	}
	if srv.Driver == "" {
		return fmt.Errorf("driver is required")
	}
	if _, err := simplesql.DialectFor(srv.Driver); err != nil {
		return fmt.Errorf("driver %q is not supported: %w", srv.Driver, err)
	}
	if srv.Host == "" {
		return fmt.Errorf("host is required")
	}
	if srv.Port < 0 || srv.Port > 65535 {
		return fmt.Errorf("port %d out of range", srv.Port)
	}
	return nil
}

func getConfigPaths() []string {
	var paths []string

	if explicit := os.Getenv(EnvConfigPath); explicit != "" {
		paths = append(paths, explicit)
	}

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			paths = append(paths, filepath.Join(appData, "simplesql", "config.yaml"))
		}
	default:
		homeDir := os.Getenv("HOME")
		if homeDir != "" {
			paths = append(paths, filepath.Join(homeDir, ".config", "simplesql", "config.yaml"))
		}
	}

	if pwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(pwd, "simplesql.yaml"))
	}

	return paths
}
