// Package config loads the service configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigTooLarge  = errors.New("config file exceeds maximum size")
	ErrInvalidConfig   = errors.New("invalid config")
)

// Limits.
const (
	MaxConfigSize     = 1 << 20          // YAML input
	MaxWorkers        = 1024             // server.workers
	MaxCompileTimeout = 10 * time.Minute // compile.timeout
)

// Defaults.
const (
	DefaultListen          = "0.0.0.0:5000"
	DefaultMaxRequestBytes = 10 << 20
	DefaultQueueTimeout    = 30 * time.Second
	DefaultEngine          = "pdflatex"
	DefaultCompileTimeout  = 30 * time.Second
	DefaultMaxOutputBytes  = 1 << 20
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
)

// configDirName is the directory under os.UserConfigDir searched by name.
const configDirName = "go-tex2pdf"

// Config holds all configuration for the compile service.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Compile CompileConfig `yaml:"compile"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig defines the HTTP front end.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`          // host:port
	MaxRequestBytes int64         `yaml:"maxRequestBytes"` // /compile body limit
	Workers         int           `yaml:"workers"`         // concurrent engine runs (0 = auto)
	QueueTimeout    time.Duration `yaml:"queueTimeout"`    // wait for a free slot before 503 (0 = fail fast)
	Docs            bool          `yaml:"docs"`            // serve OpenAPI docs
}

// CompileConfig defines how the engine is invoked.
type CompileConfig struct {
	Engine         string        `yaml:"engine"`         // binary name or absolute path
	Timeout        time.Duration `yaml:"timeout"`        // hard deadline per compile
	WorkDir        string        `yaml:"workDir"`        // workspace parent (empty = system temp dir)
	MaxOutputBytes int           `yaml:"maxOutputBytes"` // stdout/stderr capture cap
	Denylist       []string      `yaml:"denylist"`       // empty = built-in list
}

// LogConfig defines structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          DefaultListen,
			MaxRequestBytes: DefaultMaxRequestBytes,
			QueueTimeout:    DefaultQueueTimeout,
			Docs:            true,
		},
		Compile: CompileConfig{
			Engine:         DefaultEngine,
			Timeout:        DefaultCompileTimeout,
			MaxOutputBytes: DefaultMaxOutputBytes,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// Validate checks ranges and enumerations.
// Called automatically by LoadConfig, but available for callers that build
// or override a Config in code (env vars, flags).
func (c *Config) Validate() error {
	if err := validateListen(c.Server.Listen); err != nil {
		return err
	}
	if c.Server.MaxRequestBytes <= 0 {
		return invalid("server.maxRequestBytes", "must be positive, got %d", c.Server.MaxRequestBytes)
	}
	if c.Server.Workers < 0 || c.Server.Workers > MaxWorkers {
		return invalid("server.workers", "must be between 0 and %d, got %d", MaxWorkers, c.Server.Workers)
	}
	if c.Server.QueueTimeout < 0 {
		return invalid("server.queueTimeout", "must not be negative, got %s", c.Server.QueueTimeout)
	}

	if strings.TrimSpace(c.Compile.Engine) == "" {
		return invalid("compile.engine", "required")
	}
	if c.Compile.Timeout <= 0 || c.Compile.Timeout > MaxCompileTimeout {
		return invalid("compile.timeout", "must be in (0, %s], got %s", MaxCompileTimeout, c.Compile.Timeout)
	}
	if c.Compile.MaxOutputBytes <= 0 {
		return invalid("compile.maxOutputBytes", "must be positive, got %d", c.Compile.MaxOutputBytes)
	}
	for i, rule := range c.Compile.Denylist {
		if strings.TrimSpace(rule) == "" {
			return invalid(fmt.Sprintf("compile.denylist[%d]", i), "must not be blank")
		}
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format", "invalid value %q (must be text or json)", c.Log.Format)
	}

	return nil
}

func validateListen(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return invalid("server.listen", "%v", err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 0 || n > 65535 {
		return invalid("server.listen", "invalid port %q", port)
	}
	return nil
}

func invalid(field, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...))
}

// ParseLevel maps a log level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, invalid("log.level", "invalid value %q (must be debug, info, warn, or error)", name)
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields absent from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is operator-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := unmarshalStrict(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// unmarshalStrict decodes YAML into cfg, rejecting unknown fields.
func unmarshalStrict(data []byte, cfg *Config) error {
	if len(data) > MaxConfigSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrConfigTooLarge, len(data), MaxConfigSize)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	return nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-tex2pdf/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, configDirName, name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
