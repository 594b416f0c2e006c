package main

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-tex2pdf/internal/config"
)

// envPrefix marks variables owned by tex2pdf.
const envPrefix = "TEX2PDF_"

// legacyPortVar is honored for deployments that predate TEX2PDF_PORT.
const legacyPortVar = "PDFTOLATEX_PORT"

// envConfig holds configuration from environment variables.
// Provides container-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string        // TEX2PDF_CONFIG: config file name or path
	Listen     string        // TEX2PDF_LISTEN: host:port
	Port       string        // TEX2PDF_PORT or PDFTOLATEX_PORT: port on the configured host
	Engine     string        // TEX2PDF_ENGINE: engine binary
	Timeout    time.Duration // TEX2PDF_TIMEOUT: compile deadline
	Workers    int           // TEX2PDF_WORKERS: concurrent engine runs
	WorkDir    string        // TEX2PDF_WORKDIR: workspace parent
	LogLevel   string        // TEX2PDF_LOG_LEVEL: debug, info, warn, error
	LogFormat  string        // TEX2PDF_LOG_FORMAT: text, json

	// Warnings collects values that were set but could not be parsed.
	Warnings []string
}

// knownEnvVars lists valid TEX2PDF_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"TEX2PDF_CONFIG":     true,
	"TEX2PDF_LISTEN":     true,
	"TEX2PDF_PORT":       true,
	"TEX2PDF_ENGINE":     true,
	"TEX2PDF_TIMEOUT":    true,
	"TEX2PDF_WORKERS":    true,
	"TEX2PDF_WORKDIR":    true,
	"TEX2PDF_LOG_LEVEL":  true,
	"TEX2PDF_LOG_FORMAT": true,
	"TEX2PDF_CONTAINER":  true, // read by doctor
}

// loadEnvConfig reads configuration through getenv.
// Unparseable numeric values are ignored and reported in Warnings.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("TEX2PDF_CONFIG"),
		Listen:     getenv("TEX2PDF_LISTEN"),
		Engine:     getenv("TEX2PDF_ENGINE"),
		WorkDir:    getenv("TEX2PDF_WORKDIR"),
		LogLevel:   getenv("TEX2PDF_LOG_LEVEL"),
		LogFormat:  getenv("TEX2PDF_LOG_FORMAT"),
	}

	for _, name := range []string{"TEX2PDF_PORT", legacyPortVar} {
		v := getenv(name)
		if v == "" {
			continue
		}
		if p, err := strconv.Atoi(v); err != nil || p < 0 || p > 65535 {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring %s=%q: not a port number", name, v))
			continue
		}
		cfg.Port = v
		break
	}

	if v := getenv("TEX2PDF_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.Timeout = d
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring TEX2PDF_TIMEOUT=%q: want a positive duration such as 30s", v))
		}
	}

	if v := getenv("TEX2PDF_WORKERS"); v != "" {
		if w, err := strconv.Atoi(v); err == nil && w > 0 {
			cfg.Workers = w
		} else {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("ignoring TEX2PDF_WORKERS=%q: want a positive integer", v))
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized TEX2PDF_* variables
// and for values loadEnvConfig could not parse.
func warnUnknownEnvVars(w io.Writer, environ []string, env *envConfig) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
	for _, msg := range env.Warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
}

// applyEnvConfig applies environment variable values over the loaded config.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later by each command).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Listen != "" {
		cfg.Server.Listen = env.Listen
	}
	if env.Port != "" {
		cfg.Server.Listen = withPort(cfg.Server.Listen, env.Port)
	}
	if env.Engine != "" {
		cfg.Compile.Engine = env.Engine
	}
	if env.Timeout > 0 {
		cfg.Compile.Timeout = env.Timeout
	}
	if env.Workers > 0 {
		cfg.Server.Workers = env.Workers
	}
	if env.WorkDir != "" {
		cfg.Compile.WorkDir = env.WorkDir
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
}

// withPort replaces the port of listen, keeping its host.
// A listen address without a usable host falls back to all interfaces.
func withPort(listen, port string) string {
	host, _, err := net.SplitHostPort(listen)
	if err != nil {
		host = "0.0.0.0"
	}
	return net.JoinHostPort(host, port)
}
