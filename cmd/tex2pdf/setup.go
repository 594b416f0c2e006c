package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-tex2pdf"
	"github.com/alnah/go-tex2pdf/internal/config"
	"github.com/alnah/go-tex2pdf/internal/hints"
)

// resolveConfig merges defaults, the config file, environment, and common
// flags, in increasing order of precedence. Callers apply their own flags
// and then call Validate.
func resolveConfig(f *commonFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ(), envCfg)

	name := f.config
	if name == "" {
		name = envCfg.ConfigPath
	}

	cfg := config.DefaultConfig()
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) {
				return nil, fmt.Errorf("%w%s", err, hints.ForConfigNotFound(configCandidates(name)))
			}
			return nil, err
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	applyCommonFlags(f, cfg)
	return cfg, nil
}

// applyCommonFlags overrides cfg with flags that were set.
func applyCommonFlags(f *commonFlags, cfg *config.Config) {
	if f.engine != "" {
		cfg.Compile.Engine = f.engine
	}
	if f.workDir != "" {
		cfg.Compile.WorkDir = f.workDir
	}
	if f.timeout != 0 {
		cfg.Compile.Timeout = f.timeout
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Log.Format = f.logFormat
	}
	// --verbose and --quiet win over any configured level.
	switch {
	case f.verbose:
		cfg.Log.Level = "debug"
	case f.quiet:
		cfg.Log.Level = "error"
	}
}

// configCandidates lists where a config name is looked up, for hints.
func configCandidates(name string) []string {
	if strings.ContainsAny(name, `/\`) {
		return nil
	}
	paths := []string{name + ".yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "go-tex2pdf", name+".yaml"))
	}
	return paths
}

// compilerOptions maps validated configuration to library options.
func compilerOptions(cc config.CompileConfig, logger *slog.Logger) []tex2pdf.Option {
	opts := []tex2pdf.Option{
		tex2pdf.WithEngine(cc.Engine),
		tex2pdf.WithTimeout(cc.Timeout),
		tex2pdf.WithWorkDir(cc.WorkDir),
		tex2pdf.WithMaxOutputBytes(cc.MaxOutputBytes),
		tex2pdf.WithLogger(logger),
	}
	if len(cc.Denylist) > 0 {
		opts = append(opts, tex2pdf.WithDenylist(cc.Denylist))
	}
	return opts
}
