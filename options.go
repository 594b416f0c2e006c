package tex2pdf

import (
	"log/slog"
	"time"
)

// Defaults for a Compiler created without options.
const (
	// DefaultEngine is resolved on PATH at run time.
	DefaultEngine = "pdflatex"

	// DefaultTimeout is the wall-clock budget of one engine run.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxOutputBytes caps each captured engine stream.
	DefaultMaxOutputBytes = 1 << 20

	// defaultWaitDelay bounds how long Wait lingers on pipes still held open
	// by killed descendants.
	defaultWaitDelay = 2 * time.Second

	// workspacePrefix names the per-attempt directories.
	workspacePrefix = "tex2pdf-"
)

// Option configures a Compiler.
type Option func(*Compiler)

// compilerConfig holds settings fixed at construction time.
type compilerConfig struct {
	engine      string
	timeout     time.Duration
	workDir     string
	maxOutput   int
	denylist    []string
	hasDenylist bool
}

// WithTimeout sets the deadline for each engine run.
// Must be positive; NewCompiler rejects anything else.
func WithTimeout(d time.Duration) Option {
	return func(c *Compiler) {
		c.cfg.timeout = d
	}
}

// WithEngine sets the engine binary, either a name resolved on PATH or an
// absolute path. The engine must accept pdflatex's command-line flags.
func WithEngine(name string) Option {
	return func(c *Compiler) {
		c.cfg.engine = name
	}
}

// WithDenylist replaces the default denylist. Rules are checked in order
// and the first match is reported. An empty slice disables scanning.
func WithDenylist(rules []string) Option {
	return func(c *Compiler) {
		c.cfg.denylist = rules
		c.cfg.hasDenylist = true
	}
}

// WithWorkDir sets the parent directory for workspaces.
// Empty means the system temp directory.
func WithWorkDir(dir string) Option {
	return func(c *Compiler) {
		c.cfg.workDir = dir
	}
}

// WithMaxOutputBytes caps how much of the engine's stdout and stderr is kept.
func WithMaxOutputBytes(n int) Option {
	return func(c *Compiler) {
		c.cfg.maxOutput = n
	}
}

// WithLogger sets the structured logger. Nil keeps the discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}
