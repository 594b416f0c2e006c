package tex2pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/alnah/go-tex2pdf/internal/workspace"
)

// Compile-time interface implementation checks.
var (
	_ engineRunner   = (*execRunner)(nil)
	_ artifactReader = (*workspace.Workspace)(nil)
)

// Compiler turns untrusted LaTeX source into a PDF.
// Create with NewCompiler and share freely: a Compiler holds no per-call
// state, and concurrent Compile calls never share a workspace or a process.
type Compiler struct {
	cfg      compilerConfig
	scanner  *Scanner
	runner   engineRunner
	logger   *slog.Logger
	lookPath func(string) (string, error)
}

// Health reports whether the engine can be started.
type Health struct {
	Engine        string
	EnginePath    string
	EnginePresent bool
}

// NewCompiler creates a Compiler with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithDenylist, WithEngine).
// Returns error if an option value is invalid.
func NewCompiler(opts ...Option) (*Compiler, error) {
	c := &Compiler{
		cfg: compilerConfig{
			engine:    DefaultEngine,
			timeout:   DefaultTimeout,
			maxOutput: DefaultMaxOutputBytes,
		},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		lookPath: exec.LookPath,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.cfg.timeout <= 0 {
		return nil, fmt.Errorf("%w: %s (must be positive)", ErrInvalidTimeout, c.cfg.timeout)
	}
	if strings.TrimSpace(c.cfg.engine) == "" {
		return nil, fmt.Errorf("%w: engine name is empty", ErrInvalidEngine)
	}
	if c.cfg.maxOutput <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxOutput, c.cfg.maxOutput)
	}

	rules := DefaultDenylist()
	if c.cfg.hasDenylist {
		rules = c.cfg.denylist
	}
	scanner, err := NewScanner(rules)
	if err != nil {
		return nil, err
	}
	c.scanner = scanner

	// Create runner if not injected (e.g., by tests)
	if c.runner == nil {
		c.runner = &execRunner{
			engine:    c.cfg.engine,
			maxOutput: c.cfg.maxOutput,
			waitDelay: defaultWaitDelay,
			logger:    c.logger,
		}
	}

	return c, nil
}

// Compile validates, scans, and compiles source, returning exactly one Outcome.
// Every failure mode is reported as data; Compile does not return errors.
// The workspace is removed before Compile returns, on every path including
// a panic in a downstream component. Only the configured timeout stops a
// running engine: cancellation of ctx is ignored, so a departed caller never
// shows up as an internal error.
func (c *Compiler) Compile(ctx context.Context, source string) (out Outcome) {
	start := time.Now()
	defer func() {
		out.Duration = time.Since(start)
	}()

	if source == "" {
		return invalidInputOutcome(ErrEmptySource)
	}

	if rule, found := c.scanner.Scan(source); found {
		c.logger.Warn("disallowed command found in input", slog.String("rule", rule))
		return rejectedOutcome(rule)
	}

	ws, err := workspace.Acquire(c.cfg.workDir, workspacePrefix)
	if err != nil {
		c.logger.Error("workspace allocation failed", slog.String("error", err.Error()))
		return internalErrorOutcome(err)
	}
	defer c.release(ws)

	// Registered after release so it runs first: the recovered outcome is in
	// place before teardown.
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("compile panicked", slog.Any("panic", r))
			out = internalErrorOutcome(fmt.Errorf("%w: %v", ErrInternal, r))
		}
	}()

	if err := ws.WriteFile(sourceFileName, []byte(source)); err != nil {
		c.logger.Error("writing source failed", slog.String("error", err.Error()))
		return internalErrorOutcome(err)
	}

	res, err := c.runner.Run(context.WithoutCancel(ctx), ws, sourceFileName, c.cfg.timeout)
	if err != nil {
		c.logger.Error("engine run failed", slog.String("error", err.Error()))
		return internalErrorOutcome(err)
	}

	c.logger.Debug("engine finished",
		slog.Int("exit_code", res.ExitCode),
		slog.Bool("timed_out", res.TimedOut),
		slog.Bool("truncated", res.Truncated),
		slog.Duration("duration", res.Duration),
	)

	out = classify(res, ws, c.cfg.timeout, c.logger)
	if out.Kind == KindInternalError {
		c.logger.Error("engine contract violation",
			slog.String("error", out.Message),
			slog.String("stderr", res.Stderr),
		)
	}
	return out
}

// release removes ws and logs, but does not surface, a teardown failure.
func (c *Compiler) release(ws *workspace.Workspace) {
	if err := ws.Release(); err != nil {
		c.logger.Warn("failed to remove workspace",
			slog.String("dir", ws.Root()),
			slog.String("error", err.Error()),
		)
	}
}

// HealthProbe reports whether the engine binary resolves on PATH.
// It neither compiles anything nor touches the workspace directory.
func (c *Compiler) HealthProbe() Health {
	h := Health{Engine: c.cfg.engine}
	path, err := c.lookPath(c.cfg.engine)
	if err != nil {
		return h
	}
	h.EnginePath = path
	h.EnginePresent = true
	return h
}

// Timeout returns the configured engine deadline.
func (c *Compiler) Timeout() time.Duration {
	return c.cfg.timeout
}

// Denylist returns a copy of the active denylist.
func (c *Compiler) Denylist() []string {
	return c.scanner.Rules()
}
