package tex2pdf

// Notes:
// - The engine is replaced by mockRunner, which writes artifacts straight
//   into the workspace the way a real engine would.
// - Every test that reaches the runner uses WithWorkDir(t.TempDir()) so
//   leftover workspaces can be detected by listing the directory.
// - The exec-backed runner is covered in runner_unix_test.go; the real
//   engine in compiler_integration_test.go.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alnah/go-tex2pdf/internal/workspace"
)

const sampleDocument = `\documentclass{article}
\begin{document}
Hello, world.
\end{document}
`

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

// withRunner injects a custom engine runner (for testing).
func withRunner(r engineRunner) Option {
	return func(c *Compiler) {
		c.runner = r
	}
}

// withLookPath replaces PATH resolution (for testing).
func withLookPath(fn func(string) (string, error)) Option {
	return func(c *Compiler) {
		c.lookPath = fn
	}
}

type mockRunner struct {
	calls atomic.Int32
	fn    func(ctx context.Context, ws *workspace.Workspace, sourceName string, deadline time.Duration) (*ProcessResult, error)
}

func (m *mockRunner) Run(ctx context.Context, ws *workspace.Workspace, sourceName string, deadline time.Duration) (*ProcessResult, error) {
	m.calls.Add(1)
	return m.fn(ctx, ws, sourceName, deadline)
}

// producePDF returns a runner behaving like a successful engine run.
func producePDF(body string) *mockRunner {
	return &mockRunner{fn: func(_ context.Context, ws *workspace.Workspace, _ string, _ time.Duration) (*ProcessResult, error) {
		if err := ws.WriteFile(outputFileName, []byte(body)); err != nil {
			return nil, err
		}
		return &ProcessResult{ExitCode: 0}, nil
	}}
}

func newTestCompiler(t *testing.T, dir string, opts ...Option) *Compiler {
	t.Helper()
	base := []Option{WithWorkDir(dir)}
	c, err := NewCompiler(append(base, opts...)...)
	if err != nil {
		t.Fatalf("NewCompiler() error = %v", err)
	}
	return c
}

func assertNoWorkspaces(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		t.Errorf("leftover workspace entry: %s", e.Name())
	}
}

// ---------------------------------------------------------------------------
// TestNewCompiler - Construction and validation
// ---------------------------------------------------------------------------

func TestNewCompiler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{name: "defaults", opts: nil, wantErr: nil},
		{name: "custom timeout", opts: []Option{WithTimeout(5 * time.Second)}, wantErr: nil},
		{name: "zero timeout", opts: []Option{WithTimeout(0)}, wantErr: ErrInvalidTimeout},
		{name: "negative timeout", opts: []Option{WithTimeout(-time.Second)}, wantErr: ErrInvalidTimeout},
		{name: "blank engine", opts: []Option{WithEngine("  ")}, wantErr: ErrInvalidEngine},
		{name: "zero max output", opts: []Option{WithMaxOutputBytes(0)}, wantErr: ErrInvalidMaxOutput},
		{name: "empty rule in denylist", opts: []Option{WithDenylist([]string{`\input`, ""})}, wantErr: ErrInvalidDenylist},
		{name: "empty denylist allowed", opts: []Option{WithDenylist([]string{})}, wantErr: nil},
		{name: "nil logger ignored", opts: []Option{WithLogger(nil)}, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := NewCompiler(tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewCompiler() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && c == nil {
				t.Fatal("NewCompiler() returned nil compiler")
			}
		})
	}
}

func TestNewCompiler_Defaults(t *testing.T) {
	t.Parallel()

	c, err := NewCompiler()
	if err != nil {
		t.Fatalf("NewCompiler() error = %v", err)
	}
	if c.Timeout() != DefaultTimeout {
		t.Errorf("Timeout() = %v, want %v", c.Timeout(), DefaultTimeout)
	}
	if got, want := c.Denylist(), DefaultDenylist(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Denylist() = %v, want %v", got, want)
	}
	if _, ok := c.runner.(*execRunner); !ok {
		t.Errorf("runner = %T, want *execRunner", c.runner)
	}
}

func TestNewCompiler_EmptyDenylistDisablesScan(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	c := newTestCompiler(t, dir, WithDenylist(nil), withRunner(producePDF("%PDF")))

	out := c.Compile(context.Background(), `\input{x}`)
	if out.Kind != KindSuccess {
		t.Errorf("Kind = %s, want %s", out.Kind, KindSuccess)
	}
}

// ---------------------------------------------------------------------------
// TestCompile - Outcome per path
// ---------------------------------------------------------------------------

func TestCompile_EmptySource(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := producePDF("%PDF")
	c := newTestCompiler(t, dir, withRunner(runner))

	out := c.Compile(context.Background(), "")

	if out.Kind != KindInvalidInput {
		t.Errorf("Kind = %s, want %s", out.Kind, KindInvalidInput)
	}
	if !errors.Is(out.AsError(), ErrEmptySource) {
		t.Errorf("AsError() = %v, want %v", out.AsError(), ErrEmptySource)
	}
	if runner.calls.Load() != 0 {
		t.Errorf("runner called %d times, want 0", runner.calls.Load())
	}
	assertNoWorkspaces(t, dir)
}

func TestCompile_WhitespaceSourceIsCompiled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := producePDF("%PDF")
	c := newTestCompiler(t, dir, withRunner(runner))

	c.Compile(context.Background(), "   \n")

	if runner.calls.Load() != 1 {
		t.Errorf("runner called %d times, want 1", runner.calls.Load())
	}
}

func TestCompile_Rejected(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := producePDF("%PDF")
	c := newTestCompiler(t, dir, withRunner(runner))

	out := c.Compile(context.Background(), `\immediate\write18{rm -rf /}`)

	if out.Kind != KindSecurityRejected {
		t.Fatalf("Kind = %s, want %s", out.Kind, KindSecurityRejected)
	}
	if out.Rule != `\write18` {
		t.Errorf("Rule = %q, want %q", out.Rule, `\write18`)
	}
	if runner.calls.Load() != 0 {
		t.Errorf("runner called %d times, want 0", runner.calls.Load())
	}
	assertNoWorkspaces(t, dir)
}

func TestCompile_Success(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var seenSource string
	runner := &mockRunner{fn: func(_ context.Context, ws *workspace.Workspace, name string, deadline time.Duration) (*ProcessResult, error) {
		data, ok, err := ws.ReadOptional(name)
		if err != nil || !ok {
			t.Errorf("source not in workspace: ok=%v err=%v", ok, err)
		}
		seenSource = string(data)
		if deadline != 7*time.Second {
			t.Errorf("deadline = %v, want 7s", deadline)
		}
		if err := ws.WriteFile(outputFileName, []byte("%PDF-1.5 hello")); err != nil {
			return nil, err
		}
		return &ProcessResult{ExitCode: 0}, nil
	}}
	c := newTestCompiler(t, dir, WithTimeout(7*time.Second), withRunner(runner))

	out := c.Compile(context.Background(), sampleDocument)

	if out.Kind != KindSuccess {
		t.Fatalf("Kind = %s, want %s (err: %v)", out.Kind, KindSuccess, out.AsError())
	}
	if string(out.PDF) != "%PDF-1.5 hello" {
		t.Errorf("PDF = %q", out.PDF)
	}
	if seenSource != sampleDocument {
		t.Errorf("engine saw source %q, want %q", seenSource, sampleDocument)
	}
	if out.Duration <= 0 {
		t.Errorf("Duration = %v, want positive", out.Duration)
	}
	assertNoWorkspaces(t, dir)
}

func TestCompile_IgnoresCallerCancellation(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := &mockRunner{fn: func(ctx context.Context, ws *workspace.Workspace, _ string, _ time.Duration) (*ProcessResult, error) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("engine run aborted: %w", err)
		}
		if err := ws.WriteFile(outputFileName, []byte("%PDF-1.5 hello")); err != nil {
			return nil, err
		}
		return &ProcessResult{ExitCode: 0}, nil
	}}
	c := newTestCompiler(t, dir, withRunner(runner))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := c.Compile(ctx, sampleDocument)

	if out.Kind != KindSuccess {
		t.Fatalf("Kind = %s, want %s (err: %v)", out.Kind, KindSuccess, out.AsError())
	}
	assertNoWorkspaces(t, dir)
}

func TestCompile_CompileFailed(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	const log = "! Undefined control sequence.\nl.3 \\foo"
	runner := &mockRunner{fn: func(_ context.Context, ws *workspace.Workspace, _ string, _ time.Duration) (*ProcessResult, error) {
		if err := ws.WriteFile(logFileName, []byte(log)); err != nil {
			return nil, err
		}
		return &ProcessResult{ExitCode: 1}, nil
	}}
	c := newTestCompiler(t, dir, withRunner(runner))

	out := c.Compile(context.Background(), `\documentclass{article}\begin{document}\foo\end{document}`)

	if out.Kind != KindCompileFailed {
		t.Fatalf("Kind = %s, want %s", out.Kind, KindCompileFailed)
	}
	if out.Log != log {
		t.Errorf("Log = %q, want %q", out.Log, log)
	}
	assertNoWorkspaces(t, dir)
}

func TestCompile_TimedOut(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := &mockRunner{fn: func(context.Context, *workspace.Workspace, string, time.Duration) (*ProcessResult, error) {
		return &ProcessResult{TimedOut: true, ExitCode: -1}, nil
	}}
	c := newTestCompiler(t, dir, WithTimeout(3*time.Second), withRunner(runner))

	out := c.Compile(context.Background(), sampleDocument)

	if out.Kind != KindTimedOut {
		t.Fatalf("Kind = %s, want %s", out.Kind, KindTimedOut)
	}
	if out.Limit != 3*time.Second {
		t.Errorf("Limit = %v, want 3s", out.Limit)
	}
	assertNoWorkspaces(t, dir)
}

func TestCompile_MissingArtifact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := &mockRunner{fn: func(context.Context, *workspace.Workspace, string, time.Duration) (*ProcessResult, error) {
		return &ProcessResult{ExitCode: 0}, nil
	}}
	c := newTestCompiler(t, dir, withRunner(runner))

	out := c.Compile(context.Background(), sampleDocument)

	if out.Kind != KindInternalError {
		t.Fatalf("Kind = %s, want %s", out.Kind, KindInternalError)
	}
	if !errors.Is(out.AsError(), ErrMissingArtifact) {
		t.Errorf("AsError() = %v, want %v", out.AsError(), ErrMissingArtifact)
	}
	assertNoWorkspaces(t, dir)
}

func TestCompile_RunnerError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := &mockRunner{fn: func(context.Context, *workspace.Workspace, string, time.Duration) (*ProcessResult, error) {
		return nil, ErrEngineStart
	}}
	c := newTestCompiler(t, dir, withRunner(runner))

	out := c.Compile(context.Background(), sampleDocument)

	if out.Kind != KindInternalError {
		t.Fatalf("Kind = %s, want %s", out.Kind, KindInternalError)
	}
	if !errors.Is(out.AsError(), ErrEngineStart) {
		t.Errorf("AsError() = %v, want %v", out.AsError(), ErrEngineStart)
	}
	assertNoWorkspaces(t, dir)
}

func TestCompile_RunnerPanic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	runner := &mockRunner{fn: func(context.Context, *workspace.Workspace, string, time.Duration) (*ProcessResult, error) {
		panic("engine wrapper exploded")
	}}
	c := newTestCompiler(t, dir, withRunner(runner))

	out := c.Compile(context.Background(), sampleDocument)

	if out.Kind != KindInternalError {
		t.Fatalf("Kind = %s, want %s", out.Kind, KindInternalError)
	}
	if !errors.Is(out.AsError(), ErrInternal) {
		t.Errorf("AsError() = %v, want %v", out.AsError(), ErrInternal)
	}
	if out.Duration <= 0 {
		t.Errorf("Duration = %v, want positive", out.Duration)
	}
	assertNoWorkspaces(t, dir)
}

func TestCompile_WorkspaceUnavailable(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "missing")
	runner := producePDF("%PDF")
	c, err := NewCompiler(WithWorkDir(dir), withRunner(runner))
	if err != nil {
		t.Fatalf("NewCompiler() error = %v", err)
	}

	out := c.Compile(context.Background(), sampleDocument)

	if out.Kind != KindInternalError {
		t.Fatalf("Kind = %s, want %s", out.Kind, KindInternalError)
	}
	if !errors.Is(out.AsError(), workspace.ErrAcquire) {
		t.Errorf("AsError() = %v, want %v", out.AsError(), workspace.ErrAcquire)
	}
	if runner.calls.Load() != 0 {
		t.Errorf("runner called %d times, want 0", runner.calls.Load())
	}
}

// ---------------------------------------------------------------------------
// TestCompile_Concurrent - Workspace isolation
// ---------------------------------------------------------------------------

func TestCompile_ConcurrentIdenticalSources(t *testing.T) {
	t.Parallel()

	const n = 16
	dir := t.TempDir()

	var (
		mu    sync.Mutex
		roots = make(map[string]bool, n)
	)
	runner := &mockRunner{fn: func(_ context.Context, ws *workspace.Workspace, _ string, _ time.Duration) (*ProcessResult, error) {
		mu.Lock()
		roots[ws.Root()] = true
		mu.Unlock()
		// Each run writes its own workspace path into the PDF so a shared
		// directory would surface as a mismatched body.
		if err := ws.WriteFile(outputFileName, []byte(ws.Root())); err != nil {
			return nil, err
		}
		time.Sleep(10 * time.Millisecond)
		return &ProcessResult{ExitCode: 0}, nil
	}}
	c := newTestCompiler(t, dir, withRunner(runner))

	var wg sync.WaitGroup
	results := make([]Outcome, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.Compile(context.Background(), sampleDocument)
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i, out := range results {
		if out.Kind != KindSuccess {
			t.Errorf("result %d: Kind = %s, want %s", i, out.Kind, KindSuccess)
			continue
		}
		seen[string(out.PDF)] = true
	}
	if len(roots) != n {
		t.Errorf("got %d distinct workspaces, want %d", len(roots), n)
	}
	if len(seen) != n {
		t.Errorf("got %d distinct PDFs, want %d", len(seen), n)
	}
	assertNoWorkspaces(t, dir)
}

// ---------------------------------------------------------------------------
// TestHealthProbe - Engine presence
// ---------------------------------------------------------------------------

func TestHealthProbe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		lookPath    func(string) (string, error)
		wantPresent bool
		wantPath    string
	}{
		{
			name:        "engine on PATH",
			lookPath:    func(string) (string, error) { return "/usr/bin/pdflatex", nil },
			wantPresent: true,
			wantPath:    "/usr/bin/pdflatex",
		},
		{
			name:        "engine missing",
			lookPath:    func(string) (string, error) { return "", exec.ErrNotFound },
			wantPresent: false,
			wantPath:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			runner := producePDF("%PDF")
			c, err := NewCompiler(withRunner(runner), withLookPath(tt.lookPath))
			if err != nil {
				t.Fatalf("NewCompiler() error = %v", err)
			}

			h := c.HealthProbe()

			if h.EnginePresent != tt.wantPresent {
				t.Errorf("EnginePresent = %v, want %v", h.EnginePresent, tt.wantPresent)
			}
			if h.EnginePath != tt.wantPath {
				t.Errorf("EnginePath = %q, want %q", h.EnginePath, tt.wantPath)
			}
			if h.Engine != DefaultEngine {
				t.Errorf("Engine = %q, want %q", h.Engine, DefaultEngine)
			}
			if runner.calls.Load() != 0 {
				t.Error("HealthProbe() invoked the engine")
			}
		})
	}
}
