//go:build integration

package tex2pdf

// Notes:
// - Requires pdflatex on PATH; every test skips when it is missing.
// - Assertions are limited to outcome kinds and PDF magic bytes; engine logs
//   differ between TeX Live releases.

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// testTimeout is the engine deadline for integration runs.
const testTimeout = 30 * time.Second

func requireEngine(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(DefaultEngine); err != nil {
		t.Skipf("%s not found on PATH", DefaultEngine)
	}
}

func TestIntegration_CompileRealDocument(t *testing.T) {
	t.Parallel()
	requireEngine(t)

	dir := t.TempDir()
	c, err := NewCompiler(WithWorkDir(dir), WithTimeout(testTimeout))
	if err != nil {
		t.Fatalf("NewCompiler() error = %v", err)
	}

	out := c.Compile(context.Background(), sampleDocument)

	if out.Kind != KindSuccess {
		t.Fatalf("Kind = %s, want %s (log: %s)", out.Kind, KindSuccess, out.Log)
	}
	if !bytes.HasPrefix(out.PDF, []byte("%PDF-")) {
		t.Errorf("PDF does not start with %%PDF-: %q", out.PDF[:min(16, len(out.PDF))])
	}
	assertNoWorkspaces(t, dir)
}

func TestIntegration_CompileError(t *testing.T) {
	t.Parallel()
	requireEngine(t)

	dir := t.TempDir()
	c, err := NewCompiler(WithWorkDir(dir), WithTimeout(testTimeout))
	if err != nil {
		t.Fatalf("NewCompiler() error = %v", err)
	}

	out := c.Compile(context.Background(), `\documentclass{article}
\begin{document}
\undefinedmacro
\end{document}
`)

	if out.Kind != KindCompileFailed {
		t.Fatalf("Kind = %s, want %s", out.Kind, KindCompileFailed)
	}
	if !strings.Contains(out.Log, "Undefined control sequence") {
		t.Errorf("Log does not mention the error:\n%s", out.Log)
	}
	assertNoWorkspaces(t, dir)
}

func TestIntegration_InfiniteLoopTimesOut(t *testing.T) {
	t.Parallel()
	requireEngine(t)

	dir := t.TempDir()
	c, err := NewCompiler(WithWorkDir(dir), WithTimeout(2*time.Second))
	if err != nil {
		t.Fatalf("NewCompiler() error = %v", err)
	}

	start := time.Now()
	out := c.Compile(context.Background(), `\documentclass{article}
\begin{document}
\loop\iftrue\repeat
\end{document}
`)

	if out.Kind != KindTimedOut {
		t.Fatalf("Kind = %s, want %s", out.Kind, KindTimedOut)
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Compile() took %v, want close to 2s", elapsed)
	}
	assertNoWorkspaces(t, dir)
}

func TestIntegration_HealthProbe(t *testing.T) {
	t.Parallel()
	requireEngine(t)

	c, err := NewCompiler()
	if err != nil {
		t.Fatalf("NewCompiler() error = %v", err)
	}
	if h := c.HealthProbe(); !h.EnginePresent {
		t.Errorf("HealthProbe() = %+v, want engine present", h)
	}
}
