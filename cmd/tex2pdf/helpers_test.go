package main

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alnah/go-tex2pdf"
	"github.com/alnah/go-tex2pdf/internal/server"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Injectable environment and fake compiler
// ---------------------------------------------------------------------------

// fakeCompiler returns a fixed outcome. It wraps a real compiler built from
// the same options so tests can check how flags reached the library.
type fakeCompiler struct {
	inner *tex2pdf.Compiler
	out   tex2pdf.Outcome

	mu     sync.Mutex
	source string
}

func (f *fakeCompiler) Compile(_ context.Context, source string) tex2pdf.Outcome {
	f.mu.Lock()
	f.source = source
	f.mu.Unlock()
	return f.out
}

func (f *fakeCompiler) HealthProbe() tex2pdf.Health {
	return tex2pdf.Health{Engine: tex2pdf.DefaultEngine}
}

func (f *fakeCompiler) Timeout() time.Duration { return f.inner.Timeout() }

func (f *fakeCompiler) Denylist() []string { return f.inner.Denylist() }

func (f *fakeCompiler) lastSource() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source
}

type testIO struct {
	env      *Environment
	stdout   *bytes.Buffer
	stderr   *bytes.Buffer
	compiler *fakeCompiler
}

// newTestEnv returns an Environment backed by vars with no engine on PATH.
// Compile calls return out.
func newTestEnv(t *testing.T, vars map[string]string, out tex2pdf.Outcome) *testIO {
	t.Helper()

	tio := &testIO{
		stdout:   &bytes.Buffer{},
		stderr:   &bytes.Buffer{},
		compiler: &fakeCompiler{out: out},
	}
	tio.env = &Environment{
		Stdin:  strings.NewReader(""),
		Stdout: tio.stdout,
		Stderr: tio.stderr,
		Getenv: func(name string) string { return vars[name] },
		Environ: func() []string {
			kv := make([]string, 0, len(vars))
			for k, v := range vars {
				kv = append(kv, k+"="+v)
			}
			sort.Strings(kv)
			return kv
		},
		LookPath: func(string) (string, error) { return "", exec.ErrNotFound },
		EngineVersion: func(context.Context, string) (string, error) {
			return "", errors.New("not installed")
		},
		NewCompiler: func(opts ...tex2pdf.Option) (server.Compiler, error) {
			inner, err := tex2pdf.NewCompiler(opts...)
			if err != nil {
				return nil, err
			}
			tio.compiler.inner = inner
			return tio.compiler, nil
		},
	}
	return tio
}
