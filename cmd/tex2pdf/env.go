package main

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/alnah/go-tex2pdf"
	"github.com/alnah/go-tex2pdf/internal/server"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Getenv   func(string) string
	Environ  func() []string
	LookPath func(string) (string, error)

	// EngineVersion returns the first line of `<path> --version`.
	EngineVersion func(ctx context.Context, path string) (string, error)

	// NewCompiler builds the compiler used by serve and compile.
	NewCompiler func(opts ...tex2pdf.Option) (server.Compiler, error)
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Stdin:         os.Stdin,
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		Getenv:        os.Getenv,
		Environ:       os.Environ,
		LookPath:      exec.LookPath,
		EngineVersion: engineVersion,
		NewCompiler:   newCompiler,
	}
}

func newCompiler(opts ...tex2pdf.Option) (server.Compiler, error) {
	c, err := tex2pdf.NewCompiler(opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func engineVersion(ctx context.Context, path string) (string, error) {
	// #nosec G204 -- path comes from operator configuration
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", err
	}
	first, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(first), nil
}
