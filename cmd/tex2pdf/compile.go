package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-tex2pdf"
	"github.com/alnah/go-tex2pdf/internal/hints"
	"github.com/alnah/go-tex2pdf/internal/workspace"
)

// stdioPath selects stdin for input or stdout for output.
const stdioPath = "-"

// maxSourceBytes caps a source read from a file or stdin.
const maxSourceBytes = 64 << 20

// runCompile compiles one local document, applying the same danger scan and
// sandbox as the HTTP service.
func runCompile(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseCompileFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	switch {
	case len(rest) == 0:
		return fmt.Errorf("%w (use - for stdin)", ErrNoInput)
	case len(rest) > 1:
		return fmt.Errorf("%w: compile takes one input, got %d", ErrUsage, len(rest))
	}
	input := rest[0]

	cfg, err := resolveConfig(&f.common, env)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(env.Stderr, cfg.Log)
	if err != nil {
		return err
	}

	source, err := readSource(input, env.Stdin)
	if err != nil {
		return err
	}

	compiler, err := env.NewCompiler(compilerOptions(cfg.Compile, logger)...)
	if err != nil {
		return err
	}

	out := compiler.Compile(ctx, string(source))

	switch out.Kind {
	case tex2pdf.KindSuccess:
		dest := outputPath(input, f.output)
		if err := writePDF(dest, out.PDF, env.Stdout); err != nil {
			return err
		}
		if !f.common.quiet && dest != stdioPath {
			fmt.Fprintf(env.Stderr, "%s -> %s (%v)\n", input, dest, out.Duration.Round(time.Millisecond))
		}
		return nil
	case tex2pdf.KindCompileFailed:
		if err := writeLog(f.logFile, out.Log, env.Stderr); err != nil {
			return err
		}
	}

	return outcomeError(out, cfg.Compile.Engine)
}

// readSource reads path, or stdin when path is "-".
func readSource(path string, stdin io.Reader) ([]byte, error) {
	var r io.Reader
	if path == stdioPath {
		r = stdin
	} else {
		// #nosec G304 -- path is the user's own input file
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadSource, err)
		}
		defer file.Close()
		r = file
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrReadSource, path, err)
	}
	if len(data) > maxSourceBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrReadSource, path, maxSourceBytes)
	}
	return data, nil
}

// outputPath returns the PDF destination: the flag value, stdout for stdin
// input, or the input path with a .pdf extension.
func outputPath(input, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if input == stdioPath {
		return stdioPath
	}
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".pdf"
}

func writePDF(dest string, pdf []byte, stdout io.Writer) error {
	if dest == stdioPath {
		if _, err := stdout.Write(pdf); err != nil {
			return fmt.Errorf("%w: %w", ErrWritePDF, err)
		}
		return nil
	}
	if err := os.WriteFile(dest, pdf, 0o644); err != nil { // #nosec G306 -- PDF is meant to be shared
		return fmt.Errorf("%w: %w", ErrWritePDF, err)
	}
	return nil
}

// writeLog writes the engine log to path, or to stderr when path is empty.
func writeLog(path, log string, stderr io.Writer) error {
	if path == "" {
		_, _ = io.WriteString(stderr, log)
		return nil
	}
	if err := os.WriteFile(path, []byte(log), 0o600); err != nil {
		return fmt.Errorf("writing log: %w", err)
	}
	return nil
}

// outcomeError converts a failed outcome into an error with a hint.
func outcomeError(out tex2pdf.Outcome, engine string) error {
	err := out.AsError()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tex2pdf.ErrEngineStart):
		return fmt.Errorf("%w%s", err, hints.ForEngineMissing(engine))
	case errors.Is(err, tex2pdf.ErrTimedOut):
		return fmt.Errorf("%w%s", err, hints.ForTimeout())
	case errors.Is(err, tex2pdf.ErrDisallowedCommand):
		return fmt.Errorf("%w%s", err, hints.ForDisallowed(out.Rule))
	case errors.Is(err, workspace.ErrAcquire):
		return fmt.Errorf("%w%s", err, hints.ForWorkDir())
	default:
		return err
	}
}
