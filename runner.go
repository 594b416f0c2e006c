package tex2pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/alnah/go-tex2pdf/internal/process"
	"github.com/alnah/go-tex2pdf/internal/workspace"
)

// ProcessResult describes how one engine run ended.
type ProcessResult struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	TimedOut  bool
	Truncated bool // stdout or stderr hit the capture limit
	Duration  time.Duration
}

// engineRunner abstracts engine execution to enable testing without a TeX installation.
type engineRunner interface {
	Run(ctx context.Context, ws *workspace.Workspace, sourceName string, deadline time.Duration) (*ProcessResult, error)
}

// envPassthrough lists host variables the engine needs to locate its own
// installation. Everything else is dropped.
var envPassthrough = []string{
	"PATH",
	"TEXMFCNF",
	"TEXMFROOT",
	"TEXMFDIST",
	"TEXMFLOCAL",
	"TEXMFSYSVAR",
	"TEXMFSYSCONFIG",
	"SOURCE_DATE_EPOCH",
	"SYSTEMROOT", // Windows: required by most binaries
}

// execRunner runs a TeX engine binary with os/exec.
type execRunner struct {
	engine    string
	maxOutput int
	waitDelay time.Duration
	logger    *slog.Logger
}

// Run invokes the engine on sourceName inside ws and blocks until it exits
// or deadline elapses. On deadline the engine's whole process group is
// killed and TimedOut is reported. Callers that must not be interrupted by
// ctx cancellation detach it first; Compile does.
func (r *execRunner) Run(ctx context.Context, ws *workspace.Workspace, sourceName string, deadline time.Duration) (*ProcessResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	// #nosec G204 -- engine comes from service configuration, not the request
	cmd := exec.CommandContext(runCtx, r.engine, engineArgs(ws, sourceName)...)
	cmd.Dir = ws.Root()
	cmd.Env = engineEnv(ws.Root())
	// Stdin stays nil (/dev/null): with nonstopmode the engine never prompts,
	// and if it tried it would read EOF instead of hanging.
	process.Isolate(cmd)
	cmd.WaitDelay = r.waitDelay

	stdout := newCappedBuffer(r.maxOutput)
	stderr := newCappedBuffer(r.maxOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEngineStart, r.engine, err)
	}

	// The exited leader stays unreaped until Wait, so its PID still names
	// this group and cannot be handed to another compile's engine.
	if process.AwaitExit(cmd.Process.Pid) {
		_ = process.KillGroup(cmd.Process.Pid)
	}

	runErr := cmd.Wait()
	duration := time.Since(start)

	res := &ProcessResult{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.truncated || stderr.truncated,
		Duration:  duration,
	}

	if runErr == nil {
		return res, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		res.TimedOut = true
		res.ExitCode = -1
		r.logger.Warn("engine deadline exceeded",
			slog.String("dir", ws.Root()),
			slog.Duration("deadline", deadline),
			slog.Duration("duration", duration),
		)
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("engine run aborted: %w", err)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	// Exited on its own but a leftover descendant held the output pipes
	// past WaitDelay. The exit status is still authoritative.
	if errors.Is(runErr, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
		return res, nil
	}

	return nil, fmt.Errorf("running engine: %w", runErr)
}

// engineArgs builds the pdflatex-compatible command line.
// nonstopmode keeps the engine from waiting on a terminal; shell escape is
// disabled explicitly in case the installation enables it by default.
// The source is named relative to the workspace, which is the engine's
// working directory.
func engineArgs(ws *workspace.Workspace, sourceName string) []string {
	return []string{
		"-interaction=nonstopmode",
		"-no-shell-escape",
		"-output-directory=" + ws.Root(),
		sourceName,
	}
}

// engineEnv builds a minimal environment rooted in the workspace.
// The host environment is not inherited beyond envPassthrough, so service
// credentials never reach the engine. kpathsea's paranoid modes forbid
// opening files outside the working tree; absolute paths are allowed only
// under TEXMFOUTPUT, which is the workspace.
func engineEnv(root string) []string {
	env := make([]string, 0, len(envPassthrough)+7)
	for _, name := range envPassthrough {
		if v, ok := os.LookupEnv(name); ok {
			env = append(env, name+"="+v)
		}
	}
	return append(env,
		"HOME="+root,
		"TMPDIR="+root,
		"TEXMFVAR="+root,
		"TEXMFOUTPUT="+root,
		"openin_any=p",
		"openout_any=p",
		"shell_escape=f",
	)
}

// cappedBuffer keeps at most limit bytes and silently drops the rest,
// so a chatty engine cannot exhaust memory.
type cappedBuffer struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		if len(p) > 0 {
			b.truncated = true
		}
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}
