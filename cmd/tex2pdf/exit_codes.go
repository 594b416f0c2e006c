package main

import (
	"errors"
	"os"

	"github.com/alnah/go-tex2pdf"
	"github.com/alnah/go-tex2pdf/internal/config"
	"github.com/alnah/go-tex2pdf/internal/workspace"
)

// Exit codes for the tex2pdf CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess       = 0 // Successful compile or clean shutdown
	ExitGeneral       = 1 // General/unexpected error
	ExitUsage         = 2 // Invalid flags, config, or input
	ExitIO            = 3 // File not found, permission denied
	ExitEngine        = 4 // Engine missing or misbehaving
	ExitCompileFailed = 5 // Document has LaTeX errors
	ExitRejected      = 6 // Document contains a disallowed command
	ExitTimedOut      = 7 // Engine exceeded the deadline
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Document outcomes (exit 5-7)
	switch {
	case errors.Is(err, tex2pdf.ErrCompileFailed):
		return ExitCompileFailed
	case errors.Is(err, tex2pdf.ErrDisallowedCommand):
		return ExitRejected
	case errors.Is(err, tex2pdf.ErrTimedOut):
		return ExitTimedOut
	}

	// Engine errors (exit 4)
	if errors.Is(err, tex2pdf.ErrEngineStart) ||
		errors.Is(err, tex2pdf.ErrMissingArtifact) ||
		errors.Is(err, tex2pdf.ErrInternal) {
		return ExitEngine
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadSource) ||
		errors.Is(err, ErrWritePDF) ||
		errors.Is(err, ErrListen) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, workspace.ErrAcquire) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrConfigTooLarge) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, tex2pdf.ErrEmptySource) ||
		errors.Is(err, tex2pdf.ErrInvalidDenylist) ||
		errors.Is(err, tex2pdf.ErrInvalidTimeout) ||
		errors.Is(err, tex2pdf.ErrInvalidEngine) ||
		errors.Is(err, tex2pdf.ErrInvalidMaxOutput) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrUsage) {
		return ExitUsage
	}

	return ExitGeneral
}
