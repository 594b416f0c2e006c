package tex2pdf

import "errors"

// Sentinel errors for library operations.
var (
	// Input validation.
	ErrEmptySource = errors.New("LaTeX source cannot be empty")

	// Outcome errors, returned by Outcome.Err and Outcome.AsError.
	ErrDisallowedCommand = errors.New("disallowed command")
	ErrCompileFailed     = errors.New("PDF compilation failed")
	ErrTimedOut          = errors.New("compilation timed out")
	ErrEngineStart       = errors.New("failed to start engine")
	ErrMissingArtifact   = errors.New("engine exited successfully but produced no PDF")
	ErrInternal          = errors.New("internal error")

	// Configuration errors.
	ErrInvalidDenylist  = errors.New("invalid denylist rule")
	ErrInvalidTimeout   = errors.New("invalid timeout")
	ErrInvalidEngine    = errors.New("invalid engine")
	ErrInvalidMaxOutput = errors.New("invalid maximum output size")
)
