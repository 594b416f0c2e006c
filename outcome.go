package tex2pdf

import (
	"fmt"
	"time"
)

// Kind identifies which variant an Outcome holds.
type Kind int

// Outcome kinds. Exactly one applies to every Compile call.
const (
	KindSuccess Kind = iota
	KindInvalidInput
	KindSecurityRejected
	KindCompileFailed
	KindTimedOut
	KindInternalError
)

var kindNames = [...]string{
	KindSuccess:          "success",
	KindInvalidInput:     "invalid_input",
	KindSecurityRejected: "security_rejected",
	KindCompileFailed:    "compile_failed",
	KindTimedOut:         "timed_out",
	KindInternalError:    "internal_error",
}

// String returns a stable snake_case name, suitable for metric labels.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Outcome is the result of one compile attempt.
// Only the fields that belong to Kind are set:
//
//	KindSuccess          PDF
//	KindInvalidInput     Message
//	KindSecurityRejected Rule
//	KindCompileFailed    Log
//	KindTimedOut         Limit
//	KindInternalError    Message
//
// Err carries the underlying cause for errors.Is checks and is nil on success.
type Outcome struct {
	Kind     Kind
	PDF      []byte
	Rule     string
	Log      string
	Limit    time.Duration
	Message  string
	Err      error
	Duration time.Duration
}

// OK reports whether the outcome holds a PDF.
func (o Outcome) OK() bool {
	return o.Kind == KindSuccess
}

// AsError converts a non-success outcome into an error wrapping the matching
// sentinel. It returns nil on success.
func (o Outcome) AsError() error {
	switch o.Kind {
	case KindSuccess:
		return nil
	case KindSecurityRejected:
		return fmt.Errorf("%w: %s", ErrDisallowedCommand, o.Rule)
	case KindCompileFailed:
		return ErrCompileFailed
	case KindTimedOut:
		return fmt.Errorf("%w after %s", ErrTimedOut, o.Limit)
	default:
		if o.Err != nil {
			return o.Err
		}
		return fmt.Errorf("%w: %s", ErrInternal, o.Message)
	}
}

func successOutcome(pdf []byte) Outcome {
	return Outcome{Kind: KindSuccess, PDF: pdf}
}

func invalidInputOutcome(err error) Outcome {
	return Outcome{Kind: KindInvalidInput, Message: err.Error(), Err: err}
}

func rejectedOutcome(rule string) Outcome {
	return Outcome{
		Kind: KindSecurityRejected,
		Rule: rule,
		Err:  fmt.Errorf("%w: %s", ErrDisallowedCommand, rule),
	}
}

func compileFailedOutcome(log string) Outcome {
	return Outcome{Kind: KindCompileFailed, Log: log, Err: ErrCompileFailed}
}

func timedOutOutcome(limit time.Duration) Outcome {
	return Outcome{
		Kind:  KindTimedOut,
		Limit: limit,
		Err:   fmt.Errorf("%w after %s", ErrTimedOut, limit),
	}
}

func internalErrorOutcome(err error) Outcome {
	return Outcome{Kind: KindInternalError, Message: err.Error(), Err: err}
}
