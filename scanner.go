package tex2pdf

import (
	"fmt"
	"strings"
)

// DefaultDenylist returns the commands rejected by default. Each entry grants
// a capability the service must not hand to untrusted input:
//
//	\write18     shell escape
//	\input       read arbitrary files
//	\openin      open arbitrary files for reading
//	\openout     open arbitrary files for writing
//	\def         redefine macros, including safe ones
//	\unexpanded  hide tokens from simple string checks
//	\obeyspaces  change how the lexer treats whitespace
//
// A fresh slice is returned on every call.
func DefaultDenylist() []string {
	return []string{
		`\write18`,
		`\input`,
		`\openin`,
		`\openout`,
		`\def`,
		`\unexpanded`,
		`\obeyspaces`,
	}
}

// Scanner rejects source text containing any denylisted command.
// Matching is a literal substring search: a command inside a comment or a
// verbatim block still matches. False positives are preferred over misses.
// A Scanner is immutable and safe for concurrent use.
type Scanner struct {
	rules []string
}

// NewScanner creates a Scanner for the given rules, checked in order.
// Empty rules are rejected because they would match every document.
func NewScanner(rules []string) (*Scanner, error) {
	copied := make([]string, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r) == "" {
			return nil, fmt.Errorf("%w: rule %d is empty", ErrInvalidDenylist, i)
		}
		copied[i] = r
	}
	return &Scanner{rules: copied}, nil
}

// Scan returns the first rule, in configured order, that occurs in source.
func (s *Scanner) Scan(source string) (rule string, found bool) {
	for _, r := range s.rules {
		if strings.Contains(source, r) {
			return r, true
		}
	}
	return "", false
}

// Rules returns a copy of the configured rules.
func (s *Scanner) Rules() []string {
	out := make([]string, len(s.rules))
	copy(out, s.rules)
	return out
}
