// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"runtime"
	"strings"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	info, err := os.Stat("/.dockerenv")
	return err == nil && !info.IsDir()
}

// goos is swapped by tests.
var goos = runtime.GOOS

// ForEngineMissing returns hints for an engine binary that cannot be started.
// Suggests a platform-specific TeX distribution and TEX2PDF_ENGINE.
func ForEngineMissing(engine string) string {
	var hints []string

	switch {
	case IsInContainer():
		hints = append(hints, "add texlive-latex-base (Debian) or texlive (Alpine) to the image")
	case goos == "darwin":
		hints = append(hints, "install MacTeX: brew install --cask mactex-no-gui")
	case goos == "windows":
		hints = append(hints, "install MiKTeX or TeX Live and restart the shell")
	default:
		hints = append(hints, "install TeX Live: apt install texlive-latex-base")
	}

	if os.Getenv("TEX2PDF_ENGINE") == "" && !strings.ContainsAny(engine, `/\`) {
		hints = append(hints, "or set TEX2PDF_ENGINE to the absolute path of "+engine)
	}

	return formatHints(hints)
}

// ForTimeout returns a hint about the compile deadline.
func ForTimeout() string {
	return format("check the document for runaway loops, or raise --timeout")
}

// ForDisallowed returns a hint for a document rejected by the danger scan.
func ForDisallowed(rule string) string {
	if rule == "" {
		return ""
	}
	return format("remove " + rule + " (also inside comments); external files and shell commands are not available")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-tex2pdf/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(slashed(p), ".config/go-tex2pdf") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForWorkDir returns hints for workspace allocation errors.
func ForWorkDir() string {
	return format("check --workdir exists and is writable")
}

// slashed normalizes separators so Windows paths match too.
func slashed(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
