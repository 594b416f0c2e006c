package tex2pdf

import (
	"fmt"
	"log/slog"
	"time"
)

// Fixed file names inside every workspace. pdflatex derives the output and
// log names from the input's base name.
const (
	sourceFileName = "document.tex"
	outputFileName = "document.pdf"
	logFileName    = "document.log"
)

// artifactReader reads files the engine may or may not have produced.
type artifactReader interface {
	ReadOptional(name string) ([]byte, bool, error)
}

// classify maps a finished engine run and the files it left behind to an
// Outcome. It never fails: a missing or unreadable log is an empty
// diagnostic, and a missing PDF after a clean exit is an engine contract
// violation reported as KindInternalError.
func classify(res *ProcessResult, files artifactReader, limit time.Duration, logger *slog.Logger) Outcome {
	if res.TimedOut {
		return timedOutOutcome(limit)
	}

	if res.ExitCode != 0 {
		log, ok, err := files.ReadOptional(logFileName)
		if err != nil {
			logger.Warn("engine log unreadable", slog.String("error", err.Error()))
		}
		if !ok || err != nil {
			// Crashed before writing a log: still a user-facing failure.
			return compileFailedOutcome("")
		}
		return compileFailedOutcome(string(log))
	}

	pdf, ok, err := files.ReadOptional(outputFileName)
	if err != nil {
		return internalErrorOutcome(fmt.Errorf("reading %s: %w", outputFileName, err))
	}
	if !ok {
		return internalErrorOutcome(ErrMissingArtifact)
	}
	return successOutcome(pdf)
}
