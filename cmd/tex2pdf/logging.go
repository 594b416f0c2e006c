package main

import (
	"io"
	"log/slog"

	"github.com/alnah/go-tex2pdf/internal/config"
)

// newLogger builds the process logger from validated log settings.
func newLogger(w io.Writer, lc config.LogConfig) (*slog.Logger, error) {
	level, err := config.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if lc.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
