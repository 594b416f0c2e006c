package main

import "errors"

// Sentinel errors for the CLI.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("invalid usage")
	ErrNoInput        = errors.New("no input file specified")
	ErrReadSource     = errors.New("failed to read source")
	ErrWritePDF       = errors.New("failed to write PDF")
	ErrListen         = errors.New("cannot listen")
)
