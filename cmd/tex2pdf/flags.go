package main

import (
	"io"
	"time"

	flag "github.com/spf13/pflag"
)

// commonFlags are shared by every command that loads configuration.
type commonFlags struct {
	config    string
	engine    string
	workDir   string
	timeout   time.Duration
	logLevel  string
	logFormat string
	quiet     bool
	verbose   bool
}

// serveFlags holds flags for the serve command.
type serveFlags struct {
	common          commonFlags
	listen          string
	port            int
	workers         int
	maxRequestBytes int64
	queueTimeout    time.Duration
	noDocs          bool
}

// compileFlags holds flags for the compile command.
type compileFlags struct {
	common  commonFlags
	output  string
	logFile string
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	common commonFlags
	json   bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.StringVarP(&f.engine, "engine", "e", "", "TeX engine binary (default pdflatex)")
	fs.StringVar(&f.workDir, "workdir", "", "parent directory for workspaces (default system temp)")
	fs.DurationVarP(&f.timeout, "timeout", "t", 0, "compile deadline (e.g., 30s, 2m)")
	fs.StringVar(&f.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only log errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "log debug details")
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, usage io.Writer) (*serveFlags, []string, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &serveFlags{}

	fs.StringVarP(&f.listen, "listen", "l", "", "listen address host:port (default 0.0.0.0:5000)")
	fs.IntVarP(&f.port, "port", "p", 0, "listen port, keeping the configured host")
	fs.IntVarP(&f.workers, "workers", "w", 0, "concurrent compiles (0 = auto)")
	fs.Int64Var(&f.maxRequestBytes, "max-request-bytes", 0, "maximum /compile body size")
	fs.DurationVar(&f.queueTimeout, "queue-timeout", 0, "wait for a free compile slot before 503")
	fs.BoolVar(&f.noDocs, "no-docs", false, "disable OpenAPI docs at /docs")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printServeUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseCompileFlags parses compile command flags and returns positional args.
func parseCompileFlags(args []string, usage io.Writer) (*compileFlags, []string, error) {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &compileFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output PDF path (default <input>.pdf, - for stdout)")
	fs.StringVar(&f.logFile, "log-file", "", "write the engine log here on failure (default stderr)")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printCompileUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs.Args(), nil
}

// parseDoctorFlags parses doctor command flags.
func parseDoctorFlags(args []string, usage io.Writer) (*doctorFlags, error) {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.SetOutput(usage)
	f := &doctorFlags{}

	fs.BoolVar(&f.json, "json", false, "output as JSON")
	addCommonFlags(fs, &f.common)

	fs.Usage = func() { printDoctorUsage(usage) }

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}
