package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tex2pdf <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Run the HTTP compile service")
	fmt.Fprintln(w, "  compile    Compile a local .tex file to PDF")
	fmt.Fprintln(w, "  doctor     Check the TeX engine and system setup")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'tex2pdf help <command>' for details on a specific command.")
}

// printCommonUsage prints flags shared by serve, compile and doctor.
func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Engine:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -e, --engine <path>       TeX engine binary (default pdflatex)")
	fmt.Fprintln(w, "  -t, --timeout <d>         Compile deadline (default 30s)")
	fmt.Fprintln(w, "      --workdir <dir>       Parent directory for workspaces")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Logging:")
	fmt.Fprintln(w, "      --log-level <s>       debug, info, warn, error")
	fmt.Fprintln(w, "      --log-format <s>      text, json")
	fmt.Fprintln(w, "  -q, --quiet               Only log errors")
	fmt.Fprintln(w, "  -v, --verbose             Log debug details")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tex2pdf serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the HTTP compile service. POST raw LaTeX to /compile.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Server:")
	fmt.Fprintln(w, "  -l, --listen <addr>       Listen address (default 0.0.0.0:5000)")
	fmt.Fprintln(w, "  -p, --port <n>            Listen port, keeping the configured host")
	fmt.Fprintln(w, "  -w, --workers <n>         Concurrent compiles (0 = auto)")
	fmt.Fprintln(w, "      --max-request-bytes <n> Maximum /compile body size")
	fmt.Fprintln(w, "      --queue-timeout <d>   Wait for a free slot before 503")
	fmt.Fprintln(w, "      --no-docs             Disable OpenAPI docs at /docs")
	fmt.Fprintln(w)
	printCommonUsage(w)
	fmt.Fprintln(w)
	printEnvUsage(w)
}

// printCompileUsage prints usage for the compile command.
func printCompileUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tex2pdf compile <input.tex|-> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Compile one document with the same checks as the service.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output PDF (default <input>.pdf, - for stdout)")
	fmt.Fprintln(w, "      --log-file <path>     Write the engine log here on failure")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: tex2pdf doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Check the TeX engine, work directory and listen address.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "      --json                Output as JSON")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printEnvUsage lists recognized environment variables.
func printEnvUsage(w io.Writer) {
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  TEX2PDF_CONFIG, TEX2PDF_LISTEN, TEX2PDF_PORT (or PDFTOLATEX_PORT),")
	fmt.Fprintln(w, "  TEX2PDF_ENGINE, TEX2PDF_TIMEOUT, TEX2PDF_WORKERS, TEX2PDF_WORKDIR,")
	fmt.Fprintln(w, "  TEX2PDF_LOG_LEVEL, TEX2PDF_LOG_FORMAT. A .env file is loaded if present.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "serve":
		printServeUsage(env.Stdout)
	case "compile":
		printCompileUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: tex2pdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: tex2pdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
