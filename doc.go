// Package tex2pdf compiles untrusted LaTeX source to PDF with an external
// TeX engine (pdflatex by default) running as a sandboxed subprocess.
//
// # Quick Start
//
// Create a compiler and compile a document:
//
//	c, err := tex2pdf.NewCompiler()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out := c.Compile(ctx, `\documentclass{article}\begin{document}Hi\end{document}`)
//	switch out.Kind {
//	case tex2pdf.KindSuccess:
//	    os.WriteFile("output.pdf", out.PDF, 0644)
//	case tex2pdf.KindCompileFailed:
//	    fmt.Println(out.Log)
//	default:
//	    fmt.Println(out.AsError())
//	}
//
// Compile never returns an error: every result, including rejected input and
// engine timeouts, is an Outcome. Outcome.AsError converts failures into
// errors wrapping the package's sentinel errors.
//
// # Compilation Pipeline
//
// Each Compile call goes through these stages:
//
//  1. Validation: empty source is rejected immediately
//  2. Danger scan: a literal substring denylist (\write18, \input, ...)
//  3. Workspace: a fresh directory named with a random UUID
//  4. Engine run: nonstopmode, own process group, hard deadline
//  5. Classification: timeout, compile failure (with log), or PDF
//  6. Teardown: the workspace is removed on every path
//
// The denylist is defense in depth, not a sandbox: the engine also runs with
// shell escape disabled, kpathsea in paranoid mode, and a minimal
// environment. Matching is deliberately naive; a command inside a comment
// is still rejected.
//
// # Configuration
//
// Use functional options to customize the compiler:
//
//	c, err := tex2pdf.NewCompiler(
//	    tex2pdf.WithTimeout(10 * time.Second),
//	    tex2pdf.WithEngine("/usr/local/texlive/2025/bin/x86_64-linux/pdflatex"),
//	    tex2pdf.WithDenylist(append(tex2pdf.DefaultDenylist(), `\include`)),
//	    tex2pdf.WithLogger(slog.Default()),
//	)
//
// Configuration is fixed at construction; there is no per-request override of
// the deadline or denylist.
//
// # Concurrency
//
// A Compiler is safe for concurrent use and holds no lock during
// compilation. Bound the number of simultaneous engine processes with Slots:
//
//	slots := tex2pdf.NewSlots(tex2pdf.ResolvePoolSize(0))
//	if err := slots.Acquire(ctx); err != nil {
//	    return err
//	}
//	defer slots.Release()
//	out := c.Compile(ctx, source)
//
// # Engine Requirements
//
// Compilation requires a TeX distribution providing pdflatex (TeX Live,
// MiKTeX). Use Compiler.HealthProbe to check that the engine resolves on
// PATH without compiling anything.
package tex2pdf
