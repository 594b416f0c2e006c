// Package landing renders the service's usage page from embedded Markdown.
package landing

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// ErrRender indicates the usage page could not be produced.
var ErrRender = errors.New("rendering usage page failed")

// fallbackHost replaces request hosts that are unsafe to echo.
const fallbackHost = "localhost:5000"

// highlightStyle is the chroma style for code blocks.
const highlightStyle = "github"

//go:embed usage.md
var usageSource string

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>tex2pdf</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.5; color: #1f2328; }
pre { padding: 0.75rem 1rem; overflow-x: auto; border-radius: 6px; background: #f6f8fa; }
code { font-family: ui-monospace, monospace; font-size: 0.9em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #d0d7de; padding: 0.3rem 0.7rem; text-align: left; }
{{.CSS}}
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// Info carries the service facts shown on the page.
type Info struct {
	Host            string // request Host header
	Scheme          string // http or https (empty = http)
	Timeout         time.Duration
	MaxRequestBytes int64
	Denylist        []string
	Docs            bool
}

// Renderer turns the embedded usage Markdown into a standalone HTML page.
// Safe for concurrent use.
type Renderer struct {
	md    goldmark.Markdown
	usage *texttemplate.Template
	css   template.CSS
}

// NewRenderer parses the embedded usage page and builds the code stylesheet.
func NewRenderer() (*Renderer, error) {
	usage, err := texttemplate.New("usage").Parse(usageSource)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	var css bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	if err := formatter.WriteCSS(&css, styles.Get(highlightStyle)); err != nil {
		return nil, fmt.Errorf("%w: stylesheet: %v", ErrRender, err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
	)

	// #nosec G203 -- stylesheet is generated by chroma, not user input
	return &Renderer{md: md, usage: usage, css: template.CSS(css.String())}, nil
}

// Render produces the HTML page for info.
func (r *Renderer) Render(ctx context.Context, info Info) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scheme := info.Scheme
	if scheme != "https" {
		scheme = "http"
	}

	var src bytes.Buffer
	err := r.usage.Execute(&src, struct {
		BaseURL         string
		Timeout         time.Duration
		MaxRequestBytes int64
		Denylist        []string
		Docs            bool
	}{
		BaseURL:         scheme + "://" + SafeHost(info.Host),
		Timeout:         info.Timeout,
		MaxRequestBytes: info.MaxRequestBytes,
		Denylist:        info.Denylist,
		Docs:            info.Docs,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	var body bytes.Buffer
	if err := r.md.Convert(src.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}

	var page bytes.Buffer
	err = pageTemplate.Execute(&page, struct {
		CSS  template.CSS
		Body template.HTML
	}{
		CSS: r.css,
		// #nosec G203 -- goldmark output without WithUnsafe escapes raw HTML
		Body: template.HTML(body.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return page.Bytes(), nil
}

// SafeHost returns host if it contains only hostname and port characters,
// and a fixed fallback otherwise. The result is echoed into the page.
func SafeHost(host string) string {
	if host == "" || len(host) > 255 {
		return fallbackHost
	}
	valid := strings.IndexFunc(host, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '.', r == '-', r == ':', r == '[', r == ']':
			return false
		}
		return true
	}) < 0
	if !valid {
		return fallbackHost
	}
	return host
}
