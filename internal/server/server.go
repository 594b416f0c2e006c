// Package server exposes the compiler over HTTP.
//
// Routes:
//   - GET  /         usage page
//   - POST /compile  raw LaTeX body in, PDF or JSON error out
//   - GET  /health   liveness and engine presence
//   - GET  /metrics  Prometheus exposition
//   - GET  /docs     OpenAPI documentation (when enabled)
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jkaninda/okapi"

	"github.com/alnah/go-tex2pdf"
	"github.com/alnah/go-tex2pdf/internal/landing"
	"github.com/alnah/go-tex2pdf/internal/metrics"
)

// Server timeouts and limits.
const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
	// writeSlack is added to the compile and queue deadlines so a response
	// can still be written after the slowest permitted compile.
	writeSlack     = 30 * time.Second
	maxHeaderBytes = 8190
)

// Compiler is the subset of *tex2pdf.Compiler the server depends on.
type Compiler interface {
	Compile(ctx context.Context, source string) tex2pdf.Outcome
	HealthProbe() tex2pdf.Health
	Timeout() time.Duration
	Denylist() []string
}

// Config configures the HTTP front end.
type Config struct {
	Listen          string        // e.g. "0.0.0.0:5000"
	MaxRequestBytes int64         // /compile body limit
	QueueTimeout    time.Duration // wait for a free slot (0 = fail fast)
	Docs            bool          // serve OpenAPI docs at /docs
	Version         string        // reported in the OpenAPI document
}

// Server is the HTTP front end of the compile service.
type Server struct {
	cfg      Config
	compiler Compiler
	slots    *tex2pdf.Slots
	metrics  *metrics.Collector
	landing  *landing.Renderer
	logger   *slog.Logger

	okapi *okapi.Okapi

	mu      sync.Mutex
	server  *http.Server
	stopped bool
}

// New creates a Server. slots bounds concurrent compiles; m may be nil.
func New(cfg Config, c Compiler, slots *tex2pdf.Slots, m *metrics.Collector, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if slots == nil {
		slots = tex2pdf.NewSlots(tex2pdf.ResolvePoolSize(0))
	}
	renderer, err := landing.NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		compiler: c,
		slots:    slots,
		metrics:  m,
		landing:  renderer,
		logger:   logger,
		okapi:    okapi.New(okapi.WithMaxMultipartMemory(cfg.MaxRequestBytes)),
	}, nil
}

// Start registers routes and serves until Stop is called or ctx is canceled.
// A clean shutdown returns nil.
func (s *Server) Start(ctx context.Context) error {
	s.okapi.UseMiddleware(s.observe)

	s.okapi.HandleStd(http.MethodGet, "/", s.handleLanding)
	s.okapi.HandleStd(http.MethodPost, "/compile", s.handleCompile)
	s.okapi.Get("/health", s.handleHealth,
		okapi.DocSummary("Liveness and engine presence"),
		okapi.DocTags("Health"),
		okapi.DocResponse(HealthResponse{}),
	)
	s.okapi.HandleStd(http.MethodGet, "/metrics", s.metrics.Handler().ServeHTTP)

	if s.cfg.Docs {
		s.okapi.WithOpenAPIDocs(okapi.OpenAPI{
			Title:   "tex2pdf",
			Version: s.cfg.Version,
		})
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readHeaderTimeout + writeSlack,
		WriteTimeout:      s.compiler.Timeout() + s.cfg.QueueTimeout + writeSlack,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	s.server = srv
	s.mu.Unlock()

	s.logger.Info("http server starting",
		slog.String("addr", s.cfg.Listen),
		slog.Int("slots", s.slots.Size()),
		slog.Duration("compile_timeout", s.compiler.Timeout()),
	)

	err := s.okapi.StartServer(srv)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server, waiting for in-flight compiles
// until ctx is done, then closes remaining connections.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	s.logger.Info("http server stopping")

	done := make(chan error, 1)
	go func() {
		done <- s.okapi.Shutdown(srv)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = srv.Close()
		return ctx.Err()
	}
}
