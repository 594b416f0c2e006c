package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-tex2pdf"
	"github.com/alnah/go-tex2pdf/internal/config"
	"github.com/alnah/go-tex2pdf/internal/hints"
	"github.com/alnah/go-tex2pdf/internal/metrics"
	"github.com/alnah/go-tex2pdf/internal/server"
)

// shutdownSlack is added to the compile deadline when draining on shutdown.
const shutdownSlack = 5 * time.Second

// lifecycle is the part of *server.Server that serve drives.
type lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// runServe starts the HTTP compile service and blocks until ctx is canceled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	f, rest, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(rest) > 0 {
		return fmt.Errorf("%w: serve takes no arguments, got %q", ErrUsage, rest)
	}

	cfg, err := resolveConfig(&f.common, env)
	if err != nil {
		return err
	}
	applyServeFlags(f, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(env.Stderr, cfg.Log)
	if err != nil {
		return err
	}

	compiler, err := env.NewCompiler(compilerOptions(cfg.Compile, logger)...)
	if err != nil {
		return err
	}
	if h := compiler.HealthProbe(); !h.EnginePresent {
		logger.Warn("engine not found, compiles will fail until it is installed",
			slog.String("engine", h.Engine),
			slog.String("hint", strings.TrimPrefix(hints.ForEngineMissing(h.Engine), "\n  hint: ")),
		)
	}

	slots := tex2pdf.NewSlots(tex2pdf.ResolvePoolSize(cfg.Server.Workers))
	srv, err := server.New(server.Config{
		Listen:          cfg.Server.Listen,
		MaxRequestBytes: cfg.Server.MaxRequestBytes,
		QueueTimeout:    cfg.Server.QueueTimeout,
		Docs:            cfg.Server.Docs,
		Version:         Version,
	}, compiler, slots, metrics.New(), logger)
	if err != nil {
		return err
	}

	return serve(ctx, srv, cfg.Compile.Timeout+shutdownSlack, logger)
}

// applyServeFlags overrides cfg with serve flags that were set.
func applyServeFlags(f *serveFlags, cfg *config.Config) {
	if f.listen != "" {
		cfg.Server.Listen = f.listen
	}
	if f.port != 0 {
		cfg.Server.Listen = withPort(cfg.Server.Listen, strconv.Itoa(f.port))
	}
	if f.workers != 0 {
		cfg.Server.Workers = f.workers
	}
	if f.maxRequestBytes != 0 {
		cfg.Server.MaxRequestBytes = f.maxRequestBytes
	}
	if f.queueTimeout != 0 {
		cfg.Server.QueueTimeout = f.queueTimeout
	}
	if f.noDocs {
		cfg.Server.Docs = false
	}
}

// serve runs srv until ctx is canceled, then drains in-flight requests for
// up to grace. Requests are detached from ctx so a signal does not abort
// compiles that are already running.
func serve(ctx context.Context, srv lifecycle, grace time.Duration, logger *slog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(context.WithoutCancel(gctx))
	})

	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), grace)
		defer cancel()
		if err := srv.Stop(stopCtx); err != nil {
			logger.Warn("shutdown did not complete", slog.String("error", err.Error()))
		}
		return nil
	})

	err := g.Wait()
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "listen" {
			return fmt.Errorf("%w: %v", ErrListen, err)
		}
		return err
	}
	logger.Info("server stopped")
	return nil
}
