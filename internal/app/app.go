package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/claude3-provider/internal/openaiadapter/anthropicclaude"
	"github.com/florianilch/claude3-provider/internal/proxy"
	"github.com/florianilch/claude3-provider/internal/tokensource"
)

// ShutdownFunc releases a resource when the application stops.
type ShutdownFunc func(context.Context) error

// App orchestrates the lifecycle of the proxy server and related services.
type App struct {
	cfg    Config
	proxy  *proxy.Proxy
	health *Health

	baseTransport http.RoundTripper

	// shutdownFuncs run in reverse order after the server stopped.
	shutdownFuncs []ShutdownFunc
}

// Option customizes an App.
type Option func(*App)

// WithShutdownFunc registers fn to run when the application stops. Functions registered
// here run after the server shut down, the last registered first.
func WithShutdownFunc(fn ShutdownFunc) Option {
	return func(a *App) {
		a.shutdownFuncs = append(a.shutdownFuncs, fn)
	}
}

// WithUpstreamTransport replaces the base transport for upstream calls.
func WithUpstreamTransport(rt http.RoundTripper) Option {
	return func(a *App) {
		a.baseTransport = rt
	}
}

// New wires the adapter, credentials and proxy server from cfg.
func New(cfg Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		health: NewHealth(),
	}
	for _, opt := range opts {
		opt(a)
	}

	store, err := cfg.Auth.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}
	transport, err := tokensource.NewTransport(
		tokensource.NewTokenSource(store, cfg.Auth.ReloadInterval),
		cfg.Upstream.BaseURL,
		a.baseTransport,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upstream transport: %w", err)
	}

	strategy, err := cfg.Upstream.Strategy()
	if err != nil {
		return nil, err
	}
	adapter := anthropicclaude.NewCreateChatCompletionAdapter(anthropicclaude.Config{
		Strategy:           strategy,
		BaseURL:            cfg.Upstream.BaseURL,
		BedrockModelPrefix: cfg.Upstream.BedrockModelPrefix,
		BedrockRegion:      cfg.Upstream.BedrockRegion,
		Debug:              cfg.Debug,
	})

	proxyServer, err := proxy.New(adapter, transport, a.health,
		proxy.WithMaxRequestBytes(cfg.Server.MaxRequestBytes),
		proxy.WithCatalog(cfg.Upstream.Catalog),
		proxy.WithWriteTimeout(cfg.Server.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create proxy: %w", err)
	}
	a.proxy = proxyServer

	return a, nil
}

// Health returns the readiness state served on /health/readiness.
func (a *App) Health() *Health {
	return a.health
}

// Addr returns the address the server listens on, nil before Start.
func (a *App) Addr() net.Addr {
	return a.proxy.Addr()
}

// Start starts all services and blocks until ctx is cancelled or a service fails.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	shutdownFuncs := append([]ShutdownFunc(nil), a.shutdownFuncs...)

	// Startup phase: Start services
	a.checkCredentials(gCtx)

	proxyErrCh, err := a.proxy.Start(gCtx, a.cfg.Server.Listen)
	if err != nil {
		return a.shutdown(fmt.Errorf("proxy startup failed: %w", err), shutdownFuncs)
	}
	shutdownFuncs = append(shutdownFuncs, a.proxy.Shutdown)

	a.health.SetReady(true)
	slog.InfoContext(gCtx, "ready",
		"addr", a.proxy.Addr().String(),
		"tool_calling", a.cfg.Upstream.ToolCalling,
		"catalog", a.cfg.Upstream.Catalog,
	)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-proxyErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "proxy runtime error", "error", err)
				return fmt.Errorf("proxy: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	runtimeErr := g.Wait()
	a.health.SetReady(false)

	slog.InfoContext(ctx, "shutting down services")

	if runtimeErr != nil {
		runtimeErr = fmt.Errorf("runtime: %w", runtimeErr)
	}
	return a.shutdown(runtimeErr, shutdownFuncs)
}

// shutdown runs shutdownFuncs in reverse order within the configured timeout.
func (a *App) shutdown(cause error, shutdownFuncs []ShutdownFunc) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if cause != nil {
		errs = append(errs, cause)
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// checkCredentials warns when no API key is available. Startup continues since
// Bedrock-only deployments need none and the key is reread on every reload.
func (a *App) checkCredentials(ctx context.Context) {
	store, err := a.cfg.Auth.NewTokenStore()
	if err != nil {
		return
	}
	if _, err := store.Read(ctx); err != nil {
		slog.WarnContext(ctx, "no Anthropic API key available, direct API requests will fail",
			"storage", a.cfg.Auth.Storage,
			"error", err,
		)
	}
}
