package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/florianilch/claude3-provider/internal/observability"
	"github.com/florianilch/claude3-provider/internal/observability/middleware"
	"github.com/florianilch/claude3-provider/internal/openaiadapter"
)

// DefaultMaxRequestBytes limits inbound request bodies to 10 MiB, enough for
// conversations with a few base64 encoded images.
const DefaultMaxRequestBytes int64 = 10 << 20

// ReadinessChecker reports whether the application is ready to serve traffic.
type ReadinessChecker interface {
	IsReady() bool
}

// Proxy serves the OpenAI-compatible API in front of Claude.
type Proxy struct {
	handler http.Handler
	server  *http.Server
	addr    net.Addr
}

type options struct {
	maxRequestBytes int64
	catalog         string
	writeTimeout    time.Duration
	logger          *slog.Logger
}

// Option customizes a Proxy.
type Option func(*options)

// WithMaxRequestBytes limits inbound request bodies.
func WithMaxRequestBytes(n int64) Option {
	return func(o *options) {
		o.maxRequestBytes = n
	}
}

// WithCatalog selects the model list served on /v1/models ("anthropic" or "bedrock").
func WithCatalog(name string) Option {
	return func(o *options) {
		o.catalog = name
	}
}

// WithWriteTimeout bounds the time to produce a response, including the upstream call.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) {
		o.writeTimeout = d
	}
}

// WithLogger sets the logger used for request logs. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New creates a Proxy serving chat completions through adapter. transport carries the
// upstream requests and must authenticate them.
func New(
	adapter openaiadapter.CreateChatCompletionAdapter,
	transport http.RoundTripper,
	health ReadinessChecker,
	opts ...Option,
) (*Proxy, error) {
	if adapter == nil {
		return nil, errors.New("adapter cannot be nil")
	}
	if transport == nil {
		return nil, errors.New("transport cannot be nil")
	}
	if health == nil {
		return nil, errors.New("readiness checker cannot be nil")
	}

	o := options{
		maxRequestBytes: DefaultMaxRequestBytes,
		catalog:         CatalogAnthropic,
		writeTimeout:    10 * time.Minute,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	models, err := modelsHandler(o.catalog)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("POST /v1/chat/completions", &CreateChatCompletionsHandler{
		Adapter:   adapter,
		Transport: transport,
	})
	mux.Handle("GET /v1/models", models)
	mux.Handle("GET /health/liveness", livenessHandler())
	mux.Handle("GET /health/readiness", readinessHandler(health))
	mux.Handle("GET /metrics", observability.MetricsHandler())

	handler := applyMiddlewares(mux,
		Recovery,
		middleware.RequestIDGeneration,
		middleware.TraceContextExtraction,
		middleware.Logging(o.logger),
		middleware.RequestIDPropagation,
		middleware.Metrics,
		RequestSizeLimit(o.maxRequestBytes),
	)

	return &Proxy{
		handler: handler,
		server: &http.Server{
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      o.writeTimeout,
			IdleTimeout:       2 * time.Minute,
		},
	}, nil
}

// ServeHTTP implements http.Handler.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

// Start listens on addr and serves in the background. Listen errors are returned
// directly; errors while serving are delivered on the returned channel, which is closed
// when the server stops.
func (p *Proxy) Start(ctx context.Context, addr string) (<-chan error, error) {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	p.addr = listener.Addr()
	p.server.BaseContext = func(net.Listener) context.Context {
		return context.WithoutCancel(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := p.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	slog.InfoContext(ctx, "proxy listening", "addr", p.addr.String())
	return errCh, nil
}

// Addr returns the address the proxy listens on, nil before Start.
func (p *Proxy) Addr() net.Addr {
	return p.addr
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (p *Proxy) Shutdown(ctx context.Context) error {
	if err := p.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("proxy shutdown: %w", err)
	}
	return nil
}
