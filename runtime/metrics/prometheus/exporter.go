package prometheus

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// defaultReadHeaderTimeout is the timeout for reading request headers.
	defaultReadHeaderTimeout = 10 * time.Second
	healthCheckTimeout       = 2 * time.Second
)

// HealthCheck reports whether the process is healthy. A non-nil error turns
// /health into a 503.
type HealthCheck func(ctx context.Context) error

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithRegistry serves a caller-provided registry instead of the default one.
func WithRegistry(reg *prometheus.Registry) ExporterOption {
	return func(e *Exporter) { e.registry = reg }
}

// WithHealthCheck sets the check run by /health.
func WithHealthCheck(check HealthCheck) ExporterOption {
	return func(e *Exporter) { e.health = check }
}

// Exporter serves Prometheus metrics over HTTP.
type Exporter struct {
	addr     string
	server   *http.Server
	registry *prometheus.Registry
	health   HealthCheck
	mu       sync.Mutex
	started  bool
}

// NewExporter creates an exporter serving the session metrics plus Go runtime
// and process collectors at addr.
func NewExporter(addr string, opts ...ExporterOption) *Exporter {
	e := &Exporter{addr: addr}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = prometheus.NewRegistry()
		for _, collector := range allMetrics {
			e.registry.MustRegister(collector)
		}
		e.registry.MustRegister(collectors.NewGoCollector())
		e.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return e
}

// Registry returns the underlying Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns the mux serving /metrics and /health.
func (e *Exporter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("GET /health", e.handleHealth)
	return mux
}

func (e *Exporter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if e.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := e.health(ctx); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	// Write error is ignored; the client may have disconnected.
	_, _ = w.Write([]byte("ok"))
}

// Start listens on the configured address and serves until Shutdown.
// Returns http.ErrServerClosed when shut down gracefully.
func (e *Exporter) Start() error {
	ln, err := net.Listen("tcp", e.addr)
	if err != nil {
		return err
	}
	return e.Serve(ln)
}

// Serve serves metrics on ln. A second call while running returns nil immediately.
func (e *Exporter) Serve(ln net.Listener) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		_ = ln.Close()
		return nil
	}
	e.server = &http.Server{
		Handler:           e.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}
	e.started = true
	srv := e.server
	e.mu.Unlock()

	return srv.Serve(ln)
}

// Shutdown gracefully stops the exporter with the given context.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.server != nil && e.started {
		e.started = false
		return e.server.Shutdown(ctx)
	}
	return nil
}

// Register registers an additional collector with the exporter's registry.
func (e *Exporter) Register(c prometheus.Collector) error {
	return e.registry.Register(c)
}
