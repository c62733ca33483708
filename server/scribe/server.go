// Package scribeserver is the development backend behind the scribe
// client: POST /stt transcribes and summarizes an upload, POST /save stores
// a result.
package scribeserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ErVarunGupta/Streaming-App/runtime/logger"
	"github.com/ErVarunGupta/Streaming-App/runtime/outputs"
	"github.com/ErVarunGupta/Streaming-App/runtime/stt"
	"github.com/ErVarunGupta/Streaming-App/runtime/summarize"
)

const (
	defaultAddress           = ":8080"
	defaultReadHeaderTimeout = 10 * time.Second
	defaultReadTimeout       = 2 * time.Minute
	defaultWriteTimeout      = 2 * time.Minute
	defaultIdleTimeout       = 120 * time.Second
	defaultMaxBodySize       = 25 << 20 // 25 MB

	// multipartMemory is how much of an upload is held in memory before
	// spilling to a temp file.
	multipartMemory = 8 << 20
)

// Option configures a Server.
type Option func(*Server)

// WithAddress sets the listen address for ListenAndServe. Default: ":8080".
func WithAddress(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithReadTimeout sets the maximum duration for reading the entire request.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Server) { s.readTimeout = d }
}

// WithWriteTimeout sets the maximum duration before timing out writes of
// the response. It must cover transcription and summarization.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Server) { s.writeTimeout = d }
}

// WithIdleTimeout sets the keep-alive idle timeout.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Server) { s.idleTimeout = d }
}

// WithMaxBodySize sets the maximum allowed request body size in bytes.
// Default: 25 MB.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// WithTranscriptionConfig sets the model and language passed to the speech service.
func WithTranscriptionConfig(cfg stt.TranscriptionConfig) Option {
	return func(s *Server) { s.sttConfig = cfg }
}

// Server serves the transcription and save endpoints.
type Server struct {
	speech     stt.Service
	summarizer summarize.Summarizer
	sink       outputs.Sink
	sttConfig  stt.TranscriptionConfig

	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
	maxBodySize  int64

	httpSrvMu sync.Mutex
	httpSrv   *http.Server
}

// NewServer creates a server transcribing with speech, summarizing with
// summarizer and saving into sink.
func NewServer(speech stt.Service, summarizer summarize.Summarizer, sink outputs.Sink, opts ...Option) *Server {
	s := &Server{
		speech:       speech,
		summarizer:   summarizer,
		sink:         sink,
		addr:         defaultAddress,
		readTimeout:  defaultReadTimeout,
		writeTimeout: defaultWriteTimeout,
		idleTimeout:  defaultIdleTimeout,
		maxBodySize:  defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /stt", instrument("/stt", http.HandlerFunc(s.handleTranscribe)))
	mux.Handle("POST /save", instrument("/save", http.HandlerFunc(s.handleSave)))
	mux.HandleFunc("GET /health", s.handleHealth)
	return otelhttp.NewHandler(withRequestID(mux), "scribe-server")
}

// ListenAndServe listens on the configured address.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       s.idleTimeout,
	}

	s.httpSrvMu.Lock()
	s.httpSrv = srv
	s.httpSrvMu.Unlock()

	logger.Info("Scribe server listening", "address", ln.Addr().String())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.httpSrvMu.Lock()
	srv := s.httpSrv
	s.httpSrvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := s.sink.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "sink unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
