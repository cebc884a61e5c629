// Package http runs a net/http server for a gin engine with optional
// metrics and health endpoints.
package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kochabx/geostego/core/tag"
	"github.com/kochabx/geostego/log"
	"github.com/kochabx/geostego/transport"
	httpmetrics "github.com/kochabx/geostego/transport/http/metrics"
)

var _ transport.Server = (*Server)(nil)

// ErrInvalidAddress is returned by Run for an address that is not host:port.
var ErrInvalidAddress = errors.New("http: invalid listen address")

type Server struct {
	name       string
	logger     *log.Logger
	prometheus *httpmetrics.Prometheus
	metrics    MetricsOption
	health     HealthOption
	timeouts   TimeoutOption
	checks     []check

	server *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// NewServer mounts the metrics and health routes when handler is a *gin.Engine.
func NewServer(addr string, handler http.Handler, opts ...Option) *Server {
	s := &Server{
		name:       "http",
		logger:     log.G,
		prometheus: httpmetrics.Prom,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, v := range []any{&s.metrics, &s.health, &s.timeouts} {
		if err := tag.ApplyDefaults(v); err != nil {
			s.logger.Error().Err(err).Msg("http server defaults")
		}
	}

	s.server = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: s.timeouts.ReadHeader,
		ReadTimeout:       s.timeouts.Read,
		WriteTimeout:      s.timeouts.Write,
		IdleTimeout:       s.timeouts.Idle,
	}
	if r, ok := handler.(*gin.Engine); ok {
		s.mount(r)
	}
	return s
}

func (s *Server) mount(r *gin.Engine) {
	if s.metrics.Enabled {
		if s.metrics.GoCollector {
			s.prometheus.WithGoCollectorRuntimeMetrics()
		}
		if s.metrics.BuildInfo {
			s.prometheus.WithBuildInfoCollector()
		}
		r.GET(s.metrics.Path, gin.WrapH(promhttp.HandlerFor(s.prometheus.Registry(), promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		})))
	}
	if s.health.Enabled {
		r.GET(s.health.Path, s.serveHealth)
	}
}

// serveHealth answers 503 when any check fails, listing every check's state.
func (s *Server) serveHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), s.health.Timeout)
	defer cancel()

	status := http.StatusOK
	body := gin.H{"status": "ok"}
	if len(s.checks) > 0 {
		results := make(map[string]string, len(s.checks))
		for _, chk := range s.checks {
			if err := chk.fn(ctx); err != nil {
				results[chk.name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[chk.name] = "ok"
		}
		body["checks"] = results
	}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}

// Handler returns the root handler, including routes added by server options.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr is the bound address once Run is listening, otherwise the configured one.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.server.Addr
}

func (s *Server) Run() error {
	if !transport.ValidateAddress(s.server.Addr) {
		return ErrInvalidAddress
	}
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info().Str("server", s.name).Str("addr", ln.Addr().String()).Msg("listening")
	if err := s.server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Str("server", s.name).Msg("shutting down")
	return s.server.Shutdown(ctx)
}
