package http

import (
	"context"
	"time"

	"github.com/kochabx/geostego/log"
	httpmetrics "github.com/kochabx/geostego/transport/http/metrics"
)

// MetricsOption exposes a Prometheus registry on Path.
type MetricsOption struct {
	Enabled     bool   `json:"enabled"`
	Path        string `json:"path" default:"/metrics"`
	GoCollector bool   `json:"go_collector"`
	BuildInfo   bool   `json:"build_info"`
}

// HealthOption serves Path with the result of every registered check.
type HealthOption struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path" default:"/health"`
	// Timeout bounds all checks of one request.
	Timeout time.Duration `json:"timeout" default:"2s"`
}

// TimeoutOption maps onto http.Server; Write must cover the slowest encode request.
type TimeoutOption struct {
	ReadHeader time.Duration `json:"read_header" default:"10s"`
	Read       time.Duration `json:"read" default:"60s"`
	Write      time.Duration `json:"write" default:"120s"`
	Idle       time.Duration `json:"idle" default:"120s"`
}

// CheckFunc reports a dependency as unhealthy by returning an error.
type CheckFunc func(ctx context.Context) error

type check struct {
	name string
	fn   CheckFunc
}

type Option func(*Server)

// WithName labels log lines, defaults to "http".
func WithName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.name = name
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithMetrics(m MetricsOption) Option {
	return func(s *Server) { s.metrics = m }
}

// WithPrometheus exposes a registry other than the package default.
func WithPrometheus(p *httpmetrics.Prometheus) Option {
	return func(s *Server) {
		if p != nil {
			s.prometheus = p
		}
	}
}

func WithHealth(h HealthOption) Option {
	return func(s *Server) { s.health = h }
}

// WithHealthCheck adds a named check to the health endpoint.
func WithHealthCheck(name string, fn CheckFunc) Option {
	return func(s *Server) {
		if fn != nil {
			s.checks = append(s.checks, check{name, fn})
		}
	}
}

func WithTimeouts(t TimeoutOption) Option {
	return func(s *Server) { s.timeouts = t }
}
