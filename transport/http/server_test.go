package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpmetrics "github.com/kochabx/geostego/transport/http/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(s *Server, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServerHandlers(t *testing.T) {
	s := NewServer(
		"127.0.0.1:8080",
		gin.New(),
		WithPrometheus(httpmetrics.New()),
		WithMetrics(MetricsOption{Enabled: true, GoCollector: true}),
		WithHealth(HealthOption{Enabled: true}),
	)

	w := get(s, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = get(s, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestHealthChecks(t *testing.T) {
	s := NewServer(
		"127.0.0.1:8080",
		gin.New(),
		WithHealth(HealthOption{Enabled: true, Path: "/healthz"}),
		WithHealthCheck("redis", func(context.Context) error { return nil }),
		WithHealthCheck("database", func(context.Context) error { return errors.New("db: client closed") }),
		WithHealthCheck("nil", nil),
	)

	w := get(s, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":"degraded","checks":{"redis":"ok","database":"db: client closed"}}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, get(s, "/health").Code)
}

func TestServerTimeouts(t *testing.T) {
	s := NewServer(":8080", gin.New(), WithTimeouts(TimeoutOption{Write: time.Minute}))
	assert.Equal(t, time.Minute, s.server.WriteTimeout)
	assert.Equal(t, 10*time.Second, s.server.ReadHeaderTimeout)

	d := NewServer(":8080", gin.New())
	assert.Equal(t, 120*time.Second, d.server.WriteTimeout)
	assert.Equal(t, "http", d.name)
}

func TestRunInvalidAddress(t *testing.T) {
	s := NewServer("localhost", gin.New())
	assert.ErrorIs(t, s.Run(), ErrInvalidAddress)
}

func TestServerRunShutdown(t *testing.T) {
	s := NewServer("127.0.0.1:18631", gin.New(), WithName("test"))

	done := make(chan error, 1)
	go func() { done <- s.Run() }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://127.0.0.1:18631/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return true
	}, 5*time.Second, 50*time.Millisecond)
	assert.Equal(t, "127.0.0.1:18631", s.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-done)
}
