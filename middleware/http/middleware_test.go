package middleware

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kochabx/geostego/log"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPathMatcher(t *testing.T) {
	pm := NewPathMatcher([]string{"/health", "/debug/**", "/static/*.png"})

	tests := []struct {
		path string
		want bool
	}{
		{"/health", true},
		{"/health/x", false},
		{"/debug", true},
		{"/debug/pprof/heap", true},
		{"/debugger", false},
		{"/static/a.png", true},
		{"/static/a.jpg", false},
		{"/", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pm.Match(tt.path), tt.path)
	}

	var nilMatcher *PathMatcher
	assert.False(t, nilMatcher.Match("/health"))
}

func TestLoggerRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriter(&buf)

	r := gin.New()
	r.Use(Logger(LoggerConfig{Logger: logger, SkipPaths: []string{"/skip"}}))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	r.GET("/skip", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"keyword":"secret"}`)))
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Len(t, w.Header().Get(HeaderRequestID), 32)
	assert.Contains(t, buf.String(), `"status":418`)
	assert.NotContains(t, buf.String(), "secret")

	req := httptest.NewRequest(http.MethodGet, "/skip", nil)
	req.Header.Set(HeaderRequestID, "given")
	buf.Reset()
	w = serve(r, req)
	assert.Equal(t, "given", w.Header().Get(HeaderRequestID))
	assert.Empty(t, buf.String())
}

func TestRecovery(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWriter(&buf)

	r := gin.New()
	r.Use(Recovery(logger))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"code":500,"message":"internal error"}`, w.Body.String())
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestCors(t *testing.T) {
	r := gin.New()
	r.Use(Cors(CorsOrigins("https://a.example, *.b.example")))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.b.example")
	w := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.b.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodPost, "/x", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	assert.Equal(t, []string{"*"}, CorsOrigins("").AllowOrigins)
}

type countLimiter struct {
	limit int
	seen  map[string]int
	err   error
}

func (l *countLimiter) AllowN(_ context.Context, key string, _ time.Time, n int) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	l.seen[key] += n
	return l.seen[key] <= l.limit, nil
}

func TestRateLimit(t *testing.T) {
	limiter := &countLimiter{limit: 2, seen: map[string]int{}}

	r := gin.New()
	r.Use(RateLimit(RateLimitConfig{
		Limiter:   limiter,
		KeyFunc:   func(c *gin.Context) string { return c.GetHeader("X-Client") },
		SkipPaths: []string{"/"},
	}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	call := func(path, client string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("X-Client", client)
		return serve(r, req).Code
	}

	assert.Equal(t, http.StatusOK, call("/x", "a"))
	assert.Equal(t, http.StatusOK, call("/x", "a"))
	assert.Equal(t, http.StatusTooManyRequests, call("/x", "a"))
	assert.Equal(t, http.StatusOK, call("/x", "b"))
	assert.Equal(t, http.StatusOK, call("/", "a"))
}

func TestRateLimitLimiterFailure(t *testing.T) {
	broken := &countLimiter{err: fmt.Errorf("redis down")}

	closed := gin.New()
	closed.Use(RateLimit(RateLimitConfig{Limiter: broken}))
	closed.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusServiceUnavailable, serve(closed, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)

	open := gin.New()
	open.Use(RateLimit(RateLimitConfig{Limiter: broken, FailOpen: true}))
	open.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(open, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)

	none := gin.New()
	none.Use(RateLimit(RateLimitConfig{}))
	none.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(none, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/x", func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if IsBodyTooLarge(err) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("short"))).Code)

	w := serve(r, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("much longer body")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "request body too large")

	// 未声明长度时在读取阶段截断
	req := httptest.NewRequest(http.MethodPost, "/x", io.NopCloser(strings.NewReader("much longer body")))
	req.ContentLength = -1
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(r, req).Code)
}
