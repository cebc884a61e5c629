package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestHTTPHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	p := New()
	h := NewHTTP("test", p.Registry())

	r := gin.New()
	r.Use(h.Handler())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/ping", "/ping", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(h.requests.WithLabelValues("GET", "/ping", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.requests.WithLabelValues("GET", "unmatched", "404")))
}

func TestCollectors(t *testing.T) {
	p := New()
	p.WithGoCollectorRuntimeMetrics()
	p.WithBuildInfoCollector()

	n, err := testutil.GatherAndCount(p.Registry())
	assert.NoError(t, err)
	assert.Positive(t, n)
}
