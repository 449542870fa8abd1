package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestComputeApproximateRequestSize(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/verify", strings.NewReader(`{"platform":"apple"}`))
	req.Host = "api.example.com"
	req.Header.Set("Content-Type", "application/json")

	size := computeApproximateRequestSize(req)

	// path + method + proto + headers + host + body length
	expected := len("/v1/verify") + len(http.MethodPost) + len(req.Proto) +
		len("Content-Type") + len("application/json") +
		len("api.example.com") + int(req.ContentLength)
	require.Equal(t, expected, size)
}

func TestComputeApproximateRequestSizeUnknownContentLength(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Host = ""
	req.ContentLength = -1

	require.Equal(t, len("/health")+len(http.MethodGet)+len(req.Proto), computeApproximateRequestSize(req))
}

func TestMillisecondsSince(t *testing.T) {
	start := time.Now().Add(-250 * time.Millisecond)

	elapsed := MillisecondsSince(start)

	require.GreaterOrEqual(t, elapsed, 250.0)
	require.Less(t, elapsed, 5000.0)
}

func TestPrometheusMiddlewareServesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	p := NewPrometheus(NewPrometheusOptions{Subsystem: "test"})
	e := gin.New()
	p.Use(e)
	e.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "req_total")
}
