package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.OrderCreated()
	m.OrderReplayed()
	m.CheckoutSession("ok")
	m.ProviderError("timeout")
	m.MarkupChanged()
}

func TestCountersAndEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	m.OrderCreated()
	m.OrderCreated()
	m.CheckoutSession("created")

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "shopbridge_orders_created_total 2"))
	assert.True(t, strings.Contains(body, `shopbridge_checkout_sessions_total{result="created"} 1`))
	assert.True(t, strings.Contains(body, `shopbridge_http_requests_total{endpoint="/ping",method="GET",status="200"} 1`))
}
