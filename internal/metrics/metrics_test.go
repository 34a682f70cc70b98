package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHelpers(t *testing.T) {
	Register()
	Register() // idempotent

	before := testutil.ToFloat64(ordersCreatedCounter.WithLabelValues("phone"))
	RecordOrderCreated("phone")
	assert.Equal(t, before+1, testutil.ToFloat64(ordersCreatedCounter.WithLabelValues("phone")))

	before = testutil.ToFloat64(toolCallsCounter.WithLabelValues("get_menu", "ok"))
	RecordToolCall("get_menu", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(toolCallsCounter.WithLabelValues("get_menu", "ok")))
}

func TestHandlerExposesCounters(t *testing.T) {
	Register()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/metrics", gin.WrapH(Handler()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	RecordSideEffectFailure("sms")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `phone_ordering_http_requests_total{code="200",method="GET",route="/ping"}`))
	assert.True(t, strings.Contains(body, `phone_ordering_side_effect_failures_total{effect="sms"}`))
}
