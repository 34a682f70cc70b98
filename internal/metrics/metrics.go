package metrics

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "phone_ordering"

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

var (
	ordersCreatedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of orders created, by source.",
		},
		[]string{"source"},
	)
	orderTransitionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Count of applied order status transitions, by target status.",
		},
		[]string{"status"},
	)
	routingDecisionsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "call_routing_decisions_total",
			Help:      "Count of inbound call directives, by action.",
		},
		[]string{"action"},
	)
	toolCallsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_tool_calls_total",
			Help:      "Count of voice agent tool calls, by tool and outcome.",
		},
		[]string{"tool", "outcome"},
	)
	sideEffectFailuresCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_effect_failures_total",
			Help:      "Count of failed notification, payment link, print and event dispatches.",
		},
		[]string{"effect"},
	)
	httpRequestsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests, by method, route and status code.",
		},
		[]string{"method", "route", "code"},
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		Registry.MustRegister(ordersCreatedCounter)
		Registry.MustRegister(orderTransitionsCounter)
		Registry.MustRegister(routingDecisionsCounter)
		Registry.MustRegister(toolCallsCounter)
		Registry.MustRegister(sideEffectFailuresCounter)
		Registry.MustRegister(httpRequestsCounter)
	})
}

// RecordOrderCreated records a persisted order.
func RecordOrderCreated(source string) {
	ordersCreatedCounter.WithLabelValues(source).Inc()
}

// RecordOrderTransition records an applied status change.
func RecordOrderTransition(status string) {
	orderTransitionsCounter.WithLabelValues(status).Inc()
}

// RecordRoutingDecision records the directive returned for an inbound call.
func RecordRoutingDecision(action string) {
	routingDecisionsCounter.WithLabelValues(action).Inc()
}

// RecordToolCall records one voice tool call outcome ("ok" or an error code).
func RecordToolCall(tool, outcome string) {
	toolCallsCounter.WithLabelValues(tool, outcome).Inc()
}

// RecordSideEffectFailure records a non-fatal integration failure.
func RecordSideEffectFailure(effect string) {
	sideEffectFailuresCounter.WithLabelValues(effect).Inc()
}

// GinMiddleware counts requests by matched route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsCounter.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
