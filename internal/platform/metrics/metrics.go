package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screenbuddy_http_requests_total",
		Help: "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "screenbuddy_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// SessionsOpened counts successful entitlement session opens.
	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screenbuddy_sessions_opened_total",
		Help: "Entitlement sessions opened.",
	})

	// SessionsExpiredBySweep counts sessions flipped by the reconciliation sweep.
	SessionsExpiredBySweep = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screenbuddy_sessions_expired_by_sweep_total",
		Help: "Sessions expired by the reconciliation sweep rather than a device report.",
	})

	// TasksApproved counts approved task completions.
	TasksApproved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screenbuddy_tasks_approved_total",
		Help: "Task completions approved.",
	})

	// TimeBucksSpent accumulates Time Bucks spent on unlocks.
	TimeBucksSpent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screenbuddy_time_bucks_spent_total",
		Help: "Time Bucks spent on entitlement sessions.",
	})
)

// Middleware records request counts and latencies per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
