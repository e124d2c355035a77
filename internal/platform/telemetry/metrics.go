// Package telemetry exposes Prometheus metrics for HTTP traffic and list
// queries.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hms_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hms_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	// ListDuration is the latency of paginated list queries (count and page together).
	ListDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hms_list_query_duration_seconds",
			Help:    "Paginated list query latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"entity", "status"},
	)
	// ListRows is the number of rows returned per page.
	ListRows = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hms_list_query_rows",
			Help:    "Rows returned per list page",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100},
		},
		[]string{"entity"},
	)
	// ImportRows counts imported rows by entity and outcome.
	ImportRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hms_import_rows_total",
			Help: "Rows processed by bulk imports",
		},
		[]string{"entity", "outcome"},
	)
	// PanicsTotal counts handler panics caught by the recovery middleware.
	PanicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hms_http_panics_total",
			Help: "Handler panics recovered by route",
		},
		[]string{"route"},
	)
	// LiveClients is the number of open websocket connections.
	LiveClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hms_live_clients",
			Help: "Open websocket connections receiving notifications",
		},
	)
)

// ListObserver records list query outcomes.
type ListObserver struct{}

func (ListObserver) ObserveList(entity string, rows int, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ListDuration.WithLabelValues(entity, status).Observe(elapsed.Seconds())
	if err == nil {
		ListRows.WithLabelValues(entity).Observe(float64(rows))
	}
}

// ObserveImport records the outcome counts of one import.
func ObserveImport(entity string, accepted, rejected, duplicates int) {
	ImportRows.WithLabelValues(entity, "accepted").Add(float64(accepted))
	ImportRows.WithLabelValues(entity, "rejected").Add(float64(rejected))
	ImportRows.WithLabelValues(entity, "duplicate").Add(float64(duplicates))
}

// Middleware records request counts and latency labelled by route template.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			RequestTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
