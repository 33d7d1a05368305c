package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lotledger/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrorCodeKey is the gin context key under which handlers record the error
// code of a failed request, for example ERR_OVERDRAW
const ErrorCodeKey = "error_code"

var (
	attrMethod      = attribute.Key("http_method")
	attrRoute       = attribute.Key("http_route")
	attrStatusCode  = attribute.Key("http_status_code")
	attrStatusGroup = attribute.Key("http_status_group")
	attrErrorCode   = attribute.Key("error_code")
)

// Bucket boundaries for request latency (seconds) and response size (bytes).
// Workbook exports dominate the upper size buckets.
var (
	httpDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	httpSizeBuckets     = []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000, 1000000, 5000000}
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	MeterProvider *telemetry.MeterProvider
	Enabled       bool
}

type httpMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
	size     metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	in := telemetry.NewInstruments(meter)
	m := &httpMetrics{
		requests: in.Counter("http_server_request_total", "HTTP requests by route, status and error code", "{request}"),
		duration: in.Histogram("http_server_request_duration_seconds", "HTTP request latency", "s", httpDurationBuckets...),
		size:     in.Histogram("http_server_response_size_bytes", "HTTP response body size", "By", httpSizeBuckets...),
		active:   in.UpDownCounter("http_server_active_requests", "HTTP requests in flight", "{request}"),
	}
	if err := in.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// HTTPMetrics records request counts, latency, response size and requests in
// flight on the provider's "http.server" meter. Requests are labelled by
// route pattern so order ids and rows stay out of the label set.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || !cfg.MeterProvider.IsEnabled() {
		return passThrough
	}
	return HTTPMetricsWithMeter(cfg.MeterProvider.Meter("http.server"))
}

// HTTPMetricsWithMeter records HTTP metrics on meter. A nil meter or one that
// cannot create the instruments disables the middleware.
func HTTPMetricsWithMeter(meter metric.Meter) gin.HandlerFunc {
	if meter == nil {
		return passThrough
	}
	m, err := newHTTPMetrics(meter)
	if err != nil {
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		m.active.Add(ctx, 1)
		defer m.active.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		base := metric.WithAttributes(attrMethod.String(c.Request.Method), attrRoute.String(route))

		m.requests.Add(ctx, 1, base, metric.WithAttributes(
			attrStatusCode.Int(status),
			attrStatusGroup.String(StatusGroup(status)),
			attrErrorCode.String(c.GetString(ErrorCodeKey)),
		))
		m.duration.Record(ctx, time.Since(start).Seconds(), base)
		if n := c.Writer.Size(); n > 0 {
			m.size.Record(ctx, float64(n), base)
		}
	}
}

// StatusGroup returns the class of an HTTP status, such as "4xx"
func StatusGroup(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return string(rune('0'+status/100)) + "xx"
}

func passThrough(c *gin.Context) {
	c.Next()
}
