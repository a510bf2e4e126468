// Package metrics names the metrics the auth endpoints emit.
package metrics

import (
	"strconv"
	"time"

	"github.com/target/multiauth/internal/observability/statsd"
)

// Result tags.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// RouteMetric describes one finished request to a named auth route.
type RouteMetric struct {
	Route    string
	Status   int
	Duration time.Duration
}

// ResultFor buckets an HTTP status: 5xx is an error, 4xx a rejection
// (bad credentials, invalid input), anything else success.
func ResultFor(status int) string {
	switch {
	case status >= 500:
		return ResultError
	case status >= 400:
		return ResultRejected
	default:
		return ResultSuccess
	}
}

// EmitRoute records a request counter and its latency.
func EmitRoute(sink statsd.Sink, m RouteMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"route":  m.Route,
		"result": ResultFor(m.Status),
		"status": strconv.Itoa(m.Status),
	}
	sink.Count("auth.request", 1, tags)
	if m.Duration > 0 {
		sink.Timing("auth.request.duration", m.Duration, map[string]string{"route": m.Route})
	}
}
