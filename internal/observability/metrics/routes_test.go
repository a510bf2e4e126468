package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMetric struct {
	name string
	tags map[string]string
}

type recordingSink struct {
	counts  []recordedMetric
	timings []recordedMetric
}

func (s *recordingSink) Count(name string, _ int64, tags map[string]string) {
	s.counts = append(s.counts, recordedMetric{name, tags})
}

func (s *recordingSink) Timing(name string, _ time.Duration, tags map[string]string) {
	s.timings = append(s.timings, recordedMetric{name, tags})
}

func TestResultFor(t *testing.T) {
	assert.Equal(t, ResultSuccess, ResultFor(http.StatusFound))
	assert.Equal(t, ResultSuccess, ResultFor(http.StatusOK))
	assert.Equal(t, ResultRejected, ResultFor(http.StatusUnauthorized))
	assert.Equal(t, ResultRejected, ResultFor(http.StatusTooManyRequests))
	assert.Equal(t, ResultError, ResultFor(http.StatusBadGateway))
}

func TestEmitRoute(t *testing.T) {
	sink := &recordingSink{}
	EmitRoute(sink, RouteMetric{Route: "sign_in", Status: http.StatusUnauthorized, Duration: time.Millisecond})

	require.Len(t, sink.counts, 1)
	assert.Equal(t, "auth.request", sink.counts[0].name)
	assert.Equal(t, map[string]string{"route": "sign_in", "result": "rejected", "status": "401"}, sink.counts[0].tags)
	require.Len(t, sink.timings, 1)
	assert.Equal(t, "auth.request.duration", sink.timings[0].name)
}

func TestEmitRouteNilSink(t *testing.T) {
	assert.NotPanics(t, func() { EmitRoute(nil, RouteMetric{Route: "x"}) })
}
