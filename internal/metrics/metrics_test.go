package metrics

import (
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordCacheLookup(t *testing.T) {
	hits := promtestutil.ToFloat64(CacheLookups.WithLabelValues("hit"))
	misses := promtestutil.ToFloat64(CacheLookups.WithLabelValues("miss"))

	RecordCacheLookup(true)
	RecordCacheLookup(false)
	RecordCacheLookup(false)

	assert.Equal(t, hits+1, promtestutil.ToFloat64(CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, misses+2, promtestutil.ToFloat64(CacheLookups.WithLabelValues("miss")))
}

func TestRecordUpstreamAttempt(t *testing.T) {
	before := promtestutil.ToFloat64(UpstreamAttempts.WithLabelValues("retryable"))

	RecordUpstreamAttempt("retryable", 120*time.Millisecond)

	assert.Equal(t, before+1, promtestutil.ToFloat64(UpstreamAttempts.WithLabelValues("retryable")))
}

func TestSetBreakerOpen(t *testing.T) {
	SetBreakerOpen(true)
	assert.Equal(t, 1.0, promtestutil.ToFloat64(BreakerOpen))

	SetBreakerOpen(false)
	assert.Equal(t, 0.0, promtestutil.ToFloat64(BreakerOpen))
}

func TestRecordAPIRequest(t *testing.T) {
	before := promtestutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/genres", "200"))

	RecordAPIRequest("GET", "/api/genres", 200, 5*time.Millisecond)

	assert.Equal(t, before+1, promtestutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/genres", "200")))
}
