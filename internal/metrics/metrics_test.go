// internal/metrics/metrics_test.go
package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	assert := assert.New(t)
	m := New()

	m.ObserveConnect("xps1", true)
	m.ObserveConnect("xps1", false)
	m.SetChannelsOpen(3)
	m.ObserveExchange("SEND_AND_RECEIVE", 0, 3, 20*time.Millisecond)
	m.ObserveExchange("SEND_AND_RECEIVE", -17, 1, time.Millisecond)
	m.ObserveReset()

	assert.Equal(1.0, testutil.ToFloat64(m.connects.WithLabelValues("xps1", "failed")))
	assert.Equal(3.0, testutil.ToFloat64(m.channelsOpen))
	assert.Equal(2.0, testutil.ToFloat64(m.exchangeRetries.WithLabelValues("SEND_AND_RECEIVE")))
	assert.Equal(1.0, testutil.ToFloat64(m.exchanges.WithLabelValues("SEND_AND_RECEIVE", "-17")))
	assert.Equal(1.0, testutil.ToFloat64(m.tableResets))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(strings.Contains(rec.Body.String(), "motion_channel_open 3"))
}
