package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ChannelEventAccepted("order_update")
		m.ChannelEventDropped("malformed")
		m.ChannelConnected(true)
		m.ChannelTransportError()
		m.StoreMerge("inserted")
		m.StoreSize(3)
		m.FetchObserved("applied", time.Second)
		m.HTTPRequestObserved("/x", http.MethodGet, 200, time.Millisecond)
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Counters(t *testing.T) {
	m := New("booking-sync-test")

	m.ChannelEventAccepted("service_request_accepted")
	m.ChannelEventAccepted("service_request_accepted")
	m.ChannelEventDropped("foreign_owner")
	m.StoreMerge("rejected")
	m.StoreSize(4)
	m.ChannelConnected(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.channelEvents.WithLabelValues("service_request_accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.channelDropped.WithLabelValues("foreign_owner")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeMerges.WithLabelValues("rejected")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.storeSize))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.channelConnected))
}

func TestMetrics_Handler(t *testing.T) {
	m := New("booking-sync-test")
	m.StoreSize(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "booking_sync_store_size")
}
