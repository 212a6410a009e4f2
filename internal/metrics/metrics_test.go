package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSummary(t *testing.T) {
	m := New()

	m.RecordSummary(OutcomeSaved, 2*time.Second)
	m.RecordSummary(OutcomeSaved, time.Second)
	m.RecordSummary(OutcomeFailed, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.summariesTotal.WithLabelValues(OutcomeSaved)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.summariesTotal.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.summarizeDuration))
}

func TestObserveRequest(t *testing.T) {
	m := New()

	m.ObserveRequest("GET", "/api/meetings", 200, 10*time.Millisecond)
	m.ObserveRequest("GET", "/api/meetings", 200, 20*time.Millisecond)
	m.ObserveRequest("GET", "/api/meetings/:id", 404, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/meetings", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("GET", "/api/meetings/:id", "404")))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.RecordMeetingOp("create")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `meeting_store_operations_total{op="create"} 1`)
}

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordMeetingOp("delete")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.meetingOpsTotal.WithLabelValues("delete")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.meetingOpsTotal.WithLabelValues("delete")))
}
