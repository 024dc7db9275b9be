package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/admin/premium/grant", "POST", 200, 10*time.Millisecond)
	m.RecordRequest("/admin/premium/grant", "POST", 200, 30*time.Millisecond)
	m.RecordError("/admin/premium/grant", "POST", "NOT_FOUND")
	m.RecordOperation("premium.grant", "ok")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/admin/premium/grant|POST|200"])
	assert.Equal(t, int64(20), snap.RequestLatencyMs["/admin/premium/grant|POST|200"])
	assert.Equal(t, int64(1), snap.Errors["/admin/premium/grant|POST|NOT_FOUND"])
	assert.Equal(t, int64(1), snap.Operations["premium.grant|ok"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordOperation("op", "ok")
	assert.Empty(t, m.Snapshot().Requests)
}
