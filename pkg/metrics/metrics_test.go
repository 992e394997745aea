package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestThroughputTracker(t *testing.T) {
	tracker := NewThroughputTracker("region")
	tracker.Increment(5)
	time.Sleep(10 * time.Millisecond)

	got := tracker.GetAndReset()
	assert.Greater(t, got, 0.0)
	assert.Equal(t, got, testutil.ToFloat64(Throughput.WithLabelValues("region")))

	tracker.mu.Lock()
	assert.Zero(t, tracker.count)
	tracker.mu.Unlock()
}

func TestCountersAccumulate(t *testing.T) {
	before := testutil.ToFloat64(RowsIngested.WithLabelValues("metrics_test"))
	RowsIngested.WithLabelValues("metrics_test").Add(7)
	assert.Equal(t, before+7, testutil.ToFloat64(RowsIngested.WithLabelValues("metrics_test")))
}

func TestTimer(t *testing.T) {
	timer := NewTimer()
	time.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, timer.Stop(), time.Millisecond)
}
