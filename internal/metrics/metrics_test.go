package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/records-ingest/constants"
)

func TestObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Observe(constants.COR, constants.OutcomeStored, 20*time.Millisecond)
	m.Observe(constants.COR, constants.OutcomeStored, 30*time.Millisecond)
	m.Observe(constants.Grades, constants.OutcomeStudentNotFound, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("cor", "stored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Outcomes.WithLabelValues("grades", "student_not_found")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.ExtractSeconds))

	m.SetQueueDepth(7)
	assert.Equal(t, 7.0, testutil.ToFloat64(m.QueueDepth))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Observe(constants.COR, constants.OutcomeStored, time.Second)
		m.SetQueueDepth(1)
	})
}
