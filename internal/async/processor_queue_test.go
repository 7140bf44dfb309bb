package async

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/metrics"
	"github.com/joseph-ayodele/records-ingest/internal/pipeline"
)

type fakeProcessor struct {
	mu      sync.Mutex
	seen    []uuid.UUID
	traces  []string
	started chan struct{}
	release chan struct{}
}

func (f *fakeProcessor) ProcessFile(ctx context.Context, id uuid.UUID) (pipeline.Report, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, id)
	f.traces = append(f.traces, common.TraceIDFromContext(ctx))
	return pipeline.Report{FileID: id, Outcome: constants.OutcomeStored}, nil
}

func (f *fakeProcessor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}

func TestQueueProcessesEveryJob(t *testing.T) {
	proc := &fakeProcessor{}
	q := NewProcessorQueue(proc, nil, WithWorkers(3), WithQueueSize(4))

	ctx := common.WithTraceID(context.Background(), "trace-1")
	ids := make([]uuid.UUID, 10)
	for i := range ids {
		ids[i] = uuid.New()
		require.NoError(t, q.Enqueue(ctx, Job{FileID: ids[i], Category: constants.COR}))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(shutdownCtx)

	assert.ElementsMatch(t, ids, proc.seen)
	for _, tr := range proc.traces {
		assert.Equal(t, "trace-1", tr)
	}
}

func TestEnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&fakeProcessor{}, nil, WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{FileID: uuid.New()})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEnqueueBackpressureHonoursContext(t *testing.T) {
	proc := &fakeProcessor{started: make(chan struct{}, 4), release: make(chan struct{})}
	m := metrics.New(prometheus.NewRegistry())
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1), WithMetrics(m))

	// One job is held by the worker, one fills the buffer.
	require.NoError(t, q.Enqueue(context.Background(), Job{FileID: uuid.New()}))
	<-proc.started
	require.NoError(t, q.Enqueue(context.Background(), Job{FileID: uuid.New()}))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QueueDepth))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{FileID: uuid.New()})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(proc.release)
	q.Shutdown(context.Background())
	assert.Equal(t, 2, proc.count())
}
