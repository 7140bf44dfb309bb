package async

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/records-ingest/constants"
)

// Job is one admitted file waiting for extraction.
type Job struct {
	FileID      uuid.UUID
	Category    constants.Category
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
