// Package pipeline runs admitted files through decode, dispatch and store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/dispatch"
	"github.com/joseph-ayodele/records-ingest/internal/grid"
	"github.com/joseph-ayodele/records-ingest/internal/ingest"
	"github.com/joseph-ayodele/records-ingest/internal/metrics"
	"github.com/joseph-ayodele/records-ingest/internal/repository"
)

// Report is the outcome of one file.
type Report struct {
	FileID   uuid.UUID
	Filename string
	Category constants.Category
	Outcome  constants.Outcome
	RecordID string
	Err      error
}

// Processor coordinates the gate, the decoder and the dispatch registry.
type Processor struct {
	logger   *slog.Logger
	gate     *ingest.Gate
	registry *dispatch.Registry
	runs     repository.ExtractRunRepository
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewProcessor wires a processor. runs and m may be nil.
func NewProcessor(
	logger *slog.Logger,
	gate *ingest.Gate,
	registry *dispatch.Registry,
	runs repository.ExtractRunRepository,
	m *metrics.Metrics,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, gate: gate, registry: registry, runs: runs, metrics: m, now: time.Now}
}

// ProcessFile decodes and dispatches an admitted file. Only a missing file
// or a failure to record the run is returned as an error; everything else
// is folded into the report outcome.
func (p *Processor) ProcessFile(ctx context.Context, fileID uuid.UUID) (Report, error) {
	logger := common.LoggerFrom(ctx, p.logger)
	rep := Report{FileID: fileID}

	f, data, err := p.gate.Load(ctx, fileID)
	if err != nil {
		logger.Error("processor.load.failed", "file_id", fileID, "error", err)
		return rep, fmt.Errorf("load file %s: %w", fileID, err)
	}
	rep.Filename = f.Filename
	rep.Category = f.Category

	runID := uuid.Nil
	if p.runs != nil {
		if runID, err = p.runs.Start(ctx, f.ID, f.Category); err != nil {
			return rep, err
		}
	}

	start := p.now()
	var res dispatch.Result
	doc, err := grid.Decode(f.Filename, data)
	if err != nil {
		logger.Warn("processor.decode.failed", "file_id", f.ID, "filename", f.Filename, "error", err)
		res = dispatch.Result{Category: f.Category, Outcome: constants.OutcomeDecodeFailed, Err: err}
	} else {
		doc.ContentHash = f.ContentHash
		res = p.registry.Dispatch(ctx, string(f.Category), doc)
	}
	elapsed := p.now().Sub(start)

	rep.Outcome, rep.RecordID, rep.Err = res.Outcome, res.RecordID, res.Err
	p.metrics.Observe(f.Category, res.Outcome, elapsed)

	if p.runs != nil {
		if err := p.runs.Finish(ctx, runID, res.Outcome, res.RecordID, res.Err); err != nil {
			logger.Error("processor.run.finish.failed", "run_id", runID, "error", err)
		}
	}

	logger.Info("processor.file.done",
		"file_id", f.ID,
		"filename", f.Filename,
		"category", f.Category,
		"outcome", res.Outcome,
		"record_id", res.RecordID,
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return rep, nil
}

// ProcessUpload admits u through the gate and processes it. Identical bytes
// seen before yield a duplicate report pointing at the first admission.
func (p *Processor) ProcessUpload(ctx context.Context, u ingest.Upload) (Report, error) {
	rep := Report{Filename: u.Filename, Category: u.Category}

	f, err := p.gate.Admit(ctx, u)
	var dup *ingest.DuplicateError
	switch {
	case errors.As(err, &dup):
		rep.Outcome, rep.Err = constants.OutcomeDuplicate, err
		if dup.Existing != nil {
			rep.FileID = dup.Existing.ID
		}
		p.metrics.Observe(u.Category, constants.OutcomeDuplicate, 0)
		return rep, nil
	case errors.Is(err, common.ErrUnknownCategory):
		rep.Outcome, rep.Err = constants.OutcomeUnknownCategory, err
		p.metrics.Observe(u.Category, constants.OutcomeUnknownCategory, 0)
		return rep, nil
	case err != nil:
		return rep, err
	}

	return p.ProcessFile(ctx, f.ID)
}

// ProcessBatch processes uploads with at most workers in flight. A failing
// file never stops the others; its error lands in its report. Reports are
// returned in input order. The error is non-nil only when ctx ends early.
func (p *Processor) ProcessBatch(ctx context.Context, uploads []ingest.Upload, workers int) ([]Report, error) {
	if workers <= 0 {
		workers = 1
	}
	reports := make([]Report, len(uploads))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, u := range uploads {
		i, u := i, u
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				reports[i] = Report{Filename: u.Filename, Category: u.Category, Outcome: constants.OutcomeStoreFailed, Err: err}
				return nil
			}
			rep, err := p.ProcessUpload(ctx, u)
			if err != nil {
				rep.Err = err
				if rep.Outcome == "" {
					rep.Outcome = outcomeFor(err)
				}
			}
			reports[i] = rep
			return nil
		})
	}
	_ = g.Wait()

	p.logger.Info("processor.batch.done", "files", len(uploads), "workers", workers, "summary", Summarize(reports))
	return reports, ctx.Err()
}

func outcomeFor(err error) constants.Outcome {
	switch {
	case errors.Is(err, common.ErrDecode):
		return constants.OutcomeDecodeFailed
	case errors.Is(err, common.ErrUnknownCategory):
		return constants.OutcomeUnknownCategory
	case errors.Is(err, common.ErrInvalidInput):
		return constants.OutcomeNoExtractedData
	default:
		return constants.OutcomeStoreFailed
	}
}

// Summarize counts reports by outcome.
func Summarize(reports []Report) map[constants.Outcome]int {
	out := make(map[constants.Outcome]int)
	for _, r := range reports {
		out[r.Outcome]++
	}
	return out
}
