package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
)

// ExtractRun is one processing attempt of an ingested file.
type ExtractRun struct {
	ID           uuid.UUID
	FileID       uuid.UUID
	Category     constants.Category
	Outcome      string
	RecordID     string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// outcomeRunning marks a run that has not finished yet.
const outcomeRunning = "running"

// ExtractRunRepository keeps an audit trail of extraction attempts.
type ExtractRunRepository interface {
	Start(ctx context.Context, fileID uuid.UUID, category constants.Category) (uuid.UUID, error)
	Finish(ctx context.Context, runID uuid.UUID, outcome constants.Outcome, recordID string, cause error) error
	ListByFile(ctx context.Context, fileID uuid.UUID) ([]*ExtractRun, error)
}

type extractRunRepo struct {
	store *Store
	log   *slog.Logger
}

func NewExtractRunRepository(store *Store, log *slog.Logger) ExtractRunRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractRunRepo{store: store, log: log}
}

var runColumns = []string{"id", "file_id", "category", "outcome", "record_id", "error_message", "started_at", "finished_at"}

func (r *extractRunRepo) Start(ctx context.Context, fileID uuid.UUID, category constants.Category) (uuid.UUID, error) {
	id := uuid.New()
	query, args := r.store.builder().Insert(tableExtractRuns).
		Columns(runColumns...).
		Values(id.String(), fileID.String(), string(category), outcomeRunning, "", "", formatTime(time.Now()), "").
		Query()
	if _, err := r.store.exec(ctx, query, args); err != nil {
		r.log.Error("extract_run start failed", "file_id", fileID, "err", err)
		return uuid.Nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	r.log.Debug("extract_run started", "run_id", id, "file_id", fileID, "category", category)
	return id, nil
}

func (r *extractRunRepo) Finish(ctx context.Context, runID uuid.UUID, outcome constants.Outcome, recordID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	query, args := r.store.builder().Update(tableExtractRuns).
		Set("outcome", string(outcome)).
		Set("record_id", recordID).
		Set("error_message", msg).
		Set("finished_at", formatTime(time.Now())).
		Where(entsql.EQ("id", runID.String())).
		Query()
	if _, err := r.store.exec(ctx, query, args); err != nil {
		r.log.Error("extract_run finish failed", "run_id", runID, "err", err)
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if outcome.Success() {
		r.log.Info("extract_run finished", "run_id", runID, "outcome", outcome)
	} else {
		r.log.Warn("extract_run finished", "run_id", runID, "outcome", outcome, "error", msg)
	}
	return nil
}

func (r *extractRunRepo) ListByFile(ctx context.Context, fileID uuid.UUID) ([]*ExtractRun, error) {
	query, args := r.store.builder().Select(runColumns...).
		From(entsql.Table(tableExtractRuns)).
		Where(entsql.EQ("file_id", fileID.String())).
		OrderBy("started_at").
		Query()

	var out []*ExtractRun
	err := r.store.query(ctx, query, args, func(rows entsql.ColumnScanner) error {
		var (
			run                              ExtractRun
			id, file, cat, started, finished string
		)
		if err := rows.Scan(&id, &file, &cat, &run.Outcome, &run.RecordID, &run.ErrorMessage, &started, &finished); err != nil {
			return err
		}
		run.ID, _ = uuid.Parse(id)
		run.FileID, _ = uuid.Parse(file)
		run.Category = constants.Category(cat)
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		out = append(out, &run)
		return nil
	})
	if err != nil {
		r.log.Error("extract_run list failed", "file_id", fileID, "err", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}
