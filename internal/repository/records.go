package repository

import (
	"context"
	stdsql "database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
)

// RecordRepository stores extraction results per category and department.
type RecordRepository interface {
	Insert(ctx context.Context, res *entity.ExtractionResult) (*entity.StoredRecord, error)
	// UpsertByKey replaces the record with the same category and key.
	UpsertByKey(ctx context.Context, res *entity.ExtractionResult) (*entity.StoredRecord, error)
	ListByCategory(ctx context.Context, category constants.Category) ([]*entity.StoredRecord, error)
	ListByDepartment(ctx context.Context, category constants.Category, department string) ([]*entity.StoredRecord, error)
}

type recordRepo struct {
	store  *Store
	logger *slog.Logger
	now    func() time.Time
}

func NewRecordRepository(store *Store, logger *slog.Logger) RecordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &recordRepo{store: store, logger: logger, now: time.Now}
}

var recordColumns = []string{
	"id", "category", "department", "record_key", "source_file", "content_hash",
	"payload", "metadata", "formatted_text", "created_at",
}

func (r *recordRepo) Insert(ctx context.Context, res *entity.ExtractionResult) (*entity.StoredRecord, error) {
	return r.write(ctx, res, false)
}

func (r *recordRepo) UpsertByKey(ctx context.Context, res *entity.ExtractionResult) (*entity.StoredRecord, error) {
	if res.Key == "" {
		return nil, fmt.Errorf("%w: upsert requires a record key", common.ErrInvalidInput)
	}
	return r.write(ctx, res, true)
}

func (r *recordRepo) write(ctx context.Context, res *entity.ExtractionResult, upsert bool) (*entity.StoredRecord, error) {
	rec, err := r.toStored(res)
	if err != nil {
		return nil, err
	}

	var key any
	if rec.Key != "" {
		key = rec.Key
	}
	ins := r.store.builder().Insert(tableRecords).
		Columns(recordColumns...).
		Values(rec.ID.String(), string(rec.Category), rec.Department, key, rec.SourceFile, rec.ContentHash,
			string(rec.Payload), string(rec.Metadata), rec.FormattedText, formatTime(rec.CreatedAt))
	if upsert {
		ins = ins.OnConflict(
			entsql.ConflictColumns("category", "record_key"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range []string{"department", "source_file", "content_hash", "payload", "metadata", "formatted_text", "created_at"} {
					u.SetExcluded(c)
				}
			}),
		)
	}
	query, args := ins.Query()
	if _, err := r.store.exec(ctx, query, args); err != nil {
		r.logger.Error("failed to store record", "category", rec.Category, "key", rec.Key, "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}

	if upsert {
		// The conflicting row keeps its original id.
		stored, err := r.getByKey(ctx, rec.Category, rec.Key)
		if err != nil {
			return nil, err
		}
		return stored, nil
	}
	return rec, nil
}

func (r *recordRepo) toStored(res *entity.ExtractionResult) (*entity.StoredRecord, error) {
	if !constants.IsKnownCategory(res.Category) {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownCategory, res.Category)
	}
	payload, err := json.Marshal(res.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal payload: %v", common.ErrValidation, err)
	}
	if err := ValidatePayload(res.Category, payload); err != nil {
		r.logger.Warn("payload rejected", "category", res.Category, "source_file", res.SourceFile, "error", err)
		return nil, err
	}
	meta := res.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	metadata, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal metadata: %v", common.ErrValidation, err)
	}
	dept := res.Department
	if dept == "" {
		dept = constants.DeptUnknown
	}
	return &entity.StoredRecord{
		ID:            uuid.New(),
		Category:      res.Category,
		Department:    dept,
		Key:           res.Key,
		SourceFile:    res.SourceFile,
		ContentHash:   res.ContentHash,
		Payload:       payload,
		Metadata:      metadata,
		FormattedText: res.FormattedText,
		CreatedAt:     r.now().UTC(),
	}, nil
}

func (r *recordRepo) getByKey(ctx context.Context, category constants.Category, key string) (*entity.StoredRecord, error) {
	query, args := r.store.builder().Select(recordColumns...).
		From(entsql.Table(tableRecords)).
		Where(entsql.And(entsql.EQ("category", string(category)), entsql.EQ("record_key", key))).
		Limit(1).
		Query()
	list, err := r.scan(ctx, query, args)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, common.ErrNotFound
	}
	return list[0], nil
}

func (r *recordRepo) ListByCategory(ctx context.Context, category constants.Category) ([]*entity.StoredRecord, error) {
	query, args := r.store.builder().Select(recordColumns...).
		From(entsql.Table(tableRecords)).
		Where(entsql.EQ("category", string(category))).
		OrderBy("created_at", "id").
		Query()
	return r.scan(ctx, query, args)
}

func (r *recordRepo) ListByDepartment(ctx context.Context, category constants.Category, department string) ([]*entity.StoredRecord, error) {
	query, args := r.store.builder().Select(recordColumns...).
		From(entsql.Table(tableRecords)).
		Where(entsql.And(entsql.EQ("category", string(category)), entsql.EQ("department", department))).
		OrderBy("created_at", "id").
		Query()
	return r.scan(ctx, query, args)
}

func (r *recordRepo) scan(ctx context.Context, query string, args []any) ([]*entity.StoredRecord, error) {
	var out []*entity.StoredRecord
	err := r.store.query(ctx, query, args, func(rows entsql.ColumnScanner) error {
		var (
			rec                                 entity.StoredRecord
			id, cat, payload, metadata, created string
			key                                 stdsql.NullString
		)
		if err := rows.Scan(&id, &cat, &rec.Department, &key, &rec.SourceFile, &rec.ContentHash,
			&payload, &metadata, &rec.FormattedText, &created); err != nil {
			return err
		}
		parsed, err := uuid.Parse(id)
		if err != nil {
			return errors.Join(common.ErrInternal, err)
		}
		rec.ID = parsed
		rec.Category = constants.Category(cat)
		rec.Key = key.String
		rec.Payload = json.RawMessage(payload)
		rec.Metadata = json.RawMessage(metadata)
		rec.CreatedAt = parseTime(created)
		out = append(out, &rec)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to query records", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}
