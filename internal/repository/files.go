package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
)

// FileRepository persists admitted uploads keyed by content hash.
type FileRepository interface {
	// Claim inserts f unless its content hash is already recorded. claimed is
	// false for a duplicate, in which case nothing is written.
	Claim(ctx context.Context, f *entity.IngestedFile) (claimed bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.IngestedFile, error)
	GetByHash(ctx context.Context, hash string) (*entity.IngestedFile, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByCategory(ctx context.Context) (map[constants.Category]int, error)
}

type fileRepo struct {
	store  *Store
	logger *slog.Logger
}

func NewFileRepository(store *Store, logger *slog.Logger) FileRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &fileRepo{
		store:  store,
		logger: logger,
	}
}

var fileColumns = []string{"id", "content_hash", "category", "filename", "file_ext", "file_size", "source_path", "uploaded_at"}

func (r *fileRepo) Claim(ctx context.Context, f *entity.IngestedFile) (bool, error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	query, args := r.store.builder().Insert(tableFiles).
		Columns(fileColumns...).
		Values(f.ID.String(), f.ContentHash, string(f.Category), f.Filename, f.FileExt, f.FileSize, f.SourcePath, formatTime(f.UploadedAt)).
		OnConflict(entsql.ConflictColumns("content_hash"), entsql.DoNothing()).
		Query()

	n, err := r.store.exec(ctx, query, args)
	if err != nil {
		r.logger.Error("failed to claim ingested file", "hash", f.ContentHash, "filename", f.Filename, "error", err)
		return false, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return n == 1, nil
}

func (r *fileRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.IngestedFile, error) {
	return r.getOne(ctx, entsql.EQ("id", id.String()))
}

func (r *fileRepo) GetByHash(ctx context.Context, hash string) (*entity.IngestedFile, error) {
	return r.getOne(ctx, entsql.EQ("content_hash", hash))
}

func (r *fileRepo) getOne(ctx context.Context, p *entsql.Predicate) (*entity.IngestedFile, error) {
	query, args := r.store.builder().Select(fileColumns...).
		From(entsql.Table(tableFiles)).
		Where(p).
		Limit(1).
		Query()

	var out *entity.IngestedFile
	err := r.store.query(ctx, query, args, func(rows entsql.ColumnScanner) error {
		f, err := scanFile(rows)
		out = f
		return err
	})
	if err != nil {
		r.logger.Error("failed to get ingested file", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	if out == nil {
		return nil, common.ErrNotFound
	}
	return out, nil
}

func (r *fileRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query, args := r.store.builder().Delete(tableFiles).Where(entsql.EQ("id", id.String())).Query()
	if _, err := r.store.exec(ctx, query, args); err != nil {
		r.logger.Error("failed to delete ingested file", "file_id", id, "error", err)
		return fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return nil
}

func (r *fileRepo) CountByCategory(ctx context.Context) (map[constants.Category]int, error) {
	query, args := r.store.builder().Select("category", entsql.Count("*")).
		From(entsql.Table(tableFiles)).
		GroupBy("category").
		Query()

	out := make(map[constants.Category]int)
	err := r.store.query(ctx, query, args, func(rows entsql.ColumnScanner) error {
		var (
			cat string
			n   int
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return err
		}
		out[constants.Category(cat)] = n
		return nil
	})
	if err != nil {
		r.logger.Error("failed to count ingested files", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func scanFile(rows entsql.ColumnScanner) (*entity.IngestedFile, error) {
	var (
		f                 entity.IngestedFile
		id, cat, uploaded string
	)
	if err := rows.Scan(&id, &f.ContentHash, &cat, &f.Filename, &f.FileExt, &f.FileSize, &f.SourcePath, &uploaded); err != nil {
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Join(common.ErrInternal, err)
	}
	f.ID = parsed
	f.Category = constants.Category(cat)
	f.UploadedAt = parseTime(uploaded)
	return &f, nil
}
