package repository

import (
	"context"
	"fmt"
	"log/slog"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
)

// CategoryCount is the number of stored records for one category and department.
type CategoryCount struct {
	Category   constants.Category
	Department string
	Records    int64
}

// CategoryRepository reports what has been stored per category.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]CategoryCount, error)
}

type categoryRepository struct {
	store  *Store
	logger *slog.Logger
}

func NewCategoryRepository(store *Store, logger *slog.Logger) CategoryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &categoryRepository{store: store, logger: logger}
}

func (r *categoryRepository) ListCategories(ctx context.Context) ([]CategoryCount, error) {
	query, args := r.store.builder().
		Select("category", "department", entsql.As(entsql.Count("*"), "records")).
		From(entsql.Table(tableRecords)).
		GroupBy("category", "department").
		OrderBy("category", "department").
		Query()

	var out []CategoryCount
	err := r.store.query(ctx, query, args, func(rows entsql.ColumnScanner) error {
		var (
			c   CategoryCount
			cat string
		)
		if err := rows.Scan(&cat, &c.Department, &c.Records); err != nil {
			return err
		}
		c.Category = constants.Category(cat)
		out = append(out, c)
		return nil
	})
	if err != nil {
		r.logger.Error("failed to count records by category", "error", err)
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}
