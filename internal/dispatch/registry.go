// Package dispatch routes a decoded document to the extractor and store
// registered for its category.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/department"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/grid"
	"github.com/joseph-ayodele/records-ingest/internal/repository"
)

// Env carries everything handlers need. It is built once at startup and
// shared read-only by every dispatch.
type Env struct {
	Logger     *slog.Logger
	Records    repository.RecordRepository
	Students   repository.StudentRepository
	Classifier *department.Classifier
	Now        func() time.Time
}

func (e *Env) withDefaults() *Env {
	out := *e
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.Classifier == nil {
		out.Classifier = department.Default()
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return &out
}

// ExtractFunc turns a document into a result. A nil result with a nil
// error means the document held no usable data.
type ExtractFunc func(ctx context.Context, env *Env, doc *grid.Document) (*entity.ExtractionResult, error)

// StoreFunc persists a result and returns the stored record ID. Errors
// matching common.ErrDependencyMissing are reported as student_not_found.
type StoreFunc func(ctx context.Context, env *Env, res *entity.ExtractionResult) (string, error)

// Handler is the extract/store pair of one category.
type Handler struct {
	Extract ExtractFunc
	Store   StoreFunc
}

// Result is the outcome of dispatching one document.
type Result struct {
	Category constants.Category
	Outcome  constants.Outcome
	RecordID string
	Err      error
}

// Registry maps every category to its handler.
type Registry struct {
	env      *Env
	handlers map[constants.Category]Handler
}

// NewRegistry fails unless every category has a complete handler and no
// handler is registered for an unknown category.
func NewRegistry(env Env, handlers map[constants.Category]Handler) (*Registry, error) {
	var missing []string
	for _, cat := range constants.AllCategories() {
		h, ok := handlers[cat]
		if !ok || h.Extract == nil || h.Store == nil {
			missing = append(missing, string(cat))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: no handler for %s", common.ErrInvalidInput, strings.Join(missing, ", "))
	}
	for cat := range handlers {
		if !constants.IsKnownCategory(cat) {
			return nil, fmt.Errorf("%w: handler for %q", common.ErrUnknownCategory, cat)
		}
	}

	copied := make(map[constants.Category]Handler, len(handlers))
	for k, v := range handlers {
		copied[k] = v
	}
	return &Registry{env: env.withDefaults(), handlers: copied}, nil
}

// Env returns the environment handlers run with.
func (r *Registry) Env() *Env { return r.env }

// Dispatch extracts and stores doc. It never panics and never returns an
// error directly: every failure is folded into Result.
func (r *Registry) Dispatch(ctx context.Context, category string, doc *grid.Document) (res Result) {
	logger := common.LoggerFrom(ctx, r.env.Logger)

	cat, ok := constants.ParseCategory(category)
	if !ok {
		logger.Warn("dispatch.category.unknown", "category", category, "filename", filename(doc))
		return Result{Category: constants.Category(category), Outcome: constants.OutcomeUnknownCategory,
			Err: fmt.Errorf("%w: %q", common.ErrUnknownCategory, category)}
	}
	res.Category = cat
	logger = logger.With("category", cat, "filename", filename(doc))

	defer func() {
		if p := recover(); p != nil {
			logger.Error("dispatch.handler.panic", "panic", p, "stack", string(debug.Stack()))
			res = Result{Category: cat, Outcome: constants.OutcomeStoreFailed, Err: fmt.Errorf("%w: handler panic: %v", common.ErrInternal, p)}
		}
	}()

	h := r.handlers[cat]
	out, err := h.Extract(ctx, r.env, doc)
	if err != nil {
		logger.Warn("dispatch.extract.failed", "error", err)
		outcome := constants.OutcomeNoExtractedData
		if errors.Is(err, common.ErrDecode) {
			outcome = constants.OutcomeDecodeFailed
		}
		return Result{Category: cat, Outcome: outcome, Err: err}
	}
	if out == nil {
		logger.Warn("dispatch.extract.miss")
		return Result{Category: cat, Outcome: constants.OutcomeNoExtractedData}
	}
	out.Category = cat
	if out.SourceFile == "" {
		out.SourceFile = filename(doc)
	}
	if out.ContentHash == "" && doc != nil {
		out.ContentHash = doc.ContentHash
	}

	id, err := h.Store(ctx, r.env, out)
	switch {
	case errors.Is(err, common.ErrDependencyMissing):
		logger.Warn("dispatch.store.skipped", "reason", constants.OutcomeStudentNotFound, "error", err)
		return Result{Category: cat, Outcome: constants.OutcomeStudentNotFound, Err: err}
	case err != nil:
		logger.Error("dispatch.store.failed", "error", err)
		return Result{Category: cat, Outcome: constants.OutcomeStoreFailed, Err: err}
	}

	logger.Info("dispatch.store.ok", "record_id", id, "department", out.Department)
	return Result{Category: cat, Outcome: constants.OutcomeStored, RecordID: id}
}

func filename(doc *grid.Document) string {
	if doc == nil {
		return ""
	}
	return doc.Filename
}
