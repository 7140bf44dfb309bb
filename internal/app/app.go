// Package app wires the store, gate, registry and processor shared by the
// daemon and the batch CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/department"
	"github.com/joseph-ayodele/records-ingest/internal/dispatch"
	"github.com/joseph-ayodele/records-ingest/internal/export"
	"github.com/joseph-ayodele/records-ingest/internal/extractors"
	"github.com/joseph-ayodele/records-ingest/internal/ingest"
	"github.com/joseph-ayodele/records-ingest/internal/metrics"
	"github.com/joseph-ayodele/records-ingest/internal/pipeline"
	"github.com/joseph-ayodele/records-ingest/internal/repository"
)

type App struct {
	Config *common.Config
	Logger *slog.Logger

	Store      *repository.Store
	Files      repository.FileRepository
	Records    repository.RecordRepository
	Students   repository.StudentRepository
	Runs       repository.ExtractRunRepository
	Categories repository.CategoryRepository

	Gate      *ingest.Gate
	Ingestor  *ingest.FSIngestor
	Registry  *dispatch.Registry
	Processor *pipeline.Processor
	Metrics   *metrics.Metrics
	Export    *export.Service
}

// New opens and migrates the store and builds the processing graph. reg may
// be nil, in which case metrics are not collected.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	classifier, err := department.LoadRulesFile(cfg.Classifier.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load department rules: %w", err)
	}

	store, err := repository.Open(ctx, repository.ConfigFrom(cfg.Database), logger)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Logger:     logger,
		Store:      store,
		Files:      repository.NewFileRepository(store, logger),
		Records:    repository.NewRecordRepository(store, logger),
		Students:   repository.NewStudentRepository(store, logger),
		Runs:       repository.NewExtractRunRepository(store, logger),
		Categories: repository.NewCategoryRepository(store, logger),
	}

	a.Registry, err = dispatch.NewRegistry(dispatch.Env{
		Logger:     logger,
		Records:    a.Records,
		Students:   a.Students,
		Classifier: classifier,
	}, extractors.Handlers())
	if err != nil {
		store.Close()
		return nil, err
	}

	if reg != nil {
		a.Metrics = metrics.New(reg)
	}
	a.Gate = ingest.NewGate(a.Files, ingest.NewBlobStore(cfg.Storage.BlobDir), logger)
	a.Ingestor = ingest.NewFSIngestor(a.Gate, logger)
	a.Processor = pipeline.NewProcessor(logger, a.Gate, a.Registry, a.Runs, a.Metrics)
	a.Export = export.NewService(a.Records, a.Students, logger)

	logger.Info("app.ready",
		"db_dialect", store.Dialect(),
		"blob_dir", cfg.Storage.BlobDir,
		"department_rules", len(classifier.Rules()),
	)
	return a, nil
}

func (a *App) Close() {
	a.Store.Close()
}
