package ingest

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/async"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	fsingest "github.com/joseph-ayodele/records-ingest/internal/ingest"
	"github.com/joseph-ayodele/records-ingest/internal/pipeline"
)

// UploadProcessor is satisfied by *pipeline.Processor.
type UploadProcessor interface {
	ProcessUpload(ctx context.Context, u fsingest.Upload) (pipeline.Report, error)
}

// Service handles ingestion business logic.
type Service struct {
	ingestor fsingest.Ingestor
	proc     UploadProcessor
	queue    async.Queue
	logger   *slog.Logger
}

// NewService creates a new ingest service.
func NewService(ing fsingest.Ingestor, proc UploadProcessor, q async.Queue, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		ingestor: ing,
		proc:     proc,
		queue:    q,
		logger:   logger,
	}
}

// FileUploadRequest is one uploaded file with its declared category.
type FileUploadRequest struct {
	Filename string
	Category string
	Bytes    []byte
}

// FileUploadResult is what the caller sees for an upload.
type FileUploadResult struct {
	FileID   string
	Category constants.Category
	Status   string
	RecordID string
	Message  string
}

// DirectoryIngestRequest represents directory ingestion parameters.
type DirectoryIngestRequest struct {
	RootPath   string
	SkipHidden *bool
}

// DirectoryIngestResult represents directory ingestion results.
type DirectoryIngestResult struct {
	Statistics fsingest.DirStats
	Results    []fsingest.IngestionResult
	Enqueued   int
}

// UploadFile admits and processes one upload synchronously. Pipeline
// outcomes such as duplicate or student_not_found come back in Status, not
// as errors.
func (s *Service) UploadFile(ctx context.Context, req FileUploadRequest) (*FileUploadResult, error) {
	v := common.NewValidator().
		Field("filename", req.Filename, common.Required, common.MaxLength(255), common.AllowedFilename).
		Field("category", req.Category, common.Required, common.KnownCategory).
		Field("bytes", req.Bytes, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Error("invalid upload request", "filename", req.Filename, "category", req.Category, "error", err)
		return nil, err
	}
	category, _ := constants.ParseCategory(req.Category)

	s.logger.Info("starting upload", "filename", req.Filename, "category", category, "size", len(req.Bytes))
	rep, err := s.proc.ProcessUpload(ctx, fsingest.Upload{
		Filename: strings.TrimSpace(req.Filename),
		Category: category,
		Bytes:    req.Bytes,
	})
	if err != nil {
		s.logger.Error("upload failed", "filename", req.Filename, "category", category, "error", err)
		return nil, common.ToStatus(err)
	}

	out := &FileUploadResult{
		Category: rep.Category,
		Status:   string(rep.Outcome),
		RecordID: rep.RecordID,
	}
	if rep.FileID != uuid.Nil {
		out.FileID = rep.FileID.String()
	}
	if rep.Err != nil {
		out.Message = rep.Err.Error()
	}
	s.logger.Info("upload finished", "filename", req.Filename, "file_id", out.FileID, "status", out.Status)
	return out, nil
}

// IngestDirectory admits every file under root/<category>/ and queues the
// newly admitted ones for extraction.
func (s *Service) IngestDirectory(ctx context.Context, req DirectoryIngestRequest) (*DirectoryIngestResult, error) {
	root := strings.TrimSpace(req.RootPath)
	if root == "" {
		s.logger.Error("ingest directory request missing root_path")
		return nil, common.InvalidArgumentError("root_path is required")
	}

	skipHidden := true
	if req.SkipHidden != nil {
		skipHidden = *req.SkipHidden
	}

	s.logger.Info("starting directory ingest", "root", root, "skip_hidden", skipHidden)
	results, stats, err := s.ingestor.IngestDirectory(ctx, root, skipHidden)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("ingest directory: %v", err)
	}

	out := &DirectoryIngestResult{Statistics: stats, Results: results}
	for i := range results {
		queued, err := s.ProcessIngestedFile(ctx, &results[i])
		if err != nil {
			return out, err
		}
		if queued {
			out.Enqueued++
		}
	}

	s.logger.Info("directory ingest completed", "root", root, "scanned", stats.Scanned, "matched", stats.Matched,
		"succeeded", stats.Succeeded, "deduplicated", stats.Deduplicated, "failed", stats.Failed, "enqueued", out.Enqueued)
	return out, nil
}

// ProcessIngestedFile queues an admitted file for extraction. Failed and
// deduplicated results are skipped; duplicates never reach extraction.
func (s *Service) ProcessIngestedFile(ctx context.Context, result *fsingest.IngestionResult) (bool, error) {
	if result.Err != "" || result.FileID == "" {
		return false, nil
	}
	if result.Deduplicated {
		s.logger.Info("skipping processing (duplicate)", "file_id", result.FileID, "path", result.SourcePath)
		return false, nil
	}

	fileUUID, err := uuid.Parse(result.FileID)
	if err != nil {
		s.logger.Error("invalid file_id: cannot enqueue", "file_id", result.FileID, "error", err)
		return false, common.InvalidArgumentError("invalid file_id")
	}

	if err := s.queue.Enqueue(ctx, async.Job{
		FileID:      fileUUID,
		Category:    result.Category,
		SubmittedAt: time.Now(),
		TraceID:     common.TraceIDFromContext(ctx),
	}); err != nil {
		s.logger.Error("enqueue failed for file", "file_id", result.FileID, "err", err)
		return false, common.InternalErrorf("enqueue failed: %v", err)
	}
	return true, nil
}
