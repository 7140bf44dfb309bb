package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/repository"
)

// Upload is one file offered for ingestion.
type Upload struct {
	Filename   string
	Category   constants.Category
	Bytes      []byte
	SourcePath string
}

// DuplicateError reports bytes whose digest is already recorded.
type DuplicateError struct {
	Hash     string
	Existing *entity.IngestedFile
}

func (e *DuplicateError) Error() string {
	if e.Existing != nil {
		return fmt.Sprintf("duplicate content %s (first uploaded as %s)", e.Hash, e.Existing.Filename)
	}
	return "duplicate content " + e.Hash
}

func (e *DuplicateError) Is(target error) bool {
	return target == common.ErrDuplicateContent
}

// HashHex returns the lowercase hex sha256 of data.
func HashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Gate admits uploads at most once per content digest.
type Gate struct {
	files  repository.FileRepository
	blobs  *BlobStore
	logger *slog.Logger
	now    func() time.Time

	// serializes claim+blob write inside this process; the unique
	// content_hash index covers other processes.
	mu sync.Mutex
}

func NewGate(files repository.FileRepository, blobs *BlobStore, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{files: files, blobs: blobs, logger: logger, now: time.Now}
}

// Admit records u and stores its bytes. A digest seen before yields a
// *DuplicateError and leaves the store untouched.
func (g *Gate) Admit(ctx context.Context, u Upload) (*entity.IngestedFile, error) {
	if len(u.Bytes) == 0 {
		return nil, fmt.Errorf("%w: empty file %q", common.ErrInvalidInput, u.Filename)
	}
	if !constants.IsKnownCategory(u.Category) {
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownCategory, u.Category)
	}

	hash := HashHex(u.Bytes)
	f := &entity.IngestedFile{
		ID:          uuid.New(),
		ContentHash: hash,
		Category:    u.Category,
		Filename:    filepath.Base(u.Filename),
		FileExt:     constants.NormalizeExt(filepath.Ext(u.Filename)),
		FileSize:    len(u.Bytes),
		SourcePath:  u.SourcePath,
		UploadedAt:  g.now().UTC(),
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	claimed, err := g.files.Claim(ctx, f)
	if err != nil {
		return nil, err
	}
	if !claimed {
		dup := &DuplicateError{Hash: hash}
		if existing, err := g.files.GetByHash(ctx, hash); err == nil {
			dup.Existing = existing
		}
		g.logger.Info("duplicate upload rejected", "filename", u.Filename, "hash", hash, "category", u.Category)
		return nil, dup
	}

	if err := g.blobs.Put(hash, u.Bytes); err != nil {
		g.logger.Error("failed to store blob, releasing claim", "hash", hash, "error", err)
		if derr := g.files.Delete(ctx, f.ID); derr != nil {
			g.logger.Error("failed to release claim", "file_id", f.ID, "error", derr)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	g.logger.Info("upload admitted", "file_id", f.ID, "filename", f.Filename, "category", f.Category, "hash", hash, "size", f.FileSize)
	return f, nil
}

// Load returns an admitted file and its bytes.
func (g *Gate) Load(ctx context.Context, fileID uuid.UUID) (*entity.IngestedFile, []byte, error) {
	f, err := g.files.GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	data, err := g.blobs.Get(f.ContentHash)
	if err != nil {
		return f, nil, err
	}
	return f, data, nil
}
