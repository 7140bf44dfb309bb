package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
)

// MaxFileSize bounds a single ingested file.
const MaxFileSize = 32 << 20

// FSIngestor admits files from the local filesystem through a Gate.
type FSIngestor struct {
	gate   *Gate
	logger *slog.Logger
}

func NewFSIngestor(gate *Gate, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{gate: gate, logger: logger}
}

// IngestPath admits path under category. Duplicates are not an error; the
// result carries Deduplicated and the ID of the first admission.
func (i *FSIngestor) IngestPath(ctx context.Context, category constants.Category, path string) (IngestionResult, error) {
	out := IngestionResult{SourcePath: path, Category: category}

	abs, err := filepath.Abs(path)
	if err != nil {
		i.logger.Error("abs path error", "path", path, "error", err)
		return out, err
	}
	out.SourcePath = abs

	out.FileExt = constants.NormalizeExt(filepath.Ext(abs))
	u, err := ReadUpload(category, abs)
	if err != nil {
		i.logger.Warn("cannot read upload", "path", abs, "error", err)
		return out, err
	}
	out.HashHex = HashHex(u.Bytes)

	f, err := i.gate.Admit(ctx, u)
	var dup *DuplicateError
	switch {
	case errors.As(err, &dup):
		out.Deduplicated = true
		if dup.Existing != nil {
			out.FileID = dup.Existing.ID.String()
			out.UploadedAt = dup.Existing.UploadedAt
		}
		return out, nil
	case err != nil:
		return out, err
	}

	out.FileID = f.ID.String()
	out.UploadedAt = f.UploadedAt
	return out, nil
}

// ReadUpload reads the file at path as an upload under category. The
// extension must be decodable and the file no larger than MaxFileSize.
func ReadUpload(category constants.Category, path string) (Upload, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	if ext == "" || !AllowedExt(ext) {
		return Upload{}, fmt.Errorf("%w: unsupported or missing extension %q", common.ErrInvalidInput, ext)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Upload{}, err
	}
	if info.Size() > MaxFileSize {
		return Upload{}, fmt.Errorf("%w: %s exceeds %d bytes", common.ErrInvalidInput, path, MaxFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Upload{}, err
	}
	return Upload{
		Filename:   filepath.Base(path),
		Category:   category,
		Bytes:      data,
		SourcePath: path,
	}, nil
}

// IngestDirectory walks root, resolving each file's category from its
// top-level folder. Per-file failures are recorded and the walk continues.
func (i *FSIngestor) IngestDirectory(
	ctx context.Context,
	root string,
	skipHidden bool,
) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, fmt.Errorf("%w: root_path is required", common.ErrInvalidInput)
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		category, err := CategoryFromPath(root, path)
		if err != nil {
			i.logger.Warn("skipping file outside a known category folder", "path", path, "error", err)
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		r, err := i.IngestPath(ctx, category, path)
		if err != nil {
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	i.logger.Info("directory ingested", "root", root,
		"scanned", stats.Scanned, "matched", stats.Matched, "succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated, "failed", stats.Failed)
	return results, stats, nil
}

// CollectUploads reads every ingestible file under root/<category>/ into
// memory without admitting it. Files that cannot be read or sit outside a
// category folder are counted as failed and logged.
func CollectUploads(root string, skipHidden bool, logger *slog.Logger) ([]Upload, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, fmt.Errorf("%w: root_path is required", common.ErrInvalidInput)
	}

	var uploads []Upload
	var stats DirStats
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		stats.Scanned++
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		category, err := CategoryFromPath(root, path)
		if err == nil {
			var u Upload
			if u, err = ReadUpload(category, path); err == nil {
				uploads = append(uploads, u)
				stats.Succeeded++
				return nil
			}
		}
		logger.Warn("skipping file", "path", path, "error", err)
		stats.Failed++
		return nil
	})
	if err != nil {
		return uploads, stats, fmt.Errorf("walk: %w", err)
	}
	return uploads, stats, nil
}
