package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
)

// AllowedExt checks if a file extension is one the decoder understands.
func AllowedExt(ext string) bool {
	return constants.IsAllowedExt(ext)
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

// CategoryFromPath resolves the category of path from the first directory
// below root, following the <root>/<category>/<file> upload layout.
func CategoryFromPath(root, path string) (constants.Category, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 || parts[0] == ".." {
		return "", fmt.Errorf("%w: %s is not inside a category folder", common.ErrInvalidInput, path)
	}
	cat, ok := constants.ParseCategory(parts[0])
	if !ok {
		return "", fmt.Errorf("%w: folder %q", common.ErrUnknownCategory, parts[0])
	}
	return cat, nil
}
