package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/records-ingest/constants"
)

// IngestedFile represents an admitted upload for data transfer between layers.
// ContentHash is the lowercase hex sha256 of the bytes and is unique across the store.
type IngestedFile struct {
	ID          uuid.UUID          `json:"id"`
	ContentHash string             `json:"content_hash"`
	Category    constants.Category `json:"category"`
	Filename    string             `json:"filename"`
	FileExt     string             `json:"file_ext"`
	FileSize    int                `json:"file_size"`
	SourcePath  string             `json:"source_path,omitempty"`
	UploadedAt  time.Time          `json:"uploaded_at"`
}
