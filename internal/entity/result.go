package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/records-ingest/constants"
)

// ExtractionResult is produced once per file and handed to exactly one store.
// Key identifies the record within its category when re-uploads should replace
// the previous version (grades use the student ID); empty means always insert.
type ExtractionResult struct {
	Category      constants.Category `json:"category"`
	Department    string             `json:"department"`
	Key           string             `json:"key,omitempty"`
	Metadata      map[string]any     `json:"metadata"`
	Payload       any                `json:"payload"`
	FormattedText string             `json:"formatted_text"`
	SourceFile    string             `json:"source_file"`
	ContentHash   string             `json:"content_hash"`
}

// StoredRecord is a persisted ExtractionResult.
type StoredRecord struct {
	ID            uuid.UUID          `json:"id"`
	Category      constants.Category `json:"category"`
	Department    string             `json:"department"`
	Key           string             `json:"key"`
	SourceFile    string             `json:"source_file"`
	ContentHash   string             `json:"content_hash"`
	Payload       json.RawMessage    `json:"payload"`
	Metadata      json.RawMessage    `json:"metadata"`
	FormattedText string             `json:"formatted_text"`
	CreatedAt     time.Time          `json:"created_at"`
}
