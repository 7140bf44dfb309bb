package constants

import "strings"

// FileTypes lists the decoder families a file may resolve to.
var FileTypes = []string{"SPREADSHEET", "CSV", "TEXT"}

// AllowedExtensions holds the extensions accepted for ingestion.
var AllowedExtensions = map[string]struct{}{
	"xlsx": {},
	"xlsm": {},
	"csv":  {},
	"txt":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// IsAllowedExt reports whether ext (with or without the dot) may be ingested.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}
