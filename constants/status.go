package constants

// Outcome is the short status string surfaced to the upload layer for each file.
type Outcome string

// Stable values (returned to callers and used as metric labels).
const (
	OutcomeStored          Outcome = "stored"
	OutcomeDuplicate       Outcome = "duplicate"
	OutcomeNoExtractedData Outcome = "no_extracted_data"
	OutcomeStudentNotFound Outcome = "student_not_found"
	OutcomeDecodeFailed    Outcome = "decode_failed"
	OutcomeUnknownCategory Outcome = "unknown_category"
	OutcomeStoreFailed     Outcome = "store_failed"
)

// Success reports whether the outcome left a persisted record behind.
func (o Outcome) Success() bool {
	return o == OutcomeStored
}
