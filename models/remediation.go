package models

import "time"

// Remediation issue lifecycle states. OPEN is the only non-terminal state:
// RESOLVED and UNRECOVERABLE stand until an operator explicitly reopens the
// issue.
const (
	IssueStatusOpen          = "OPEN"
	IssueStatusResolved      = "RESOLVED"
	IssueStatusUnrecoverable = "UNRECOVERABLE"
)

// SampleDataMaxLen caps the truncated ciphertext sample stored for
// diagnosis. Samples never contain key material or plaintext.
const SampleDataMaxLen = 64

// TargetTypePayment is the target type recorded for issues raised against
// payment records.
const TargetTypePayment = "payment"

// RemediationIssue records one field on one record that failed decryption
// under every key in the configured ring.
//
// At most one OPEN issue exists per (TargetType, TargetID, FieldName) tuple;
// rescans hitting the same failing field leave the existing issue in place.
type RemediationIssue struct {
	// ID is the issue identifier (UUID).
	ID string `json:"id"`

	// TargetType names the owning record kind, e.g. "payment".
	TargetType string `json:"target_type"`

	// TargetID identifies the owning record.
	TargetID string `json:"target_id"`

	// FieldName is the sensitive field that failed, e.g. "recipient".
	FieldName string `json:"field_name"`

	// Status is one of IssueStatusOpen, IssueStatusResolved,
	// IssueStatusUnrecoverable.
	Status string `json:"status"`

	// SampleData is the stored ciphertext truncated to SampleDataMaxLen
	// characters, kept for operator diagnosis.
	SampleData string `json:"sample_data"`

	// Note carries the failure reason or an operator annotation.
	Note string `json:"note"`

	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// TableName returns the name of the database table associated with the
// RemediationIssue model.
func (i RemediationIssue) TableName() string {
	return "remediation_issues"
}

// TruncateSample shortens a stored ciphertext value to a diagnosable sample.
func TruncateSample(stored string) string {
	if len(stored) <= SampleDataMaxLen {
		return stored
	}

	return stored[:SampleDataMaxLen]
}

// IssueFilter narrows an issue listing. Zero-valued fields are ignored.
type IssueFilter struct {
	Status     string
	TargetType string
}

// Retry reason codes returned by the operator retry endpoint when the
// supplied key does not recover the field.
const (
	RetryReasonWrongKey    = "WRONG_KEY"
	RetryReasonCorruptData = "CORRUPT_DATA"
	RetryReasonNotFound    = "NOT_FOUND"
)

// RetryResult is the outcome of one operator retry attempt.
type RetryResult struct {
	// Success is true when the supplied key decrypted the field and the
	// record was re-encrypted under the current key.
	Success bool `json:"success"`

	// Reason is set on failure: RetryReasonWrongKey, RetryReasonCorruptData
	// or RetryReasonNotFound.
	Reason string `json:"reason,omitempty"`
}
