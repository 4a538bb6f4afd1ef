package service

import (
	"context"

	"github.com/amanahapps/zakat-keeper/internal/crypto"
	"github.com/amanahapps/zakat-keeper/models"
)

// FieldRef identifies one sensitive field on one stored record, e.g.
// {"payment", "<uuid>", "recipient"}.
type FieldRef struct {
	TargetType string
	TargetID   string
	FieldName  string
}

// EncryptionEngine is the cryptographic surface the services depend on.
// Implemented by *crypto.Engine.
type EncryptionEngine interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(envelope string) (string, error)
	DecryptWith(envelope string, key crypto.Key) (string, error)
	IsClientEnvelope(value string) bool
	IsEncrypted(value string) bool
}

// FieldCodec encrypts sensitive fields for storage and decrypts them for
// retrieval, honoring the client-envelope pass-through policy: a value that
// already carries the client "ZK1" tag is stored and returned byte for byte,
// never re-encrypted and never decrypted server-side.
type FieldCodec interface {
	// EncryptField prepares one field value for storage. It returns the
	// stored form together with its format marker: models.FormatZK1 for a
	// passed-through client envelope, models.FormatServerGCM for a value
	// encrypted here. Empty values are stored empty with an empty marker.
	EncryptField(ctx context.Context, value string) (stored, format string, err error)

	// DecryptField recovers one field for retrieval. Client envelopes come
	// back verbatim; server envelopes are decrypted through the key
	// fallback chain. On failure it returns a *FieldDecryptError and an
	// empty value, never partial plaintext.
	DecryptField(ctx context.Context, ref FieldRef, stored, format string) (string, error)
}

// AuthService issues and validates access tokens.
type AuthService interface {
	// CreateToken issues a signed token for userID. Role is "admin" for
	// operator tokens, empty for end users.
	CreateToken(ctx context.Context, userID int64, role string) (models.Token, error)

	// ParseToken validates tokenString and returns the parsed token.
	// Invalid or expired tokens yield ErrTokenIsExpiredOrInvalid.
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

// PaymentService manages zakat payment records for their owning users.
type PaymentService interface {
	// Create validates and stores a new payment with both sensitive fields
	// encrypted (or passed through as client envelopes).
	Create(ctx context.Context, userID int64, input models.PaymentInput) (models.Payment, error)

	// List returns the user's payments decrypted for display. Fields that
	// fail decryption come back blanked with Decryptable set to false.
	List(ctx context.Context, userID int64, limit, offset int) ([]models.PaymentView, error)
}

// RemediationService drives the operator workflow around fields that no
// configured key can decrypt.
type RemediationService interface {
	// Scan walks every payment record, attempts decryption of each
	// server-held field, and opens a ledger issue for each failure. Scans
	// are idempotent: a field already covered by an issue is skipped.
	Scan(ctx context.Context) (models.ScanResponse, error)

	// ListIssues returns ledger entries matching the filter, newest first.
	ListIssues(ctx context.Context, filter models.IssueFilter) ([]models.RemediationIssue, error)

	// Retry attempts decryption of an OPEN issue's field with an
	// operator-supplied key. On success the field is re-encrypted under
	// the current key and the issue resolved, atomically. On failure the
	// result carries a reason code and nothing is modified.
	Retry(ctx context.Context, issueID, keyMaterial string) (models.RetryResult, error)

	// MarkUnrecoverable moves an OPEN issue to UNRECOVERABLE with an
	// operator note. Idempotent; a RESOLVED issue is returned unchanged.
	MarkUnrecoverable(ctx context.Context, issueID, note string) (models.RemediationIssue, error)

	// Reopen moves an UNRECOVERABLE issue back to OPEN so it can be
	// retried. A RESOLVED issue cannot be reopened.
	Reopen(ctx context.Context, issueID string) (models.RemediationIssue, error)
}

// MigrationService helps users move their data from server-side encryption
// to client-side ZK1 envelopes.
type MigrationService interface {
	// EncryptionStatus reports how many of the user's payments still hold
	// server-encrypted fields. Computed from format markers only.
	EncryptionStatus(ctx context.Context, userID int64) (models.EncryptionStatus, error)

	// PrepareMigration decrypts the user's server-held fields and returns
	// them so the client can re-encrypt them as ZK1 envelopes. Fully
	// migrated payments are excluded; limit bounds the export size.
	PrepareMigration(ctx context.Context, userID int64, limit int) ([]models.MigrationPayment, error)

	// MarkMigrated records the advisory "migration complete" flag in the
	// user's encrypted settings blob. It alters no payment data.
	MarkMigrated(ctx context.Context, userID int64) (models.MigrationFlag, error)
}

// AuditNotifier publishes remediation lifecycle events to an external audit
// sink. Implementations must never block the calling workflow on delivery.
type AuditNotifier interface {
	NotifyIssueEvent(ctx context.Context, event string, issue models.RemediationIssue)
}

// Audit event names published on issue lifecycle transitions.
const (
	AuditEventIssueOpened        = "issue_opened"
	AuditEventIssueResolved      = "issue_resolved"
	AuditEventIssueUnrecoverable = "issue_unrecoverable"
	AuditEventIssueReopened      = "issue_reopened"
)
