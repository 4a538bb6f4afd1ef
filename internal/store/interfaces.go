package store

import (
	"context"

	"github.com/amanahapps/zakat-keeper/models"
)

// PaymentRepository persists zakat payment records with their encrypted
// sensitive fields.
type PaymentRepository interface {
	// Save inserts a new payment. The server-assigned timestamps are
	// written back into the struct.
	Save(ctx context.Context, payment *models.Payment) error

	// GetByID fetches one payment by identifier regardless of owner.
	GetByID(ctx context.Context, id string) (models.Payment, error)

	// GetByUser fetches the user's payments ordered by creation time,
	// bounded by limit/offset.
	GetByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Payment, error)

	// ListPage fetches one keyset page of all payments across users,
	// ordered by id, starting strictly after afterID. Used by the
	// remediation scanner.
	ListPage(ctx context.Context, afterID string, limit int) ([]models.Payment, error)

	// UpdateField rewrites one sensitive field and its format marker.
	UpdateField(ctx context.Context, id, fieldName, value, format string) error
}

// IssueRepository persists the remediation ledger.
type IssueRepository interface {
	// InsertOpen inserts a new OPEN issue. It returns created=false without
	// error when an issue for the same (target_type, target_id, field_name)
	// tuple already holds the unique OPEN slot, or when a terminal issue
	// for the tuple stands (operator decisions are not reopened by scans).
	InsertOpen(ctx context.Context, issue models.RemediationIssue) (bool, error)

	// GetByID fetches one issue.
	GetByID(ctx context.Context, id string) (models.RemediationIssue, error)

	// List fetches issues matching the filter, newest first.
	List(ctx context.Context, filter models.IssueFilter) ([]models.RemediationIssue, error)

	// SetStatus transitions an issue from expectedStatus to newStatus with
	// an optional note, compare-and-swap style. Returns
	// ErrIssueStatusConflict when the current status is not expectedStatus.
	SetStatus(ctx context.Context, id, expectedStatus, newStatus, note string) (models.RemediationIssue, error)

	// Resolve marks the issue RESOLVED and rewrites the owning payment
	// field under the current key, both within a single transaction, so the
	// ledger and the stored data can never disagree.
	Resolve(ctx context.Context, issue models.RemediationIssue, newValue, format string) (models.RemediationIssue, error)
}

// SettingsRepository persists per-user settings blobs.
type SettingsRepository interface {
	// Get fetches the user's settings row; ErrSettingsNotFound when absent.
	Get(ctx context.Context, userID int64) (models.UserSettings, error)

	// Upsert writes the settings blob, inserting or replacing as needed.
	Upsert(ctx context.Context, settings models.UserSettings) error
}
