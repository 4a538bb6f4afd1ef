package store

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/amanahapps/zakat-keeper/models"
)

const (
	savePayment = `INSERT INTO payments (id, user_id, recipient, recipient_format, notes, notes_format, amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at;`

	getPaymentByID = `SELECT id, user_id, recipient, recipient_format, notes, notes_format, amount, created_at, updated_at
		FROM payments
		WHERE id = $1;`

	getPaymentsByUser = `SELECT id, user_id, recipient, recipient_format, notes, notes_format, amount, created_at, updated_at
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3;`

	// id is a uuid column, so the first page binds NULL rather than an
	// empty string (which would fail the uuid cast at bind time).
	getPaymentsPage = `SELECT id, user_id, recipient, recipient_format, notes, notes_format, amount, created_at, updated_at
		FROM payments
		WHERE $1::uuid IS NULL OR id > $1::uuid
		ORDER BY id
		LIMIT $2;`

	insertOpenIssue = `INSERT INTO remediation_issues (id, target_type, target_id, field_name, status, sample_data, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at;`

	issueExistsForTarget = `SELECT EXISTS (
		SELECT 1 FROM remediation_issues
		WHERE target_type = $1 AND target_id = $2 AND field_name = $3
	);`

	getIssueByID = `SELECT id, target_type, target_id, field_name, status, sample_data, note, created_at, resolved_at
		FROM remediation_issues
		WHERE id = $1;`

	setIssueStatus = `UPDATE remediation_issues
		SET status = $1,
		    note = CASE WHEN $2 <> '' THEN $2 ELSE note END,
		    resolved_at = CASE WHEN $1 = 'RESOLVED' THEN NOW() ELSE resolved_at END
		WHERE id = $3 AND status = $4
		RETURNING id, target_type, target_id, field_name, status, sample_data, note, created_at, resolved_at;`

	upsertSettings = `INSERT INTO user_settings (user_id, blob, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET blob = EXCLUDED.blob, updated_at = NOW();`

	getSettings = `SELECT user_id, blob, updated_at
		FROM user_settings
		WHERE user_id = $1;`
)

// Sensitive payment columns writable through UpdateField. The allow-list
// keeps dynamically built SQL away from arbitrary column names.
var sensitivePaymentColumns = map[string]string{
	models.FieldRecipient: "recipient",
	models.FieldNotes:     "notes",
}

// buildUpdatePaymentFieldQuery dynamically builds the UPDATE for one
// sensitive payment field and its sidecar format marker.
func buildUpdatePaymentFieldQuery(id, fieldName, value, format string) (string, []any, error) {
	column, ok := sensitivePaymentColumns[fieldName]
	if !ok {
		return "", nil, fmt.Errorf("%w: unknown sensitive field %q", ErrBuildingSQLQuery, fieldName)
	}

	query, args, err := sq.Update("payments").
		Set(column, value).
		Set(column+"_format", format).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}

// buildListIssuesQuery dynamically builds the issue listing query from the
// optional status and target-type filters.
func buildListIssuesQuery(filter models.IssueFilter) (string, []any, error) {
	builder := sq.Select("id", "target_type", "target_id", "field_name", "status", "sample_data", "note", "created_at", "resolved_at").
		From("remediation_issues").
		OrderBy("created_at DESC", "id DESC").
		PlaceholderFormat(sq.Dollar)

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": filter.Status})
	}

	if filter.TargetType != "" {
		builder = builder.Where(sq.Eq{"target_type": filter.TargetType})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	return query, args, nil
}
