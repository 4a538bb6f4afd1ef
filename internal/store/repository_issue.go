package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/models"
)

// issueRepository is the PostgreSQL-backed implementation of
// [IssueRepository] — the remediation ledger.
//
// The "no duplicate OPEN issue" invariant is enforced by the database, not
// by a read-then-write race: a partial unique index over
// (target_type, target_id, field_name) WHERE status = 'OPEN' makes a
// concurrent second insert fail with a unique violation, which [InsertOpen]
// treats as "already recorded".
type issueRepository struct {
	*DB
	logger *logger.Logger
}

// NewIssueRepository constructs an [IssueRepository] backed by the provided
// database connection and logger.
func NewIssueRepository(db *DB, logger *logger.Logger) IssueRepository {
	return &issueRepository{
		DB:     db,
		logger: logger,
	}
}

// InsertOpen records a new OPEN issue for a failing field.
//
// Scans are idempotent and operator decisions stand: when any issue for the
// same (target_type, target_id, field_name) tuple already exists — OPEN,
// RESOLVED, or UNRECOVERABLE — nothing is inserted and created is false.
// A concurrent scan losing the unique-index race is treated the same way.
func (r *issueRepository) InsertOpen(ctx context.Context, issue models.RemediationIssue) (bool, error) {
	log := logger.FromContext(ctx)

	var exists bool
	err := r.DB.QueryRowContext(ctx, issueExistsForTarget, issue.TargetType, issue.TargetID, issue.FieldName).Scan(&exists)
	if err != nil {
		log.Err(err).
			Str("func", "issueRepository.InsertOpen").
			Str("target_id", issue.TargetID).
			Str("field", issue.FieldName).
			Msg("failed to check for existing issue")
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if exists {
		log.Debug().
			Str("func", "issueRepository.InsertOpen").
			Str("target_id", issue.TargetID).
			Str("field", issue.FieldName).
			Msg("issue already recorded for target, skipping")
		return false, nil
	}

	insertErr := r.DB.QueryRowContext(ctx, insertOpenIssue,
		issue.ID,
		issue.TargetType,
		issue.TargetID,
		issue.FieldName,
		models.IssueStatusOpen,
		issue.SampleData,
		issue.Note,
	).Scan(&issue.CreatedAt)

	if insertErr != nil {
		if isUniqueViolation(insertErr) {
			// Lost the race against a concurrent scan; the invariant holds.
			log.Debug().
				Str("func", "issueRepository.InsertOpen").
				Str("target_id", issue.TargetID).
				Str("field", issue.FieldName).
				Msg("concurrent scan already opened this issue")
			return false, nil
		}

		log.Err(insertErr).
			Str("func", "issueRepository.InsertOpen").
			Str("target_id", issue.TargetID).
			Str("field", issue.FieldName).
			Bool("retryable", r.errorClassificator.Classify(insertErr) == Retryable).
			Msg("failed to insert remediation issue")
		return false, fmt.Errorf("%w: %w", ErrExecutingQuery, insertErr)
	}

	log.Info().
		Str("func", "issueRepository.InsertOpen").
		Str("issue_id", issue.ID).
		Str("target_id", issue.TargetID).
		Str("field", issue.FieldName).
		Msg("opened remediation issue")

	return true, nil
}

// GetByID retrieves one remediation issue. Returns [ErrIssueNotFound] when
// no row matches.
func (r *issueRepository) GetByID(ctx context.Context, id string) (models.RemediationIssue, error) {
	log := logger.FromContext(ctx)

	issue, err := scanIssue(r.DB.QueryRowContext(ctx, getIssueByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn().
			Str("func", "issueRepository.GetByID").
			Str("issue_id", id).
			Msg("issue not found")
		return models.RemediationIssue{}, ErrIssueNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "issueRepository.GetByID").
			Str("issue_id", id).
			Msg("failed to execute query for getting issue")
		return models.RemediationIssue{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return issue, nil
}

// List retrieves issues matching the filter, newest first.
func (r *issueRepository) List(ctx context.Context, filter models.IssueFilter) ([]models.RemediationIssue, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildListIssuesQuery(filter)
	if err != nil {
		log.Err(err).
			Str("func", "issueRepository.List").
			Msg("failed to build issue listing query")
		return nil, err
	}

	rows, queryErr := r.DB.QueryContext(ctx, query, args...)
	if queryErr != nil {
		log.Err(queryErr).
			Str("func", "issueRepository.List").
			Str("status_filter", filter.Status).
			Msg("failed to execute issue listing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	issues := make([]models.RemediationIssue, 0, 50)

	for rows.Next() {
		issue, scanErr := scanIssueFromRows(rows)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "issueRepository.List").
				Msg("failed to scan issue row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		issues = append(issues, issue)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "issueRepository.List").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return issues, nil
}

// SetStatus transitions an issue between lifecycle states with a
// compare-and-swap on the expected current status.
//
// Returns [ErrIssueNotFound] when the issue does not exist at all and
// [ErrIssueStatusConflict] when it exists but its current status is not
// expectedStatus (another operator got there first, or the transition is
// not valid from the issue's actual state).
func (r *issueRepository) SetStatus(ctx context.Context, id, expectedStatus, newStatus, note string) (models.RemediationIssue, error) {
	log := logger.FromContext(ctx)

	issue, err := scanIssue(r.DB.QueryRowContext(ctx, setIssueStatus, newStatus, note, id, expectedStatus))
	if errors.Is(err, sql.ErrNoRows) {
		// CAS missed: distinguish "gone" from "status moved".
		if _, getErr := r.GetByID(ctx, id); errors.Is(getErr, ErrIssueNotFound) {
			return models.RemediationIssue{}, ErrIssueNotFound
		}

		log.Warn().
			Str("func", "issueRepository.SetStatus").
			Str("issue_id", id).
			Str("expected_status", expectedStatus).
			Str("new_status", newStatus).
			Msg("status compare-and-swap missed")
		return models.RemediationIssue{}, ErrIssueStatusConflict
	}
	if err != nil {
		log.Err(err).
			Str("func", "issueRepository.SetStatus").
			Str("issue_id", id).
			Msg("failed to execute status update")
		return models.RemediationIssue{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().
		Str("func", "issueRepository.SetStatus").
		Str("issue_id", id).
		Str("status", issue.Status).
		Msg("issue status updated")

	return issue, nil
}

// Resolve rewrites the owning payment field with newValue (already
// re-encrypted under the current key) and marks the issue RESOLVED, inside
// a single database transaction.
//
// The transaction is rolled back automatically (via defer) if either write
// fails, so the ledger can never claim RESOLVED while the stored data still
// holds the old envelope, or vice versa.
func (r *issueRepository) Resolve(ctx context.Context, issue models.RemediationIssue, newValue, format string) (models.RemediationIssue, error) {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "issueRepository.Resolve").
			Str("issue_id", issue.ID).
			Msg("failed to begin transaction")
		return models.RemediationIssue{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	query, args, buildErr := buildUpdatePaymentFieldQuery(issue.TargetID, issue.FieldName, newValue, format)
	if buildErr != nil {
		log.Err(buildErr).
			Str("func", "issueRepository.Resolve").
			Str("issue_id", issue.ID).
			Msg("failed to build field update query")
		return models.RemediationIssue{}, buildErr
	}

	result, execErr := tx.ExecContext(ctx, query, args...)
	if execErr != nil {
		log.Err(execErr).
			Str("func", "issueRepository.Resolve").
			Str("issue_id", issue.ID).
			Str("target_id", issue.TargetID).
			Msg("failed to rewrite payment field in transaction")
		return models.RemediationIssue{}, fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
	}

	affected, raErr := result.RowsAffected()
	if raErr != nil {
		return models.RemediationIssue{}, fmt.Errorf("%w: %w", ErrExecutingQuery, raErr)
	}
	if affected == 0 {
		log.Warn().
			Str("func", "issueRepository.Resolve").
			Str("issue_id", issue.ID).
			Str("target_id", issue.TargetID).
			Msg("target payment disappeared before resolve")
		return models.RemediationIssue{}, ErrPaymentNotFound
	}

	resolved, scanErr := scanIssue(tx.QueryRowContext(ctx, setIssueStatus, models.IssueStatusResolved, "", issue.ID, models.IssueStatusOpen))
	if errors.Is(scanErr, sql.ErrNoRows) {
		log.Warn().
			Str("func", "issueRepository.Resolve").
			Str("issue_id", issue.ID).
			Msg("issue status moved while resolving")
		return models.RemediationIssue{}, ErrIssueStatusConflict
	}
	if scanErr != nil {
		log.Err(scanErr).
			Str("func", "issueRepository.Resolve").
			Str("issue_id", issue.ID).
			Msg("failed to mark issue resolved in transaction")
		return models.RemediationIssue{}, fmt.Errorf("%w: %w", ErrExecutingQuery, scanErr)
	}

	if commitErr := tx.Commit(); commitErr != nil {
		log.Err(commitErr).
			Str("func", "issueRepository.Resolve").
			Str("issue_id", issue.ID).
			Msg("failed to commit transaction")
		return models.RemediationIssue{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, commitErr)
	}

	log.Info().
		Str("func", "issueRepository.Resolve").
		Str("issue_id", issue.ID).
		Str("target_id", issue.TargetID).
		Str("field", issue.FieldName).
		Msg("issue resolved and field re-encrypted")

	return resolved, nil
}

type singleRowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row singleRowScanner) (models.RemediationIssue, error) {
	var issue models.RemediationIssue
	err := row.Scan(
		&issue.ID,
		&issue.TargetType,
		&issue.TargetID,
		&issue.FieldName,
		&issue.Status,
		&issue.SampleData,
		&issue.Note,
		&issue.CreatedAt,
		&issue.ResolvedAt,
	)

	return issue, err
}

func scanIssueFromRows(rows *sql.Rows) (models.RemediationIssue, error) {
	return scanIssue(rows)
}
