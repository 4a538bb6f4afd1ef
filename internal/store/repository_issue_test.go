package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/models"
)

func newTestIssueRepo(t *testing.T) (*issueRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	repo := &issueRepository{
		DB:     &DB{DB: db, logger: l, errorClassificator: NewPostgresErrorClassifier()},
		logger: l,
	}
	return repo, mock, db
}

func pgError(code string) error {
	return &pgconn.PgError{Code: code}
}

func testIssue() models.RemediationIssue {
	return models.RemediationIssue{
		ID:         "issue-1",
		TargetType: models.TargetTypePayment,
		TargetID:   "payment-1",
		FieldName:  models.FieldRecipient,
		Status:     models.IssueStatusOpen,
		SampleData: "sample",
		Note:       "decrypt failed",
	}
}

func issueRows(issue models.RemediationIssue) *sqlmock.Rows {
	return sqlmock.
		NewRows([]string{"id", "target_type", "target_id", "field_name", "status", "sample_data", "note", "created_at", "resolved_at"}).
		AddRow(issue.ID, issue.TargetType, issue.TargetID, issue.FieldName, issue.Status, issue.SampleData, issue.Note, time.Now(), nil)
}

func TestInsertOpen_CreatesIssue(t *testing.T) {
	repo, mock, db := newTestIssueRepo(t)
	defer db.Close()

	issue := testIssue()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(issue.TargetType, issue.TargetID, issue.FieldName).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectQuery("INSERT INTO remediation_issues").
		WithArgs(issue.ID, issue.TargetType, issue.TargetID, issue.FieldName, models.IssueStatusOpen, issue.SampleData, issue.Note).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	created, err := repo.InsertOpen(context.Background(), issue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created=true")
	}
}

func TestInsertOpen_SkipsWhenAnyIssueExists(t *testing.T) {
	repo, mock, db := newTestIssueRepo(t)
	defer db.Close()

	issue := testIssue()

	// An UNRECOVERABLE or RESOLVED entry for the tuple blocks re-creation
	// just like an OPEN one: operator decisions stand across rescans.
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(issue.TargetType, issue.TargetID, issue.FieldName).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	created, err := repo.InsertOpen(context.Background(), issue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected created=false when an issue already exists")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("no insert must be attempted: %v", err)
	}
}

func TestInsertOpen_LosesUniqueIndexRace(t *testing.T) {
	repo, mock, db := newTestIssueRepo(t)
	defer db.Close()

	issue := testIssue()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(issue.TargetType, issue.TargetID, issue.FieldName).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectQuery("INSERT INTO remediation_issues").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(pgError(pgerrcode.UniqueViolation))

	created, err := repo.InsertOpen(context.Background(), issue)
	if err != nil {
		t.Fatalf("losing the race is not an error, got: %v", err)
	}
	if created {
		t.Error("expected created=false after unique violation")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newTestIssueRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM remediation_issues").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrIssueNotFound) {
		t.Fatalf("expected ErrIssueNotFound, got %v", err)
	}
}

func TestSetStatus_Success(t *testing.T) {
	repo, mock, db := newTestIssueRepo(t)
	defer db.Close()

	issue := testIssue()
	issue.Status = models.IssueStatusUnrecoverable

	mock.ExpectQuery("UPDATE remediation_issues").
		WithArgs(models.IssueStatusUnrecoverable, "key destroyed", issue.ID, models.IssueStatusOpen).
		WillReturnRows(issueRows(issue))

	updated, err := repo.SetStatus(context.Background(), issue.ID, models.IssueStatusOpen, models.IssueStatusUnrecoverable, "key destroyed")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != models.IssueStatusUnrecoverable {
		t.Errorf("expected status UNRECOVERABLE, got %s", updated.Status)
	}
}

func TestSetStatus_Conflict(t *testing.T) {
	repo, mock, db := newTestIssueRepo(t)
	defer db.Close()

	issue := testIssue()
	issue.Status = models.IssueStatusResolved

	mock.ExpectQuery("UPDATE remediation_issues").
		WithArgs(models.IssueStatusUnrecoverable, "note", issue.ID, models.IssueStatusOpen).
		WillReturnError(sql.ErrNoRows)

	// the CAS miss is followed by a lookup to tell conflict from absence
	mock.ExpectQuery("SELECT (.+) FROM remediation_issues").
		WithArgs(issue.ID).
		WillReturnRows(issueRows(issue))

	_, err := repo.SetStatus(context.Background(), issue.ID, models.IssueStatusOpen, models.IssueStatusUnrecoverable, "note")
	if !errors.Is(err, ErrIssueStatusConflict) {
		t.Fatalf("expected ErrIssueStatusConflict, got %v", err)
	}
}

func TestSetStatus_IssueGone(t *testing.T) {
	repo, mock, db := newTestIssueRepo(t)
	defer db.Close()

	mock.ExpectQuery("UPDATE remediation_issues").
		WithArgs(models.IssueStatusOpen, "", "gone", models.IssueStatusUnrecoverable).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectQuery("SELECT (.+) FROM remediation_issues").
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.SetStatus(context.Background(), "gone", models.IssueStatusUnrecoverable, models.IssueStatusOpen, "")
	if !errors.Is(err, ErrIssueNotFound) {
		t.Fatalf("expected ErrIssueNotFound, got %v", err)
	}
}

func TestResolve_CommitsFieldAndStatusTogether(t *testing.T) {
	repo, mock, db := newTestIssueRepo(t)
	defer db.Close()

	issue := testIssue()
	resolved := issue
	resolved.Status = models.IssueStatusResolved

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments").
		WithArgs("new-envelope", models.FormatServerGCM, issue.TargetID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE remediation_issues").
		WithArgs(models.IssueStatusResolved, "", issue.ID, models.IssueStatusOpen).
		WillReturnRows(issueRows(resolved))
	mock.ExpectCommit()

	got, err := repo.Resolve(context.Background(), issue, "new-envelope", models.FormatServerGCM)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != models.IssueStatusResolved {
		t.Errorf("expected status RESOLVED, got %s", got.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolve_PaymentGoneRollsBack(t *testing.T) {
	repo, mock, db := newTestIssueRepo(t)
	defer db.Close()

	issue := testIssue()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments").
		WithArgs("new-envelope", models.FormatServerGCM, issue.TargetID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Resolve(context.Background(), issue, "new-envelope", models.FormatServerGCM)
	if !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestResolve_CommitFailureSurfaces(t *testing.T) {
	repo, mock, db := newTestIssueRepo(t)
	defer db.Close()

	issue := testIssue()
	resolved := issue
	resolved.Status = models.IssueStatusResolved

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE payments").
		WithArgs("new-envelope", models.FormatServerGCM, issue.TargetID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("UPDATE remediation_issues").
		WithArgs(models.IssueStatusResolved, "", issue.ID, models.IssueStatusOpen).
		WillReturnRows(issueRows(resolved))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	_, err := repo.Resolve(context.Background(), issue, "new-envelope", models.FormatServerGCM)
	if !errors.Is(err, ErrCommitingTransaction) {
		t.Fatalf("expected ErrCommitingTransaction, got %v", err)
	}
}

func TestList_FiltersByStatus(t *testing.T) {
	repo, mock, db := newTestIssueRepo(t)
	defer db.Close()

	issue := testIssue()

	mock.ExpectQuery("SELECT (.+) FROM remediation_issues WHERE status").
		WithArgs(models.IssueStatusOpen).
		WillReturnRows(issueRows(issue))

	issues, err := repo.List(context.Background(), models.IssueFilter{Status: models.IssueStatusOpen})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 1 || issues[0].ID != issue.ID {
		t.Errorf("unexpected listing result: %+v", issues)
	}
}
