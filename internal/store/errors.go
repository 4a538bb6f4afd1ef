package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrPaymentNotFound is returned when a query or update targets a
	// payment (identified by id, optionally scoped to a user) that does not
	// exist in the database.
	ErrPaymentNotFound = errors.New("payment was not found")

	// ErrIssueNotFound is returned when a remediation issue with the given
	// identifier does not exist.
	ErrIssueNotFound = errors.New("remediation issue was not found")

	// ErrIssueStatusConflict is returned when a status transition loses a
	// compare-and-swap against the issue's current status (another operator
	// changed it concurrently).
	ErrIssueStatusConflict = errors.New("remediation issue status conflict")

	// ErrSettingsNotFound is returned when a user has no settings row yet.
	ErrSettingsNotFound = errors.New("user settings were not found")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrScanningRow is returned when scanning column values from a single
	// result row into a destination struct fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")
)
