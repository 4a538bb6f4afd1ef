package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/models"
)

// paymentRepository is the PostgreSQL-backed implementation of
// [PaymentRepository]. It executes all payment CRUD operations directly
// against the "payments" table using the embedded [*DB] connection.
//
// Every public method obtains a context-scoped logger via
// [logger.FromContext] so that all database interactions are traced with
// structured fields (payment_id, user_id, field, etc.).
type paymentRepository struct {
	*DB
	logger *logger.Logger
}

// NewPaymentRepository constructs a [PaymentRepository] backed by the
// provided database connection and logger.
func NewPaymentRepository(db *DB, logger *logger.Logger) PaymentRepository {
	return &paymentRepository{
		DB:     db,
		logger: logger,
	}
}

// Save inserts a single payment record. The database-assigned timestamps
// are written back into payment via the RETURNING clause.
func (p *paymentRepository) Save(ctx context.Context, payment *models.Payment) error {
	log := logger.FromContext(ctx)

	log.Debug().
		Str("payment_id", payment.ID).
		Int64("user_id", payment.UserID).
		Msg("saving payment record")

	err := p.DB.QueryRowContext(ctx, savePayment,
		payment.ID,
		payment.UserID,
		payment.Recipient,
		payment.RecipientFormat,
		payment.Notes,
		payment.NotesFormat,
		payment.Amount,
	).Scan(&payment.CreatedAt, &payment.UpdatedAt)

	if err != nil {
		log.Err(err).
			Str("func", "paymentRepository.Save").
			Str("payment_id", payment.ID).
			Int64("user_id", payment.UserID).
			Msg("failed to save payment")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return nil
}

// GetByID retrieves one payment by identifier, regardless of owner. Returns
// [ErrPaymentNotFound] when no row matches.
func (p *paymentRepository) GetByID(ctx context.Context, id string) (models.Payment, error) {
	log := logger.FromContext(ctx)

	var payment models.Payment
	err := p.DB.QueryRowContext(ctx, getPaymentByID, id).Scan(
		&payment.ID,
		&payment.UserID,
		&payment.Recipient,
		&payment.RecipientFormat,
		&payment.Notes,
		&payment.NotesFormat,
		&payment.Amount,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		log.Warn().
			Str("func", "paymentRepository.GetByID").
			Str("payment_id", id).
			Msg("payment not found")
		return models.Payment{}, ErrPaymentNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "paymentRepository.GetByID").
			Str("payment_id", id).
			Msg("failed to execute query for getting payment")
		return models.Payment{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return payment, nil
}

// GetByUser retrieves the user's payments ordered by creation time, bounded
// by limit and offset. Returns an empty slice when the user has no records.
func (p *paymentRepository) GetByUser(ctx context.Context, userID int64, limit, offset int) ([]models.Payment, error) {
	log := logger.FromContext(ctx)

	rows, queryErr := p.DB.QueryContext(ctx, getPaymentsByUser, userID, limit, offset)
	if queryErr != nil {
		log.Err(queryErr).
			Str("func", "paymentRepository.GetByUser").
			Int64("user_id", userID).
			Msg("failed to execute query for getting user payments")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	return p.scanPayments(ctx, rows, "paymentRepository.GetByUser")
}

// ListPage retrieves one keyset page of all payments across users, ordered
// by id and starting strictly after afterID. An empty afterID starts from
// the beginning. The remediation scanner walks the table through this
// method so a single scan request stays bounded.
func (p *paymentRepository) ListPage(ctx context.Context, afterID string, limit int) ([]models.Payment, error) {
	log := logger.FromContext(ctx)

	// the id column is uuid typed: the first page must bind NULL, not "".
	var after any
	if afterID != "" {
		after = afterID
	}

	rows, queryErr := p.DB.QueryContext(ctx, getPaymentsPage, after, limit)
	if queryErr != nil {
		log.Err(queryErr).
			Str("func", "paymentRepository.ListPage").
			Str("after_id", afterID).
			Msg("failed to execute query for payments page")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, queryErr)
	}
	defer rows.Close()

	return p.scanPayments(ctx, rows, "paymentRepository.ListPage")
}

// UpdateField rewrites one sensitive field and its format marker on a
// payment. Returns [ErrPaymentNotFound] when the target row does not exist.
func (p *paymentRepository) UpdateField(ctx context.Context, id, fieldName, value, format string) error {
	log := logger.FromContext(ctx)

	query, args, err := buildUpdatePaymentFieldQuery(id, fieldName, value, format)
	if err != nil {
		log.Err(err).
			Str("func", "paymentRepository.UpdateField").
			Str("payment_id", id).
			Str("field", fieldName).
			Msg("failed to build update query")
		return err
	}

	result, execErr := p.DB.ExecContext(ctx, query, args...)
	if execErr != nil {
		log.Err(execErr).
			Str("func", "paymentRepository.UpdateField").
			Str("payment_id", id).
			Str("field", fieldName).
			Msg("failed to execute field update")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, execErr)
	}

	affected, raErr := result.RowsAffected()
	if raErr != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, raErr)
	}
	if affected == 0 {
		log.Warn().
			Str("func", "paymentRepository.UpdateField").
			Str("payment_id", id).
			Str("field", fieldName).
			Msg("payment not found")
		return ErrPaymentNotFound
	}

	log.Info().
		Str("func", "paymentRepository.UpdateField").
		Str("payment_id", id).
		Str("field", fieldName).
		Msg("successfully rewrote sensitive field")

	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func (p *paymentRepository) scanPayments(ctx context.Context, rows rowScanner, caller string) ([]models.Payment, error) {
	log := logger.FromContext(ctx)

	payments := make([]models.Payment, 0, 50)

	for rows.Next() {
		var payment models.Payment

		scanErr := rows.Scan(
			&payment.ID,
			&payment.UserID,
			&payment.Recipient,
			&payment.RecipientFormat,
			&payment.Notes,
			&payment.NotesFormat,
			&payment.Amount,
			&payment.CreatedAt,
			&payment.UpdatedAt,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", caller).
				Msg("failed to scan payment row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		payments = append(payments, payment)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", caller).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return payments, nil
}
