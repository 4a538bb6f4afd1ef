package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/internal/store"
	"github.com/amanahapps/zakat-keeper/internal/utils"
	"github.com/amanahapps/zakat-keeper/internal/validators"
	"github.com/amanahapps/zakat-keeper/models"
)

// paymentService implements [PaymentService].
type paymentService struct {
	payments  store.PaymentRepository
	fields    FieldCodec
	validator validators.Validator
	ids       *utils.UUIDGenerator
	logger    *logger.Logger
}

// NewPaymentService constructs a [PaymentService].
func NewPaymentService(payments store.PaymentRepository, fields FieldCodec, validator validators.Validator, ids *utils.UUIDGenerator, log *logger.Logger) PaymentService {
	return &paymentService{
		payments:  payments,
		fields:    fields,
		validator: validator,
		ids:       ids,
		logger:    log,
	}
}

// Create validates input, encrypts both sensitive fields and persists the
// payment for userID.
func (s *paymentService) Create(ctx context.Context, userID int64, input models.PaymentInput) (models.Payment, error) {
	log := logger.FromContext(ctx)

	if err := s.validator.Validate(ctx, input); err != nil {
		return models.Payment{}, fmt.Errorf("%w: %w", ErrInvalidDataProvided, err)
	}

	recipient, recipientFormat, err := s.fields.EncryptField(ctx, input.Recipient)
	if err != nil {
		return models.Payment{}, fmt.Errorf("error encrypting recipient: %w", err)
	}

	notes, notesFormat, err := s.fields.EncryptField(ctx, input.Notes)
	if err != nil {
		return models.Payment{}, fmt.Errorf("error encrypting notes: %w", err)
	}

	payment := models.Payment{
		ID:              s.ids.Generate(),
		UserID:          userID,
		Recipient:       recipient,
		RecipientFormat: recipientFormat,
		Notes:           notes,
		NotesFormat:     notesFormat,
		Amount:          input.Amount,
	}

	if err := s.payments.Save(ctx, &payment); err != nil {
		log.Err(err).
			Str("func", "paymentService.Create").
			Int64("user_id", userID).
			Msg("failed to save payment")
		return models.Payment{}, err
	}

	return payment, nil
}

// List returns the user's payments decrypted for display.
//
// A field that fails decryption under every configured key is blanked and
// the view's Decryptable flag cleared; the raw failure never reaches the
// end user. Remediation of such fields is the operator workflow's job.
func (s *paymentService) List(ctx context.Context, userID int64, limit, offset int) ([]models.PaymentView, error) {
	payments, err := s.payments.GetByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	views := make([]models.PaymentView, 0, len(payments))
	for _, payment := range payments {
		view := models.PaymentView{
			ID:              payment.ID,
			RecipientFormat: payment.RecipientFormat,
			NotesFormat:     payment.NotesFormat,
			Amount:          payment.Amount,
			Decryptable:     true,
			CreatedAt:       payment.CreatedAt,
		}

		view.Recipient, err = s.decryptForView(ctx, payment.ID, models.FieldRecipient, payment.Recipient, payment.RecipientFormat, &view)
		if err != nil {
			return nil, err
		}

		view.Notes, err = s.decryptForView(ctx, payment.ID, models.FieldNotes, payment.Notes, payment.NotesFormat, &view)
		if err != nil {
			return nil, err
		}

		views = append(views, view)
	}

	return views, nil
}

// decryptForView decrypts one field for display, downgrading decryption
// failures to a blank value with the view marked not decryptable.
func (s *paymentService) decryptForView(ctx context.Context, paymentID, fieldName, stored, format string, view *models.PaymentView) (string, error) {
	ref := FieldRef{TargetType: models.TargetTypePayment, TargetID: paymentID, FieldName: fieldName}

	value, err := s.fields.DecryptField(ctx, ref, stored, format)
	if err != nil {
		var decryptErr *FieldDecryptError
		if errors.As(err, &decryptErr) {
			view.Decryptable = false
			return "", nil
		}

		return "", err
	}

	return value, nil
}
