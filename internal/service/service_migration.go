package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/internal/store"
	"github.com/amanahapps/zakat-keeper/models"
)

// migrationService implements [MigrationService]: the read-only advisory
// surface helping users move from server-side encryption to client-held
// ZK1 envelopes, plus the flag write that records completion.
type migrationService struct {
	payments           store.PaymentRepository
	settings           store.SettingsRepository
	fields             FieldCodec
	engine             EncryptionEngine
	migrationBatchSize int
	logger             *logger.Logger
}

// NewMigrationService constructs a [MigrationService].
func NewMigrationService(payments store.PaymentRepository, settings store.SettingsRepository, fields FieldCodec, engine EncryptionEngine, migrationBatchSize int, log *logger.Logger) MigrationService {
	return &migrationService{
		payments:           payments,
		settings:           settings,
		fields:             fields,
		engine:             engine,
		migrationBatchSize: migrationBatchSize,
		logger:             log,
	}
}

// EncryptionStatus counts the user's payments by encryption format. The
// counts come from format markers and envelope classification only; no
// field is decrypted.
func (s *migrationService) EncryptionStatus(ctx context.Context, userID int64) (models.EncryptionStatus, error) {
	status := models.EncryptionStatus{}

	offset := 0
	for {
		page, err := s.payments.GetByUser(ctx, userID, s.migrationBatchSize, offset)
		if err != nil {
			return models.EncryptionStatus{}, err
		}
		if len(page) == 0 {
			break
		}

		for _, payment := range page {
			status.TotalPayments++

			if s.needsMigration(payment) {
				status.ServerPayments++
			} else {
				status.ZKPayments++
			}
		}

		offset += len(page)
		if len(page) < s.migrationBatchSize {
			break
		}
	}

	status.NeedsMigration = status.ServerPayments > 0

	return status, nil
}

// PrepareMigration decrypts the user's server-held fields so the client can
// re-encrypt them as ZK1 envelopes and write them back.
//
// This is the one sanctioned path where server-held plaintext returns to
// its owner. Payments whose fields are all client envelopes already are
// excluded; ZK1 fields on mixed payments come back empty because the server
// cannot read them. A payment whose server-held field fails decryption is
// skipped entirely, the remediation ledger owns that failure.
func (s *migrationService) PrepareMigration(ctx context.Context, userID int64, limit int) ([]models.MigrationPayment, error) {
	log := logger.FromContext(ctx)

	if limit <= 0 || limit > s.migrationBatchSize {
		limit = s.migrationBatchSize
	}

	exported := make([]models.MigrationPayment, 0, limit)

	offset := 0
	for len(exported) < limit {
		page, err := s.payments.GetByUser(ctx, userID, s.migrationBatchSize, offset)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		for _, payment := range page {
			if !s.needsMigration(payment) {
				continue
			}

			entry, err := s.exportPayment(ctx, payment)
			if err != nil {
				var decryptErr *FieldDecryptError
				if errors.As(err, &decryptErr) {
					log.Warn().
						Str("func", "migrationService.PrepareMigration").
						Str("payment_id", payment.ID).
						Str("field", decryptErr.Ref.FieldName).
						Msg("skipping payment with undecryptable field")
					continue
				}
				return nil, err
			}

			exported = append(exported, entry)
			if len(exported) == limit {
				break
			}
		}

		offset += len(page)
		if len(page) < s.migrationBatchSize {
			break
		}
	}

	return exported, nil
}

// MarkMigrated records the advisory migration flag in the user's settings
// blob, encrypted at rest like any other sensitive value. Purely advisory:
// no payment data is altered, and the flag can be rewritten at any time.
func (s *migrationService) MarkMigrated(ctx context.Context, userID int64) (models.MigrationFlag, error) {
	flag := models.MigrationFlag{
		EncryptionMigrated: true,
		MigratedAt:         time.Now().UTC(),
	}

	raw, err := json.Marshal(flag)
	if err != nil {
		return models.MigrationFlag{}, fmt.Errorf("error marshaling migration flag: %w", err)
	}

	blob, err := s.engine.Encrypt(string(raw))
	if err != nil {
		return models.MigrationFlag{}, fmt.Errorf("error encrypting settings blob: %w", err)
	}

	if err := s.settings.Upsert(ctx, models.UserSettings{UserID: userID, Blob: blob}); err != nil {
		return models.MigrationFlag{}, err
	}

	return flag, nil
}

// needsMigration reports whether the payment still holds at least one
// server-encrypted sensitive field.
func (s *migrationService) needsMigration(payment models.Payment) bool {
	return s.fieldIsServerHeld(payment.Recipient, payment.RecipientFormat) ||
		s.fieldIsServerHeld(payment.Notes, payment.NotesFormat)
}

// fieldIsServerHeld reports whether a non-empty field is server-encrypted.
// The format marker decides when set; unmarked legacy rows fall back to
// envelope classification.
func (s *migrationService) fieldIsServerHeld(stored, format string) bool {
	if stored == "" {
		return false
	}
	if format == models.FormatZK1 {
		return false
	}
	if format == models.FormatServerGCM {
		return true
	}

	return !s.engine.IsClientEnvelope(stored)
}

// exportPayment decrypts the payment's server-held fields into a migration
// export entry. ZK1 fields stay empty.
func (s *migrationService) exportPayment(ctx context.Context, payment models.Payment) (models.MigrationPayment, error) {
	entry := models.MigrationPayment{ID: payment.ID, Amount: payment.Amount}

	if s.fieldIsServerHeld(payment.Recipient, payment.RecipientFormat) {
		ref := FieldRef{TargetType: models.TargetTypePayment, TargetID: payment.ID, FieldName: models.FieldRecipient}

		recipient, err := s.fields.DecryptField(ctx, ref, payment.Recipient, payment.RecipientFormat)
		if err != nil {
			return models.MigrationPayment{}, err
		}
		entry.Recipient = recipient
	}

	if s.fieldIsServerHeld(payment.Notes, payment.NotesFormat) {
		ref := FieldRef{TargetType: models.TargetTypePayment, TargetID: payment.ID, FieldName: models.FieldNotes}

		notes, err := s.fields.DecryptField(ctx, ref, payment.Notes, payment.NotesFormat)
		if err != nil {
			return models.MigrationPayment{}, err
		}
		entry.Notes = notes
	}

	return entry, nil
}
