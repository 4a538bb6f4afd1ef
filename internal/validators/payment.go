package validators

import (
	"context"

	"github.com/amanahapps/zakat-keeper/models"
)

// Field name constants used to specify which fields should be validated.
// These constants are passed to Validate to restrict validation to a subset
// of fields (field-level scoping).
const (
	// FieldRecipient targets the recipient field of a payment input.
	FieldRecipient = "recipient"

	// FieldNotes targets the free-text notes field of a payment input.
	FieldNotes = "notes"

	// FieldAmount targets the amount field of a payment input.
	FieldAmount = "amount"
)

// NotesMaxLen caps the stored notes envelope. Client envelopes carry
// base64 overhead, so the limit is generous.
const NotesMaxLen = 8192

// PaymentValidator validates payment inputs before they reach the
// encryption and storage layers.
type PaymentValidator struct {
}

func NewPaymentValidator() Validator {
	return &PaymentValidator{}
}

func (v *PaymentValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.PaymentInput:
		return v.validatePaymentInput(ctx, value, fields...)
	case *models.PaymentInput:
		return v.validatePaymentInput(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *PaymentValidator) validatePaymentInput(ctx context.Context, input models.PaymentInput, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldRecipient, FieldNotes, FieldAmount}
	}

	for _, f := range fields {
		switch f {
		case FieldRecipient:
			if input.Recipient == "" {
				return ErrEmptyRecipient
			}
		case FieldNotes:
			if len(input.Notes) > NotesMaxLen {
				return ErrNotesTooLong
			}
		case FieldAmount:
			if input.Amount <= 0 {
				return ErrInvalidAmount
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}
