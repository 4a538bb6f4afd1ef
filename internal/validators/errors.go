package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidUserID  = errors.New("invalid user ID")
	ErrEmptyRecipient = errors.New("recipient is required")
	ErrInvalidAmount  = errors.New("amount must be positive")
	ErrNotesTooLong   = errors.New("notes exceed maximum length")
)
