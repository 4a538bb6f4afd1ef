package models

import "time"

// Encryption format markers stored as sidecar metadata next to each
// sensitive payment field, so retrieval does not need to re-classify the
// stored envelope.
const (
	// FormatZK1 marks a field holding client-side ("zero-knowledge")
	// ciphertext the server stores opaquely and never decrypts.
	FormatZK1 = "ZK1"

	// FormatServerGCM marks a field holding legacy server-side AES-GCM
	// ciphertext decryptable under the configured key ring.
	FormatServerGCM = "SERVER_GCM"
)

// Sensitive payment field names as used by the remediation ledger.
const (
	FieldRecipient = "recipient"
	FieldNotes     = "notes"
)

// Payment is one zakat payment record as persisted. Recipient and Notes are
// always stored encrypted — either as a client ZK1 envelope or as a legacy
// server envelope — with the format recorded alongside.
type Payment struct {
	// ID is the server-assigned payment identifier (UUID).
	ID string `json:"id"`

	// UserID is the owning account.
	UserID int64 `json:"-"`

	// Recipient is the stored envelope of the recipient name.
	Recipient string `json:"recipient"`

	// RecipientFormat is the sidecar format marker for Recipient
	// (FormatZK1 or FormatServerGCM).
	RecipientFormat string `json:"recipient_format"`

	// Notes is the stored envelope of the free-text notes. May be empty.
	Notes string `json:"notes"`

	// NotesFormat is the sidecar format marker for Notes.
	NotesFormat string `json:"notes_format"`

	// Amount is the payment amount in minor currency units.
	Amount int64 `json:"amount"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table associated with the
// Payment model.
func (p Payment) TableName() string {
	return "payments"
}

// PaymentInput is the create-payment request body. Recipient and Notes may
// arrive either as plaintext (the server encrypts them) or as ready-made
// ZK1 envelopes (stored unchanged).
type PaymentInput struct {
	Recipient string `json:"recipient"`
	Notes     string `json:"notes"`
	Amount    int64  `json:"amount"`
}

// PaymentView is a payment as returned to its owning user. Server-encrypted
// fields are decrypted; ZK1 fields are passed through for client-side
// decryption. When a server-encrypted field cannot be decrypted under any
// configured key, Decryptable is false and the field holds a placeholder —
// end users never see raw crypto errors.
type PaymentView struct {
	ID              string    `json:"id"`
	Recipient       string    `json:"recipient"`
	RecipientFormat string    `json:"recipient_format"`
	Notes           string    `json:"notes"`
	NotesFormat     string    `json:"notes_format"`
	Amount          int64     `json:"amount"`
	Decryptable     bool      `json:"decryptable"`
	CreatedAt       time.Time `json:"created_at"`
}
