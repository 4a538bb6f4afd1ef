package models

import "time"

// EncryptionStatus is the per-user migration picture, computed on demand
// from format markers — no decryption is needed for the counts.
type EncryptionStatus struct {
	// TotalPayments is the number of payment records owned by the user.
	TotalPayments int `json:"total_payments"`

	// ZKPayments counts payments whose sensitive fields are all client
	// ZK1 envelopes.
	ZKPayments int `json:"zk_payments"`

	// ServerPayments counts payments still holding at least one legacy
	// server-encrypted field.
	ServerPayments int `json:"server_payments"`

	// NeedsMigration is true when ServerPayments > 0.
	NeedsMigration bool `json:"needs_migration"`
}

// MigrationPayment is one decrypted payment in a migration export. This is
// the single legitimate path where server-held plaintext is returned to its
// owning (authenticated) user, so the client can re-encrypt it as a ZK1
// envelope and write it back.
type MigrationPayment struct {
	ID        string `json:"id"`
	Recipient string `json:"recipient"`
	Notes     string `json:"notes"`
	Amount    int64  `json:"amount"`
}

// UserSettings is the per-user settings row. Blob is itself a legacy server
// envelope wrapping a JSON document, so settings at rest get the same
// protection as payment fields.
type UserSettings struct {
	UserID    int64     `json:"-"`
	Blob      string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the name of the database table associated with the
// UserSettings model.
func (s UserSettings) TableName() string {
	return "user_settings"
}

// MigrationFlag is the JSON document stored (encrypted) in UserSettings.Blob
// once the user completes client-side re-encryption. Purely advisory: it
// alters no payment data.
type MigrationFlag struct {
	EncryptionMigrated bool      `json:"encryptionMigrated"`
	MigratedAt         time.Time `json:"migratedAt"`
}
