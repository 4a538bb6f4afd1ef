package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the service layer. Handlers map them onto
// HTTP status codes.
var (
	// ErrTokenIsExpiredOrInvalid is returned when an access token fails
	// signature, issuer or expiry validation.
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")

	// ErrInvalidDataProvided is returned when a request body fails
	// validation.
	ErrInvalidDataProvided = errors.New("invalid data provided")

	// ErrInvalidKeyMaterial is returned when an operator-supplied key is
	// not valid AES-256 key material.
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrIssueResolved rejects lifecycle operations on an issue that is
	// already RESOLVED. Resolved issues are terminal.
	ErrIssueResolved = errors.New("issue is already resolved")

	// ErrIssueUnrecoverable rejects a retry against an issue an operator
	// has marked UNRECOVERABLE. The issue must be reopened first.
	ErrIssueUnrecoverable = errors.New("issue is marked unrecoverable")
)

// FieldDecryptError reports that one stored field could not be decrypted
// under any configured key. It carries everything the remediation ledger
// needs to record the failure: the owning record, the field name and a
// truncated ciphertext sample. Key material and plaintext never appear in
// it.
type FieldDecryptError struct {
	// Ref identifies the record and field that failed.
	Ref FieldRef

	// Sample is the stored envelope truncated for operator diagnosis.
	Sample string

	// Err is the underlying failure, typically a *crypto.AllKeysFailedError.
	Err error
}

// Error implements the error interface. The sample is deliberately omitted
// so ciphertext does not end up in log lines by accident.
func (e *FieldDecryptError) Error() string {
	return fmt.Sprintf("%s %s field %q cannot be decrypted: %v",
		e.Ref.TargetType, e.Ref.TargetID, e.Ref.FieldName, e.Err)
}

// Unwrap exposes the underlying decryption failure to errors.Is/As.
func (e *FieldDecryptError) Unwrap() error {
	return e.Err
}
