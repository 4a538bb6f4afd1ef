package crypto

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the envelope codec, key ring, and engine.
// Callers should match against them with [errors.Is].
var (
	// ErrKeyRequired is returned by NewKeyring when no current key is
	// configured. This is a startup invariant: the process must refuse to
	// serve encryption-dependent routes without a current key.
	ErrKeyRequired = errors.New("current encryption key is required")

	// ErrInvalidKey is returned when configured key material is neither
	// 32 bytes of base64 nor a derivable passphrase.
	ErrInvalidKey = errors.New("invalid encryption key material")

	// ErrEnvelopeMalformed is returned when a stored value cannot be parsed
	// as a legacy envelope. It is treated as a decryption failure by the
	// remediation flow, never as a crash.
	ErrEnvelopeMalformed = errors.New("malformed encrypted envelope")

	// ErrDecryptFailed is returned when AEAD decryption under one specific
	// key fails (authentication-tag mismatch). Expected during fallback
	// trials and when operators supply a wrong key.
	ErrDecryptFailed = errors.New("decryption failed")
)

// AllKeysFailedError aggregates the per-key failures of a fallback-chain
// decryption attempt. It records which key slots were tried (0 = current,
// 1..n = previous keys in configured order) so callers can log the attempt
// without ever touching key material.
type AllKeysFailedError struct {
	// Attempts holds one error per tried key, in trial order.
	Attempts []error
}

// Error implements the error interface.
func (e *AllKeysFailedError) Error() string {
	msgs := make([]string, 0, len(e.Attempts))
	for idx, attempt := range e.Attempts {
		msgs = append(msgs, fmt.Sprintf("key[%d]: %v", idx, attempt))
	}

	return "all keys failed: " + strings.Join(msgs, "; ")
}

// Is reports that an AllKeysFailedError also matches ErrDecryptFailed, so
// callers that only care about "could not decrypt" need a single check.
func (e *AllKeysFailedError) Is(target error) bool {
	return target == ErrDecryptFailed
}
