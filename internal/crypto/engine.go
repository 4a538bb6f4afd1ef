package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/amanahapps/zakat-keeper/internal/logger"
)

// Engine performs server-side AEAD encryption and decryption of sensitive
// payment fields using the configured [Keyring].
//
// Encrypt always uses the current key and emits a legacy (untagged)
// envelope. Decrypt tries the current key first, then each previous key in
// configured order, so field reads keep working transparently across key
// rotations.
//
// Engine is safe for concurrent use: the key ring is immutable and every
// call builds its own cipher state.
type Engine struct {
	keyring Keyring
	logger  *logger.Logger
}

// NewEngine constructs an Engine over the given key ring.
func NewEngine(keyring Keyring, log *logger.Logger) *Engine {
	return &Engine{keyring: keyring, logger: log}
}

// Encrypt encrypts plaintext under the current key with AES-256-GCM and a
// fresh random 12-byte IV, returning the legacy envelope string.
func (e *Engine) Encrypt(plaintext string) (string, error) {
	gcm, err := newGCM(e.keyring.Current())
	if err != nil {
		return "", err
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	ciphertext := gcm.Seal(nil, iv, []byte(plaintext), nil)

	return Encode(iv, ciphertext, false), nil
}

// DecryptWith decrypts a legacy envelope under one explicit key. It fails
// closed: any authentication-tag mismatch yields ErrDecryptFailed and no
// partial plaintext.
//
// The remediation retry flow calls this directly with an operator-supplied
// key that is deliberately not part of the configured ring.
func (e *Engine) DecryptWith(envelope string, key Key) (string, error) {
	iv, ciphertext, err := Decode(envelope)
	if err != nil {
		return "", err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	if len(iv) != gcm.NonceSize() {
		// 16-byte IVs from older data need a matching nonce size.
		gcm, err = newGCMWithNonceSize(key, len(iv))
		if err != nil {
			return "", err
		}
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDecryptFailed, err)
	}

	return string(plaintext), nil
}

// Decrypt decrypts a legacy envelope by trying the current key, then each
// previous key in configured order, returning on the first success.
//
// When every key fails it returns an *AllKeysFailedError aggregating the
// per-slot failures, so callers can log which keys were attempted without
// ever logging key material. A malformed envelope fails every slot
// identically and surfaces the same way — parse errors are decryption
// failures from the remediation flow's point of view.
func (e *Engine) Decrypt(envelope string) (string, error) {
	keys := e.keyring.All()
	attempts := make([]error, 0, len(keys))

	for idx, key := range keys {
		plaintext, err := e.DecryptWith(envelope, key)
		if err == nil {
			if idx > 0 {
				e.logger.Debug().
					Int("key_slot", idx).
					Msg("field decrypted with a previous key")
			}

			return plaintext, nil
		}

		attempts = append(attempts, err)
	}

	return "", &AllKeysFailedError{Attempts: attempts}
}

// IsClientEnvelope reports whether value carries the client "ZK1" tag.
// Exposed as a thin wrapper over [Classify] because both the field codec
// and the remediation scanner need it.
func (e *Engine) IsClientEnvelope(value string) bool {
	return Classify(value) == FormatClient
}

// IsEncrypted reports whether value is in either envelope format.
func (e *Engine) IsEncrypted(value string) bool {
	return Classify(value) != FormatPlaintext
}

func newGCM(key Key) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return gcm, nil
}

func newGCMWithNonceSize(key Key, size int) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCMWithNonceSize(block, size)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return gcm, nil
}
