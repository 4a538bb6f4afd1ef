package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// Key is one fixed-length symmetric secret.
type Key [KeySize]byte

// ParseKey turns configured key material into a Key.
//
// The canonical form is 32 bytes encoded as standard or URL-safe base64.
// Anything that is not valid base64 of exactly 32 decoded bytes is treated
// as a passphrase and stretched to 32 bytes with HKDF-SHA256 — a convenience
// for development and test deployments where generating proper key material
// is a hurdle. Empty input is rejected.
func ParseKey(material string) (Key, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return Key{}, fmt.Errorf("%w: empty key material", ErrInvalidKey)
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding} {
		raw, err := enc.DecodeString(material)
		if err == nil && len(raw) == KeySize {
			var key Key
			copy(key[:], raw)
			return key, nil
		}
	}

	return deriveKey(material)
}

// deriveKey stretches a passphrase to a 32-byte key via HKDF-SHA256 with a
// fixed application salt.
func deriveKey(passphrase string) (Key, error) {
	reader := hkdf.New(sha256.New, []byte(passphrase), []byte("zakat-keeper-field-encryption"), nil)

	var key Key
	if _, err := io.ReadFull(reader, key[:]); err != nil {
		return Key{}, fmt.Errorf("%w: key derivation failed: %w", ErrInvalidKey, err)
	}

	return key, nil
}

// Keyring supplies the current encryption key plus the ordered list of
// previous (decrypt-only) keys. It is constructed once at startup and is
// immutable afterwards, so concurrent reads need no locking.
//
// Previous keys are tried strictly in configured order. The deployment
// convention is most-recently-retired first, which keeps fallback trials
// short for data written just before a rotation.
type Keyring struct {
	current  Key
	previous []Key
}

// NewKeyring builds a Keyring from parsed keys. It fails with ErrKeyRequired
// when current is the zero key, enforcing the startup invariant instead of a
// per-call check.
func NewKeyring(current Key, previous []Key) (Keyring, error) {
	if current == (Key{}) {
		return Keyring{}, ErrKeyRequired
	}

	ring := Keyring{current: current, previous: make([]Key, len(previous))}
	copy(ring.previous, previous)

	return ring, nil
}

// NewKeyringFromConfig parses raw configured key material: the required
// current key and an optional comma-separated list of previous keys.
func NewKeyringFromConfig(currentMaterial, previousMaterials string) (Keyring, error) {
	if strings.TrimSpace(currentMaterial) == "" {
		return Keyring{}, ErrKeyRequired
	}

	current, err := ParseKey(currentMaterial)
	if err != nil {
		return Keyring{}, fmt.Errorf("current key: %w", err)
	}

	var previous []Key
	for idx, material := range strings.Split(previousMaterials, ",") {
		if strings.TrimSpace(material) == "" {
			continue
		}

		key, parseErr := ParseKey(material)
		if parseErr != nil {
			return Keyring{}, fmt.Errorf("previous key at position %d: %w", idx, parseErr)
		}

		previous = append(previous, key)
	}

	return NewKeyring(current, previous)
}

// Current returns the active encryption key.
func (k Keyring) Current() Key {
	return k.current
}

// Previous returns the retired keys in configured trial order. The returned
// slice is a copy; mutating it cannot affect the ring.
func (k Keyring) Previous() []Key {
	out := make([]Key, len(k.previous))
	copy(out, k.previous)

	return out
}

// All returns every key in trial order: current first, then previous keys
// as configured.
func (k Keyring) All() []Key {
	out := make([]Key, 0, 1+len(k.previous))
	out = append(out, k.current)
	out = append(out, k.previous...)

	return out
}
