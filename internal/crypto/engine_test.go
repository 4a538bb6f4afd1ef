package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanahapps/zakat-keeper/internal/logger"
)

func testKey(t *testing.T, b byte) Key {
	t.Helper()
	var key Key
	for i := range key {
		key[i] = b
	}
	return key
}

func newTestEngine(t *testing.T, current Key, previous ...Key) *Engine {
	t.Helper()
	ring, err := NewKeyring(current, previous)
	require.NoError(t, err)
	return NewEngine(ring, logger.Nop())
}

func TestEngine_EncryptDecrypt_RoundTrip(t *testing.T) {
	engine := newTestEngine(t, testKey(t, 0x01))

	envelope, err := engine.Encrypt("Local Masjid")
	require.NoError(t, err)
	assert.Equal(t, FormatLegacy, Classify(envelope))

	plaintext, err := engine.Decrypt(envelope)
	require.NoError(t, err)
	assert.Equal(t, "Local Masjid", plaintext)
}

func TestEngine_Encrypt_FreshIVPerCall(t *testing.T) {
	engine := newTestEngine(t, testKey(t, 0x01))

	first, err := engine.Encrypt("same plaintext")
	require.NoError(t, err)
	second, err := engine.Encrypt("same plaintext")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

// A field encrypted before a key rotation keeps decrypting afterwards: the
// retired key moves to the previous list and the fallback chain finds it.
func TestEngine_Decrypt_PreviousKeyFallback(t *testing.T) {
	oldKey := testKey(t, 0xAA)
	newKey := testKey(t, 0xBB)

	oldEngine := newTestEngine(t, oldKey)
	envelope, err := oldEngine.Encrypt("Local Masjid")
	require.NoError(t, err)

	rotatedEngine := newTestEngine(t, newKey, oldKey)

	plaintext, err := rotatedEngine.Decrypt(envelope)
	require.NoError(t, err)
	assert.Equal(t, "Local Masjid", plaintext)
}

func TestEngine_Decrypt_AllKeysFail(t *testing.T) {
	writer := newTestEngine(t, testKey(t, 0x01))
	envelope, err := writer.Encrypt("unreachable")
	require.NoError(t, err)

	reader := newTestEngine(t, testKey(t, 0x02), testKey(t, 0x03))

	_, err = reader.Decrypt(envelope)
	require.Error(t, err)

	var allFailed *AllKeysFailedError
	require.True(t, errors.As(err, &allFailed))
	assert.Len(t, allFailed.Attempts, 2)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestEngine_Decrypt_MalformedEnvelopeFailsEverySlot(t *testing.T) {
	engine := newTestEngine(t, testKey(t, 0x01), testKey(t, 0x02))

	_, err := engine.Decrypt("not an envelope")
	require.Error(t, err)

	var allFailed *AllKeysFailedError
	require.True(t, errors.As(err, &allFailed))
	assert.Len(t, allFailed.Attempts, 2)
}

func TestEngine_DecryptWith_WrongKey(t *testing.T) {
	writer := newTestEngine(t, testKey(t, 0x01))
	envelope, err := writer.Encrypt("secret")
	require.NoError(t, err)

	_, err = writer.DecryptWith(envelope, testKey(t, 0x02))
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestEngine_DecryptWith_MalformedEnvelope(t *testing.T) {
	engine := newTestEngine(t, testKey(t, 0x01))

	_, err := engine.DecryptWith("ZK1:opaque", testKey(t, 0x01))
	assert.ErrorIs(t, err, ErrEnvelopeMalformed)
}

// Data written by older releases used 16-byte GCM nonces; the fallback path
// must handle them transparently.
func TestEngine_Decrypt_SixteenByteIV(t *testing.T) {
	key := testKey(t, 0x07)

	block, err := aes.NewCipher(key[:])
	require.NoError(t, err)
	gcm, err := cipher.NewGCMWithNonceSize(block, 16)
	require.NoError(t, err)

	iv := make([]byte, 16)
	for i := range iv {
		iv[i] = byte(i)
	}
	ciphertext := gcm.Seal(nil, iv, []byte("old format data"), nil)

	engine := newTestEngine(t, key)

	plaintext, err := engine.Decrypt(Encode(iv, ciphertext, false))
	require.NoError(t, err)
	assert.Equal(t, "old format data", plaintext)
}

func TestEngine_ClientEnvelopeChecks(t *testing.T) {
	engine := newTestEngine(t, testKey(t, 0x01))

	serverEnvelope, err := engine.Encrypt("value")
	require.NoError(t, err)

	assert.True(t, engine.IsClientEnvelope("ZK1:anything"))
	assert.False(t, engine.IsClientEnvelope(serverEnvelope))
	assert.True(t, engine.IsEncrypted(serverEnvelope))
	assert.False(t, engine.IsEncrypted("plain value"))
}
