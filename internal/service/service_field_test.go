package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanahapps/zakat-keeper/internal/crypto"
	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/models"
)

func testCryptoKey(t *testing.T, b byte) crypto.Key {
	t.Helper()
	var key crypto.Key
	for i := range key {
		key[i] = b
	}
	return key
}

func testEngine(t *testing.T, current crypto.Key, previous ...crypto.Key) *crypto.Engine {
	t.Helper()
	ring, err := crypto.NewKeyring(current, previous)
	require.NoError(t, err)
	return crypto.NewEngine(ring, logger.Nop())
}

func TestEncryptField_PlaintextGetsServerFormat(t *testing.T) {
	engine := testEngine(t, testCryptoKey(t, 0x01))
	codec := NewFieldService(engine, logger.Nop())

	stored, format, err := codec.EncryptField(context.Background(), "Local Masjid")
	require.NoError(t, err)
	assert.Equal(t, models.FormatServerGCM, format)
	assert.NotEqual(t, "Local Masjid", stored)

	plaintext, err := engine.Decrypt(stored)
	require.NoError(t, err)
	assert.Equal(t, "Local Masjid", plaintext)
}

// Client envelopes must survive storage byte for byte in both directions:
// the server has no key for them and any rewrite would destroy the data.
func TestFieldCodec_ClientEnvelopePassThrough(t *testing.T) {
	codec := NewFieldService(testEngine(t, testCryptoKey(t, 0x01)), logger.Nop())
	envelope := "ZK1:aXYtYnl0ZXM=:Y2lwaGVydGV4dA=="

	stored, format, err := codec.EncryptField(context.Background(), envelope)
	require.NoError(t, err)
	assert.Equal(t, envelope, stored)
	assert.Equal(t, models.FormatZK1, format)

	ref := FieldRef{TargetType: models.TargetTypePayment, TargetID: "payment-1", FieldName: models.FieldRecipient}
	value, err := codec.DecryptField(context.Background(), ref, stored, format)
	require.NoError(t, err)
	assert.Equal(t, envelope, value)
}

// Rows written before format markers existed carry an empty format; a ZK1
// value among them must still be recognized and passed through.
func TestDecryptField_UnmarkedClientEnvelope(t *testing.T) {
	codec := NewFieldService(testEngine(t, testCryptoKey(t, 0x01)), logger.Nop())
	envelope := "ZK1:opaque-client-data"

	ref := FieldRef{TargetType: models.TargetTypePayment, TargetID: "payment-1", FieldName: models.FieldNotes}
	value, err := codec.DecryptField(context.Background(), ref, envelope, "")
	require.NoError(t, err)
	assert.Equal(t, envelope, value)
}

func TestDecryptField_EmptyValue(t *testing.T) {
	codec := NewFieldService(testEngine(t, testCryptoKey(t, 0x01)), logger.Nop())

	value, err := codec.DecryptField(context.Background(), FieldRef{}, "", "")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestDecryptField_AllKeysFail(t *testing.T) {
	writer := testEngine(t, testCryptoKey(t, 0x01))
	envelope, err := writer.Encrypt(strings.Repeat("long plaintext ", 16))
	require.NoError(t, err)

	codec := NewFieldService(testEngine(t, testCryptoKey(t, 0x02)), logger.Nop())
	ref := FieldRef{TargetType: models.TargetTypePayment, TargetID: "payment-1", FieldName: models.FieldRecipient}

	_, err = codec.DecryptField(context.Background(), ref, envelope, models.FormatServerGCM)
	require.Error(t, err)

	var decryptErr *FieldDecryptError
	require.True(t, errors.As(err, &decryptErr))
	assert.Equal(t, ref, decryptErr.Ref)
	assert.ErrorIs(t, err, crypto.ErrDecryptFailed)

	// the sample is a ciphertext prefix capped for safe storage
	assert.Len(t, decryptErr.Sample, models.SampleDataMaxLen)
	assert.Equal(t, envelope[:models.SampleDataMaxLen], decryptErr.Sample)

	// the error string never carries the sample
	assert.NotContains(t, decryptErr.Error(), decryptErr.Sample)
}
