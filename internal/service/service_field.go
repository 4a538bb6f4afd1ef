package service

import (
	"context"
	"errors"

	"github.com/amanahapps/zakat-keeper/internal/crypto"
	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/models"
)

// fieldService implements [FieldCodec]. It is the single place deciding
// whether a value is touched by server-side cryptography at all: client
// "ZK1" envelopes pass through untouched in both directions, everything
// else goes through the engine.
type fieldService struct {
	engine EncryptionEngine
	logger *logger.Logger
}

// NewFieldService constructs a [FieldCodec] over the given engine.
func NewFieldService(engine EncryptionEngine, log *logger.Logger) FieldCodec {
	return &fieldService{engine: engine, logger: log}
}

// EncryptField prepares value for storage.
//
// A value already carrying the client envelope tag is stored byte for byte
// and marked models.FormatZK1; the server must never re-encrypt what only
// the client can read. Anything else is encrypted under the current key and
// marked models.FormatServerGCM. Empty values stay empty.
func (s *fieldService) EncryptField(ctx context.Context, value string) (string, string, error) {
	if value == "" {
		return "", "", nil
	}

	if s.engine.IsClientEnvelope(value) {
		return value, models.FormatZK1, nil
	}

	encrypted, err := s.engine.Encrypt(value)
	if err != nil {
		return "", "", err
	}

	return encrypted, models.FormatServerGCM, nil
}

// DecryptField recovers stored for retrieval.
//
// The format marker is authoritative when present; for rows written before
// markers existed the stored value is classified directly. Client envelopes
// are returned verbatim. A server envelope that fails under every
// configured key yields a *FieldDecryptError carrying the field reference
// and a truncated ciphertext sample.
func (s *fieldService) DecryptField(ctx context.Context, ref FieldRef, stored, format string) (string, error) {
	if stored == "" {
		return "", nil
	}

	if format == models.FormatZK1 || s.engine.IsClientEnvelope(stored) {
		return stored, nil
	}

	plaintext, err := s.engine.Decrypt(stored)
	if err != nil {
		log := logger.FromContext(ctx)

		var allFailed *crypto.AllKeysFailedError
		if errors.As(err, &allFailed) {
			log.Warn().
				Str("func", "fieldService.DecryptField").
				Str("target_type", ref.TargetType).
				Str("target_id", ref.TargetID).
				Str("field", ref.FieldName).
				Int("keys_tried", len(allFailed.Attempts)).
				Msg("field failed decryption under every configured key")
		}

		return "", &FieldDecryptError{
			Ref:    ref,
			Sample: models.TruncateSample(stored),
			Err:    err,
		}
	}

	return plaintext, nil
}
