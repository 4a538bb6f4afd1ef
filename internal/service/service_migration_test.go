package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/models"
)

type migrationFixture struct {
	svc      MigrationService
	payments *fakePaymentRepo
	settings *fakeSettingsRepo
	engine   EncryptionEngine
}

// newMigrationFixture seeds user 1 with a fully migrated payment, a fully
// server-held payment, and a mixed payment whose notes are already a client
// envelope.
func newMigrationFixture(t *testing.T) *migrationFixture {
	t.Helper()

	engine := testEngine(t, testCryptoKey(t, 0x01))

	recipientA, err := engine.Encrypt("Local Masjid")
	require.NoError(t, err)
	recipientB, err := engine.Encrypt("Water Well Fund")
	require.NoError(t, err)

	payments := newFakePaymentRepo(
		models.Payment{ID: "payment-1", UserID: 1, Recipient: "ZK1:a", RecipientFormat: models.FormatZK1, Notes: "ZK1:b", NotesFormat: models.FormatZK1, Amount: 100},
		models.Payment{ID: "payment-2", UserID: 1, Recipient: recipientA, RecipientFormat: models.FormatServerGCM, Amount: 200},
		models.Payment{ID: "payment-3", UserID: 1, Recipient: recipientB, RecipientFormat: models.FormatServerGCM, Notes: "ZK1:c", NotesFormat: models.FormatZK1, Amount: 300},
	)
	settings := newFakeSettingsRepo()

	log := logger.Nop()
	svc := NewMigrationService(payments, settings, NewFieldService(engine, log), engine, 2, log)

	return &migrationFixture{svc: svc, payments: payments, settings: settings, engine: engine}
}

func TestEncryptionStatus_CountsByFormat(t *testing.T) {
	f := newMigrationFixture(t)

	status, err := f.svc.EncryptionStatus(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, 3, status.TotalPayments)
	assert.Equal(t, 1, status.ZKPayments)
	assert.Equal(t, 2, status.ServerPayments)
	assert.True(t, status.NeedsMigration)
}

func TestEncryptionStatus_FullyMigratedUser(t *testing.T) {
	f := newMigrationFixture(t)
	require.NoError(t, f.payments.Save(context.Background(), &models.Payment{
		ID: "payment-9", UserID: 7, Recipient: "ZK1:x", RecipientFormat: models.FormatZK1,
	}))

	status, err := f.svc.EncryptionStatus(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, 1, status.TotalPayments)
	assert.Equal(t, 1, status.ZKPayments)
	assert.False(t, status.NeedsMigration)
}

func TestPrepareMigration_ExportsServerHeldFieldsOnly(t *testing.T) {
	f := newMigrationFixture(t)

	exported, err := f.svc.PrepareMigration(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, exported, 2)

	assert.Equal(t, "payment-2", exported[0].ID)
	assert.Equal(t, "Local Masjid", exported[0].Recipient)

	// the mixed payment's client-held notes come back empty
	assert.Equal(t, "payment-3", exported[1].ID)
	assert.Equal(t, "Water Well Fund", exported[1].Recipient)
	assert.Empty(t, exported[1].Notes)
}

func TestPrepareMigration_RespectsLimit(t *testing.T) {
	f := newMigrationFixture(t)

	exported, err := f.svc.PrepareMigration(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Len(t, exported, 1)
}

func TestPrepareMigration_SkipsUndecryptablePayment(t *testing.T) {
	f := newMigrationFixture(t)

	lostEngine := testEngine(t, testCryptoKey(t, 0xEE))
	orphaned, err := lostEngine.Encrypt("unreachable")
	require.NoError(t, err)
	require.NoError(t, f.payments.UpdateField(context.Background(), "payment-2", models.FieldRecipient, orphaned, models.FormatServerGCM))

	exported, err := f.svc.PrepareMigration(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, exported, 1)
	assert.Equal(t, "payment-3", exported[0].ID)
}

func TestMarkMigrated_WritesEncryptedFlag(t *testing.T) {
	f := newMigrationFixture(t)

	flag, err := f.svc.MarkMigrated(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, flag.EncryptionMigrated)
	assert.False(t, flag.MigratedAt.IsZero())

	settings, err := f.settings.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.NotContains(t, settings.Blob, "encryptionMigrated", "blob must be encrypted at rest")

	raw, err := f.engine.Decrypt(settings.Blob)
	require.NoError(t, err)

	var stored models.MigrationFlag
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.True(t, stored.EncryptionMigrated)
}
