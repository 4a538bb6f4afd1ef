// Package service contains the business logic of the zakat-keeper server:
// field encryption policy, payment management, the remediation workflow and
// the client-side-encryption migration helpers.
package service

import (
	"github.com/amanahapps/zakat-keeper/internal/config"
	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/internal/store"
	"github.com/amanahapps/zakat-keeper/internal/utils"
	"github.com/amanahapps/zakat-keeper/internal/validators"
)

// Services aggregates every business-logic service behind its interface so
// transport handlers depend on behavior, not implementations.
type Services struct {
	AuthService        AuthService
	FieldCodec         FieldCodec
	PaymentService     PaymentService
	RemediationService RemediationService
	MigrationService   MigrationService
}

// NewServices wires all services over the given repositories, encryption
// engine and audit notifier. A nil notifier disables audit events.
func NewServices(storages *store.Storages, engine EncryptionEngine, notifier AuditNotifier, cfg *config.StructuredConfig, log *logger.Logger) *Services {
	ids := utils.NewUUIDGenerator()
	fields := NewFieldService(engine, log)
	paymentValidator := validators.NewPaymentValidator()

	return &Services{
		AuthService:        NewAuthService(cfg.App, log),
		FieldCodec:         fields,
		PaymentService:     NewPaymentService(storages.PaymentRepository, fields, paymentValidator, ids, log),
		RemediationService: NewRemediationService(storages.PaymentRepository, storages.IssueRepository, fields, engine, notifier, ids, cfg.Remediation.ScanBatchSize, log),
		MigrationService:   NewMigrationService(storages.PaymentRepository, storages.SettingsRepository, fields, engine, cfg.Remediation.MigrationBatchSize, log),
	}
}
