package store

import (
	"context"

	"github.com/amanahapps/zakat-keeper/internal/config"
	"github.com/amanahapps/zakat-keeper/internal/logger"
)

// Storages aggregates every repository backed by the shared database
// connection.
type Storages struct {
	DB                 *DB
	PaymentRepository  PaymentRepository
	IssueRepository    IssueRepository
	SettingsRepository SettingsRepository
}

// NewStorages connects to the database described by cfg, applies pending
// migrations, and wires up all repositories.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	db, err := NewConnectPostgres(ctx, cfg.DB, log)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(); err != nil {
		return nil, err
	}

	return &Storages{
		DB:                 db,
		PaymentRepository:  NewPaymentRepository(db, log),
		IssueRepository:    NewIssueRepository(db, log),
		SettingsRepository: NewSettingsRepository(db, log),
	}, nil
}
