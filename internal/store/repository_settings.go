package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/amanahapps/zakat-keeper/internal/logger"
	"github.com/amanahapps/zakat-keeper/models"
)

// settingsRepository is the PostgreSQL-backed implementation of
// [SettingsRepository]. The blob column holds a server-encrypted JSON
// document; the repository treats it as opaque text.
type settingsRepository struct {
	*DB
	logger *logger.Logger
}

// NewSettingsRepository constructs a [SettingsRepository] backed by the
// provided database connection and logger.
func NewSettingsRepository(db *DB, logger *logger.Logger) SettingsRepository {
	return &settingsRepository{
		DB:     db,
		logger: logger,
	}
}

// Get retrieves the user's settings row. Returns [ErrSettingsNotFound] when
// the user has no settings yet.
func (s *settingsRepository) Get(ctx context.Context, userID int64) (models.UserSettings, error) {
	log := logger.FromContext(ctx)

	var settings models.UserSettings
	err := s.DB.QueryRowContext(ctx, getSettings, userID).Scan(
		&settings.UserID,
		&settings.Blob,
		&settings.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserSettings{}, ErrSettingsNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "settingsRepository.Get").
			Int64("user_id", userID).
			Msg("failed to execute query for getting user settings")
		return models.UserSettings{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return settings, nil
}

// Upsert writes the settings blob, inserting the row on first write.
func (s *settingsRepository) Upsert(ctx context.Context, settings models.UserSettings) error {
	log := logger.FromContext(ctx)

	_, err := s.DB.ExecContext(ctx, upsertSettings, settings.UserID, settings.Blob)
	if err != nil {
		log.Err(err).
			Str("func", "settingsRepository.Upsert").
			Int64("user_id", settings.UserID).
			Msg("failed to upsert user settings")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	log.Info().
		Str("func", "settingsRepository.Upsert").
		Int64("user_id", settings.UserID).
		Msg("user settings saved")

	return nil
}
