package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrMissingEncryptionKey indicates that no current encryption key was
	// provided by any configuration source. Fatal at startup and not
	// recoverable at request time.
	ErrMissingEncryptionKey = errors.New("ENCRYPTION_KEY is required")

	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, an empty database DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")

	// ErrInvalidAuthConfigs indicates missing token signing settings
	// required to authenticate the admin and user API surfaces.
	ErrInvalidAuthConfigs = errors.New("invalid auth configuration")
)
