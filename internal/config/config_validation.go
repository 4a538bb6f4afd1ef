package config

import "strings"

// applyDefaults fills in batch limits left unset by every source.
func (cfg *StructuredConfig) applyDefaults() {
	if cfg.Remediation.ScanBatchSize <= 0 {
		cfg.Remediation.ScanBatchSize = DefaultScanBatchSize
	}

	if cfg.Remediation.MigrationBatchSize <= 0 {
		cfg.Remediation.MigrationBatchSize = DefaultMigrationBatchSize
	}
}

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// The current encryption key is a hard startup invariant: without it the
// server cannot encrypt new fields and must refuse to start rather than
// fail per request.
func (cfg *StructuredConfig) validate() error {
	if strings.TrimSpace(cfg.Encryption.Key) == "" {
		return ErrMissingEncryptionKey
	}

	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.App.TokenSignKey == "" || cfg.App.TokenIssuer == "" {
		return ErrInvalidAuthConfigs
	}

	return nil
}
