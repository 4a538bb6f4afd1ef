// Package config provides configuration loading, merging, and validation
// facilities for the zakat-keeper server.
//
// Configuration is assembled from multiple sources in the following priority
// order (earlier sources win; later sources only fill fields still unset):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON config file
//
// The main entry point is [GetStructuredConfig].
//
// The only hard requirement is ENCRYPTION_KEY: the merged configuration is
// rejected without it, because serving encryption-dependent routes with no
// current key would be unsafe. ENCRYPTION_PREVIOUS_KEYS is optional and
// ordered — retired keys are tried in listed order during decryption
// fallback, most-recently-retired first by convention.
package config
