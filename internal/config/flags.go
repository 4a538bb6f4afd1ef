package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-d database DSN
//	-c/-config json file path with configs
//	-encryption-key current field encryption key (base64, 32 bytes)
//	-encryption-previous-keys comma-separated retired keys, newest-retired first
//	-token-sign-key token signing key
//	-token-issuer token issuer name
//	-token-duration token duration (e.g., "1h", "30m")
//	-request-timeout request timeout (e.g., "30s", "1m")
//	-audit-webhook-url audit webhook endpoint for issue lifecycle events
//	-scan-batch-size payments fetched per remediation scan page
//	-migration-batch-size payments decrypted per prepare-migration call
//	-scan-interval background scan period (0 disables)
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var databaseDSN string
	var jsonConfigPath string
	var encryptionKey string
	var encryptionPreviousKeys string
	var tokenSignKey string
	var tokenIssuer string
	var tokenDuration time.Duration
	var requestTimeout time.Duration
	var auditWebhookURL string
	var scanBatchSize int
	var migrationBatchSize int
	var scanInterval time.Duration

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&encryptionKey, "encryption-key", "", "Current field encryption key (base64, 32 bytes)")
	flag.StringVar(&encryptionPreviousKeys, "encryption-previous-keys", "", "Comma-separated retired keys, newest-retired first")
	flag.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	flag.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	flag.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 30m)")
	flag.DurationVar(&requestTimeout, "request-timeout", 0, "Request timeout (e.g., 30s, 1m)")
	flag.StringVar(&auditWebhookURL, "audit-webhook-url", "", "Audit webhook endpoint")
	flag.IntVar(&scanBatchSize, "scan-batch-size", 0, "Payments fetched per scan page")
	flag.IntVar(&migrationBatchSize, "migration-batch-size", 0, "Payments decrypted per prepare-migration call")
	flag.DurationVar(&scanInterval, "scan-interval", 0, "Background scan period (0 disables)")

	flag.Parse()

	return &StructuredConfig{
		Encryption: Encryption{
			Key:          encryptionKey,
			PreviousKeys: encryptionPreviousKeys,
		},
		App: App{
			TokenSignKey:  tokenSignKey,
			TokenIssuer:   tokenIssuer,
			TokenDuration: tokenDuration,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
		},
		Server: Server{
			HTTPAddress:    serverAddress.String(),
			RequestTimeout: requestTimeout,
		},
		Adapter: Adapter{
			AuditWebhookURL: auditWebhookURL,
		},
		Remediation: Remediation{
			ScanBatchSize:      scanBatchSize,
			MigrationBatchSize: migrationBatchSize,
			ScanInterval:       scanInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
