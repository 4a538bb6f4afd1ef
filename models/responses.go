package models

// ScanResponse reports the outcome of one administrative remediation scan.
type ScanResponse struct {
	// Created is the number of newly opened issues. Rescans over unchanged
	// failing records create nothing: existing OPEN issues are left alone.
	Created int `json:"created"`

	// Scanned is the number of payment records examined.
	Scanned int `json:"scanned"`
}

// IssuesResponse wraps an issue listing for the admin UI.
type IssuesResponse struct {
	Issues []RemediationIssue `json:"issues"`

	// Length is the total number of entries in Issues, provided so the
	// consumer can validate the response without iterating the slice.
	Length int `json:"length"`
}

// MigrationExportResponse carries the legacy-format subset of a user's
// payments, decrypted for immediate client-side re-encryption.
type MigrationExportResponse struct {
	Payments []MigrationPayment `json:"payments"`
	Length   int                `json:"length"`
}

// SuccessResponse is the generic acknowledgement body.
type SuccessResponse struct {
	Success bool `json:"success"`
}
