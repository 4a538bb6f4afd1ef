package models

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// RoleAdmin is the role claim value required by the administrative
// encryption-remediation endpoints.
const RoleAdmin = "admin"

// Token wraps a JWT token with convenience accessors for authentication
// flows.
//
// It embeds [jwt.Token] for low-level token operations and TokenClaims for
// claim access. SignedString holds the compact serialized form ready to be
// transmitted in HTTP headers.
type Token struct {
	// Token is the underlying JWT token used for signing and claim
	// inspection. Excluded from JSON serialization because only the compact
	// string form is meaningful outside the server process.
	*jwt.Token `json:"-"`

	TokenClaims

	// SignedString is the compact JWS representation of the token.
	SignedString string `json:"-"`

	// UserID is the owner identifier extracted from the "sub" claim,
	// cached to avoid repeated string-to-int parsing.
	UserID int64 `json:"-"`
}

// TokenClaims is the claim set issued by this service: the RFC 7519
// registered claims plus a role marker distinguishing operators from
// regular users.
type TokenClaims struct {
	jwt.RegisteredClaims

	// Role is "admin" for operator tokens; empty for end users.
	Role string `json:"role,omitempty"`
}

// GetUserID extracts the user identifier from the token's "sub" claim and
// parses it as a base-10 int64.
func (t *Token) GetUserID() (int64, error) {
	userIDString, err := t.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("error extracting UserID from token: %w", err)
	}

	userID, err := strconv.ParseInt(userIDString, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("error converting UserID from token to int64: %w", err)
	}

	return userID, nil
}

// IsAdmin reports whether the token carries the operator role claim.
func (t *Token) IsAdmin() bool {
	return t.Role == RoleAdmin
}

// String returns the compact JWS serialization of the token.
// It implements the [fmt.Stringer] interface.
func (t *Token) String() string {
	return t.SignedString
}
