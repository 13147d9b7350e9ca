package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	errNoKid      = errors.New("token has no kid header")
	errNoVerifier = errors.New("no token verifier configured")
)

// Claims are the registered claims the portal reads. Subject is the
// identity id; ID (jti) keys revocation on sign-out.
type Claims struct {
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for identityID. It backs the token CLI
// command and tests; production tokens come from the identity provider.
func IssueToken(secret []byte, identityID, issuer, audience string, ttl time.Duration) (string, error) {
	if identityID == "" {
		return "", errors.New("identity id is required")
	}
	if len(secret) == 0 {
		return "", errNoVerifier
	}

	now := time.Now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   identityID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
