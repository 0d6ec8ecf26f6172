package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// OperatorToken represents a signed JWT used by platform operators to
// reach the /v1/ops endpoints (quarantine review, manual reconcile).
// The Token field contains the JWT string; Exp stores the expiration
// timestamp. Operator tokens are issued out of band by the platform
// admin tooling, not by this service's public API.
type OperatorToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewOperatorToken builds and signs an HS256 JWT carrying the operator
// role. It takes the signing secret, a subject identifying the operator,
// and a TTL in minutes. The JWT includes standard claims: subject (sub),
// role, expiration (exp) and issued at (iat).
func NewOperatorToken(secret, subject string, ttlMin int) (OperatorToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": "OPERATOR",
		"exp":  exp.Unix(),
		"iat":  time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return OperatorToken{}, err
	}
	return OperatorToken{Token: signed, Exp: exp}, nil
}
