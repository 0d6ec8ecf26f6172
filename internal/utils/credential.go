package utils

import "golang.org/x/crypto/bcrypt"

// HashCredential returns a bcrypt hash of a tenant API secret using the
// given cost. Only the hash is stored in the tenants table.
func HashCredential(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyCredential safely compares a bcrypt hash and a plain API secret.
func VerifyCredential(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
