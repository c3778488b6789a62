// Package auth implements the minimal authentication surface: password
// hashing, opaque bearer tokens, and the Gin middleware that verifies them
// and populates the request context with the caller's identity.
package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a bcrypt hash of password suitable for storage in
// domain.User.PasswordHash.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches hash, returning a non-nil
// error (bcrypt.ErrMismatchedHashAndPassword, typically) when it does not.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
