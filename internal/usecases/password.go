package usecases

import (
	"crypto/subtle"

	"waitlist_funnel/internal/entities"

	"golang.org/x/crypto/bcrypt"
)

// VerifyPassword compares a supplied password with a stored value. Hashed
// values go through bcrypt; legacy plaintext rows are compared in constant
// time.
func VerifyPassword(stored entities.PasswordValue, supplied string) bool {
	switch stored.Kind {
	case entities.PasswordHashed:
		return bcrypt.CompareHashAndPassword([]byte(stored.Value), []byte(supplied)) == nil
	default:
		return subtle.ConstantTimeCompare([]byte(stored.Value), []byte(supplied)) == 1
	}
}

// HashPassword returns a bcrypt hash suitable for the admins table.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
