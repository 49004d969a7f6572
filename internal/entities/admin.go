package entities

import "strings"

// bcryptPrefix marks stored passwords that are bcrypt hashes ($2a$, $2b$, $2y$).
const bcryptPrefix = "$2"

// PasswordKind tags how a stored admin password must be compared.
type PasswordKind int

const (
	PasswordPlaintext PasswordKind = iota // legacy/bootstrap rows
	PasswordHashed
)

func (k PasswordKind) String() string {
	if k == PasswordHashed {
		return "hashed"
	}
	return "plaintext"
}

// PasswordValue is a stored admin password: Hashed(value) or Plaintext(value).
type PasswordValue struct {
	Kind  PasswordKind
	Value string
}

// ParsePasswordValue classifies a raw stored password.
func ParsePasswordValue(stored string) PasswordValue {
	if strings.HasPrefix(stored, bcryptPrefix) {
		return PasswordValue{Kind: PasswordHashed, Value: stored}
	}
	return PasswordValue{Kind: PasswordPlaintext, Value: stored}
}

// AdminCredential is a row of the admins table.
type AdminCredential struct {
	ID       int           `json:"id"`
	Email    string        `json:"email"`
	Password PasswordValue `json:"-"`
}
