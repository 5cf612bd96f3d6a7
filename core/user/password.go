package user

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var errPasswordMismatch = errors.New("password mismatch")

// HashPassword returns the bcrypt hash of `pwd`.
func HashPassword(pwd string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// CheckPassword compares `pwd` with the stored value.
// Besides bcrypt hashes, legacy values (base64 of the password, or the password itself) are accepted;
// `legacy` is true when such a value matched and should be re-hashed.
func CheckPassword(stored, pwd string) (legacy bool, err error) {
	if stored == "" || pwd == "" {
		return false, errPasswordMismatch
	}
	if isBcryptHash(stored) {
		if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(pwd)); err != nil {
			return false, errPasswordMismatch
		}
		return false, nil
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(pwd))
	if subtle.ConstantTimeCompare([]byte(stored), []byte(encoded)) == 1 ||
		subtle.ConstantTimeCompare([]byte(stored), []byte(pwd)) == 1 {
		return true, nil
	}
	return false, errPasswordMismatch
}
