package accounts

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword will generate a password digest
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyPassword
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}
