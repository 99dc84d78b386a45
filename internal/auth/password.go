// Package auth provides password hashing and verification utilities
// using bcrypt for secure credential storage.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the bcrypt work factor. 12 keeps a single verification in
// the tens-of-milliseconds range while resisting offline brute force.
const BcryptCost = 12

// HashPassword creates a salted bcrypt hash of the password. bcrypt
// generates a fresh random salt on every call and encodes it into the hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a password against a stored bcrypt hash.
// A mismatch returns (false, nil); any other failure returns an error.
func CheckPassword(password, encodedHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("comparing password: %w", err)
}

// NeedsRehash checks whether a stored hash uses a lower cost than the
// current default. Returns true if the hash should be re-created.
func NeedsRehash(encodedHash string) bool {
	cost, err := bcrypt.Cost([]byte(encodedHash))
	if err != nil {
		return true
	}
	return cost < BcryptCost
}
