package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// PasswordVerifier checks a candidate admin password.
type PasswordVerifier interface {
	Verify(candidate string) bool
}

// BcryptVerifier compares candidates against a stored bcrypt hash.
type BcryptVerifier struct {
	hash []byte
}

// NewBcryptVerifier validates that hash is a bcrypt hash.
func NewBcryptVerifier(hash string) (*BcryptVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("admin password hash: %w", err)
	}
	return &BcryptVerifier{hash: []byte(hash)}, nil
}

// NewVerifier prefers hash; with only a legacy plaintext password it hashes
// it once so comparisons never touch the plaintext again. The boolean
// reports that the plaintext fallback was used.
func NewVerifier(hash, plaintext string) (*BcryptVerifier, bool, error) {
	if hash != "" {
		v, err := NewBcryptVerifier(hash)
		return v, false, err
	}
	if plaintext == "" {
		return nil, false, errors.New("no admin password configured")
	}
	h, err := HashPassword(plaintext)
	if err != nil {
		return nil, false, err
	}
	return &BcryptVerifier{hash: []byte(h)}, true, nil
}

func (v *BcryptVerifier) Verify(candidate string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(candidate)) == nil
}

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcryptCost)
	return string(b), err
}
