package services

import (
	"strings"

	"github.com/google/uuid"
)

// AccessCodeLength is the number of hex characters in a tracking code.
const AccessCodeLength = 10

// NewAccessCode returns the first ten hex digits of a random UUID.
func NewAccessCode() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", "")[:AccessCodeLength], nil
}
