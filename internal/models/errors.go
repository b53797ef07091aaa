package models

import (
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("complaint not found")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidFilter = errors.New("invalid filter: dates must be YYYY-MM-DD")
)

// ValidationError lists the submitted fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "please fill in all required fields: " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f == field {
			return true
		}
	}
	return false
}
