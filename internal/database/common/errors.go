package common

import (
	"errors"
	"fmt"
)

// ErrUniqueViolation marks a driver error whose kind is a unique or primary
// key constraint violation. Adapters detect it from driver error codes.
var ErrUniqueViolation = errors.New("unique constraint violation")

// Classifier reports whether a driver error is a unique constraint violation.
type Classifier func(err error) bool

// Wrap tags err with ErrUniqueViolation when the classifier recognizes it.
func (c Classifier) Wrap(err error) error {
	if err == nil {
		return nil
	}
	if c != nil && c(err) {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}
