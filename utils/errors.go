package utils

import (
	"github.com/pkg/errors"
)

// NewNilArgumentError is used when a required argument was nil.
func NewNilArgumentError(name string) error {
	return errors.Errorf("%s must not be nil", name)
}

// NewOutOfRangeError is used when a numeric setting lies outside its allowed interval.
func NewOutOfRangeError(name string, value interface{}, bounds string) error {
	return errors.Errorf("%s must be in %s, got %v", name, bounds, value)
}
