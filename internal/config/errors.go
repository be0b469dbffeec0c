package config

import (
	"errors"
	"fmt"
)

// ErrMissingConfiguration matches any MissingConfigurationError via errors.Is.
var ErrMissingConfiguration = errors.New("missing configuration")

// MissingConfigurationError reports a required key that is absent or blank.
// It is a deployment problem: surface it to an operator and do not retry.
type MissingConfigurationError struct {
	Key string
}

func (e *MissingConfigurationError) Error() string {
	return fmt.Sprintf("missing configuration: %s is not set", e.Key)
}

// Is reports whether target is ErrMissingConfiguration or names the same key.
func (e *MissingConfigurationError) Is(target error) bool {
	if target == ErrMissingConfiguration {
		return true
	}
	var other *MissingConfigurationError
	if errors.As(target, &other) {
		return other.Key == e.Key
	}
	return false
}

// MissingKey returns the key named by err if it is a MissingConfigurationError.
func MissingKey(err error) (string, bool) {
	var missing *MissingConfigurationError
	if errors.As(err, &missing) {
		return missing.Key, true
	}
	return "", false
}
