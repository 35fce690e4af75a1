package core

import (
	"errors"
	"fmt"
)

var (
	// ErrConflict is returned when an approval transition loses a race:
	// the request was already reviewed or expired.
	ErrConflict = errors.New("approval request already resolved")
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
)

// InputError marks a single email whose input cannot be scored: a missing
// or out-of-range component score, or a malformed candidate. The safe
// automated path for such an email is escalation, never a guess.
type InputError struct {
	EmailID   string
	Component Component
	Reason    string
}

func (e *InputError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("invalid input for email %q (component %s): %s", e.EmailID, e.Component, e.Reason)
	}
	return fmt.Sprintf("invalid input for email %q: %s", e.EmailID, e.Reason)
}

// ConfigError marks an invalid engine configuration. It is fatal at
// startup and never raised on the per-email path.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration %q: %s", e.Field, e.Reason)
}

// StoreError wraps a persistence failure with enough context to trace it
// back to the email being processed.
type StoreError struct {
	Op      string
	EmailID string
	Err     error
}

func (e *StoreError) Error() string {
	if e.EmailID != "" {
		return fmt.Sprintf("store %s failed for email %q: %v", e.Op, e.EmailID, e.Err)
	}
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
