package domain

import "fmt"

// ValidationError reports malformed caller input. It is raised before any
// I/O, so a validation failure is never partially applied.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// StorageError reports an external store read/write failure. Multi-step
// writes are not transactional, so a StorageError may leave earlier rows
// persisted; PolicyID carries the id of a partially built policy when one was
// already assigned.
type StorageError struct {
	Op       string
	PolicyID string
	Err      error
}

func (e *StorageError) Error() string {
	if e.PolicyID != "" {
		return fmt.Sprintf("storage %s (policy %s): %v", e.Op, e.PolicyID, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError reports an unparseable or unexpectedly shaped response from the
// LLM or the geocoder.
type ParseError struct {
	Source  string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Source, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}
