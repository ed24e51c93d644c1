package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when a search has no text.
	ErrEmptyQuery = errors.New("no query provided")

	// ErrNoResults is returned when there are no past searches to show.
	ErrNoResults = errors.New("no past results found")
)

// SourceFailure records why a single source produced no results.
// The aggregator logs it and carries on with the other sources.
type SourceFailure struct {
	Source string
	Err    error
}

func (e *SourceFailure) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e *SourceFailure) Unwrap() error {
	return e.Err
}

// StoreError wraps a failing key/value store operation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsStoreError reports whether err wraps a StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
