package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadableDocument is returned when the captured file is not a
	// document the engine can process.
	ErrUnreadableDocument = errors.New("unreadable document")

	// ErrDocumentTooLarge is returned when the document exceeds the
	// engine's size limit.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size")

	// ErrMissingCredentials is returned when no engine credentials are
	// configured.
	ErrMissingCredentials = errors.New("missing extraction credentials")

	// ErrProcessorNotFound is returned when the configured processor does
	// not exist or is not accessible.
	ErrProcessorNotFound = errors.New("extraction processor not found")

	// ErrExtractionFailed is returned for any other engine failure.
	ErrExtractionFailed = errors.New("extraction failed")
)

// Error wraps an extraction failure with the operation that produced it.
type Error struct {
	Op      string
	Err     error
	Details string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("extract: %s: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("extract: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err, Details: details}
}
