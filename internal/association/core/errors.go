package core

import "errors"

// Failure classes of the association lifecycle. Callers test them with errors.Is.
var (
	// ErrNotFound means no association matched the request. Nothing was changed.
	ErrNotFound = errors.New("association not found")

	// ErrInvalidTransition means the current state forbids the operation. Nothing was changed.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidInput means the request or event payload is malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrHandlerFailure means the state change committed but a fatal
	// notification handler failed, so later handlers did not run.
	ErrHandlerFailure = errors.New("notification handler failure")

	// ErrSubResourceFailure qualifies a successful operation whose derived
	// resource could not be cleaned up.
	ErrSubResourceFailure = errors.New("derived resource failure")
)
