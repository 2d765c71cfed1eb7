// Package errs contains sentinel errors shared by the storage, service and HTTP layers.
package errs

import "errors"

var (
	// ErrNotFound indicates the requested entity does not exist for the caller.
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates the entity exists but belongs to another user.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthorized indicates failed authentication. Callers never learn which check failed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAlreadyExists indicates a unique constraint violation on signup or diary data.
	ErrAlreadyExists = errors.New("already exists")

	// ErrConflict indicates a concurrent write won the race for the same entry key.
	// The request may be retried.
	ErrConflict = errors.New("conflict")

	// ErrValidation indicates malformed input.
	ErrValidation = errors.New("validation error")

	// ErrUpstream indicates the transcription or generation service failed.
	ErrUpstream = errors.New("upstream failure")
)
