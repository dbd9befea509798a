package service

import "errors"

var (
	// ErrGenerationFailed covers every image API failure: no image,
	// timeout, transport or auth errors and an open circuit.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrStorageUnavailable wraps any document store failure.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotFound is reserved. Liking an unknown card is a silent success.
	ErrNotFound = errors.New("not found")
)
