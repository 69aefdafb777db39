package client

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for unusable input; nothing is sent upstream.
	ErrValidation = errors.New("invalid search")

	// ErrNotFound covers both an unknown city and a date missing from the
	// returned forecast. It is surfaced as a warning, not a failure.
	ErrNotFound = errors.New("not found")

	ErrOutOfRange = fmt.Errorf("selected date is out of range: %w", ErrNotFound)

	// ErrSuperseded means a newer search started while this one was in
	// flight. Its result was dropped without touching state or the UI.
	ErrSuperseded = errors.New("search superseded by a newer one")
)
