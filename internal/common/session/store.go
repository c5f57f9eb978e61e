// Package session keeps per-page state for the form controller. Values are
// stored as JSON so both backends behave the same.
package session

import (
	"errors"
)

var (
	// ErrNotFound is returned for unknown or expired page ids.
	ErrNotFound = errors.New("session: page not found")
	// ErrLocked is returned by Acquire when the page is already locked.
	ErrLocked = errors.New("session: page locked")
)

// Release gives back a lock obtained with Acquire. It is safe to call once.
type Release func()
