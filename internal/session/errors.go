package session

import "errors"

var (
	ErrNotFound          = errors.New("driver not found")
	ErrBrowserNotAllowed = errors.New("browser not allowed")
	// ErrQuitFailed wraps quit failures. The driver is untracked regardless.
	ErrQuitFailed = errors.New("driver failed to quit")
)
