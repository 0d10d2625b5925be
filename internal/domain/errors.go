package domain

import "errors"

var (
	// ErrNotFound means catalog resolution or search yielded nothing.
	ErrNotFound = errors.New("not found")
	// ErrNotConfigured means the chat has no ledger endpoint linked yet.
	ErrNotConfigured = errors.New("chat has no ledger linked")
	// ErrStaleCache means pagination was requested with no backing snapshot.
	ErrStaleCache = errors.New("snapshot no longer available")
	// ErrInvalidFormat means user input failed the shape its state expects.
	ErrInvalidFormat = errors.New("invalid format")
)
