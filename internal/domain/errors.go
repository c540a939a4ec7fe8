package domain

import "errors"

var (
	// ErrEmptyAddress reports a blank connection string.
	ErrEmptyAddress = errors.New("address is empty")

	// ErrInvalidAddress reports a connection string that cannot be
	// parsed into a transport endpoint.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrToolNotFound reports a command name absent from the index.
	ErrToolNotFound = errors.New("tool not found")

	// ErrSessionClosed reports use of a closed session.
	ErrSessionClosed = errors.New("session is closed")
)
