package interfaces

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique column (username, email, sensor topic) is already taken
	ErrConflict = errors.New("already exists")
	// ErrInvalidReference is returned when a referenced parent row does not exist
	ErrInvalidReference = errors.New("referenced record does not exist")
)
