package backing

import "errors"

var (
	// ErrExhausted indicates the source cannot extend the break any further.
	ErrExhausted = errors.New("backing: reservation exhausted")

	// ErrReleased indicates the source was used after Release.
	ErrReleased = errors.New("backing: source released")

	// ErrLocked indicates another File holds the arena file.
	ErrLocked = errors.New("backing: arena file in use")

	// ErrInvalidSize indicates a non-positive acquisition or limit.
	ErrInvalidSize = errors.New("backing: invalid size")
)
