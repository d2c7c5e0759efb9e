package game

import "errors"

// Sentinel errors forming the action error taxonomy. Handlers map these to
// HTTP status codes with errors.Is; everything else is a 500.
var (
	// ErrValidation marks a malformed action (missing position, bad shape).
	ErrValidation = errors.New("validation error")
	// ErrIllegalMove marks a well-formed but illegal action: not the
	// caller's turn, occupied or blocked cell, card not in hand.
	ErrIllegalMove = errors.New("illegal move")
	// ErrNotFound marks an unknown game or card instance.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks a caller that is not a participant of the game.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict marks a stale snapshot version on write.
	ErrConflict = errors.New("concurrency conflict")
)
