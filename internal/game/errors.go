package game

import (
	"errors"
	"fmt"
)

// Validation, authorization and state-conflict errors. All are recovered at
// the operation boundary; none crash the serving process. Handlers map
// ErrSessionNotFound and ErrNotOwner to the same external response so a
// caller without access cannot probe for session existence.
var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrRoundNotFound        = errors.New("round not found")
	ErrNotOwner             = errors.New("session does not belong to caller")
	ErrSessionCompleted     = errors.New("game already complete")
	ErrRoundNotStarted      = errors.New("round has not been started")
	ErrRoundAlreadyAnswered = errors.New("location already guessed")
	ErrInvalidMode          = errors.New("invalid session mode")
	ErrInvalidCoordinate    = errors.New("coordinate out of range")
)

// IncompleteSessionError rejects a completion attempt while rounds are still
// unanswered, telling the caller exactly how many remain.
type IncompleteSessionError struct {
	Missing int
}

func (e *IncompleteSessionError) Error() string {
	return fmt.Sprintf("session incomplete: %d round(s) without a guess", e.Missing)
}
