// Package duel builds asynchronous head-to-head matches: two sessions share
// one seed so both players face the identical ordered location set, and the
// results are reconciled after the second player finishes. No two players
// ever connect at the same time.
package duel

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Errors raised across the two duel phases.
var (
	ErrInvalidToken      = errors.New("malformed or tampered challenge token")
	ErrGameTypeMismatch  = errors.New("challenge is for a different game type")
	ErrSelfChallenge     = errors.New("cannot accept your own challenge")
	ErrSeedMismatch      = errors.New("session seed does not match challenge")
	ErrAuthRequired      = errors.New("duels require an authenticated player")
	ErrNotDuelSession    = errors.New("session is not a duel")
	ErrSessionUnfinished = errors.New("session must be completed first")
	ErrAlreadyReconciled = errors.New("duel already reconciled")
)

// Challenge is one finished side of a duel, exchanged out-of-band as an
// opaque token (for example a share link).
type Challenge struct {
	Seed           string    `json:"seed"`
	GameType       string    `json:"game_type"`
	Rounds         int       `json:"rounds"`
	ChallengerID   uuid.UUID `json:"challenger_id"`
	ChallengerName string    `json:"challenger_name"`
	Score          int       `json:"score"`
	ElapsedSec     float64   `json:"elapsed_sec"`
	SessionID      uuid.UUID `json:"session_id"`
}

// Result is the reconciled outcome of both sides: created exactly once per
// duel and immutable thereafter.
type Result struct {
	ID                uuid.UUID  `json:"id"`
	Seed              string     `json:"seed"`
	GameType          string     `json:"game_type"`
	ChallengerID      uuid.UUID  `json:"challenger_id"`
	ChallengerSession uuid.UUID  `json:"challenger_session"`
	ChallengerScore   int        `json:"challenger_score"`
	ChallengerElapsed float64    `json:"challenger_elapsed"`
	ChallengerDelta   int        `json:"challenger_delta"`
	OpponentID        uuid.UUID  `json:"opponent_id"`
	OpponentSession   uuid.UUID  `json:"opponent_session"`
	OpponentScore     int        `json:"opponent_score"`
	OpponentElapsed   float64    `json:"opponent_elapsed"`
	OpponentDelta     int        `json:"opponent_delta"`
	WinnerID          *uuid.UUID `json:"winner_id,omitempty"` // nil on a full draw
	CreatedAt         time.Time  `json:"created_at"`
}
