package progression

import (
	"time"

	"github.com/google/uuid"
)

// StreakState is the per-user run of consecutive calendar days played.
// LastPlayed is a date (UTC midnight), not a timestamp: streak continuity is
// decided by calendar day, never by elapsed hours, so timezone drift cannot
// break a run.
type StreakState struct {
	UserID     uuid.UUID `json:"user_id"`
	Current    int       `json:"current"`
	Longest    int       `json:"longest"`
	LastPlayed time.Time `json:"last_played"`
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ApplyPlay folds one played day into the state and reports whether the
// state changed. Same day: no change. Exactly yesterday: streak continues.
// Anything earlier (or a fresh user): streak resets to 1. Longest only ever
// grows.
func ApplyPlay(s StreakState, playedAt time.Time) (StreakState, bool) {
	today := DateOf(playedAt)

	if s.Current > 0 && s.LastPlayed.Equal(today) {
		return s, false
	}

	yesterday := today.AddDate(0, 0, -1)
	if s.Current > 0 && s.LastPlayed.Equal(yesterday) {
		s.Current++
	} else {
		s.Current = 1
	}
	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastPlayed = today
	return s, true
}
