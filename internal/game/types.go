package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/geoplay/geoquiz/internal/catalog"
	"github.com/geoplay/geoquiz/internal/geo"
)

// Session modes.
const (
	ModeSolo   = "solo"
	ModeGroup  = "group"
	ModeRanked = "ranked"
	ModeDuel   = "duel"
)

// Session lifecycle states. The transition active -> completed happens
// exactly once and never reverses.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// Session is one played instance of a quiz.
type Session struct {
	ID               uuid.UUID  `json:"id"`
	OwnerKey         string     `json:"-"`
	OwnerName        string     `json:"-"`
	Mode             string     `json:"mode"`
	GameType         string     `json:"game_type"`
	Status           string     `json:"status"`
	ScoringVersion   int        `json:"scoring_version"` // pinned at creation, immutable
	RoundCount       int        `json:"round_count"`
	TimeLimitSec     *int       `json:"time_limit_sec,omitempty"` // nil = untimed
	ActiveRoundIndex int        `json:"active_round_index"`
	Seed             string     `json:"-"` // shared between both duel sessions
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// Round is one location to guess within a session. Rounds keep their
// creation order forever; nothing re-shuffles them.
type Round struct {
	SessionID         uuid.UUID        `json:"session_id"`
	RoundNo           int              `json:"round_no"` // 1-based
	Position          int              `json:"position"` // 0-based display order
	Location          catalog.Location `json:"-"`
	GameTypeOverride  *string          `json:"game_type_override,omitempty"` // group-play admin changes
	TimeLimitOverride *int             `json:"time_limit_override,omitempty"`
	StartedAt         *time.Time       `json:"started_at,omitempty"`
}

// Guess is one player's single answer to one round.
type Guess struct {
	SessionID  uuid.UUID `json:"session_id"`
	RoundNo    int       `json:"round_no"`
	UserKey    string    `json:"-"`
	Point      geo.Point `json:"point"`
	DistanceKm float64   `json:"distance_km"`
	ElapsedSec *float64  `json:"elapsed_sec,omitempty"`
	Score      int       `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateSessionRequest describes a new game.
type CreateSessionRequest struct {
	GameType     string  `json:"game_type"`
	Mode         string  `json:"mode"`
	Rounds       int     `json:"rounds,omitempty"`         // 0 = game-type default
	TimeLimitSec *int    `json:"time_limit_sec,omitempty"` // nil = game-type default
	Seed         *string `json:"-"`                        // duel flows only
}

// StartResult reports the authoritative timer for a round. Restarting an
// already-running round returns the original values.
type StartResult struct {
	StartedAt    time.Time `json:"started_at"`
	RemainingSec *float64  `json:"remaining_sec,omitempty"` // nil = untimed
}

// GuessResult is returned immediately after a guess is stored.
type GuessResult struct {
	DistanceKm float64   `json:"distance_km"`
	ElapsedSec float64   `json:"elapsed_sec"`
	Score      int       `json:"score"`
	Target     geo.Point `json:"target"` // disclosed now that the round is answered
}

// RoundView is a round as shown to a specific requester. True coordinates
// (and panorama imagery) are nil until the requester has answered, except
// for guests, whose rankings are never persisted.
type RoundView struct {
	RoundNo  int              `json:"round_no"`
	Position int              `json:"position"`
	Name     string           `json:"name"`
	Answered bool             `json:"answered"`
	Started  bool             `json:"started"`
	Target   *geo.Point       `json:"target,omitempty"`
	Imagery  *catalog.Imagery `json:"imagery,omitempty"`
	Guess    *Guess           `json:"guess,omitempty"`
}

// Summary is the outcome of a completed session.
type Summary struct {
	SessionID    uuid.UUID    `json:"session_id"`
	TotalScore   int          `json:"total_score"`
	AverageScore float64      `json:"average_score"`
	Guesses      []Guess      `json:"guesses"`
	ElapsedSec   float64      `json:"elapsed_sec"`
	LevelUp      *LevelUpInfo `json:"level_up,omitempty"`
	Streak       *StreakInfo  `json:"streak,omitempty"`
}

// LevelUpInfo mirrors the progression outcome attached to a completion.
type LevelUpInfo struct {
	LeveledUp     bool   `json:"leveled_up"`
	PreviousLevel int    `json:"previous_level"`
	NewLevel      int    `json:"new_level"`
	NewLevelName  string `json:"new_level_name"`
}

// StreakInfo mirrors the streak outcome attached to a completion.
type StreakInfo struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}
