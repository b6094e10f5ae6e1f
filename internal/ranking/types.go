// Package ranking folds completed games into per-period, per-game-type
// leaderboards. Postgres aggregates are authoritative; Redis sorted sets
// mirror them for cheap top-N reads.
package ranking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Leaderboard windows, evaluated independently: one completed game updates
// the current bucket of all four.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
	WindowAllTime = "all_time"
)

// GameTypeOverall aggregates across every game type.
const GameTypeOverall = "overall"

var defaultWindows = []string{WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime}

// PeriodKey returns the storage bucket for a window at time t, e.g.
// "daily:2026-08-31", "weekly:2026-W36", "monthly:2026-08", "all_time".
func PeriodKey(window string, t time.Time) string {
	u := t.UTC()
	switch window {
	case WindowDaily:
		return "daily:" + u.Format("2006-01-02")
	case WindowWeekly:
		year, week := u.ISOWeek()
		return fmt.Sprintf("weekly:%d-W%02d", year, week)
	case WindowMonthly:
		return "monthly:" + u.Format("2006-01")
	default:
		return WindowAllTime
	}
}

// Entry is one (user, game-type, period) aggregate. TotalScore only ever
// grows; AchievedAt records when it last grew and breaks ranking ties in
// favor of whoever got there first.
type Entry struct {
	UserID       uuid.UUID `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	GameType     string    `json:"game_type"`
	Period       string    `json:"period"`
	TotalScore   int64     `json:"total_score"`
	GameCount    int       `json:"game_count"`
	BestScore    int       `json:"best_score"`
	AverageScore float64   `json:"average_score"`
	UpdatedAt    time.Time `json:"updated_at"`
	AchievedAt   time.Time `json:"-"`
}

// CompletedGame is the minimal record needed to (re)build aggregates from
// session history.
type CompletedGame struct {
	UserID      uuid.UUID
	DisplayName string
	GameType    string
	TotalScore  int
	CompletedAt time.Time
}
