// Package progression maps lifetime score to levels and consecutive play
// days to streaks. Levels are never stored: they are always recomputed from
// the immutable threshold table below.
package progression

// Level is one row of the fixed ascending threshold table.
type Level struct {
	Number   int    `json:"number"`
	MinScore int64  `json:"min_score"`
	Name     string `json:"name"`
}

// levels is append-only and strictly ascending in MinScore. The first entry
// must start at 0 so every non-negative total maps to a level.
var levels = []Level{
	{Number: 1, MinScore: 0, Name: "Tourist"},
	{Number: 2, MinScore: 2500, Name: "Sightseer"},
	{Number: 3, MinScore: 7500, Name: "Backpacker"},
	{Number: 4, MinScore: 15000, Name: "Globetrotter"},
	{Number: 5, MinScore: 30000, Name: "Navigator"},
	{Number: 6, MinScore: 60000, Name: "Cartographer"},
	{Number: 7, MinScore: 100000, Name: "Explorer"},
	{Number: 8, MinScore: 175000, Name: "Pathfinder"},
	{Number: 9, MinScore: 275000, Name: "Voyager"},
	{Number: 10, MinScore: 400000, Name: "Atlas Master"},
}

// Levels returns a copy of the level table.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// LevelFor returns the highest level whose minimum is <= totalScore.
// Totals below the first threshold map to level 1, totals above the last to
// the final level; the result is never out of range.
func LevelFor(totalScore int64) Level {
	current := levels[0]
	for _, lvl := range levels {
		if totalScore >= lvl.MinScore {
			current = lvl
		} else {
			break
		}
	}
	return current
}

// LevelUp describes the outcome of comparing two lifetime totals.
type LevelUp struct {
	LeveledUp     bool  `json:"leveled_up"`
	PreviousLevel Level `json:"previous_level"`
	NewLevel      Level `json:"new_level"`
}

// CheckLevelUp detects level changes between two totals, including jumps
// across several thresholds from a single game. Equal totals never level up.
func CheckLevelUp(previousTotal, newTotal int64) LevelUp {
	prev := LevelFor(previousTotal)
	next := LevelFor(newTotal)
	return LevelUp{
		LeveledUp:     next.Number > prev.Number,
		PreviousLevel: prev,
		NewLevel:      next,
	}
}
