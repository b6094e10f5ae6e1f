package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }

func TestDistanceStrategyPerfectGuess(t *testing.T) {
	assert.Equal(t, 100, Score(VersionDistance, 0, nil, 100))
}

func TestDistanceStrategyDecay(t *testing.T) {
	// One scale factor of distance earns ~37% of maximum.
	assert.Equal(t, 37, Score(VersionDistance, 100, nil, 100))
	assert.Equal(t, 14, Score(VersionDistance, 200, nil, 100))
}

func TestDistanceStrategyMonotonic(t *testing.T) {
	prev := Score(VersionDistance, 0, nil, 250)
	for d := 10.0; d <= 5000; d += 10 {
		got := Score(VersionDistance, d, nil, 250)
		assert.LessOrEqual(t, got, prev, "score must not increase with distance %f", d)
		assert.GreaterOrEqual(t, got, 0)
		prev = got
	}
}

func TestDistanceStrategyClampsBadInput(t *testing.T) {
	// Negative distance scores as perfect; non-positive scale falls back.
	assert.Equal(t, 100, Score(VersionDistance, -5, nil, 100))
	assert.NotPanics(t, func() { Score(VersionDistance, 50, nil, 0) })
}

func TestDistanceStrategyIgnoresElapsed(t *testing.T) {
	assert.Equal(t,
		Score(VersionDistance, 80, nil, 100),
		Score(VersionDistance, 80, fptr(0.5), 100),
	)
}

func TestTimedStrategyInstantAnswerTriples(t *testing.T) {
	// Near-instant answers saturate the bonus at 3x the distance score.
	assert.Equal(t, 300, Score(VersionTimed, 0, fptr(0), 100))
}

func TestTimedStrategyNoElapsedNoBonus(t *testing.T) {
	base := Score(VersionDistance, 120, nil, 100)
	assert.Equal(t, base, Score(VersionTimed, 120, nil, 100))
}

func TestTimedStrategyNegativeElapsedNoBonus(t *testing.T) {
	base := Score(VersionDistance, 120, nil, 100)
	assert.Equal(t, base, Score(VersionTimed, 120, fptr(-1), 100))
}

func TestTimedStrategySlowAnswerApproachesBase(t *testing.T) {
	fast := Score(VersionTimed, 50, fptr(1), 100)
	slow := Score(VersionTimed, 50, fptr(60), 100)
	base := Score(VersionDistance, 50, nil, 100)
	assert.Greater(t, fast, slow)
	// At 60s the multiplier is within rounding distance of 1x.
	assert.InDelta(t, base, slow, 3)
}

func TestTimedStrategyBonusMonotonicInTime(t *testing.T) {
	prev := Score(VersionTimed, 100, fptr(0.0), 100)
	for elapsed := 0.5; elapsed <= 30; elapsed += 0.5 {
		got := Score(VersionTimed, 100, fptr(elapsed), 100)
		assert.LessOrEqual(t, got, prev, "bonus must not grow with elapsed %f", elapsed)
		prev = got
	}
}

func TestLookupUnknownVersionFallsBack(t *testing.T) {
	s := Lookup(99)
	assert.Equal(t, VersionDistance, s.Version())
	assert.Equal(t, Score(VersionDistance, 75, nil, 100), Score(99, 75, nil, 100))
}

func TestDefaultVersionRegistered(t *testing.T) {
	assert.Equal(t, DefaultVersion, Lookup(DefaultVersion).Version())
}
