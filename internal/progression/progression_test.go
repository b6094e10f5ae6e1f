package progression

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/geoplay/geoquiz/pkg/clock"
)

func TestLevelTableCoversAllTotals(t *testing.T) {
	levels := Levels()
	assert.Len(t, levels, 10)
	assert.Equal(t, int64(0), levels[0].MinScore)
	for i := 1; i < len(levels); i++ {
		assert.Greater(t, levels[i].MinScore, levels[i-1].MinScore)
		assert.Equal(t, i+1, levels[i].Number)
	}
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, 1, LevelFor(0).Number)
	assert.Equal(t, 1, LevelFor(-100).Number)

	second := Levels()[1]
	assert.Equal(t, 2, LevelFor(second.MinScore).Number)
	assert.Equal(t, 1, LevelFor(second.MinScore-1).Number)

	top := Levels()[9]
	assert.Equal(t, 10, LevelFor(top.MinScore).Number)
	assert.Equal(t, 10, LevelFor(top.MinScore*10).Number)
}

func TestCheckLevelUp(t *testing.T) {
	second := Levels()[1]

	up := CheckLevelUp(second.MinScore-50, second.MinScore+10)
	assert.True(t, up.LeveledUp)
	assert.Equal(t, 1, up.PreviousLevel.Number)
	assert.Equal(t, 2, up.NewLevel.Number)

	same := CheckLevelUp(10, 20)
	assert.False(t, same.LeveledUp)
}

func TestApplyPlaySameDayIdempotent(t *testing.T) {
	day := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	s := StreakState{Current: 3, Longest: 5, LastPlayed: DateOf(day)}

	later := day.Add(10 * time.Hour)
	got, changed := ApplyPlay(s, later)
	assert.False(t, changed)
	assert.Equal(t, s, got)
}

func TestApplyPlayConsecutiveDayExtends(t *testing.T) {
	s := StreakState{Current: 3, Longest: 5, LastPlayed: DateOf(time.Date(2026, 8, 30, 23, 0, 0, 0, time.UTC))}

	got, changed := ApplyPlay(s, time.Date(2026, 8, 31, 0, 30, 0, 0, time.UTC))
	assert.True(t, changed)
	assert.Equal(t, 4, got.Current)
	assert.Equal(t, 5, got.Longest)
}

func TestApplyPlayGapResets(t *testing.T) {
	s := StreakState{Current: 7, Longest: 7, LastPlayed: DateOf(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC))}

	got, changed := ApplyPlay(s, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	assert.True(t, changed)
	assert.Equal(t, 1, got.Current)
	assert.Equal(t, 7, got.Longest, "longest never shrinks")
}

func TestApplyPlayFreshUser(t *testing.T) {
	got, changed := ApplyPlay(StreakState{}, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	assert.True(t, changed)
	assert.Equal(t, 1, got.Current)
	assert.Equal(t, 1, got.Longest)
}

func TestApplyPlayUTCBoundary(t *testing.T) {
	// 23:30 UTC and 00:30 UTC next day are different calendar days even
	// though only an hour apart.
	s, _ := ApplyPlay(StreakState{}, time.Date(2026, 8, 30, 23, 30, 0, 0, time.UTC))
	got, changed := ApplyPlay(s, time.Date(2026, 8, 31, 0, 30, 0, 0, time.UTC))
	assert.True(t, changed)
	assert.Equal(t, 2, got.Current)
}

type memStreakStore struct {
	rows map[uuid.UUID]StreakState
}

func newMemStreakStore() *memStreakStore {
	return &memStreakStore{rows: map[uuid.UUID]StreakState{}}
}

func (m *memStreakStore) GetStreak(_ context.Context, userID uuid.UUID) (*StreakState, error) {
	if s, ok := m.rows[userID]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *memStreakStore) SaveStreak(_ context.Context, state StreakState) error {
	m.rows[state.UserID] = state
	return nil
}

func TestServiceRecordPlayAcrossDays(t *testing.T) {
	store := newMemStreakStore()
	fake := clock.NewFake(time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC))
	svc := NewService(store, fake, zerolog.Nop())
	userID := uuid.New()
	ctx := context.Background()

	state, err := svc.RecordPlay(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, 1, state.Current)

	// Second game the same day changes nothing.
	fake.Advance(3 * time.Hour)
	state, err = svc.RecordPlay(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, 1, state.Current)

	// Next day extends.
	fake.Advance(24 * time.Hour)
	state, err = svc.RecordPlay(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, 2, state.Current)
	assert.Equal(t, 2, state.Longest)

	// A week off resets but keeps the longest run.
	fake.Advance(7 * 24 * time.Hour)
	state, err = svc.RecordPlay(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, 1, state.Current)
	assert.Equal(t, 2, state.Longest)
}
