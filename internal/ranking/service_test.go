package ranking

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/geoplay/geoquiz/pkg/clock"
)

// memRankingStore applies the same fold rule as the Postgres upsert.
type memRankingStore struct {
	entries map[string]*Entry
	history []CompletedGame
}

func newMemRankingStore() *memRankingStore {
	return &memRankingStore{entries: map[string]*Entry{}}
}

func entryKey(userID uuid.UUID, gameType, period string) string {
	return fmt.Sprintf("%s|%s|%s", userID, gameType, period)
}

func (m *memRankingStore) FoldGame(_ context.Context, userID uuid.UUID, displayName, gameType, period string, gameScore int, at time.Time) (Entry, error) {
	key := entryKey(userID, gameType, period)
	e, ok := m.entries[key]
	if !ok {
		e = &Entry{UserID: userID, GameType: gameType, Period: period}
		m.entries[key] = e
	}
	e.DisplayName = displayName
	e.TotalScore += int64(gameScore)
	e.GameCount++
	if gameScore > e.BestScore {
		e.BestScore = gameScore
	}
	e.AverageScore = float64(e.TotalScore) / float64(e.GameCount)
	e.UpdatedAt = at
	e.AchievedAt = at
	return *e, nil
}

func (m *memRankingStore) GetEntry(_ context.Context, userID uuid.UUID, gameType, period string) (*Entry, error) {
	if e, ok := m.entries[entryKey(userID, gameType, period)]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func (m *memRankingStore) bucket(gameType, period string) []Entry {
	var out []Entry
	for _, e := range m.entries {
		if e.GameType == gameType && e.Period == period {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalScore != out[j].TotalScore {
			return out[i].TotalScore > out[j].TotalScore
		}
		return out[i].AchievedAt.Before(out[j].AchievedAt)
	})
	return out
}

func (m *memRankingStore) Rank(_ context.Context, userID uuid.UUID, gameType, period string) (int, bool, error) {
	if _, ok := m.entries[entryKey(userID, gameType, period)]; !ok {
		return 0, false, nil
	}
	for i, e := range m.bucket(gameType, period) {
		if e.UserID == userID {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func (m *memRankingStore) Top(_ context.Context, gameType, period string, limit int) ([]Entry, error) {
	out := m.bucket(gameType, period)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRankingStore) ListCompletedGames(_ context.Context) ([]CompletedGame, error) {
	return append([]CompletedGame(nil), m.history...), nil
}

func (m *memRankingStore) DeleteAllEntries(_ context.Context) error {
	m.entries = map[string]*Entry{}
	return nil
}

func newRankingFixture() (*Service, *memRankingStore, *clock.Fake) {
	store := newMemRankingStore()
	fake := clock.NewFake(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	svc := NewService(store, nil, fake, zerolog.Nop(), ServiceOptions{})
	return svc, store, fake
}

func TestPeriodKeyFormats(t *testing.T) {
	at := time.Date(2026, 8, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "daily:2026-08-31", PeriodKey(WindowDaily, at))
	assert.Equal(t, "weekly:2026-W36", PeriodKey(WindowWeekly, at))
	assert.Equal(t, "monthly:2026-08", PeriodKey(WindowMonthly, at))
	assert.Equal(t, "all_time", PeriodKey(WindowAllTime, at))
}

func TestPeriodKeyUsesUTC(t *testing.T) {
	// 23:00 in UTC-5 is already the next day in UTC.
	est := time.FixedZone("EST", -5*3600)
	at := time.Date(2026, 8, 31, 23, 0, 0, 0, est)
	assert.Equal(t, "daily:2026-09-01", PeriodKey(WindowDaily, at))
}

func TestRecordCompletedGameFoldsAllWindows(t *testing.T) {
	svc, store, fake := newRankingFixture()
	userID := uuid.New()
	ctx := context.Background()

	prev, next, err := svc.RecordCompletedGame(ctx, userID, "alice", "country:us", 1200, 240)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), prev)
	assert.Equal(t, int64(1200), next)

	// The game lands in every window for both its game type and overall.
	for _, window := range defaultWindows {
		period := PeriodKey(window, fake.Now())
		for _, gt := range []string{"country:us", GameTypeOverall} {
			e, err := store.GetEntry(ctx, userID, gt, period)
			assert.NoError(t, err)
			if assert.NotNil(t, e, "missing %s/%s", gt, period) {
				assert.Equal(t, int64(1200), e.TotalScore)
				assert.Equal(t, 1, e.GameCount)
				assert.Equal(t, 1200, e.BestScore)
			}
		}
	}
}

func TestRecordCompletedGameAccumulates(t *testing.T) {
	svc, store, _ := newRankingFixture()
	userID := uuid.New()
	ctx := context.Background()

	_, _, err := svc.RecordCompletedGame(ctx, userID, "alice", "country:us", 1000, 200)
	assert.NoError(t, err)
	prev, next, err := svc.RecordCompletedGame(ctx, userID, "alice", "world:capitals", 500, 100)
	assert.NoError(t, err)
	assert.Equal(t, int64(1000), prev)
	assert.Equal(t, int64(1500), next)

	overall, _ := store.GetEntry(ctx, userID, GameTypeOverall, WindowAllTime)
	assert.Equal(t, int64(1500), overall.TotalScore)
	assert.Equal(t, 2, overall.GameCount)
	assert.Equal(t, 1000, overall.BestScore)
	assert.InDelta(t, 750, overall.AverageScore, 1e-9, "entry average is total/count, not a mean of per-game averages")

	// Per-game-type entries stay separate.
	us, _ := store.GetEntry(ctx, userID, "country:us", WindowAllTime)
	assert.Equal(t, int64(1000), us.TotalScore)
}

func TestDailyWindowRollsOver(t *testing.T) {
	svc, store, fake := newRankingFixture()
	userID := uuid.New()
	ctx := context.Background()

	_, _, _ = svc.RecordCompletedGame(ctx, userID, "alice", "country:us", 1000, 200)
	day1 := PeriodKey(WindowDaily, fake.Now())

	fake.Advance(24 * time.Hour)
	_, _, _ = svc.RecordCompletedGame(ctx, userID, "alice", "country:us", 700, 140)
	day2 := PeriodKey(WindowDaily, fake.Now())
	assert.NotEqual(t, day1, day2)

	e1, _ := store.GetEntry(ctx, userID, GameTypeOverall, day1)
	e2, _ := store.GetEntry(ctx, userID, GameTypeOverall, day2)
	assert.Equal(t, int64(1000), e1.TotalScore)
	assert.Equal(t, int64(700), e2.TotalScore)

	allTime, _ := store.GetEntry(ctx, userID, GameTypeOverall, WindowAllTime)
	assert.Equal(t, int64(1700), allTime.TotalScore)
}

func TestUserRankTieBreaksByAchievedAt(t *testing.T) {
	svc, _, fake := newRankingFixture()
	ctx := context.Background()
	early := uuid.New()
	late := uuid.New()

	_, _, _ = svc.RecordCompletedGame(ctx, early, "early", "country:us", 1000, 200)
	fake.Advance(time.Minute)
	_, _, _ = svc.RecordCompletedGame(ctx, late, "late", "country:us", 1000, 200)

	rankEarly, err := svc.UserRank(ctx, early, GameTypeOverall, WindowAllTime)
	assert.NoError(t, err)
	rankLate, err := svc.UserRank(ctx, late, GameTypeOverall, WindowAllTime)
	assert.NoError(t, err)
	assert.Equal(t, 1, *rankEarly, "equal totals rank whoever got there first higher")
	assert.Equal(t, 2, *rankLate)
}

func TestUserRankUnranked(t *testing.T) {
	svc, _, _ := newRankingFixture()
	rank, err := svc.UserRank(context.Background(), uuid.New(), GameTypeOverall, WindowAllTime)
	assert.NoError(t, err)
	assert.Nil(t, rank)
}

func TestTopFallsBackToStore(t *testing.T) {
	svc, _, _ := newRankingFixture()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	_, _, _ = svc.RecordCompletedGame(ctx, a, "alice", "country:us", 900, 180)
	_, _, _ = svc.RecordCompletedGame(ctx, b, "bob", "country:us", 1100, 220)

	top, err := svc.Top(ctx, GameTypeOverall, WindowAllTime, 10)
	assert.NoError(t, err)
	assert.Len(t, top, 2)
	assert.Equal(t, "bob", top[0].DisplayName)
	assert.Equal(t, "alice", top[1].DisplayName)
}

func TestAllTimeTotal(t *testing.T) {
	svc, _, _ := newRankingFixture()
	ctx := context.Background()
	userID := uuid.New()

	total, err := svc.AllTimeTotal(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), total)

	_, _, _ = svc.RecordCompletedGame(ctx, userID, "alice", "country:us", 800, 160)
	total, err = svc.AllTimeTotal(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, int64(800), total)
}

func TestRebuildMatchesIncrementalFold(t *testing.T) {
	svc, store, fake := newRankingFixture()
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	games := []struct {
		user  uuid.UUID
		name  string
		gt    string
		score int
		avg   float64
	}{
		{a, "alice", "country:us", 1000, 200},
		{b, "bob", "country:us", 1300, 260},
		{a, "alice", "world:capitals", 600, 120},
		{b, "bob", "country:us", 200, 40},
	}

	for _, g := range games {
		_, _, err := svc.RecordCompletedGame(ctx, g.user, g.name, g.gt, g.score, g.avg)
		assert.NoError(t, err)
		store.history = append(store.history, CompletedGame{
			UserID: g.user, DisplayName: g.name, GameType: g.gt,
			TotalScore: g.score, CompletedAt: fake.Now(),
		})
		fake.Advance(time.Hour)
	}

	incremental := map[string]Entry{}
	for k, e := range store.entries {
		incremental[k] = *e
	}

	assert.NoError(t, svc.Rebuild(ctx))

	assert.Equal(t, len(incremental), len(store.entries))
	for k, want := range incremental {
		got, ok := store.entries[k]
		if assert.True(t, ok, "missing entry %s after rebuild", k) {
			assert.Equal(t, want, *got, "entry %s diverged", k)
		}
	}
}
