package ranking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/geoplay/geoquiz/pkg/clock"
)

// Store is the authoritative aggregate storage.
type Store interface {
	// FoldGame applies the aggregate fold rule for one entry and returns it:
	// total += score, count += 1, best = max(best, score),
	// average = total / count recomputed from the folded totals.
	FoldGame(ctx context.Context, userID uuid.UUID, displayName, gameType, period string, gameScore int, at time.Time) (Entry, error)
	GetEntry(ctx context.Context, userID uuid.UUID, gameType, period string) (*Entry, error)
	// Rank counts strictly better entries (higher total, or equal total
	// achieved earlier) and returns the 1-based rank; ok=false when the user
	// has no entry in the window.
	Rank(ctx context.Context, userID uuid.UUID, gameType, period string) (int, bool, error)
	Top(ctx context.Context, gameType, period string, limit int) ([]Entry, error)
	// ListCompletedGames streams the full completed-session history of
	// authenticated players, oldest first.
	ListCompletedGames(ctx context.Context) ([]CompletedGame, error)
	DeleteAllEntries(ctx context.Context) error
}

// mirror TTLs keep expired window buckets from piling up in Redis. The
// all-time set never expires.
var mirrorTTL = map[string]time.Duration{
	WindowDaily:   48 * time.Hour,
	WindowWeekly:  8 * 24 * time.Hour,
	WindowMonthly: 35 * 24 * time.Hour,
}

// ServiceOptions configures the ranking service.
type ServiceOptions struct {
	TopN           int
	RedisKeyPrefix string
	Windows        []string
}

// Service folds completed games into leaderboard aggregates.
type Service struct {
	store   Store
	redis   *redis.Client
	clock   clock.Clock
	logger  zerolog.Logger
	topN    int
	prefix  string
	windows []string
}

// NewService constructs a ranking service. redis may be nil; reads then fall
// back to Postgres.
func NewService(store Store, redisClient *redis.Client, clk clock.Clock, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb"
	}
	windows := opts.Windows
	if len(windows) == 0 {
		windows = defaultWindows
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		store:   store,
		redis:   redisClient,
		clock:   clk,
		logger:  logger.With().Str("component", "ranking").Logger(),
		topN:    topN,
		prefix:  prefix,
		windows: windows,
	}
}

func (s *Service) mirrorKey(gameType, period string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, gameType, period)
}

// RecordCompletedGame folds one completed game into every affected window
// for both the specific game type and the overall board. It returns the
// player's all-time overall total before and after the fold so callers can
// detect level-ups.
func (s *Service) RecordCompletedGame(ctx context.Context, userID uuid.UUID, displayName, gameType string, totalScore int, averageScore float64) (int64, int64, error) {
	now := s.clock.Now()

	var prevTotal int64
	if existing, err := s.store.GetEntry(ctx, userID, GameTypeOverall, WindowAllTime); err != nil {
		return 0, 0, fmt.Errorf("load all-time entry: %w", err)
	} else if existing != nil {
		prevTotal = existing.TotalScore
	}

	var newTotal int64
	for _, window := range s.windows {
		period := PeriodKey(window, now)
		for _, gt := range []string{gameType, GameTypeOverall} {
			entry, err := s.store.FoldGame(ctx, userID, displayName, gt, period, totalScore, now)
			if err != nil {
				return 0, 0, fmt.Errorf("fold %s/%s: %w", gt, period, err)
			}
			if gt == GameTypeOverall && window == WindowAllTime {
				newTotal = entry.TotalScore
			}
			s.mirrorFold(ctx, window, gt, period, userID, totalScore)
		}
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Str("game_type", gameType).
		Int("score", totalScore).
		Float64("game_average", averageScore).
		Msg("completed game folded into rankings")

	return prevTotal, newTotal, nil
}

// mirrorFold updates the Redis sorted set for one bucket; mirror failures
// are logged, never propagated, since Postgres already holds the truth.
func (s *Service) mirrorFold(ctx context.Context, window, gameType, period string, userID uuid.UUID, score int) {
	if s.redis == nil {
		return
	}
	key := s.mirrorKey(gameType, period)
	pipe := s.redis.TxPipeline()
	pipe.ZIncrBy(ctx, key, float64(score), userID.String())
	if ttl, ok := mirrorTTL[window]; ok {
		pipe.Expire(ctx, key, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("leaderboard mirror update failed")
	}
}

// AllTimeTotal returns a user's all-time overall total score, zero when the
// user has never finished a ranked game. The duel layer uses it as a
// strength figure for point deltas.
func (s *Service) AllTimeTotal(ctx context.Context, userID uuid.UUID) (int64, error) {
	entry, err := s.store.GetEntry(ctx, userID, GameTypeOverall, WindowAllTime)
	if err != nil {
		return 0, fmt.Errorf("aggregate lookup: %w", err)
	}
	if entry == nil {
		return 0, nil
	}
	return entry.TotalScore, nil
}

// UserRank returns the 1-based rank for the requested window bucket, or nil
// when the user has no entry there. Ties go to the earlier achiever.
func (s *Service) UserRank(ctx context.Context, userID uuid.UUID, gameType, window string) (*int, error) {
	period := PeriodKey(window, s.clock.Now())
	rank, ok, err := s.store.Rank(ctx, userID, gameType, period)
	if err != nil {
		return nil, fmt.Errorf("rank query: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &rank, nil
}

// Top returns the leading entries for the current bucket of a window,
// preferring the Redis mirror and falling back to Postgres.
func (s *Service) Top(ctx context.Context, gameType, window string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}
	period := PeriodKey(window, s.clock.Now())

	if s.redis != nil {
		if entries, err := s.topFromMirror(ctx, gameType, period, limit); err != nil {
			s.logger.Warn().Err(err).Str("game_type", gameType).Str("period", period).Msg("mirror read failed")
		} else if len(entries) > 0 {
			return entries, nil
		}
	}

	return s.store.Top(ctx, gameType, period, limit)
}

func (s *Service) topFromMirror(ctx context.Context, gameType, period string, limit int) ([]Entry, error) {
	results, err := s.redis.ZRevRangeWithScores(ctx, s.mirrorKey(gameType, period), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		userID, err := uuid.Parse(z.Member.(string))
		if err != nil {
			continue
		}
		meta, err := s.store.GetEntry(ctx, userID, gameType, period)
		if err != nil || meta == nil {
			continue
		}
		entries = append(entries, *meta)
	}
	return entries, nil
}

// Rebuild drops every aggregate and re-folds the full completed-game
// history. The result must be identical to what incremental folding
// produced; this is the recovery path after a bug or data restore.
func (s *Service) Rebuild(ctx context.Context) error {
	if err := s.store.DeleteAllEntries(ctx); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	s.clearMirror(ctx)

	games, err := s.store.ListCompletedGames(ctx)
	if err != nil {
		return fmt.Errorf("list completed games: %w", err)
	}

	for _, g := range games {
		for _, window := range s.windows {
			period := PeriodKey(window, g.CompletedAt)
			for _, gt := range []string{g.GameType, GameTypeOverall} {
				if _, err := s.store.FoldGame(ctx, g.UserID, g.DisplayName, gt, period, g.TotalScore, g.CompletedAt); err != nil {
					return fmt.Errorf("refold %s/%s: %w", gt, period, err)
				}
				s.mirrorFold(ctx, window, gt, period, g.UserID, g.TotalScore)
			}
		}
	}

	s.logger.Info().Int("games", len(games)).Msg("rankings rebuilt from history")
	return nil
}

// clearMirror walks the prefixed keyspace with SCAN and deletes in batches,
// never issuing a blocking KEYS against a shared Redis.
func (s *Service) clearMirror(ctx context.Context) {
	if s.redis == nil {
		return
	}
	iter := s.redis.Scan(ctx, 0, s.prefix+":*", 200).Iterator()
	batch := make([]string, 0, 100)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.redis.Del(ctx, batch...).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("mirror clear failed")
		}
		batch = batch[:0]
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			flush()
		}
	}
	flush()
	if err := iter.Err(); err != nil {
		s.logger.Warn().Err(err).Msg("mirror key scan failed")
	}
}
