// Package game owns the lifecycle of one played session: round selection,
// the server-authoritative round timer, guess scoring under the session's
// pinned strategy version, and completion side effects.
package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/geoplay/geoquiz/internal/catalog"
	"github.com/geoplay/geoquiz/internal/game/hint"
	"github.com/geoplay/geoquiz/internal/game/scoring"
	"github.com/geoplay/geoquiz/internal/game/seed"
	"github.com/geoplay/geoquiz/internal/geo"
	"github.com/geoplay/geoquiz/internal/identity"
	"github.com/geoplay/geoquiz/internal/progression"
	"github.com/geoplay/geoquiz/pkg/clock"
)

// Store is the persistent side of session state. Implementations must make
// InsertGuess atomic per (round, user) and CompleteSession a conditional
// single-shot transition.
type Store interface {
	// CreateSession persists the session and all rounds in one transaction;
	// a failure leaves no partial session behind.
	CreateSession(ctx context.Context, s Session, rounds []Round) error
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	GetRound(ctx context.Context, sessionID uuid.UUID, roundNo int) (*Round, error)
	ListRounds(ctx context.Context, sessionID uuid.UUID) ([]Round, error)
	// StartRound stamps started_at only if it is still null and returns the
	// effective value either way.
	StartRound(ctx context.Context, sessionID uuid.UUID, roundNo int, at time.Time) (time.Time, error)
	// InsertGuess returns ErrRoundAlreadyAnswered when a guess for
	// (round, user) already exists; the stored guess stays the first one.
	InsertGuess(ctx context.Context, g Guess) error
	GetGuess(ctx context.Context, sessionID uuid.UUID, roundNo int, userKey string) (*Guess, error)
	ListGuesses(ctx context.Context, sessionID uuid.UUID, userKey string) ([]Guess, error)
	// CompleteSession transitions active -> completed; returns false when the
	// session was already completed.
	CompleteSession(ctx context.Context, sessionID uuid.UUID, at time.Time) (bool, error)
	SetActiveRound(ctx context.Context, sessionID uuid.UUID, index int) error
}

// RankingRecorder folds a completed game into the leaderboards. It returns
// the player's all-time overall totals before and after the fold so the
// caller can detect level-ups.
type RankingRecorder interface {
	RecordCompletedGame(ctx context.Context, userID uuid.UUID, displayName, gameType string, totalScore int, averageScore float64) (prevTotal, newTotal int64, err error)
}

// StreakRecorder advances the player's calendar-day streak.
type StreakRecorder interface {
	RecordPlay(ctx context.Context, userID uuid.UUID) (progression.StreakState, error)
}

// Service orchestrates session lifecycle, scoring and completion effects.
type Service struct {
	store   Store
	catalog *catalog.Service
	ranking RankingRecorder
	streaks StreakRecorder
	clock   clock.Clock
	logger  zerolog.Logger
}

// NewService creates a game service. ranking and streaks may be nil, in
// which case completion skips those side effects.
func NewService(store Store, catalogSvc *catalog.Service, ranking RankingRecorder, streaks StreakRecorder, clk clock.Clock, logger zerolog.Logger) *Service {
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		store:   store,
		catalog: catalogSvc,
		ranking: ranking,
		streaks: streaks,
		clock:   clk,
		logger:  logger.With().Str("component", "game").Logger(),
	}
}

func validMode(mode string) bool {
	switch mode {
	case ModeSolo, ModeGroup, ModeRanked, ModeDuel:
		return true
	}
	return false
}

// CreateSession resolves the game-type config, selects locations through the
// seeded permutation and materializes every round in creation order. Round
// order is fixed forever after this call.
func (s *Service) CreateSession(ctx context.Context, id identity.Identity, req CreateSessionRequest) (*Session, error) {
	if !validMode(req.Mode) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, req.Mode)
	}

	cfg, err := s.catalog.ResolveConfig(ctx, req.GameType)
	if err != nil {
		return nil, err
	}
	pool, err := s.catalog.Pool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	roundCount := req.Rounds
	if roundCount <= 0 {
		roundCount = cfg.DefaultRounds
	}
	if roundCount > len(pool) {
		roundCount = len(pool)
	}

	timeLimit := cfg.TimeLimitSec
	if req.TimeLimitSec != nil {
		timeLimit = req.TimeLimitSec
	}

	// Duel flows pass the shared seed; everything else gets a fresh one.
	sessionSeed := seed.New()
	if req.Seed != nil && *req.Seed != "" {
		sessionSeed = *req.Seed
	}

	session := Session{
		ID:             uuid.New(),
		OwnerKey:       id.Key(),
		OwnerName:      id.DisplayName,
		Mode:           req.Mode,
		GameType:       req.GameType,
		Status:         StatusActive,
		ScoringVersion: scoring.DefaultVersion,
		RoundCount:     roundCount,
		TimeLimitSec:   timeLimit,
		Seed:           sessionSeed,
		CreatedAt:      s.clock.Now(),
	}

	picked := seed.Pick(len(pool), roundCount, sessionSeed)
	rounds := make([]Round, len(picked))
	for i, poolIdx := range picked {
		rounds[i] = Round{
			SessionID: session.ID,
			RoundNo:   i + 1,
			Position:  i,
			Location:  pool[poolIdx],
		}
	}

	if err := s.store.CreateSession(ctx, session, rounds); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	sessionsCreated.WithLabelValues(req.Mode).Inc()
	s.logger.Info().
		Str("session_id", session.ID.String()).
		Str("game_type", req.GameType).
		Str("mode", req.Mode).
		Int("rounds", roundCount).
		Msg("session created")

	return &session, nil
}

// loadOwnedSession fetches a session and enforces ownership. Not-found and
// not-owner stay distinct internally for diagnosability; the HTTP layer
// collapses them.
func (s *Service) loadOwnedSession(ctx context.Context, id identity.Identity, sessionID uuid.UUID) (*Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.OwnerKey != id.Key() {
		return nil, ErrNotOwner
	}
	return session, nil
}

// effectiveTimeLimit applies a per-round override on top of the session
// limit. nil means untimed.
func effectiveTimeLimit(session *Session, round *Round) *int {
	if round.TimeLimitOverride != nil {
		return round.TimeLimitOverride
	}
	return session.TimeLimitSec
}

// StartRound stamps the round timer the moment the client reports the map
// visible. The call is idempotent: a retried start returns the original
// start time and remaining budget instead of restarting the clock.
func (s *Service) StartRound(ctx context.Context, id identity.Identity, sessionID uuid.UUID, roundNo int) (*StartResult, error) {
	session, err := s.loadOwnedSession(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == StatusCompleted {
		return nil, ErrSessionCompleted
	}

	round, err := s.store.GetRound(ctx, sessionID, roundNo)
	if err != nil {
		return nil, fmt.Errorf("load round: %w", err)
	}
	if round == nil {
		return nil, ErrRoundNotFound
	}

	existing, err := s.store.GetGuess(ctx, sessionID, roundNo, id.Key())
	if err != nil {
		return nil, fmt.Errorf("load guess: %w", err)
	}
	if existing != nil {
		return nil, ErrRoundAlreadyAnswered
	}

	startedAt, err := s.store.StartRound(ctx, sessionID, roundNo, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("start round: %w", err)
	}

	if err := s.store.SetActiveRound(ctx, sessionID, round.Position); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("active round pointer update failed")
	}

	result := &StartResult{StartedAt: startedAt}
	if limit := effectiveTimeLimit(session, round); limit != nil {
		remaining := float64(*limit) - s.clock.Now().Sub(startedAt).Seconds()
		if remaining < 0 {
			remaining = 0
		}
		result.RemainingSec = &remaining
	}
	return result, nil
}

// SubmitGuess validates round state, measures server-side elapsed time
// (clamped at the round's limit: a late answer is scored as if it took
// exactly the limit, never rejected) and stores the guess atomically.
func (s *Service) SubmitGuess(ctx context.Context, id identity.Identity, sessionID uuid.UUID, roundNo int, point geo.Point) (*GuessResult, error) {
	if point.Lat < -90 || point.Lat > 90 || point.Lng < -180 || point.Lng > 180 {
		return nil, ErrInvalidCoordinate
	}

	session, err := s.loadOwnedSession(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == StatusCompleted {
		return nil, ErrSessionCompleted
	}

	round, err := s.store.GetRound(ctx, sessionID, roundNo)
	if err != nil {
		return nil, fmt.Errorf("load round: %w", err)
	}
	if round == nil {
		return nil, ErrRoundNotFound
	}
	if round.StartedAt == nil {
		return nil, ErrRoundNotStarted
	}

	elapsed := s.clock.Now().Sub(*round.StartedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	if limit := effectiveTimeLimit(session, round); limit != nil && elapsed > float64(*limit) {
		elapsed = float64(*limit)
	}

	gameType := session.GameType
	if round.GameTypeOverride != nil {
		gameType = *round.GameTypeOverride
	}
	cfg, err := s.catalog.ResolveConfig(ctx, gameType)
	if err != nil {
		return nil, err
	}

	distance := geo.DistanceKm(point, round.Location.Point)
	score := scoring.Score(session.ScoringVersion, distance, &elapsed, cfg.ScaleFactorKm)

	guess := Guess{
		SessionID:  sessionID,
		RoundNo:    roundNo,
		UserKey:    id.Key(),
		Point:      point,
		DistanceKm: distance,
		ElapsedSec: &elapsed,
		Score:      score,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.store.InsertGuess(ctx, guess); err != nil {
		if errors.Is(err, ErrRoundAlreadyAnswered) {
			return nil, ErrRoundAlreadyAnswered
		}
		return nil, fmt.Errorf("store guess: %w", err)
	}

	guessesSubmitted.Inc()
	s.logger.Info().
		Str("session_id", sessionID.String()).
		Int("round", roundNo).
		Float64("distance_km", distance).
		Int("score", score).
		Msg("guess submitted")

	return &GuessResult{
		DistanceKm: distance,
		ElapsedSec: elapsed,
		Score:      score,
		Target:     round.Location.Point,
	}, nil
}

// RoundHint returns the deterministic search circle for a round. Both sides
// of a duel derive the same circle from the shared seed.
func (s *Service) RoundHint(ctx context.Context, id identity.Identity, sessionID uuid.UUID, roundNo int) (*hint.Circle, error) {
	session, err := s.loadOwnedSession(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}

	round, err := s.store.GetRound(ctx, sessionID, roundNo)
	if err != nil {
		return nil, fmt.Errorf("load round: %w", err)
	}
	if round == nil {
		return nil, ErrRoundNotFound
	}

	gameType := session.GameType
	if round.GameTypeOverride != nil {
		gameType = *round.GameTypeOverride
	}
	cfg, err := s.catalog.ResolveConfig(ctx, gameType)
	if err != nil {
		return nil, err
	}

	circle := hint.Generate(
		round.Location.Point,
		cfg.HintRadiusKm,
		cfg.Bounds,
		fmt.Sprintf("%s:%d", session.Seed, roundNo),
	)
	return &circle, nil
}

// Rounds returns the session's rounds as seen by the requester, applying the
// coordinate disclosure rule.
func (s *Service) Rounds(ctx context.Context, id identity.Identity, sessionID uuid.UUID) ([]RoundView, error) {
	if _, err := s.loadOwnedSession(ctx, id, sessionID); err != nil {
		return nil, err
	}

	rounds, err := s.store.ListRounds(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	guesses, err := s.store.ListGuesses(ctx, sessionID, id.Key())
	if err != nil {
		return nil, fmt.Errorf("list guesses: %w", err)
	}
	byRound := make(map[int]*Guess, len(guesses))
	for i := range guesses {
		byRound[guesses[i].RoundNo] = &guesses[i]
	}

	views := make([]RoundView, len(rounds))
	for i, r := range rounds {
		guess := byRound[r.RoundNo]
		view := RoundView{
			RoundNo:  r.RoundNo,
			Position: r.Position,
			Name:     r.Location.Name,
			Answered: guess != nil,
			Started:  r.StartedAt != nil,
			Guess:    guess,
		}
		// True coordinates stay hidden until answered so prefetched rounds
		// cannot be read ahead. Guests never feed rankings, so leaking
		// client-side is an accepted trade-off for them.
		if guess != nil || id.IsGuest() {
			target := r.Location.Point
			view.Target = &target
			view.Imagery = r.Location.Imagery
		}
		views[i] = view
	}
	return views, nil
}

// GetSession returns the session metadata for its owner.
func (s *Service) GetSession(ctx context.Context, id identity.Identity, sessionID uuid.UUID) (*Session, error) {
	return s.loadOwnedSession(ctx, id, sessionID)
}

// CompleteSession requires exactly one guess per round, computes the total
// and average, and marks the session completed exactly once. Ranking and
// streak updates for authenticated users are best effort: a failure there is
// logged and surfaced on the summary as absent, never rolled back.
func (s *Service) CompleteSession(ctx context.Context, id identity.Identity, sessionID uuid.UUID) (*Summary, error) {
	session, err := s.loadOwnedSession(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == StatusCompleted {
		return nil, ErrSessionCompleted
	}

	guesses, err := s.store.ListGuesses(ctx, sessionID, id.Key())
	if err != nil {
		return nil, fmt.Errorf("list guesses: %w", err)
	}
	if missing := session.RoundCount - len(guesses); missing > 0 {
		return nil, &IncompleteSessionError{Missing: missing}
	}

	total := 0
	elapsedTotal := 0.0
	for _, g := range guesses {
		total += g.Score
		if g.ElapsedSec != nil {
			elapsedTotal += *g.ElapsedSec
		}
	}
	average := float64(total) / float64(session.RoundCount)

	completed, err := s.store.CompleteSession(ctx, sessionID, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if !completed {
		return nil, ErrSessionCompleted
	}

	sessionsCompleted.WithLabelValues(session.Mode).Inc()

	summary := &Summary{
		SessionID:    sessionID,
		TotalScore:   total,
		AverageScore: average,
		Guesses:      guesses,
		ElapsedSec:   math.Round(elapsedTotal*1000) / 1000,
	}

	if !id.IsGuest() {
		s.applyCompletionEffects(ctx, id, session, total, average, summary)
	}

	s.logger.Info().
		Str("session_id", sessionID.String()).
		Int("total_score", total).
		Float64("average", average).
		Msg("session completed")

	return summary, nil
}

// Totals sums the caller's recorded guesses for a session. Used by the duel
// layer after completion, so a partial session is an error.
func (s *Service) Totals(ctx context.Context, id identity.Identity, sessionID uuid.UUID) (int, float64, error) {
	session, err := s.loadOwnedSession(ctx, id, sessionID)
	if err != nil {
		return 0, 0, err
	}
	guesses, err := s.store.ListGuesses(ctx, sessionID, id.Key())
	if err != nil {
		return 0, 0, fmt.Errorf("list guesses: %w", err)
	}
	if missing := session.RoundCount - len(guesses); missing > 0 {
		return 0, 0, &IncompleteSessionError{Missing: missing}
	}
	total := 0
	elapsed := 0.0
	for _, g := range guesses {
		total += g.Score
		if g.ElapsedSec != nil {
			elapsed += *g.ElapsedSec
		}
	}
	return total, math.Round(elapsed*1000) / 1000, nil
}

func checkLevelUp(prevTotal, newTotal int64) LevelUpInfo {
	up := progression.CheckLevelUp(prevTotal, newTotal)
	return LevelUpInfo{
		LeveledUp:     up.LeveledUp,
		PreviousLevel: up.PreviousLevel.Number,
		NewLevel:      up.NewLevel.Number,
		NewLevelName:  up.NewLevel.Name,
	}
}

// applyCompletionEffects runs the best-effort ranking fold and streak
// update. The game commit above is never reversed on failure here.
func (s *Service) applyCompletionEffects(ctx context.Context, id identity.Identity, session *Session, total int, average float64, summary *Summary) {
	if s.ranking != nil {
		prev, next, err := s.ranking.RecordCompletedGame(ctx, *id.UserID, id.DisplayName, session.GameType, total, average)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("session_id", session.ID.String()).
				Msg("ranking fold failed")
		} else {
			up := checkLevelUp(prev, next)
			summary.LevelUp = &up
		}
	}

	if s.streaks != nil {
		state, err := s.streaks.RecordPlay(ctx, *id.UserID)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("session_id", session.ID.String()).
				Msg("streak update failed")
		} else {
			summary.Streak = &StreakInfo{Current: state.Current, Longest: state.Longest}
		}
	}
}
