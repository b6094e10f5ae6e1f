package duel

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/geoplay/geoquiz/internal/game"
	"github.com/geoplay/geoquiz/internal/identity"
	"github.com/geoplay/geoquiz/pkg/clock"
)

// Store persists reconciled duel outcomes. InsertResult must reject a second
// write for the same (challenger session, opponent) pair with
// ErrAlreadyReconciled, so an opponent gets exactly one result per challenge
// no matter how many sessions they open from it.
type Store interface {
	InsertResult(ctx context.Context, res Result) error
	// ChallengeReconciled reports whether the opponent already holds a result
	// for the challenger's session.
	ChallengeReconciled(ctx context.Context, challengerSession, opponentID uuid.UUID) (bool, error)
	GetResult(ctx context.Context, id uuid.UUID) (*Result, error)
	ListResultsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]Result, error)
}

// RatingSource supplies a monotone strength figure for point deltas.
type RatingSource interface {
	AllTimeTotal(ctx context.Context, userID uuid.UUID) (int64, error)
}

// Point deltas. Beating a stronger opponent always pays at least as much as
// beating a weaker one.
const (
	winBase    = 25
	lossPoints = -10
	drawPoints = 5
	bonusCap   = 25
)

func winPoints(winnerTotal, opponentTotal int64) int {
	bonus := (opponentTotal - winnerTotal) / 1000
	if bonus < 0 {
		bonus = 0
	}
	if bonus > bonusCap {
		bonus = bonusCap
	}
	return winBase + int(bonus)
}

type Service struct {
	games  *game.Service
	store  Store
	rating RatingSource
	codec  *Codec
	clock  clock.Clock
	logger zerolog.Logger
}

func NewService(games *game.Service, store Store, rating RatingSource, codec *Codec, clk clock.Clock, logger zerolog.Logger) *Service {
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		games:  games,
		store:  store,
		rating: rating,
		codec:  codec,
		clock:  clk,
		logger: logger.With().Str("component", "duel").Logger(),
	}
}

// IssueChallenge packages the caller's finished duel session into a signed
// token the opponent can accept. The session must be completed; the score
// inside the token is the one reconciliation will trust.
func (s *Service) IssueChallenge(ctx context.Context, id identity.Identity, sessionID uuid.UUID) (string, error) {
	if id.IsGuest() {
		return "", ErrAuthRequired
	}
	session, err := s.games.GetSession(ctx, id, sessionID)
	if err != nil {
		return "", err
	}
	if session.Mode != game.ModeDuel {
		return "", ErrNotDuelSession
	}
	if session.Status != game.StatusCompleted {
		return "", ErrSessionUnfinished
	}
	total, elapsed, err := s.games.Totals(ctx, id, sessionID)
	if err != nil {
		return "", err
	}
	token, err := s.codec.Encode(Challenge{
		Seed:           session.Seed,
		GameType:       session.GameType,
		Rounds:         session.RoundCount,
		ChallengerID:   *id.UserID,
		ChallengerName: id.DisplayName,
		Score:          total,
		ElapsedSec:     elapsed,
		SessionID:      sessionID,
	})
	if err != nil {
		return "", fmt.Errorf("encode challenge: %w", err)
	}
	challengesIssued.Inc()
	return token, nil
}

// AcceptChallenge opens the opponent's side of the duel: a fresh session
// replaying the challenger's seed, so both players see the identical
// locations in the identical order.
func (s *Service) AcceptChallenge(ctx context.Context, id identity.Identity, gameType, token string) (*game.Session, error) {
	if id.IsGuest() {
		return nil, ErrAuthRequired
	}
	ch, err := s.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	if ch.GameType != gameType {
		return nil, ErrGameTypeMismatch
	}
	if ch.ChallengerID == *id.UserID {
		return nil, ErrSelfChallenge
	}
	// A reconciled challenge is spent for this opponent. Without this check
	// a losing accepter could replay the token, and the seeded rounds it
	// carries, after having seen every target.
	done, err := s.store.ChallengeReconciled(ctx, ch.SessionID, *id.UserID)
	if err != nil {
		return nil, fmt.Errorf("challenge lookup: %w", err)
	}
	if done {
		return nil, ErrAlreadyReconciled
	}
	session, err := s.games.CreateSession(ctx, id, game.CreateSessionRequest{
		GameType: ch.GameType,
		Mode:     game.ModeDuel,
		Rounds:   ch.Rounds,
		Seed:     &ch.Seed,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("session_id", session.ID.String()).
		Str("challenger_id", ch.ChallengerID.String()).
		Str("game_type", ch.GameType).
		Msg("challenge accepted")
	return session, nil
}

// Reconcile closes the duel once the accepter's session is complete. The
// winner is the higher score, ties break on lower elapsed time, and a full
// draw has no winner. The result is written exactly once.
func (s *Service) Reconcile(ctx context.Context, id identity.Identity, sessionID uuid.UUID, token string) (*Result, error) {
	if id.IsGuest() {
		return nil, ErrAuthRequired
	}
	ch, err := s.codec.Decode(token)
	if err != nil {
		return nil, err
	}
	if ch.ChallengerID == *id.UserID {
		return nil, ErrSelfChallenge
	}
	session, err := s.games.GetSession(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Mode != game.ModeDuel {
		return nil, ErrNotDuelSession
	}
	if session.Status != game.StatusCompleted {
		return nil, ErrSessionUnfinished
	}
	if session.Seed != ch.Seed {
		return nil, ErrSeedMismatch
	}
	total, elapsed, err := s.games.Totals(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}

	res := Result{
		ID:                uuid.New(),
		Seed:              ch.Seed,
		GameType:          ch.GameType,
		ChallengerID:      ch.ChallengerID,
		ChallengerSession: ch.SessionID,
		ChallengerScore:   ch.Score,
		ChallengerElapsed: ch.ElapsedSec,
		OpponentID:        *id.UserID,
		OpponentSession:   sessionID,
		OpponentScore:     total,
		OpponentElapsed:   elapsed,
		CreatedAt:         s.clock.Now(),
	}
	s.settle(ctx, &res)

	if err := s.store.InsertResult(ctx, res); err != nil {
		return nil, err
	}
	duelsReconciled.Inc()
	s.logger.Info().
		Str("duel_id", res.ID.String()).
		Str("game_type", res.GameType).
		Int("challenger_score", res.ChallengerScore).
		Int("opponent_score", res.OpponentScore).
		Msg("duel reconciled")
	return &res, nil
}

// settle fills in the winner and the point deltas. Strength lookups are
// best effort: a failed lookup means the flat base payout.
func (s *Service) settle(ctx context.Context, res *Result) {
	challengerTotal := s.strength(ctx, res.ChallengerID)
	opponentTotal := s.strength(ctx, res.OpponentID)

	switch {
	case res.ChallengerScore > res.OpponentScore,
		res.ChallengerScore == res.OpponentScore && res.ChallengerElapsed < res.OpponentElapsed:
		res.WinnerID = &res.ChallengerID
		res.ChallengerDelta = winPoints(challengerTotal, opponentTotal)
		res.OpponentDelta = lossPoints
	case res.OpponentScore > res.ChallengerScore,
		res.ChallengerScore == res.OpponentScore && res.OpponentElapsed < res.ChallengerElapsed:
		res.WinnerID = &res.OpponentID
		res.OpponentDelta = winPoints(opponentTotal, challengerTotal)
		res.ChallengerDelta = lossPoints
	default:
		res.ChallengerDelta = drawPoints
		res.OpponentDelta = drawPoints
	}
}

func (s *Service) strength(ctx context.Context, userID uuid.UUID) int64 {
	if s.rating == nil {
		return 0
	}
	total, err := s.rating.AllTimeTotal(ctx, userID)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID.String()).Msg("strength lookup failed")
		return 0
	}
	return total
}

// Result fetches a reconciled duel by id.
func (s *Service) Result(ctx context.Context, duelID uuid.UUID) (*Result, error) {
	return s.store.GetResult(ctx, duelID)
}

// History lists a user's reconciled duels, newest first.
func (s *Service) History(ctx context.Context, id identity.Identity, limit int) ([]Result, error) {
	if id.IsGuest() {
		return nil, ErrAuthRequired
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	return s.store.ListResultsForUser(ctx, *id.UserID, limit)
}
