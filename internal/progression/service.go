package progression

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/geoplay/geoquiz/pkg/clock"
)

// StreakStore persists one streak row per user.
type StreakStore interface {
	GetStreak(ctx context.Context, userID uuid.UUID) (*StreakState, error)
	SaveStreak(ctx context.Context, state StreakState) error
}

// Service mutates streak state once per calendar day of play.
type Service struct {
	store  StreakStore
	clock  clock.Clock
	logger zerolog.Logger
}

// NewService constructs the progression service.
func NewService(store StreakStore, clk clock.Clock, logger zerolog.Logger) *Service {
	if clk == nil {
		clk = clock.System()
	}
	return &Service{
		store:  store,
		clock:  clk,
		logger: logger.With().Str("component", "progression").Logger(),
	}
}

// RecordPlay folds today's play into the user's streak and returns the
// resulting state. Playing again on the same day is a silent no-op.
func (s *Service) RecordPlay(ctx context.Context, userID uuid.UUID) (StreakState, error) {
	existing, err := s.store.GetStreak(ctx, userID)
	if err != nil {
		return StreakState{}, fmt.Errorf("load streak: %w", err)
	}

	state := StreakState{UserID: userID}
	if existing != nil {
		state = *existing
	}

	updated, changed := ApplyPlay(state, s.clock.Now())
	if !changed {
		return updated, nil
	}

	if err := s.store.SaveStreak(ctx, updated); err != nil {
		return StreakState{}, fmt.Errorf("save streak: %w", err)
	}

	s.logger.Info().
		Str("user_id", userID.String()).
		Int("current", updated.Current).
		Int("longest", updated.Longest).
		Msg("streak updated")

	return updated, nil
}

// Streak returns the user's current streak state, zero-valued when the user
// has never played.
func (s *Service) Streak(ctx context.Context, userID uuid.UUID) (StreakState, error) {
	existing, err := s.store.GetStreak(ctx, userID)
	if err != nil {
		return StreakState{}, fmt.Errorf("load streak: %w", err)
	}
	if existing == nil {
		return StreakState{UserID: userID}, nil
	}
	return *existing, nil
}
