package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geoplay/geoquiz/internal/progression"
)

// StreakRepository keeps one streak row per user.
type StreakRepository struct {
	pool *pgxpool.Pool
}

func NewStreakRepository(pool *pgxpool.Pool) *StreakRepository {
	return &StreakRepository{pool: pool}
}

var _ progression.StreakStore = (*StreakRepository)(nil)

func (r *StreakRepository) GetStreak(ctx context.Context, userID uuid.UUID) (*progression.StreakState, error) {
	const query = `
		SELECT user_id, current_streak, longest_streak, last_played
		FROM streaks
		WHERE user_id = $1
	`
	var s progression.StreakState
	err := r.pool.QueryRow(ctx, query, userID).Scan(&s.UserID, &s.Current, &s.Longest, &s.LastPlayed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get streak: %w", err)
	}
	return &s, nil
}

func (r *StreakRepository) SaveStreak(ctx context.Context, state progression.StreakState) error {
	const query = `
		INSERT INTO streaks (user_id, current_streak, longest_streak, last_played)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_played    = EXCLUDED.last_played
	`
	if _, err := r.pool.Exec(ctx, query, state.UserID, state.Current, state.Longest, state.LastPlayed); err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}
