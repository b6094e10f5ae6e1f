package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geoplay/geoquiz/internal/duel"
)

// DuelRepository stores reconciled duel results.
type DuelRepository struct {
	pool *pgxpool.Pool
}

func NewDuelRepository(pool *pgxpool.Pool) *DuelRepository {
	return &DuelRepository{pool: pool}
}

var _ duel.Store = (*DuelRepository)(nil)

// InsertResult writes the outcome exactly once. The UNIQUE constraint on
// (challenger_session, opponent_id) turns a repeat reconcile into
// duel.ErrAlreadyReconciled, even when the opponent replayed the challenge
// through a different session.
func (r *DuelRepository) InsertResult(ctx context.Context, res duel.Result) error {
	const query = `
		INSERT INTO duel_results
			(id, seed, game_type,
			 challenger_id, challenger_session, challenger_score, challenger_elapsed, challenger_delta,
			 opponent_id, opponent_session, opponent_score, opponent_elapsed, opponent_delta,
			 winner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.pool.Exec(ctx, query,
		res.ID, res.Seed, res.GameType,
		res.ChallengerID, res.ChallengerSession, res.ChallengerScore, res.ChallengerElapsed, res.ChallengerDelta,
		res.OpponentID, res.OpponentSession, res.OpponentScore, res.OpponentElapsed, res.OpponentDelta,
		res.WinnerID, res.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return duel.ErrAlreadyReconciled
		}
		return fmt.Errorf("insert duel result: %w", err)
	}
	return nil
}

func (r *DuelRepository) ChallengeReconciled(ctx context.Context, challengerSession, opponentID uuid.UUID) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM duel_results
			WHERE challenger_session = $1 AND opponent_id = $2
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, challengerSession, opponentID).Scan(&exists); err != nil {
		return false, fmt.Errorf("challenge reconciled query: %w", err)
	}
	return exists, nil
}

const duelColumns = `
	id, seed, game_type,
	challenger_id, challenger_session, challenger_score, challenger_elapsed, challenger_delta,
	opponent_id, opponent_session, opponent_score, opponent_elapsed, opponent_delta,
	winner_id, created_at
`

func scanDuel(row pgx.Row) (*duel.Result, error) {
	var res duel.Result
	err := row.Scan(
		&res.ID, &res.Seed, &res.GameType,
		&res.ChallengerID, &res.ChallengerSession, &res.ChallengerScore, &res.ChallengerElapsed, &res.ChallengerDelta,
		&res.OpponentID, &res.OpponentSession, &res.OpponentScore, &res.OpponentElapsed, &res.OpponentDelta,
		&res.WinnerID, &res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *DuelRepository) GetResult(ctx context.Context, id uuid.UUID) (*duel.Result, error) {
	query := `SELECT ` + duelColumns + ` FROM duel_results WHERE id = $1`
	res, err := scanDuel(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get duel result: %w", err)
	}
	return res, nil
}

func (r *DuelRepository) ListResultsForUser(ctx context.Context, userID uuid.UUID, limit int) ([]duel.Result, error) {
	query := `
		SELECT ` + duelColumns + `
		FROM duel_results
		WHERE challenger_id = $1 OR opponent_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list duel results: %w", err)
	}
	defer rows.Close()

	var out []duel.Result
	for rows.Next() {
		res, err := scanDuel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan duel result: %w", err)
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}
