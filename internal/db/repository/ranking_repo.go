package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geoplay/geoquiz/internal/ranking"
)

// RankingRepository stores leaderboard aggregates. Postgres is the source of
// truth; the Redis mirror in the ranking service is derived from these rows.
type RankingRepository struct {
	pool *pgxpool.Pool
}

func NewRankingRepository(pool *pgxpool.Pool) *RankingRepository {
	return &RankingRepository{pool: pool}
}

var _ ranking.Store = (*RankingRepository)(nil)

// FoldGame applies one completed game to the (user, game_type, period)
// aggregate with an upsert, so the fold is atomic under concurrent
// completions. average_score is always total_score / game_count, recomputed
// from the folded totals rather than kept as a drifting running mean.
// achieved_at moves forward on every fold because the total only ever grows.
func (r *RankingRepository) FoldGame(ctx context.Context, userID uuid.UUID, displayName, gameType, period string, gameScore int, at time.Time) (ranking.Entry, error) {
	const query = `
		INSERT INTO ranking_entries
			(user_id, display_name, game_type, period, total_score, game_count,
			 best_score, average_score, updated_at, achieved_at)
		VALUES ($1, $2, $3, $4, $5, 1, $5, $5, $6, $6)
		ON CONFLICT (user_id, game_type, period) DO UPDATE SET
			display_name  = EXCLUDED.display_name,
			total_score   = ranking_entries.total_score + EXCLUDED.total_score,
			game_count    = ranking_entries.game_count + 1,
			best_score    = GREATEST(ranking_entries.best_score, EXCLUDED.best_score),
			average_score = (ranking_entries.total_score + EXCLUDED.total_score)::double precision
					/ (ranking_entries.game_count + 1),
			updated_at    = EXCLUDED.updated_at,
			achieved_at   = EXCLUDED.achieved_at
		RETURNING user_id, display_name, game_type, period, total_score,
			game_count, best_score, average_score, updated_at, achieved_at
	`
	var e ranking.Entry
	err := r.pool.QueryRow(ctx, query, userID, displayName, gameType, period, gameScore, at).Scan(
		&e.UserID, &e.DisplayName, &e.GameType, &e.Period, &e.TotalScore,
		&e.GameCount, &e.BestScore, &e.AverageScore, &e.UpdatedAt, &e.AchievedAt,
	)
	if err != nil {
		return ranking.Entry{}, fmt.Errorf("fold game: %w", err)
	}
	return e, nil
}

const entryColumns = `
	user_id, display_name, game_type, period, total_score,
	game_count, best_score, average_score, updated_at, achieved_at
`

func scanEntry(row pgx.Row) (*ranking.Entry, error) {
	var e ranking.Entry
	err := row.Scan(
		&e.UserID, &e.DisplayName, &e.GameType, &e.Period, &e.TotalScore,
		&e.GameCount, &e.BestScore, &e.AverageScore, &e.UpdatedAt, &e.AchievedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *RankingRepository) GetEntry(ctx context.Context, userID uuid.UUID, gameType, period string) (*ranking.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ranking_entries WHERE user_id = $1 AND game_type = $2 AND period = $3`
	e, err := scanEntry(r.pool.QueryRow(ctx, query, userID, gameType, period))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// Rank counts strictly better entries. Equal totals rank by whoever reached
// the total first. The caller's own entry is resolved first so a player with
// no entry in the bucket comes back unranked instead of rank 1.
func (r *RankingRepository) Rank(ctx context.Context, userID uuid.UUID, gameType, period string) (int, bool, error) {
	mine, err := r.GetEntry(ctx, userID, gameType, period)
	if err != nil {
		return 0, false, err
	}
	if mine == nil {
		return 0, false, nil
	}

	const query = `
		SELECT COUNT(*)
		FROM ranking_entries
		WHERE game_type = $1 AND period = $2
		  AND (total_score > $3
		       OR (total_score = $3 AND achieved_at < $4))
	`
	var better int
	if err := r.pool.QueryRow(ctx, query, gameType, period, mine.TotalScore, mine.AchievedAt).Scan(&better); err != nil {
		return 0, false, fmt.Errorf("rank query: %w", err)
	}
	return better + 1, true, nil
}

func (r *RankingRepository) Top(ctx context.Context, gameType, period string, limit int) ([]ranking.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ranking_entries
		WHERE game_type = $1 AND period = $2
		ORDER BY total_score DESC, achieved_at ASC
		LIMIT $3
	`
	rows, err := r.pool.Query(ctx, query, gameType, period, limit)
	if err != nil {
		return nil, fmt.Errorf("top query: %w", err)
	}
	defer rows.Close()

	var out []ranking.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ListCompletedGames replays completed sessions of authenticated players,
// oldest first, with totals recomputed from the stored guesses. Guest
// sessions never rank and are excluded here.
func (r *RankingRepository) ListCompletedGames(ctx context.Context) ([]ranking.CompletedGame, error) {
	const query = `
		SELECT s.owner_key, s.owner_name, s.game_type,
		       COALESCE(SUM(g.score), 0), s.completed_at
		FROM game_sessions s
		JOIN guesses g ON g.session_id = s.id AND g.user_key = s.owner_key
		WHERE s.status = 'completed' AND s.owner_key LIKE 'user:%'
		GROUP BY s.id
		ORDER BY s.completed_at ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list completed games: %w", err)
	}
	defer rows.Close()

	var out []ranking.CompletedGame
	for rows.Next() {
		var (
			ownerKey string
			cg       ranking.CompletedGame
			total    int64
		)
		if err := rows.Scan(&ownerKey, &cg.DisplayName, &cg.GameType, &total, &cg.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan completed game: %w", err)
		}
		userID, err := uuid.Parse(ownerKey[len("user:"):])
		if err != nil {
			return nil, fmt.Errorf("parse owner key %q: %w", ownerKey, err)
		}
		cg.UserID = userID
		cg.TotalScore = int(total)
		out = append(out, cg)
	}
	return out, rows.Err()
}

func (r *RankingRepository) DeleteAllEntries(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM ranking_entries`); err != nil {
		return fmt.Errorf("delete entries: %w", err)
	}
	return nil
}
