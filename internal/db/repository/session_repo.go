// Package repository provides the pgx-backed persistence layer.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geoplay/geoquiz/internal/catalog"
	"github.com/geoplay/geoquiz/internal/game"
	"github.com/geoplay/geoquiz/internal/geo"
)

const pgUniqueViolation = "23505"

// SessionRepository persists sessions, rounds and guesses.
type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

var _ game.Store = (*SessionRepository)(nil)

// CreateSession writes the session row and all its rounds in one
// transaction. Round order is the creation order and never changes.
func (r *SessionRepository) CreateSession(ctx context.Context, s game.Session, rounds []game.Round) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertSession = `
		INSERT INTO game_sessions
			(id, owner_key, owner_name, mode, game_type, status, scoring_version,
			 round_count, time_limit_sec, active_round_index, seed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, insertSession,
		s.ID, s.OwnerKey, s.OwnerName, s.Mode, s.GameType, s.Status, s.ScoringVersion,
		s.RoundCount, s.TimeLimitSec, s.ActiveRoundIndex, s.Seed, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	const insertRound = `
		INSERT INTO rounds
			(session_id, round_no, position, location_id, game_type_override, time_limit_override)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, rd := range rounds {
		_, err = tx.Exec(ctx, insertRound,
			rd.SessionID, rd.RoundNo, rd.Position, rd.Location.ID,
			rd.GameTypeOverride, rd.TimeLimitOverride,
		)
		if err != nil {
			return fmt.Errorf("insert round %d: %w", rd.RoundNo, err)
		}
	}

	return tx.Commit(ctx)
}

const sessionColumns = `
	id, owner_key, owner_name, mode, game_type, status, scoring_version,
	round_count, time_limit_sec, active_round_index, seed, created_at, completed_at
`

func scanSession(row pgx.Row) (*game.Session, error) {
	var s game.Session
	err := row.Scan(
		&s.ID, &s.OwnerKey, &s.OwnerName, &s.Mode, &s.GameType, &s.Status,
		&s.ScoringVersion, &s.RoundCount, &s.TimeLimitSec, &s.ActiveRoundIndex,
		&s.Seed, &s.CreatedAt, &s.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrSessionNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) GetSession(ctx context.Context, id uuid.UUID) (*game.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM game_sessions WHERE id = $1`
	return scanSession(r.pool.QueryRow(ctx, query, id))
}

const roundQuery = `
	SELECT r.session_id, r.round_no, r.position, r.game_type_override,
	       r.time_limit_override, r.started_at,
	       l.id, l.source, l.name, l.latitude, l.longitude,
	       l.imagery_key, l.imagery_heading, l.imagery_pitch
	FROM rounds r
	JOIN locations l ON l.id = r.location_id
`

func scanRound(row pgx.Row) (*game.Round, error) {
	var rd game.Round
	var imageryKey *string
	var imgHeading, imgPitch *float64
	err := row.Scan(
		&rd.SessionID, &rd.RoundNo, &rd.Position, &rd.GameTypeOverride,
		&rd.TimeLimitOverride, &rd.StartedAt,
		&rd.Location.ID, &rd.Location.Source, &rd.Location.Name,
		&rd.Location.Point.Lat, &rd.Location.Point.Lng,
		&imageryKey, &imgHeading, &imgPitch,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, game.ErrRoundNotFound
		}
		return nil, fmt.Errorf("scan round: %w", err)
	}
	if imageryKey != nil {
		rd.Location.Imagery = &catalog.Imagery{Key: *imageryKey}
		if imgHeading != nil {
			rd.Location.Imagery.Heading = *imgHeading
		}
		if imgPitch != nil {
			rd.Location.Imagery.Pitch = *imgPitch
		}
	}
	return &rd, nil
}

func (r *SessionRepository) GetRound(ctx context.Context, sessionID uuid.UUID, roundNo int) (*game.Round, error) {
	query := roundQuery + ` WHERE r.session_id = $1 AND r.round_no = $2`
	return scanRound(r.pool.QueryRow(ctx, query, sessionID, roundNo))
}

func (r *SessionRepository) ListRounds(ctx context.Context, sessionID uuid.UUID) ([]game.Round, error) {
	query := roundQuery + ` WHERE r.session_id = $1 ORDER BY r.position`
	rows, err := r.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}
	defer rows.Close()

	var out []game.Round
	for rows.Next() {
		rd, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rd)
	}
	return out, rows.Err()
}

// StartRound stamps started_at only when it is still null, then reads back
// whichever value won. Concurrent starts therefore agree on one timestamp.
func (r *SessionRepository) StartRound(ctx context.Context, sessionID uuid.UUID, roundNo int, at time.Time) (time.Time, error) {
	const stamp = `
		UPDATE rounds
		SET started_at = $3
		WHERE session_id = $1 AND round_no = $2 AND started_at IS NULL
	`
	if _, err := r.pool.Exec(ctx, stamp, sessionID, roundNo, at); err != nil {
		return time.Time{}, fmt.Errorf("stamp round start: %w", err)
	}

	const read = `SELECT started_at FROM rounds WHERE session_id = $1 AND round_no = $2`
	var started *time.Time
	if err := r.pool.QueryRow(ctx, read, sessionID, roundNo).Scan(&started); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, game.ErrRoundNotFound
		}
		return time.Time{}, fmt.Errorf("read round start: %w", err)
	}
	if started == nil {
		return time.Time{}, game.ErrRoundNotStarted
	}
	return *started, nil
}

// InsertGuess relies on the UNIQUE (session_id, round_no, user_key)
// constraint: a second guess for the same round surfaces as
// game.ErrRoundAlreadyAnswered and the stored guess stays the first one.
func (r *SessionRepository) InsertGuess(ctx context.Context, g game.Guess) error {
	const query = `
		INSERT INTO guesses
			(session_id, round_no, user_key, latitude, longitude,
			 distance_km, elapsed_sec, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		g.SessionID, g.RoundNo, g.UserKey, g.Point.Lat, g.Point.Lng,
		g.DistanceKm, g.ElapsedSec, g.Score, g.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return game.ErrRoundAlreadyAnswered
		}
		return fmt.Errorf("insert guess: %w", err)
	}
	return nil
}

const guessColumns = `
	session_id, round_no, user_key, latitude, longitude,
	distance_km, elapsed_sec, score, created_at
`

func scanGuess(row pgx.Row) (*game.Guess, error) {
	var g game.Guess
	var pt geo.Point
	err := row.Scan(
		&g.SessionID, &g.RoundNo, &g.UserKey, &pt.Lat, &pt.Lng,
		&g.DistanceKm, &g.ElapsedSec, &g.Score, &g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.Point = pt
	return &g, nil
}

func (r *SessionRepository) GetGuess(ctx context.Context, sessionID uuid.UUID, roundNo int, userKey string) (*game.Guess, error) {
	query := `SELECT ` + guessColumns + ` FROM guesses WHERE session_id = $1 AND round_no = $2 AND user_key = $3`
	g, err := scanGuess(r.pool.QueryRow(ctx, query, sessionID, roundNo, userKey))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get guess: %w", err)
	}
	return g, nil
}

func (r *SessionRepository) ListGuesses(ctx context.Context, sessionID uuid.UUID, userKey string) ([]game.Guess, error) {
	query := `SELECT ` + guessColumns + ` FROM guesses WHERE session_id = $1 AND user_key = $2 ORDER BY round_no`
	rows, err := r.pool.Query(ctx, query, sessionID, userKey)
	if err != nil {
		return nil, fmt.Errorf("list guesses: %w", err)
	}
	defer rows.Close()

	var out []game.Guess
	for rows.Next() {
		g, err := scanGuess(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guess: %w", err)
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

// CompleteSession is a conditional transition: the WHERE clause makes sure
// only one caller ever flips the status.
func (r *SessionRepository) CompleteSession(ctx context.Context, sessionID uuid.UUID, at time.Time) (bool, error) {
	const query = `
		UPDATE game_sessions
		SET status = $3, completed_at = $2
		WHERE id = $1 AND status = $4
	`
	tag, err := r.pool.Exec(ctx, query, sessionID, at, game.StatusCompleted, game.StatusActive)
	if err != nil {
		return false, fmt.Errorf("complete session: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *SessionRepository) SetActiveRound(ctx context.Context, sessionID uuid.UUID, index int) error {
	const query = `UPDATE game_sessions SET active_round_index = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, sessionID, index)
	if err != nil {
		return fmt.Errorf("set active round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return game.ErrSessionNotFound
	}
	return nil
}
