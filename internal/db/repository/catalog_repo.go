package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geoplay/geoquiz/internal/catalog"
)

// CatalogRepository reads game-type configuration and location pools.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

var _ catalog.Store = (*CatalogRepository)(nil)

// GetGameType returns the stored config row, nil when the game type is not
// seeded. Zero-valued columns are gaps the catalog service fills from the
// family defaults.
func (r *CatalogRepository) GetGameType(ctx context.Context, gameType string) (*catalog.Config, error) {
	const query = `
		SELECT game_type, source, scale_factor_km,
		       bounds_min_lat, bounds_min_lng, bounds_max_lat, bounds_max_lng,
		       default_rounds, time_limit_sec, hint_radius_km, active
		FROM game_types
		WHERE game_type = $1
	`
	var cfg catalog.Config
	err := r.pool.QueryRow(ctx, query, gameType).Scan(
		&cfg.GameType, &cfg.Source, &cfg.ScaleFactorKm,
		&cfg.Bounds.MinLat, &cfg.Bounds.MinLng, &cfg.Bounds.MaxLat, &cfg.Bounds.MaxLng,
		&cfg.DefaultRounds, &cfg.TimeLimitSec, &cfg.HintRadiusKm, &cfg.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get game type: %w", err)
	}
	return &cfg, nil
}

func (r *CatalogRepository) ListLocations(ctx context.Context, source, gameType string) ([]catalog.Location, error) {
	const query = `
		SELECT id, source, name, latitude, longitude,
		       imagery_key, imagery_heading, imagery_pitch
		FROM locations
		WHERE source = $1 AND game_type = $2
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, source, gameType)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []catalog.Location
	for rows.Next() {
		var loc catalog.Location
		var imageryKey *string
		var imgHeading, imgPitch *float64
		err := rows.Scan(
			&loc.ID, &loc.Source, &loc.Name, &loc.Point.Lat, &loc.Point.Lng,
			&imageryKey, &imgHeading, &imgPitch,
		)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		if imageryKey != nil {
			loc.Imagery = &catalog.Imagery{Key: *imageryKey}
			if imgHeading != nil {
				loc.Imagery.Heading = *imgHeading
			}
			if imgPitch != nil {
				loc.Imagery.Pitch = *imgPitch
			}
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}
