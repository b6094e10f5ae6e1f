package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/geoplay/geoquiz/internal/geo"
)

// Errors surfaced to session creation.
var (
	ErrUnknownGameType  = errors.New("unknown game type")
	ErrInactiveGameType = errors.New("game type is not active")
	ErrEmptyPool        = errors.New("no locations for game type")
)

// Store is the persistent side of the catalog.
type Store interface {
	// GetGameType returns the stored config row, or nil when none exists.
	GetGameType(ctx context.Context, gameType string) (*Config, error)
	// ListLocations returns the candidate pool for a game type.
	ListLocations(ctx context.Context, source, gameType string) ([]Location, error)
}

// PoolCache is an optional read-through cache for location pools.
type PoolCache interface {
	Get(ctx context.Context, gameType string) ([]Location, error)
	Set(ctx context.Context, gameType string, pool []Location) error
}

// familyDefaults is the static fallback table per source family. A database
// row overrides any of these; the table only fills gaps.
var familyDefaults = map[string]Config{
	SourceCountry: {
		Source:        SourceCountry,
		ScaleFactorKm: 100,
		Bounds:        geo.BoundingBox{MinLat: -60, MinLng: -180, MaxLat: 75, MaxLng: 180},
		DefaultRounds: 5,
		HintRadiusKm:  50,
		Active:        true,
	},
	SourceWorld: {
		Source:        SourceWorld,
		ScaleFactorKm: 2000,
		Bounds:        geo.BoundingBox{MinLat: -60, MinLng: -180, MaxLat: 75, MaxLng: 180},
		DefaultRounds: 5,
		HintRadiusKm:  500,
		Active:        true,
	},
	SourcePanorama: {
		Source:        SourcePanorama,
		ScaleFactorKm: 500,
		Bounds:        geo.BoundingBox{MinLat: -60, MinLng: -180, MaxLat: 75, MaxLng: 180},
		DefaultRounds: 5,
		HintRadiusKm:  200,
		Active:        true,
	},
}

// Service resolves game-type configuration and location pools.
type Service struct {
	store  Store
	cache  PoolCache
	logger zerolog.Logger
}

// NewService builds a catalog service; cache may be nil.
func NewService(store Store, cache PoolCache, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// ResolveConfig merges the static family defaults with the stored game-type
// row into one normalized record. Unknown or inactive game types are
// validation errors raised before any session state is created.
func (s *Service) ResolveConfig(ctx context.Context, gameType string) (Config, error) {
	family, _, ok := strings.Cut(gameType, ":")
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownGameType, gameType)
	}
	defaults, ok := familyDefaults[family]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownGameType, gameType)
	}

	stored, err := s.store.GetGameType(ctx, gameType)
	if err != nil {
		return Config{}, fmt.Errorf("load game type %q: %w", gameType, err)
	}
	if stored == nil {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownGameType, gameType)
	}

	cfg := *stored
	cfg.GameType = gameType
	if cfg.Source == "" {
		cfg.Source = defaults.Source
	}
	if cfg.ScaleFactorKm <= 0 {
		cfg.ScaleFactorKm = defaults.ScaleFactorKm
	}
	if cfg.Bounds == (geo.BoundingBox{}) {
		cfg.Bounds = defaults.Bounds
	}
	if cfg.DefaultRounds <= 0 {
		cfg.DefaultRounds = defaults.DefaultRounds
	}
	if cfg.HintRadiusKm <= 0 {
		cfg.HintRadiusKm = defaults.HintRadiusKm
	}

	if !cfg.Active {
		return Config{}, fmt.Errorf("%w: %q", ErrInactiveGameType, gameType)
	}
	return cfg, nil
}

// Pool returns the candidate locations for a resolved config, read-through
// cached when a cache is configured.
func (s *Service) Pool(ctx context.Context, cfg Config) ([]Location, error) {
	if s.cache != nil {
		pool, err := s.cache.Get(ctx, cfg.GameType)
		if err != nil {
			s.logger.Warn().Err(err).Str("game_type", cfg.GameType).Msg("pool cache read failed")
		} else if pool != nil {
			return pool, nil
		}
	}

	pool, err := s.store.ListLocations(ctx, cfg.Source, cfg.GameType)
	if err != nil {
		return nil, fmt.Errorf("list locations for %q: %w", cfg.GameType, err)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyPool, cfg.GameType)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cfg.GameType, pool); err != nil {
			s.logger.Warn().Err(err).Str("game_type", cfg.GameType).Msg("pool cache write failed")
		}
	}
	return pool, nil
}
