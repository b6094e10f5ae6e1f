package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/geoplay/geoquiz/internal/geo"
)

type stubStore struct {
	configs   map[string]*Config
	locations map[string][]Location
	listCalls int
}

func (s *stubStore) GetGameType(_ context.Context, gameType string) (*Config, error) {
	return s.configs[gameType], nil
}

func (s *stubStore) ListLocations(_ context.Context, _, gameType string) ([]Location, error) {
	s.listCalls++
	return s.locations[gameType], nil
}

type memPoolCache struct {
	store map[string][]Location
}

func (c *memPoolCache) Get(_ context.Context, gameType string) ([]Location, error) {
	return c.store[gameType], nil
}

func (c *memPoolCache) Set(_ context.Context, gameType string, pool []Location) error {
	c.store[gameType] = pool
	return nil
}

func someLocations(n int) []Location {
	out := make([]Location, n)
	for i := range out {
		out[i] = Location{
			ID:     uuid.New(),
			Source: SourceCountry,
			Name:   "place",
			Point:  geo.Point{Lat: float64(i), Lng: float64(i)},
		}
	}
	return out
}

func TestResolveConfigMergesDefaults(t *testing.T) {
	store := &stubStore{configs: map[string]*Config{
		// Row with only the scale factor set; everything else comes from
		// the country family defaults.
		"country:de": {GameType: "country:de", ScaleFactorKm: 80, Active: true},
	}}
	svc := NewService(store, nil, zerolog.Nop())

	cfg, err := svc.ResolveConfig(context.Background(), "country:de")
	assert.NoError(t, err)
	assert.Equal(t, 80.0, cfg.ScaleFactorKm)
	assert.Equal(t, SourceCountry, cfg.Source)
	assert.Equal(t, 5, cfg.DefaultRounds)
	assert.Equal(t, 50.0, cfg.HintRadiusKm)
}

func TestResolveConfigUnknownFamily(t *testing.T) {
	svc := NewService(&stubStore{configs: map[string]*Config{}}, nil, zerolog.Nop())

	_, err := svc.ResolveConfig(context.Background(), "moon:craters")
	assert.True(t, errors.Is(err, ErrUnknownGameType))

	_, err = svc.ResolveConfig(context.Background(), "no-colon")
	assert.True(t, errors.Is(err, ErrUnknownGameType))
}

func TestResolveConfigUnseededGameType(t *testing.T) {
	svc := NewService(&stubStore{configs: map[string]*Config{}}, nil, zerolog.Nop())

	_, err := svc.ResolveConfig(context.Background(), "country:xx")
	assert.True(t, errors.Is(err, ErrUnknownGameType))
}

func TestResolveConfigInactive(t *testing.T) {
	store := &stubStore{configs: map[string]*Config{
		"country:us": {GameType: "country:us", Active: false},
	}}
	svc := NewService(store, nil, zerolog.Nop())

	_, err := svc.ResolveConfig(context.Background(), "country:us")
	assert.True(t, errors.Is(err, ErrInactiveGameType))
}

func TestPoolReadThroughCache(t *testing.T) {
	store := &stubStore{
		configs:   map[string]*Config{"country:us": {GameType: "country:us", Active: true}},
		locations: map[string][]Location{"country:us": someLocations(8)},
	}
	cache := &memPoolCache{store: map[string][]Location{}}
	svc := NewService(store, cache, zerolog.Nop())

	cfg, err := svc.ResolveConfig(context.Background(), "country:us")
	assert.NoError(t, err)

	first, err := svc.Pool(context.Background(), cfg)
	assert.NoError(t, err)
	assert.Len(t, first, 8)
	assert.Equal(t, 1, store.listCalls)

	second, err := svc.Pool(context.Background(), cfg)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.listCalls, "second read must come from cache")
}

func TestPoolEmpty(t *testing.T) {
	store := &stubStore{
		configs:   map[string]*Config{"world:capitals": {GameType: "world:capitals", Active: true}},
		locations: map[string][]Location{},
	}
	svc := NewService(store, nil, zerolog.Nop())

	cfg, err := svc.ResolveConfig(context.Background(), "world:capitals")
	assert.NoError(t, err)

	_, err = svc.Pool(context.Background(), cfg)
	assert.True(t, errors.Is(err, ErrEmptyPool))
}
