// Package catalog resolves game-type configuration and supplies candidate
// location pools. One catalog family per game-type namespace: country-bounded,
// world-category, and panorama-imagery locations.
package catalog

import (
	"github.com/google/uuid"

	"github.com/geoplay/geoquiz/internal/geo"
)

// Location source families; a round's location is resolved from exactly one.
const (
	SourceCountry  = "country"
	SourceWorld    = "world"
	SourcePanorama = "panorama"
)

// Location is one candidate target from a catalog.
type Location struct {
	ID      uuid.UUID `json:"id"`
	Source  string    `json:"source"`
	Name    string    `json:"name"`
	Point   geo.Point `json:"point"`
	Imagery *Imagery  `json:"imagery,omitempty"` // panorama rounds only
}

// Imagery references street-level imagery for panorama rounds. The key and
// camera orientation follow the same disclosure rules as coordinates.
type Imagery struct {
	Key     string  `json:"key"`
	Heading float64 `json:"heading"`
	Pitch   float64 `json:"pitch"`
}

// Config is the single normalized game-type configuration record. Callers
// never learn whether a field came from the static defaults or the database.
type Config struct {
	GameType      string          `json:"game_type"`
	Source        string          `json:"source"`
	ScaleFactorKm float64         `json:"scale_factor_km"`
	Bounds        geo.BoundingBox `json:"bounds"`
	DefaultRounds int             `json:"default_rounds"`
	TimeLimitSec  *int            `json:"time_limit_sec,omitempty"` // nil = untimed
	HintRadiusKm  float64         `json:"hint_radius_km"`
	Active        bool            `json:"active"`
}
