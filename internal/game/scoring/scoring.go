// Package scoring maps guess distance and response time to point values
// under versioned, immutable strategies. Sessions pin a version at creation
// and must re-score identically forever, so strategies are only ever added
// to the registry, never changed.
package scoring

import "math"

// Strategy versions.
const (
	VersionDistance = 1 // distance decay only
	VersionTimed    = 2 // distance decay with time multiplier
)

// DefaultVersion is pinned onto newly created sessions.
const DefaultVersion = VersionTimed

// MaxDistanceScore is the score for a perfect guess before any time bonus.
const MaxDistanceScore = 100

// Strategy converts one guess into points.
type Strategy interface {
	Version() int
	// Score computes points for a guess distanceKm from the target.
	// elapsedSec is nil when the client never reported timing; scaleFactor
	// is the distance (km) at which a guess earns ~37% of maximum.
	Score(distanceKm float64, elapsedSec *float64, scaleFactor float64) int
}

// registry is closed and append-only: historical sessions depend on every
// entry staying exactly as shipped.
var registry = map[int]Strategy{
	VersionDistance: distanceStrategy{},
	VersionTimed:    timedStrategy{},
}

// Lookup returns the strategy for version, falling back to the distance-only
// strategy for unknown versions. The fallback is documented recoverable
// behavior, not an error.
func Lookup(version int) Strategy {
	if s, ok := registry[version]; ok {
		return s
	}
	return registry[VersionDistance]
}

// Score is a convenience wrapper around Lookup.
func Score(version int, distanceKm float64, elapsedSec *float64, scaleFactor float64) int {
	return Lookup(version).Score(distanceKm, elapsedSec, scaleFactor)
}

// distanceBase returns the unrounded exponential-decay score.
func distanceBase(distanceKm, scaleFactor float64) float64 {
	if distanceKm < 0 {
		distanceKm = 0
	}
	if scaleFactor <= 0 {
		scaleFactor = 1
	}
	return MaxDistanceScore * math.Exp(-distanceKm/scaleFactor)
}

type distanceStrategy struct{}

func (distanceStrategy) Version() int { return VersionDistance }

// Score ignores elapsed time entirely, even when supplied.
func (distanceStrategy) Score(distanceKm float64, _ *float64, scaleFactor float64) int {
	return int(math.Round(distanceBase(distanceKm, scaleFactor)))
}

type timedStrategy struct{}

func (timedStrategy) Version() int { return VersionTimed }

// Score multiplies the distance score by a time bonus that saturates at 3x
// for near-instant answers and decays toward 1x. Missing or negative elapsed
// time means exactly no bonus. Rounding happens once, at the end.
func (timedStrategy) Score(distanceKm float64, elapsedSec *float64, scaleFactor float64) int {
	base := distanceBase(distanceKm, scaleFactor)
	multiplier := 1.0
	if elapsedSec != nil && *elapsedSec >= 0 {
		multiplier = 1 + math.Min(2.0, 3/(*elapsedSec+0.1))
	}
	return int(math.Round(base * multiplier))
}
