// Package hint places "search circle" hints around round targets.
package hint

import (
	"github.com/geoplay/geoquiz/internal/game/seed"
	"github.com/geoplay/geoquiz/internal/geo"
)

// Circle is a hint area guaranteed to contain the target.
type Circle struct {
	Center   geo.Point `json:"center"`
	RadiusKm float64   `json:"radius_km"`
}

// maxOffsetRatio keeps the target comfortably inside the circle: the center
// is displaced at most this fraction of the radius away from the target.
const maxOffsetRatio = 0.6

// Generate places a circle of radiusKm around target, displaced by a
// seed-determined offset so the target is not always dead center, then
// constrained to keep the whole circle inside bounds. The same seed always
// yields the same placement.
func Generate(target geo.Point, radiusKm float64, bounds geo.BoundingBox, s string) Circle {
	if radiusKm <= 0 {
		radiusKm = 50
	}

	bearing := seed.Float64(s, 0) * 360
	offset := seed.Float64(s, 1) * radiusKm * maxOffsetRatio

	center := geo.Destination(target, bearing, offset)

	// Keep the full circle inside the region; if the region is smaller than
	// the circle, Shrink collapses toward its center line and the clamp
	// degrades gracefully.
	inner := bounds.Shrink(radiusKm)
	center = inner.Clamp(center)

	// Never let the clamp push the target outside the circle.
	if geo.DistanceKm(center, target) > radiusKm*maxOffsetRatio {
		center = target
	}

	return Circle{Center: center, RadiusKm: radiusKm}
}
