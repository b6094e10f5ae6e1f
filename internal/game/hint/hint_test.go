package hint

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geoplay/geoquiz/internal/geo"
)

var worldBounds = geo.BoundingBox{MinLat: -60, MinLng: -180, MaxLat: 75, MaxLng: 180}

func TestGenerateDeterministic(t *testing.T) {
	target := geo.Point{Lat: 48.8566, Lng: 2.3522}
	a := Generate(target, 50, worldBounds, "session-seed:3")
	b := Generate(target, 50, worldBounds, "session-seed:3")
	assert.Equal(t, a, b)
}

func TestGenerateContainsTarget(t *testing.T) {
	targets := []geo.Point{
		{Lat: 48.8566, Lng: 2.3522},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 64.1466, Lng: -21.9426},
		{Lat: 0, Lng: 0},
	}
	for _, target := range targets {
		for i := 0; i < 20; i++ {
			c := Generate(target, 50, worldBounds, fmt.Sprintf("s:%d", i))
			assert.LessOrEqual(t, geo.DistanceKm(c.Center, target), c.RadiusKm,
				"target %v seed %d escaped its hint circle", target, i)
		}
	}
}

func TestGenerateOffCenter(t *testing.T) {
	// At least some placements must displace the center, or the hint
	// gives away the answer.
	target := geo.Point{Lat: 40, Lng: -3}
	displaced := 0
	for i := 0; i < 20; i++ {
		c := Generate(target, 100, worldBounds, fmt.Sprintf("v:%d", i))
		if geo.DistanceKm(c.Center, target) > 1 {
			displaced++
		}
	}
	assert.Greater(t, displaced, 10)
}

func TestGenerateRespectsBounds(t *testing.T) {
	// A target in a corner of a tight region still yields a circle whose
	// center stays in bounds.
	bounds := geo.BoundingBox{MinLat: 45, MinLng: 5, MaxLat: 55, MaxLng: 15}
	target := geo.Point{Lat: 45.2, Lng: 5.2}
	for i := 0; i < 10; i++ {
		c := Generate(target, 30, bounds, fmt.Sprintf("corner:%d", i))
		assert.True(t, bounds.Contains(c.Center), "center %v left bounds", c.Center)
		assert.LessOrEqual(t, geo.DistanceKm(c.Center, target), c.RadiusKm)
	}
}

func TestGenerateDefaultsRadius(t *testing.T) {
	c := Generate(geo.Point{Lat: 10, Lng: 10}, 0, worldBounds, "r")
	assert.Equal(t, 50.0, c.RadiusKm)
}
