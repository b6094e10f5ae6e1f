package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistanceKmKnownPairs(t *testing.T) {
	paris := Point{Lat: 48.8566, Lng: 2.3522}
	london := Point{Lat: 51.5074, Lng: -0.1278}
	tokyo := Point{Lat: 35.6762, Lng: 139.6503}

	assert.InDelta(t, 344, DistanceKm(paris, london), 5)
	assert.InDelta(t, 9560, DistanceKm(london, tokyo), 50)
	assert.Equal(t, 0.0, DistanceKm(paris, paris))
}

func TestDistanceKmSymmetric(t *testing.T) {
	a := Point{Lat: -33.8688, Lng: 151.2093}
	b := Point{Lat: 40.7128, Lng: -74.0060}
	assert.InDelta(t, DistanceKm(a, b), DistanceKm(b, a), 1e-9)
}

func TestDestinationRoundTrip(t *testing.T) {
	origin := Point{Lat: 52.52, Lng: 13.405}
	for _, bearing := range []float64{0, 45, 90, 180, 270} {
		dest := Destination(origin, bearing, 120)
		assert.InDelta(t, 120, DistanceKm(origin, dest), 0.5, "bearing %f", bearing)
	}
}

func TestDestinationZeroDistance(t *testing.T) {
	origin := Point{Lat: 10, Lng: 20}
	dest := Destination(origin, 90, 0)
	assert.InDelta(t, origin.Lat, dest.Lat, 1e-9)
	assert.InDelta(t, origin.Lng, dest.Lng, 1e-9)
}

func TestBoundingBoxContains(t *testing.T) {
	box := BoundingBox{MinLat: 40, MinLng: -10, MaxLat: 60, MaxLng: 30}
	assert.True(t, box.Contains(Point{Lat: 50, Lng: 0}))
	assert.False(t, box.Contains(Point{Lat: 30, Lng: 0}))
	assert.False(t, box.Contains(Point{Lat: 50, Lng: 40}))
}

func TestBoundingBoxClamp(t *testing.T) {
	box := BoundingBox{MinLat: 40, MinLng: -10, MaxLat: 60, MaxLng: 30}
	clamped := box.Clamp(Point{Lat: 70, Lng: -50})
	assert.True(t, box.Contains(clamped))
	assert.Equal(t, 60.0, clamped.Lat)
	assert.Equal(t, -10.0, clamped.Lng)

	inside := Point{Lat: 45, Lng: 5}
	assert.Equal(t, inside, box.Clamp(inside))
}

func TestBoundingBoxShrink(t *testing.T) {
	box := BoundingBox{MinLat: 0, MinLng: 0, MaxLat: 40, MaxLng: 40}
	inner := box.Shrink(111) // ~1 degree of latitude
	assert.Greater(t, inner.MinLat, box.MinLat)
	assert.Less(t, inner.MaxLat, box.MaxLat)
}
