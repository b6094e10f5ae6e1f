// Package geo provides great-circle math used by scoring and hint placement.
package geo

import "math"

// EarthRadiusKm is the mean earth radius used for all distance math.
const EarthRadiusKm = 6371.0

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// BoundingBox is an axis-aligned lat/lng region.
type BoundingBox struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Contains reports whether p lies inside the box (inclusive).
func (b BoundingBox) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat && p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// Clamp returns p moved to the nearest point inside the box.
func (b BoundingBox) Clamp(p Point) Point {
	return Point{
		Lat: math.Min(math.Max(p.Lat, b.MinLat), b.MaxLat),
		Lng: math.Min(math.Max(p.Lng, b.MinLng), b.MaxLng),
	}
}

// Shrink returns the box with a margin of km trimmed from every edge.
// Collapses to the center line when the margin exceeds the box size.
func (b BoundingBox) Shrink(km float64) BoundingBox {
	latMargin := km / 111.0
	midLat := (b.MinLat + b.MaxLat) / 2
	lngMargin := km / (111.0 * math.Max(math.Cos(midLat*math.Pi/180), 0.01))

	out := BoundingBox{
		MinLat: b.MinLat + latMargin,
		MaxLat: b.MaxLat - latMargin,
		MinLng: b.MinLng + lngMargin,
		MaxLng: b.MaxLng - lngMargin,
	}
	if out.MinLat > out.MaxLat {
		out.MinLat = midLat
		out.MaxLat = midLat
	}
	if out.MinLng > out.MaxLng {
		mid := (b.MinLng + b.MaxLng) / 2
		out.MinLng = mid
		out.MaxLng = mid
	}
	return out
}

// DistanceKm computes the haversine great-circle distance between a and b.
func DistanceKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Destination returns the point reached from origin after travelling
// distanceKm along the initial bearing (degrees clockwise from north).
func Destination(origin Point, bearingDeg, distanceKm float64) Point {
	lat1 := origin.Lat * math.Pi / 180
	lng1 := origin.Lng * math.Pi / 180
	brng := bearingDeg * math.Pi / 180
	d := distanceKm / EarthRadiusKm

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brng))
	lng2 := lng1 + math.Atan2(
		math.Sin(brng)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
	)

	// Normalize longitude to [-180, 180).
	lngDeg := math.Mod(lng2*180/math.Pi+540, 360) - 180
	return Point{Lat: lat2 * 180 / math.Pi, Lng: lngDeg}
}
