// Package geo implements the great-circle math behind park proximity search.
package geo

import (
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used for all distance calculations.
const EarthRadiusKm = 6371.0

// boxMarginDeg widens bounding boxes slightly so floating-point error never
// drops a point that the exact distance check would keep.
const boxMarginDeg = 1e-6

type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether p is a real coordinate on the globe.
func (p Point) Valid() bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// Distance returns the haversine distance between a and b in kilometers.
// The longitude difference wraps at the antimeridian, so the result is
// always the shortest path.
func Distance(a, b Point) float64 {
	phi1 := toRadians(a.Latitude)
	phi2 := toRadians(b.Latitude)
	dPhi := phi2 - phi1
	dLambda := toRadians(math.Remainder(b.Longitude-a.Longitude, 360))

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)
	h := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// Rounding can push h just outside [0, 1] near the poles and antipodes.
	h = math.Max(0, math.Min(1, h))

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Bounds is a latitude/longitude rectangle. When SouthWest.Longitude is
// greater than NorthEast.Longitude the rectangle crosses the antimeridian.
type Bounds struct {
	NorthEast Point `json:"north_east"`
	SouthWest Point `json:"south_west"`
}

func (b Bounds) Valid() bool {
	if !b.NorthEast.Valid() || !b.SouthWest.Valid() {
		return false
	}
	return b.SouthWest.Latitude <= b.NorthEast.Latitude
}

func (b Bounds) CrossesAntimeridian() bool {
	return b.SouthWest.Longitude > b.NorthEast.Longitude
}

// Contains reports whether p lies inside b. Invalid bounds contain nothing.
func (b Bounds) Contains(p Point) bool {
	if !b.Valid() || !p.Valid() {
		return false
	}
	if p.Latitude < b.SouthWest.Latitude || p.Latitude > b.NorthEast.Latitude {
		return false
	}
	if b.CrossesAntimeridian() {
		return p.Longitude >= b.SouthWest.Longitude || p.Longitude <= b.NorthEast.Longitude
	}
	return p.Longitude >= b.SouthWest.Longitude && p.Longitude <= b.NorthEast.Longitude
}

// BoundingBox returns a rectangle that contains every point within radiusKm
// of center. Circles that reach a pole get the full longitude range; circles
// that straddle the antimeridian come back as a crossing rectangle.
func BoundingBox(center Point, radiusKm float64) Bounds {
	if radiusKm < 0 || math.IsNaN(radiusKm) {
		radiusKm = 0
	}
	angular := radiusKm / EarthRadiusKm
	lat := toRadians(center.Latitude)
	lng := toRadians(center.Longitude)

	minLat := lat - angular
	maxLat := lat + angular

	if minLat <= -math.Pi/2 || maxLat >= math.Pi/2 {
		return Bounds{
			SouthWest: Point{Latitude: math.Max(toDegrees(minLat)-boxMarginDeg, -90), Longitude: -180},
			NorthEast: Point{Latitude: math.Min(toDegrees(maxLat)+boxMarginDeg, 90), Longitude: 180},
		}
	}

	dLng := math.Asin(math.Sin(angular) / math.Cos(lat))
	minLng := toDegrees(lng-dLng) - boxMarginDeg
	maxLng := toDegrees(lng+dLng) + boxMarginDeg
	if minLng < -180 {
		minLng += 360
	}
	if maxLng > 180 {
		maxLng -= 360
	}

	return Bounds{
		SouthWest: Point{Latitude: toDegrees(minLat) - boxMarginDeg, Longitude: minLng},
		NorthEast: Point{Latitude: toDegrees(maxLat) + boxMarginDeg, Longitude: maxLng},
	}
}

// Candidate is a located item considered by FilterNearby.
type Candidate struct {
	ID    int64
	Point Point
}

// Hit is a candidate that fell inside the search radius.
type Hit struct {
	ID         int64
	DistanceKm float64
}

// FilterNearby keeps the candidates within radiusKm of center and orders
// them by distance, then by id. A radius at or below zero keeps only
// candidates sitting exactly on center. An invalid center yields nothing.
func FilterNearby(center Point, radiusKm float64, candidates []Candidate) []Hit {
	hits := []Hit{}
	if !center.Valid() || math.IsNaN(radiusKm) {
		return hits
	}
	if radiusKm < 0 {
		radiusKm = 0
	}

	for _, c := range candidates {
		if !c.Point.Valid() {
			continue
		}
		d := Distance(center, c.Point)
		if d <= radiusKm {
			hits = append(hits, Hit{ID: c.ID, DistanceKm: d})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].DistanceKm != hits[j].DistanceKm {
			return hits[i].DistanceKm < hits[j].DistanceKm
		}
		return hits[i].ID < hits[j].ID
	})
	return hits
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
